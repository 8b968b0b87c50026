package loom

import (
	"reflect"

	"github.com/danpasecinic/loom/internal/definition"
)

type (
	Definition     = definition.Definition
	Reference      = definition.Reference
	PropertyValue  = definition.PropertyValue
	PropertyValues = definition.PropertyValues
)

type DefinitionOption func(*Definition)

// Define describes how to build a component of type t. Without constructors
// a pointer or struct type is allocated with new and a map or slice with make.
func Define(t reflect.Type, opts ...DefinitionOption) *Definition {
	def := definition.New(t)
	for _, opt := range opts {
		opt(def)
	}
	return def
}

func DefineType[T any](opts ...DefinitionOption) *Definition {
	return Define(reflect.TypeFor[T](), opts...)
}

func Ref(name string) Reference {
	return Reference{Name: name}
}

// WithConstructor declares constructor funcs returning T or (T, error).
// Explicit arguments select the first one whose arity matches.
func WithConstructor(fns ...any) DefinitionOption {
	return func(def *Definition) {
		def.Constructors = append(def.Constructors, fns...)
	}
}

// WithProperty assigns a literal. Strings are converted to the property's
// type when they are not directly assignable, so "10001" fills an int and
// "5s" a time.Duration.
func WithProperty(name string, value any) DefinitionOption {
	return func(def *Definition) {
		def.Properties.Add(name, value)
	}
}

// WithReference fills property name with the component registered under
// component. The component is resolved when the owner is populated.
func WithReference(name, component string) DefinitionOption {
	return func(def *Definition) {
		def.Properties.Add(name, Ref(component))
	}
}

func WithScope(s Scope) DefinitionOption {
	return func(def *Definition) {
		def.Scope = s
	}
}

func WithInitMethod(name string) DefinitionOption {
	return func(def *Definition) {
		def.InitMethod = name
	}
}

func WithDestroyMethod(name string) DefinitionOption {
	return func(def *Definition) {
		def.DestroyMethod = name
	}
}
