// Package capability declares the optional interfaces a component can
// implement to take part in its own lifecycle, and the interfaces the
// container exposes back to it.
package capability

import (
	"context"
	"reflect"

	"github.com/danpasecinic/loom/internal/definition"
)

// FactoryPrefix asks for a factory component itself rather than the object
// it produces.
const FactoryPrefix = "&"

type Initializer interface {
	Initialize() error
}

type Disposable interface {
	Destroy() error
}

// FactoryComponent produces the object callers receive in its place.
type FactoryComponent interface {
	Object() (any, error)
	IsSingleton() bool
}

type NameAware interface {
	SetComponentName(name string)
}

type FactoryAware interface {
	SetComponentFactory(f Factory)
}

type ContextAware interface {
	SetContext(c Context)
}

type Factory interface {
	GetComponent(ctx context.Context, name string, args ...any) (any, error)
	ContainsDefinition(name string) bool
	DefinitionNames() []string
	Definition(name string) (*definition.Definition, error)
	ComponentsOfType(ctx context.Context, t reflect.Type) (map[string]any, error)

	// Instantiate builds and populates a fresh instance of name's definition
	// without running processors, init hooks or caching it.
	Instantiate(ctx context.Context, name string, args ...any) (any, error)
}

type Context interface {
	Factory
	PreInstantiateAll(ctx context.Context) error
	AddProcessor(p InitProcessor)
}

type DefinitionRegistry interface {
	Register(name string, def *definition.Definition)
	RemoveDefinition(name string)
	ContainsDefinition(name string) bool
	DefinitionNames() []string
	Definition(name string) (*definition.Definition, error)
}

// InitProcessor runs around the init hooks of every component. Returning a
// nil object keeps the current one.
type InitProcessor interface {
	BeforeInitialization(ctx context.Context, obj any, name string) (any, error)
	AfterInitialization(ctx context.Context, obj any, name string) (any, error)
}

// InstantiationProcessor may return a substitute before a component is
// instantiated. A non-nil result skips population and init hooks; only
// after-initialization processors still see it.
type InstantiationProcessor interface {
	InitProcessor
	BeforeInstantiation(ctx context.Context, t reflect.Type, name string) (any, error)
}

// DefinitionProcessor may rewrite definitions before any component is built.
type DefinitionProcessor interface {
	ProcessDefinitions(ctx context.Context, registry DefinitionRegistry) error
}
