// Package definition holds the blueprint types the container builds components from.
package definition

import (
	"reflect"
	"slices"
)

type Scope int

const (
	Singleton Scope = iota
	NonShared
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case NonShared:
		return "non-shared"
	default:
		return "unknown"
	}
}

// Reference points at another component by name. It is resolved when the
// owning component is populated, never earlier.
type Reference struct {
	Name string
}

type PropertyValue struct {
	Name  string
	Value any
}

// PropertyValues keeps assignments in the order they were added. A later
// value for the same name overrides an earlier one.
type PropertyValues struct {
	values []PropertyValue
}

func (p *PropertyValues) Add(name string, value any) {
	p.values = append(p.values, PropertyValue{Name: name, Value: value})
}

func (p *PropertyValues) Get(name string) (PropertyValue, bool) {
	for i := len(p.values) - 1; i >= 0; i-- {
		if p.values[i].Name == name {
			return p.values[i], true
		}
	}
	return PropertyValue{}, false
}

// All returns the effective assignments: one per name, positioned where the
// name first appeared, carrying the last value added for it.
func (p *PropertyValues) All() []PropertyValue {
	index := make(map[string]int, len(p.values))
	out := make([]PropertyValue, 0, len(p.values))
	for _, pv := range p.values {
		if i, ok := index[pv.Name]; ok {
			out[i] = pv
			continue
		}
		index[pv.Name] = len(out)
		out = append(out, pv)
	}
	return out
}

func (p *PropertyValues) Len() int {
	return len(p.All())
}

// References lists the component names referenced by property values.
func (p *PropertyValues) References() []string {
	var refs []string
	for _, pv := range p.All() {
		if ref, ok := pv.Value.(Reference); ok && !slices.Contains(refs, ref.Name) {
			refs = append(refs, ref.Name)
		}
	}
	return refs
}

type Definition struct {
	Type          reflect.Type
	Constructors  []any
	Properties    PropertyValues
	Scope         Scope
	InitMethod    string
	DestroyMethod string
}

func New(t reflect.Type) *Definition {
	return &Definition{Type: t}
}

func (d *Definition) IsSingleton() bool {
	return d.Scope == Singleton
}

func (d *Definition) IsNonShared() bool {
	return d.Scope == NonShared
}
