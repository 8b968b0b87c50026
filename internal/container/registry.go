package container

import (
	"slices"
	"sync"

	"github.com/danpasecinic/loom/internal/definition"
	"github.com/danpasecinic/loom/internal/errs"
)

// Registry stores definitions by name in registration order. Registering a
// name again replaces its definition and keeps its position.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	definitions map[string]*definition.Definition
	aliases     map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*definition.Definition),
		aliases:     make(map[string]string),
	}
}

func (r *Registry) Register(name string, def *definition.Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[name]; !exists {
		r.order = append(r.order, name)
	}
	r.definitions[name] = def
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[name]; !exists {
		return
	}
	delete(r.definitions, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
}

func (r *Registry) Alias(name, alias string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.aliases[alias] = name
}

// Canonical follows aliases until it reaches a name that is not an alias.
func (r *Registry) Canonical(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	for !seen[name] {
		seen[name] = true
		target, ok := r.aliases[name]
		if !ok {
			return name
		}
		name = target
	}
	return name
}

func (r *Registry) Aliases(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var aliases []string
	for alias, target := range r.aliases {
		if target == name {
			aliases = append(aliases, alias)
		}
	}
	slices.Sort(aliases)
	return aliases
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.definitions[name]
	return exists
}

func (r *Registry) Get(name string) (*definition.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.definitions[name]
	if !exists {
		return nil, errs.Undefined(name)
	}
	return def, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.definitions)
}
