package container

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/danpasecinic/loom/internal/capability"
	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

type processorChain struct {
	mu   sync.RWMutex
	list []capability.InitProcessor
}

// add appends p, first dropping an identical registration so that adding a
// processor again moves it to the end.
func (p *processorChain) add(proc capability.InitProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.list = slices.DeleteFunc(p.list, func(existing capability.InitProcessor) bool {
		return identical(existing, proc)
	})
	p.list = append(p.list, proc)
}

func (p *processorChain) snapshot() []capability.InitProcessor {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.list)
}

func (p *processorChain) len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.list)
}

func (c *Container) beforeInstantiation(ctx context.Context, t reflect.Type, name string) (any, error) {
	for _, proc := range c.processors.snapshot() {
		ip, ok := proc.(capability.InstantiationProcessor)
		if !ok {
			continue
		}
		obj, err := ip.BeforeInstantiation(ctx, t, name)
		if err != nil {
			return nil, err
		}
		if !reflectutil.IsNil(obj) {
			return obj, nil
		}
	}
	return nil, nil
}

func (c *Container) beforeInitialization(ctx context.Context, obj any, name string) (any, error) {
	current := obj
	for _, proc := range c.processors.snapshot() {
		next, err := proc.BeforeInitialization(ctx, current, name)
		if err != nil {
			return nil, err
		}
		current = c.substitute(current, next, name, "before-initialization")
	}
	return current, nil
}

func (c *Container) afterInitialization(ctx context.Context, obj any, name string) (any, error) {
	current := obj
	for _, proc := range c.processors.snapshot() {
		next, err := proc.AfterInitialization(ctx, current, name)
		if err != nil {
			return nil, err
		}
		current = c.substitute(current, next, name, "after-initialization")
	}
	return current, nil
}

// substitute keeps current when a processor returns nil.
func (c *Container) substitute(current, next any, name, phase string) any {
	if reflectutil.IsNil(next) {
		return current
	}
	if !identical(current, next) {
		c.logSubstitution(name, phase, next)
	}
	return next
}

func identical(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}
