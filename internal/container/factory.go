package container

import (
	"sync"

	"github.com/danpasecinic/loom/internal/capability"
	"github.com/danpasecinic/loom/internal/errs"
)

// nullObject marks a factory that legitimately produced nil.
var nullObject = &struct{ name string }{name: "null"}

type factoryObjectCache struct {
	mu      sync.RWMutex
	objects map[string]any
}

func newFactoryObjectCache() *factoryObjectCache {
	return &factoryObjectCache{
		objects: make(map[string]any),
	}
}

func (f *factoryObjectCache) get(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	obj, ok := f.objects[name]
	if obj == nullObject {
		return nil, ok
	}
	return obj, ok
}

func (f *factoryObjectCache) putIfAbsent(name string, obj any) any {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.objects[name]; ok {
		if existing == nullObject {
			return nil
		}
		return existing
	}
	if obj == nil {
		f.objects[name] = nullObject
	} else {
		f.objects[name] = obj
	}
	return obj
}

func (f *factoryObjectCache) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects = make(map[string]any)
}

// objectFor returns what callers of name receive. Plain components are
// returned as they are; factory components are replaced by their product,
// computed once when both the factory and its component are shared.
func (f *factoryObjectCache) objectFor(obj any, name string, shared bool) (any, error) {
	fc, ok := obj.(capability.FactoryComponent)
	if !ok {
		return obj, nil
	}

	cacheable := shared && fc.IsSingleton()
	if cacheable {
		if cached, ok := f.get(name); ok {
			return cached, nil
		}
	}

	product, err := fc.Object()
	if err != nil {
		return nil, errs.FactoryObject(name, err)
	}
	if cacheable {
		return f.putIfAbsent(name, product), nil
	}
	return product, nil
}
