package container

import (
	"context"
	"slices"
	"sync"

	"github.com/danpasecinic/loom/internal/capability"
	"github.com/danpasecinic/loom/internal/definition"
	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

type SingletonStore struct {
	mu        sync.RWMutex
	order     []string
	instances map[string]any
}

func NewSingletonStore() *SingletonStore {
	return &SingletonStore{
		instances: make(map[string]any),
	}
}

func (s *SingletonStore) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.instances[name]
	return obj, ok
}

func (s *SingletonStore) Put(name string, obj any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[name]; !exists {
		s.order = append(s.order, name)
	}
	s.instances[name] = obj
}

// PutIfAbsent stores obj unless name is already cached and returns whichever
// object ends up cached, reporting whether it was obj.
func (s *SingletonStore) PutIfAbsent(name string, obj any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.instances[name]; exists {
		return existing, false
	}
	s.order = append(s.order, name)
	s.instances[name] = obj
	return obj, true
}

func (s *SingletonStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.order)
}

func (s *SingletonStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.instances = make(map[string]any)
}

type DisposeFunc func(ctx context.Context) error

type disposal struct {
	name    string
	dispose DisposeFunc
}

// DisposalRegistry remembers teardown handles in registration order.
type DisposalRegistry struct {
	mu      sync.Mutex
	entries []disposal
}

func NewDisposalRegistry() *DisposalRegistry {
	return &DisposalRegistry{}
}

func (d *DisposalRegistry) Register(name string, fn DisposeFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.entries {
		if e.name == name {
			return
		}
	}
	d.entries = append(d.entries, disposal{name: name, dispose: fn})
}

// Pop removes and returns the most recently registered handle.
func (d *DisposalRegistry) Pop() (string, DisposeFunc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.entries) == 0 {
		return "", nil, false
	}
	last := d.entries[len(d.entries)-1]
	d.entries = d.entries[:len(d.entries)-1]
	return last.name, last.dispose, true
}

func (d *DisposalRegistry) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.name
	}
	return names
}

// disposerFor builds the teardown handle for obj, or reports false when it
// has nothing to tear down. A destroy method called Destroy on a Disposable
// runs once.
func disposerFor(obj any, def *definition.Definition) (DisposeFunc, bool) {
	d, disposable := obj.(capability.Disposable)
	method := def.DestroyMethod
	if disposable && method == "Destroy" {
		method = ""
	}
	if !disposable && method == "" {
		return nil, false
	}

	return func(ctx context.Context) error {
		if disposable {
			if err := d.Destroy(); err != nil {
				return err
			}
		}
		if method != "" {
			return reflectutil.CallLifecycle(ctx, obj, method)
		}
		return nil
	}, true
}
