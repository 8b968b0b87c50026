package aop

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

var (
	ErrNoProxyStub = errors.New("aop: no proxy stub registered")
	ErrNoTarget    = errors.New("aop: proxy target is nil")
)

// AdvisedSupport describes one proxy: the target, the interceptors to run
// and the methods they apply to. A nil MethodMatcher selects every method.
type AdvisedSupport struct {
	Target          any
	Interceptors    []Interceptor
	MethodMatcher   MethodMatcher
	ProxyTargetType bool

	interfaces []reflect.Type
}

// matches reports whether m of t is advised, either directly or through one
// of the stubbed interfaces t implements.
func (a *AdvisedSupport) matches(m reflect.Method, t reflect.Type) bool {
	if a.MethodMatcher == nil {
		return true
	}
	if a.MethodMatcher.MatchesMethod(m, t) {
		return true
	}
	for _, iface := range a.interfaces {
		if im, ok := iface.MethodByName(m.Name); ok && a.MethodMatcher.MatchesMethod(im, iface) {
			return true
		}
	}
	return false
}

type interfaceStub struct {
	iface reflect.Type
	build func(Stub) any
}

type typeStub func(target any, stub Stub) any

// Stubs holds the proxy types a ProxyFactory can build from. Interface
// stubs implement an interface by forwarding to a Stub; type stubs embed
// their target and override the methods that may be intercepted, so every
// other method is promoted from the target unchanged.
type Stubs struct {
	mu         sync.RWMutex
	interfaces []interfaceStub
	types      map[reflect.Type]typeStub
}

func NewStubs() *Stubs {
	return &Stubs{
		types: make(map[reflect.Type]typeStub),
	}
}

// RegisterInterface registers the proxy for interface I. When a target
// implements several stubbed interfaces, the one registered first is used.
func RegisterInterface[I any](s *Stubs, build func(Stub) I) {
	iface := reflect.TypeFor[I]()
	if iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("aop: RegisterInterface needs an interface type, got %v", iface))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.interfaces = slices.DeleteFunc(s.interfaces, func(is interfaceStub) bool {
		return is.iface == iface
	})
	s.interfaces = append(s.interfaces, interfaceStub{
		iface: iface,
		build: func(stub Stub) any { return build(stub) },
	})
}

// RegisterType registers the proxy for targets of type T.
func RegisterType[T any](s *Stubs, build func(target T, stub Stub) any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.types[reflect.TypeFor[T]()] = func(target any, stub Stub) any {
		return build(target.(T), stub)
	}
}

// Interfaces lists the stubbed interfaces t implements, in registration
// order.
func (s *Stubs) Interfaces(t reflect.Type) []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []reflect.Type
	for _, is := range s.interfaces {
		if t.Implements(is.iface) {
			out = append(out, is.iface)
		}
	}
	return out
}

func (s *Stubs) interfaceStub(iface reflect.Type) (interfaceStub, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, is := range s.interfaces {
		if is.iface == iface {
			return is, true
		}
	}
	return interfaceStub{}, false
}

func (s *Stubs) typeStub(t reflect.Type) (typeStub, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	build, ok := s.types[t]
	return build, ok
}

// Subclass wraps target in its type stub with a pass-through handler. A
// ProxyFactory given the result later advises that handler in place. It
// reports false when no type stub is registered for target's type.
func (s *Stubs) Subclass(target any) (any, bool) {
	if target == nil {
		return nil, false
	}
	build, ok := s.typeStub(reflect.TypeOf(target))
	if !ok {
		return nil, false
	}
	return build(target, Stub{h: newHandler(target, nil)}), true
}

type ProxyFactory struct {
	stubs   *Stubs
	advised *AdvisedSupport
}

func NewProxyFactory(stubs *Stubs, advised *AdvisedSupport) *ProxyFactory {
	return &ProxyFactory{stubs: stubs, advised: advised}
}

// Proxy builds the proxy. A target already built from a type stub is
// advised in place and returned as is. Otherwise a type stub is used when
// ProxyTargetType is set or the target implements no stubbed interface, and
// an interface stub in every other case.
func (f *ProxyFactory) Proxy() (any, error) {
	if f.advised == nil || f.advised.Target == nil {
		return nil, ErrNoTarget
	}
	if f.stubs == nil {
		return nil, ErrNoProxyStub
	}

	if h, ok := HandlerOf(f.advised.Target); ok {
		advised := f.withTarget(h.Target())
		h.advise(advised)
		return f.advised.Target, nil
	}

	target := f.advised.Target
	t := reflect.TypeOf(target)
	advised := f.withTarget(target)

	if f.advised.ProxyTargetType || len(advised.interfaces) == 0 {
		if build, ok := f.stubs.typeStub(t); ok {
			return build(target, Stub{h: newHandler(target, advised)}), nil
		}
	}

	for _, iface := range advised.interfaces {
		if is, ok := f.stubs.interfaceStub(iface); ok {
			return is.build(Stub{h: newHandler(target, advised)}), nil
		}
	}

	return nil, fmt.Errorf("%w for %v", ErrNoProxyStub, t)
}

func (f *ProxyFactory) withTarget(target any) *AdvisedSupport {
	advised := *f.advised
	advised.Target = target
	advised.Interceptors = slices.Clone(f.advised.Interceptors)
	advised.interfaces = f.stubs.Interfaces(reflect.TypeOf(target))
	return &advised
}
