package aop

import (
	"fmt"
	"reflect"
	"sync"

	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

// Handler routes the calls of one proxy. Methods selected by its advice run
// through the interceptor chain; every other method is called on the target
// directly.
type Handler struct {
	target reflect.Value

	mu      sync.RWMutex
	advised *AdvisedSupport
}

func newHandler(target any, advised *AdvisedSupport) *Handler {
	return &Handler{target: reflect.ValueOf(target), advised: advised}
}

func (h *Handler) Target() any {
	return h.target.Interface()
}

// Advised reports the advice currently applied, or nil for a pass-through
// handler.
func (h *Handler) Advised() *AdvisedSupport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.advised
}

func (h *Handler) advise(a *AdvisedSupport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.advised = a
}

// Invoke calls method on the target with args and returns its results. An
// interceptor error becomes the trailing error result of methods that have
// one. For methods without an error result Invoke panics with it.
func (h *Handler) Invoke(method string, args ...any) []any {
	m, ok := reflectutil.MethodByName(h.target.Type(), method)
	if !ok {
		panic(fmt.Sprintf("aop: %v has no method %s", h.target.Type(), method))
	}

	advised := h.Advised()
	if advised == nil || !advised.matches(m, h.target.Type()) {
		out, err := invokeTarget(h.target, m, args)
		if err != nil && out == nil {
			panic(err)
		}
		return out
	}

	out, err := newInvocation(h.target, m, args, advised.Interceptors).Proceed()
	return complete(m, out, err)
}

// invokeTarget calls m on target. A non-nil result slice comes with the
// method's own trailing error; a nil slice means the call could not be made.
func invokeTarget(target reflect.Value, m reflect.Method, args []any) ([]any, error) {
	in, err := reflectutil.Args(reflectutil.In(m), args)
	if err != nil {
		return nil, fmt.Errorf("aop: calling %s: %w", m.Name, err)
	}

	fn := target.Method(m.Index)
	var values []reflect.Value
	if m.Type.IsVariadic() {
		values = fn.CallSlice(in)
	} else {
		values = fn.Call(in)
	}

	out := reflectutil.Interfaces(values)
	return out, Error(out)
}

// complete shapes what the chain returned into m's results.
func complete(m reflect.Method, out []any, err error) []any {
	n := m.Type.NumOut()
	if len(out) != n {
		shaped := make([]any, n)
		copy(shaped, out)
		out = shaped
	}
	if err == nil {
		return out
	}
	if !reflectutil.ReturnsError(m) {
		panic(err)
	}
	out[n-1] = err
	return out
}

// Result returns the i-th result as a T, or the zero T when it is nil.
func Result[T any](out []any, i int) T {
	var zero T
	if i >= len(out) || out[i] == nil {
		return zero
	}
	return out[i].(T)
}

// Error returns the trailing error result, if any.
func Error(out []any) error {
	if len(out) == 0 {
		return nil
	}
	err, _ := out[len(out)-1].(error)
	return err
}

// Stub is embedded by proxy types written for a Stubs registry. Each proxy
// method forwards to Invoke with its own name and arguments:
//
//	type userServiceStub struct{ aop.Stub }
//
//	func (s userServiceStub) QueryInfo(ctx context.Context, id string) (string, error) {
//		out := s.Invoke("QueryInfo", ctx, id)
//		return aop.Result[string](out, 0), aop.Error(out)
//	}
type Stub struct {
	h *Handler
}

func (s Stub) Invoke(method string, args ...any) []any {
	return s.h.Invoke(method, args...)
}

func (s Stub) ProxyHandler() *Handler {
	return s.h
}

type proxied interface {
	ProxyHandler() *Handler
}

// HandlerOf returns the handler behind a proxy built from a stub.
func HandlerOf(obj any) (*Handler, bool) {
	p, ok := obj.(proxied)
	if !ok || p.ProxyHandler() == nil {
		return nil, false
	}
	return p.ProxyHandler(), true
}
