package aop

import (
	"context"
	"reflect"

	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

// Invocation is one intercepted call. Interceptors continue the call with
// Proceed; an interceptor that never calls it short-circuits the method.
type Invocation interface {
	// Context returns the call's context.Context argument, or
	// context.Background when the method takes none.
	Context() context.Context
	// SetContext replaces the context passed on to the rest of the chain.
	SetContext(ctx context.Context)
	Method() reflect.Method
	Arguments() []any
	Target() any
	// Proceed runs the next interceptor or, at the end of the chain, the
	// target method. The error is the method's trailing error result.
	Proceed() ([]any, error)
}

type Interceptor interface {
	Invoke(inv Invocation) ([]any, error)
}

type InterceptorFunc func(inv Invocation) ([]any, error)

func (f InterceptorFunc) Invoke(inv Invocation) ([]any, error) {
	return f(inv)
}

// Before runs fn ahead of the call. An error from fn stops the call.
func Before(fn func(inv Invocation) error) Interceptor {
	return InterceptorFunc(func(inv Invocation) ([]any, error) {
		if err := fn(inv); err != nil {
			return nil, err
		}
		return inv.Proceed()
	})
}

// AfterReturning runs fn with the results of every call that did not fail.
func AfterReturning(fn func(inv Invocation, results []any)) Interceptor {
	return InterceptorFunc(func(inv Invocation) ([]any, error) {
		out, err := inv.Proceed()
		if err == nil {
			fn(inv, out)
		}
		return out, err
	})
}

// Chain runs interceptors in order as a single interceptor, for advisors
// that take one piece of advice.
func Chain(interceptors ...Interceptor) Interceptor {
	return InterceptorFunc(func(inv Invocation) ([]any, error) {
		return chained{Invocation: inv, rest: interceptors}.Proceed()
	})
}

type chained struct {
	Invocation
	rest []Interceptor
}

func (c chained) Proceed() ([]any, error) {
	if len(c.rest) == 0 {
		return c.Invocation.Proceed()
	}
	return c.rest[0].Invoke(chained{Invocation: c.Invocation, rest: c.rest[1:]})
}

var contextType = reflect.TypeFor[context.Context]()

type call struct {
	ctx      context.Context
	ctxIndex int
	method   reflect.Method
	args     []any
	target   reflect.Value
	chain    []Interceptor
}

// invocation is the view of a call handed to the interceptor at pos-1. Each
// interceptor gets its own view, so calling Proceed twice runs the rest of
// the chain twice.
type invocation struct {
	*call
	pos int
}

func newInvocation(target reflect.Value, m reflect.Method, args []any, chain []Interceptor) *invocation {
	c := &call{
		ctx:      context.Background(),
		ctxIndex: -1,
		method:   m,
		args:     args,
		target:   target,
		chain:    chain,
	}
	for i, pt := range reflectutil.In(m) {
		if pt != contextType || i >= len(args) {
			continue
		}
		if ctx, ok := args[i].(context.Context); ok {
			c.ctx = ctx
		}
		c.ctxIndex = i
		break
	}
	return &invocation{call: c}
}

func (i *invocation) Context() context.Context {
	return i.ctx
}

func (i *invocation) SetContext(ctx context.Context) {
	i.ctx = ctx
	if i.ctxIndex >= 0 {
		i.args[i.ctxIndex] = ctx
	}
}

func (i *invocation) Method() reflect.Method {
	return i.method
}

func (i *invocation) Arguments() []any {
	return i.args
}

func (i *invocation) Target() any {
	return i.target.Interface()
}

func (i *invocation) Proceed() ([]any, error) {
	if i.pos >= len(i.chain) {
		return invokeTarget(i.target, i.method, i.args)
	}
	next := &invocation{call: i.call, pos: i.pos + 1}
	return i.chain[i.pos].Invoke(next)
}
