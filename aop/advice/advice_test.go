package advice_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/loom/aop"
)

var errUnavailable = errors.New("greeter unavailable")

type Greeter interface {
	Greet(ctx context.Context, name string) (string, error)
}

type greeter struct {
	fail  bool
	calls atomic.Int32
	ctx   context.Context
}

func (g *greeter) Greet(ctx context.Context, name string) (string, error) {
	g.calls.Add(1)
	g.ctx = ctx
	if g.fail {
		return "", errUnavailable
	}
	return "hello " + name, nil
}

type greeterProxy struct {
	aop.Stub
}

func (p greeterProxy) Greet(ctx context.Context, name string) (string, error) {
	out := p.Invoke("Greet", ctx, name)
	return aop.Result[string](out, 0), aop.Error(out)
}

func advise(t *testing.T, target *greeter, interceptors ...aop.Interceptor) Greeter {
	t.Helper()

	stubs := aop.NewStubs()
	aop.RegisterInterface(stubs, func(s aop.Stub) Greeter { return greeterProxy{Stub: s} })

	proxy, err := aop.NewProxyFactory(stubs, &aop.AdvisedSupport{
		Target:       target,
		Interceptors: interceptors,
	}).Proxy()
	require.NoError(t, err)
	return proxy.(Greeter)
}
