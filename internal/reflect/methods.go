package reflect

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

var (
	errorType   = reflect.TypeFor[error]()
	contextType = reflect.TypeFor[context.Context]()
)

type methodKey struct {
	t    reflect.Type
	name string
}

type methodEntry struct {
	method reflect.Method
	ok     bool
}

var methodCache sync.Map

// MethodByName looks up an exported method in t's method set, caching the
// result per type.
func MethodByName(t reflect.Type, name string) (reflect.Method, bool) {
	key := methodKey{t: t, name: name}
	if cached, ok := methodCache.Load(key); ok {
		entry := cached.(methodEntry)
		return entry.method, entry.ok
	}

	m, ok := t.MethodByName(name)
	methodCache.Store(key, methodEntry{method: m, ok: ok})
	return m, ok
}

// In returns the parameter types of m without the receiver.
func In(m reflect.Method) []reflect.Type {
	ft := m.Type
	start := 0
	if m.Func.IsValid() {
		start = 1
	}
	params := make([]reflect.Type, 0, ft.NumIn()-start)
	for i := start; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	return params
}

func Out(m reflect.Method) []reflect.Type {
	ft := m.Type
	results := make([]reflect.Type, ft.NumOut())
	for i := range results {
		results[i] = ft.Out(i)
	}
	return results
}

func ReturnsError(m reflect.Method) bool {
	n := m.Type.NumOut()
	return n > 0 && m.Type.Out(n-1) == errorType
}

// Args converts args into call arguments for params. A nil argument becomes
// the parameter's zero value; convertible values are converted. Variadic
// parameters are passed as one slice argument and called with CallSlice.
func Args(params []reflect.Type, args []any) ([]reflect.Value, error) {
	if len(args) != len(params) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(params), len(args))
	}

	values := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := Arg(params[i], arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func Arg(pt reflect.Type, arg any) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(pt), nil
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(pt):
		return v, nil
	case v.Type().ConvertibleTo(pt):
		return v.Convert(pt), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %v as %v", v.Type(), pt)
	}
}

// Interfaces turns call results into plain values; nil interfaces stay nil.
func Interfaces(values []reflect.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v.IsValid() && v.CanInterface() {
			out[i] = v.Interface()
		}
	}
	return out
}

// CallLifecycle invokes a named no-argument lifecycle method on obj. The
// method may take nothing or a context.Context and may return nothing or an
// error.
func CallLifecycle(ctx context.Context, obj any, name string) error {
	rv := reflect.ValueOf(obj)
	m, ok := MethodByName(rv.Type(), name)
	if !ok {
		return fmt.Errorf("no method named %q on %v", name, rv.Type())
	}

	params := In(m)
	var args []reflect.Value
	switch {
	case len(params) == 0:
	case len(params) == 1 && params[0] == contextType:
		if ctx == nil {
			ctx = context.Background()
		}
		args = []reflect.Value{reflect.ValueOf(ctx)}
	default:
		return fmt.Errorf("method %q on %v must take no arguments or a context.Context", name, rv.Type())
	}

	results := rv.Method(m.Index).Call(args)
	if ReturnsError(m) {
		if err, _ := results[len(results)-1].Interface().(error); err != nil {
			return err
		}
	}
	return nil
}
