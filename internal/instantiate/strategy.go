// Package instantiate turns a definition and constructor arguments into a raw
// component instance.
package instantiate

import (
	"fmt"
	"reflect"

	"github.com/danpasecinic/loom/internal/definition"
	"github.com/danpasecinic/loom/internal/errs"
	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

var errorType = reflect.TypeFor[error]()

type Strategy interface {
	Instantiate(def *definition.Definition, name string, args []any) (any, error)
}

// Direct calls the first declared constructor whose arity matches the
// arguments. Without arguments and without a zero-arity constructor it
// allocates the definition's type.
type Direct struct{}

func (Direct) Instantiate(def *definition.Definition, name string, args []any) (any, error) {
	for i, ctor := range def.Constructors {
		fn := reflect.ValueOf(ctor)
		if fn.Kind() != reflect.Func {
			return nil, fmt.Errorf("constructor %d of %q is %T, not a func", i, name, ctor)
		}
		if fn.Type().NumIn() == len(args) {
			return call(fn, args)
		}
	}

	if len(args) > 0 {
		return nil, errs.NoMatchingConstructor(name, def.Type, len(args))
	}

	obj, ok := allocate(def.Type)
	if !ok {
		return nil, errs.NoMatchingConstructor(name, def.Type, 0)
	}
	return obj, nil
}

func call(fn reflect.Value, args []any) (any, error) {
	ft := fn.Type()
	if err := checkResults(ft); err != nil {
		return nil, err
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	in, err := reflectutil.Args(params, args)
	if err != nil {
		return nil, err
	}

	var out []reflect.Value
	if ft.IsVariadic() {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}

	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	obj := out[0].Interface()
	if reflectutil.IsNil(obj) {
		return nil, fmt.Errorf("constructor %v returned nil", ft)
	}
	return obj, nil
}

func checkResults(ft reflect.Type) error {
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
		return nil
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		return nil
	default:
		return fmt.Errorf("constructor %v must return T or (T, error)", ft)
	}
}

func allocate(t reflect.Type) (any, bool) {
	if t == nil {
		return nil, false
	}
	switch t.Kind() {
	case reflect.Ptr:
		return reflect.New(t.Elem()).Interface(), true
	case reflect.Struct:
		return reflect.New(t).Interface(), true
	case reflect.Map:
		return reflect.MakeMap(t).Interface(), true
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0).Interface(), true
	case reflect.Chan:
		return reflect.MakeChan(t, 0).Interface(), true
	case reflect.Interface, reflect.Func:
		return nil, false
	default:
		return reflect.New(t).Elem().Interface(), true
	}
}
