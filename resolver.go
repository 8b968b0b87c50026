package loom

import (
	"context"
	"reflect"

	"github.com/danpasecinic/loom/internal/errs"
)

// Get returns the component called name as a T.
func Get[T any](ctx context.Context, c *Container, name string, args ...any) (T, error) {
	var zero T

	obj, err := c.GetComponent(ctx, name, args...)
	if err != nil {
		return zero, err
	}

	typed, ok := obj.(T)
	if !ok {
		return zero, errs.TypeMismatch(name, reflect.TypeFor[T](), reflect.TypeOf(obj))
	}
	return typed, nil
}

func MustGet[T any](ctx context.Context, c *Container, name string, args ...any) T {
	v, err := Get[T](ctx, c, name, args...)
	if err != nil {
		panic(err)
	}
	return v
}

func TryGet[T any](ctx context.Context, c *Container, name string) (T, bool) {
	v, err := Get[T](ctx, c, name)
	return v, err == nil
}

// ComponentsOf builds every component assignable to T. Components whose
// exposed object is not a T, such as the product of a factory, are left out.
func ComponentsOf[T any](ctx context.Context, c *Container) (map[string]T, error) {
	all, err := c.ComponentsOfType(ctx, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}

	out := make(map[string]T, len(all))
	for name, obj := range all {
		if typed, ok := obj.(T); ok {
			out[name] = typed
		}
	}
	return out, nil
}
