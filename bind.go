package loom

import (
	"context"
	"reflect"

	"github.com/danpasecinic/loom/internal/errs"
)

type Decorator[T any] func(ctx context.Context, base T) (T, error)

// Decorate replaces the component called name with the decorator's result
// once it is initialized.
func Decorate[T any](c *Container, name string, decorator Decorator[T]) {
	c.AddProcessor(newDecoration(name, decorator))
}

type decoration[T any] struct {
	name      string
	decorator Decorator[T]
}

func newDecoration[T any](name string, decorator Decorator[T]) *decoration[T] {
	return &decoration[T]{name: name, decorator: decorator}
}

func (d *decoration[T]) BeforeInitialization(_ context.Context, obj any, _ string) (any, error) {
	return obj, nil
}

func (d *decoration[T]) AfterInitialization(ctx context.Context, obj any, name string) (any, error) {
	if name != d.name {
		return obj, nil
	}

	typed, ok := obj.(T)
	if !ok {
		return nil, errs.TypeMismatch(name, reflect.TypeFor[T](), reflect.TypeOf(obj))
	}
	return d.decorator(ctx, typed)
}
