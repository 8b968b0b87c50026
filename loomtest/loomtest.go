// Package loomtest wraps a container with helpers that fail the test instead
// of returning errors.
package loomtest

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap/zaptest"

	"github.com/danpasecinic/loom"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

type TestContainer struct {
	*loom.Container
	tb TB
}

// New returns a container that is destroyed when the test ends. When tb is a
// *testing.T or *testing.B the container logs through it.
func New(tb TB, opts ...loom.Option) *TestContainer {
	tb.Helper()

	if tt, ok := tb.(zaptest.TestingT); ok {
		opts = append([]loom.Option{loom.WithLogger(zaptest.NewLogger(tt))}, opts...)
	}

	c := loom.New(opts...)
	tc := &TestContainer{
		Container: c,
		tb:        tb,
	}

	tb.Cleanup(func() {
		if err := c.Destroy(context.Background()); err != nil {
			tb.Fatalf("failed to destroy container: %v", err)
		}
	})

	return tc
}

func (tc *TestContainer) RequireRefresh(ctx context.Context) {
	tc.tb.Helper()

	if err := tc.Refresh(ctx); err != nil {
		tc.tb.Fatalf("failed to refresh container: %v", err)
	}
}

func (tc *TestContainer) RequireDestroy(ctx context.Context) {
	tc.tb.Helper()

	if err := tc.Destroy(ctx); err != nil {
		tc.tb.Fatalf("failed to destroy container: %v", err)
	}
}

func (tc *TestContainer) RequireValidate() {
	tc.tb.Helper()

	if err := tc.Validate(); err != nil {
		tc.tb.Fatalf("container validation failed: %v", err)
	}
}

// Replace makes name resolve to obj from now on, whatever its definition
// says. Components that already hold the old object keep it.
func (tc *TestContainer) Replace(name string, obj any) {
	tc.tb.Helper()

	if !tc.ContainsComponent(name) {
		tc.tb.Fatalf("cannot replace %q: no such component", name)
	}
	tc.RegisterSingleton(name, obj)
}

func RequireGet[T any](tc *TestContainer, name string, args ...any) T {
	tc.tb.Helper()

	v, err := loom.Get[T](context.Background(), tc.Container, name, args...)
	if err != nil {
		tc.tb.Fatalf("failed to get %s: %v", name, err)
	}
	return v
}

func AssertDefined(tc *TestContainer, name string) {
	tc.tb.Helper()

	if !tc.ContainsDefinition(name) {
		tc.tb.Fatalf("expected container to define %s", name)
	}
}

func AssertNotDefined(tc *TestContainer, name string) {
	tc.tb.Helper()

	if tc.ContainsDefinition(name) {
		tc.tb.Fatalf("expected container to not define %s", name)
	}
}

// Recorder is a processor that remembers the names of the components it saw
// finish initialization, in order.
type Recorder struct {
	mu    sync.Mutex
	names []string
}

// Record adds a Recorder to tc.
func Record(tc *TestContainer) *Recorder {
	r := &Recorder{}
	tc.AddProcessor(r)
	return r
}

func (r *Recorder) BeforeInitialization(_ context.Context, obj any, _ string) (any, error) {
	return obj, nil
}

func (r *Recorder) AfterInitialization(_ context.Context, obj any, name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.names = append(r.names, name)
	return obj, nil
}

func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.names)
}
