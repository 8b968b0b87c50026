package loom_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danpasecinic/loom"
)

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

type Resource struct {
	Journal *journal
	Label   string
	Fail    bool

	name string
	ctx  loom.Context
}

func (r *Resource) SetComponentName(name string) {
	r.name = name
	r.Journal.add("name:" + name)
}

func (r *Resource) SetContext(ctx loom.Context) {
	r.ctx = ctx
}

func (r *Resource) Initialize() error {
	r.Journal.add("initialize:" + r.name)
	return nil
}

func (r *Resource) Open() error {
	r.Journal.add("open:" + r.name)
	if r.Fail {
		return errors.New("cannot open")
	}
	return nil
}

func (r *Resource) Destroy() error {
	r.Journal.add("destroy:" + r.name)
	if r.Fail {
		return errors.New("cannot destroy")
	}
	return nil
}

func (r *Resource) Close(ctx context.Context) error {
	r.Journal.add("close:" + r.name)
	return ctx.Err()
}

func resource(j *journal, opts ...loom.DefinitionOption) *loom.Definition {
	return loom.DefineType[Resource](append([]loom.DefinitionOption{loom.WithProperty("Journal", j)}, opts...)...)
}

func TestInitHooksRunInOrder(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("db", resource(j, loom.WithInitMethod("Open")))

	if _, err := c.GetComponent(context.Background(), "db"); err != nil {
		t.Fatalf("GetComponent failed: %v", err)
	}

	want := []string{"name:db", "initialize:db", "open:db"}
	if got := j.all(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInitMethodNamedInitializeRunsOnce(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("db", resource(j, loom.WithInitMethod("Initialize")))

	if _, err := c.GetComponent(context.Background(), "db"); err != nil {
		t.Fatalf("GetComponent failed: %v", err)
	}

	want := []string{"name:db", "initialize:db"}
	if got := j.all(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInitFailureNotCached(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("db", resource(j, loom.WithInitMethod("Open"), loom.WithProperty("Fail", true)))

	ctx := context.Background()
	if _, err := c.GetComponent(ctx, "db"); !loom.IsComponentCreation(err) {
		t.Fatalf("expected creation error, got %v", err)
	}
	if _, err := c.GetComponent(ctx, "db"); err == nil {
		t.Fatal("second attempt should build again and fail again")
	}

	opens := 0
	for _, e := range j.all() {
		if e == "open:db" {
			opens++
		}
	}
	if opens != 2 {
		t.Errorf("expected two open attempts, got %d", opens)
	}
	if err := c.Destroy(ctx); err != nil {
		t.Errorf("nothing should be registered for disposal, got %v", err)
	}
}

func TestUnknownInitMethod(t *testing.T) {
	t.Parallel()

	c := loom.New()
	c.Register("db", resource(&journal{}, loom.WithInitMethod("Missing")))

	if _, err := c.GetComponent(context.Background(), "db"); !loom.IsComponentCreation(err) {
		t.Errorf("expected creation error, got %v", err)
	}
}

func TestDestroyReverseOrder(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("x", resource(j))
	c.Register("y", resource(j))
	c.Register("z", resource(j))
	ctx := context.Background()

	if err := c.PreInstantiateAll(ctx); err != nil {
		t.Fatalf("PreInstantiateAll failed: %v", err)
	}
	if err := c.Destroy(ctx); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	var destroyed []string
	for _, e := range j.all() {
		if name, ok := strings.CutPrefix(e, "destroy:"); ok {
			destroyed = append(destroyed, name)
		}
	}
	if want := []string{"z", "y", "x"}; !slices.Equal(destroyed, want) {
		t.Errorf("expected %v, got %v", want, destroyed)
	}

	if err := c.Destroy(ctx); err != nil {
		t.Fatalf("second Destroy failed: %v", err)
	}
	if n := len(j.all()); n != 3*3 {
		t.Errorf("second Destroy should not tear anything down again, journal has %d entries", n)
	}
}

func TestDestroyMethodAndDisposable(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("closing", resource(j, loom.WithDestroyMethod("Close")))
	c.Register("plain", resource(j, loom.WithDestroyMethod("Destroy")))
	ctx := context.Background()

	if err := c.PreInstantiateAll(ctx); err != nil {
		t.Fatalf("PreInstantiateAll failed: %v", err)
	}
	if err := c.Destroy(ctx); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	got := j.all()
	want := []string{
		"name:closing", "initialize:closing",
		"name:plain", "initialize:plain",
		"destroy:plain",
		"destroy:closing", "close:closing",
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNonSharedNotDisposed(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("tmp", resource(j, loom.WithScope(loom.NonShared)))
	ctx := context.Background()

	for range 3 {
		if _, err := c.GetComponent(ctx, "tmp"); err != nil {
			t.Fatalf("GetComponent failed: %v", err)
		}
	}
	if err := c.Destroy(ctx); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	for _, e := range j.all() {
		if e == "destroy:tmp" {
			t.Fatal("non-shared components must not be destroyed by the container")
		}
	}
}

func TestDestroyFailFast(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("a", resource(j))
	c.Register("b", resource(j, loom.WithProperty("Fail", true)))
	c.Register("c", resource(j))
	ctx := context.Background()

	if err := c.PreInstantiateAll(ctx); err != nil {
		t.Fatalf("PreInstantiateAll failed: %v", err)
	}

	err := c.Destroy(ctx)
	if !loom.IsDisposal(err) {
		t.Fatalf("expected disposal error, got %v", err)
	}

	var lerr *loom.Error
	if !errors.As(err, &lerr) || lerr.Component != "b" {
		t.Errorf("expected failure for b, got %v", err)
	}
	if slices.Contains(j.all(), "destroy:a") {
		t.Error("fail-fast should stop before a")
	}

	if err := c.Destroy(ctx); err != nil {
		t.Fatalf("retry should tear down the rest, got %v", err)
	}
	if !slices.Contains(j.all(), "destroy:a") {
		t.Error("retry should destroy a")
	}
}

func TestDestroyContinueOnError(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New(loom.WithDisposalPolicy(loom.ContinueOnError))
	c.Register("a", resource(j, loom.WithProperty("Fail", true)))
	c.Register("b", resource(j))
	c.Register("c", resource(j, loom.WithProperty("Fail", true)))
	ctx := context.Background()

	if err := c.PreInstantiateAll(ctx); err != nil {
		t.Fatalf("PreInstantiateAll failed: %v", err)
	}

	err := c.Destroy(ctx)
	if !loom.IsDisposal(err) {
		t.Fatalf("expected disposal error, got %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if !slices.Contains(j.all(), "destroy:"+name) {
			t.Errorf("expected %s to be destroyed", name)
		}
	}
}

type recorder struct {
	Journal *journal
	Tag     string
	Swap    map[string]any
}

func (r *recorder) BeforeInitialization(_ context.Context, obj any, name string) (any, error) {
	r.Journal.add(r.Tag + ":before:" + name)
	return nil, nil
}

func (r *recorder) AfterInitialization(_ context.Context, obj any, name string) (any, error) {
	r.Journal.add(r.Tag + ":after:" + name)
	if sub, ok := r.Swap[name]; ok {
		return sub, nil
	}
	return obj, nil
}

func TestProcessorOrdering(t *testing.T) {
	t.Parallel()

	j := &journal{}
	first := &recorder{Journal: j, Tag: "first"}
	second := &recorder{Journal: j, Tag: "second"}

	c := loom.New()
	c.AddProcessor(first)
	c.AddProcessor(second)
	c.AddProcessor(first)

	if n := len(c.Processors()); n != 2 {
		t.Fatalf("re-adding should not duplicate, got %d processors", n)
	}

	c.Register("endpoint", loom.DefineType[Endpoint]())
	if _, err := c.GetComponent(context.Background(), "endpoint"); err != nil {
		t.Fatalf("GetComponent failed: %v", err)
	}

	want := []string{
		"second:before:endpoint", "first:before:endpoint",
		"second:after:endpoint", "first:after:endpoint",
	}
	if got := j.all(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestProcessorNilKeepsObject(t *testing.T) {
	t.Parallel()

	c := loom.New()
	c.AddProcessor(&recorder{Journal: &journal{}, Tag: "r"})
	c.Register("endpoint", loom.DefineType[Endpoint](loom.WithProperty("Host", "kept")))

	ep, err := loom.Get[*Endpoint](context.Background(), c, "endpoint")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ep.Host != "kept" {
		t.Errorf("expected original object, got %+v", ep)
	}
}

func TestProcessorSubstitution(t *testing.T) {
	t.Parallel()

	replacement := &Endpoint{Host: "replacement"}
	c := loom.New()
	c.AddProcessor(&recorder{Journal: &journal{}, Tag: "r", Swap: map[string]any{"endpoint": replacement}})
	c.Register("endpoint", loom.DefineType[Endpoint]())

	ep := loom.MustGet[*Endpoint](context.Background(), c, "endpoint")
	if ep != replacement {
		t.Error("after-initialization result should become the component")
	}
}

type shortCircuit struct {
	recorder
	substitute any
}

func (s *shortCircuit) BeforeInstantiation(_ context.Context, t reflect.Type, name string) (any, error) {
	s.Journal.add("instantiate:" + name)
	if name == "db" {
		return s.substitute, nil
	}
	return nil, nil
}

func TestBeforeInstantiationShortCircuit(t *testing.T) {
	t.Parallel()

	j := &journal{}
	substitute := &Resource{Journal: j, Label: "substitute"}
	proc := &shortCircuit{recorder: recorder{Journal: j, Tag: "p"}, substitute: substitute}

	c := loom.New()
	c.AddProcessor(proc)
	c.Register("db", resource(j, loom.WithInitMethod("Open"), loom.WithProperty("Label", "real")))
	ctx := context.Background()

	got, err := loom.Get[*Resource](ctx, c, "db")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != substitute || got.Label != "substitute" {
		t.Fatalf("expected the substitute, got %+v", got)
	}

	want := []string{"instantiate:db", "p:after:db"}
	if entries := j.all(); !slices.Equal(entries, want) {
		t.Errorf("expected %v, got %v", want, entries)
	}

	if err := c.Destroy(ctx); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if slices.Contains(j.all(), "destroy:db") {
		t.Error("a short-circuited component is not registered for disposal")
	}
}

type hostRewriter struct{}

func (hostRewriter) ProcessDefinitions(_ context.Context, registry loom.DefinitionRegistry) error {
	def, err := registry.Definition("endpoint")
	if err != nil {
		return err
	}
	def.Properties.Add("Host", "rewritten")
	return nil
}

type refreshRecorder struct {
	recorder
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("endpoint", loom.DefineType[Endpoint](loom.WithProperty("Host", "original")))
	c.Register("rewriter", loom.DefineType[hostRewriter]())
	c.Register("recorder", loom.DefineType[refreshRecorder](loom.WithProperty("Journal", j), loom.WithProperty("Tag", "rec")))
	c.Register("db", resource(j, loom.WithScope(loom.NonShared)))
	ctx := context.Background()

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	ep := loom.MustGet[*Endpoint](ctx, c, "endpoint")
	if ep.Host != "rewritten" {
		t.Errorf("definition processor should run before instantiation, got %q", ep.Host)
	}
	if !slices.Contains(j.all(), "rec:after:endpoint") {
		t.Errorf("processor from definitions should see later components, got %v", j.all())
	}
	if slices.Contains(j.all(), "name:db") {
		t.Error("non-shared definitions are not built by Refresh")
	}
}

func TestAwareCallbacksSeeContainer(t *testing.T) {
	t.Parallel()

	c := loom.New()
	c.Register("db", resource(&journal{}))

	r := loom.MustGet[*Resource](context.Background(), c, "db")
	if r.name != "db" {
		t.Errorf("expected name db, got %q", r.name)
	}
	if r.ctx == nil || !r.ctx.ContainsDefinition("db") {
		t.Error("context-aware component should receive the container")
	}
}

func TestInstantiateSkipsProcessors(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.AddProcessor(&recorder{Journal: j, Tag: "r"})
	c.Register("db", resource(j, loom.WithInitMethod("Open")))
	ctx := context.Background()

	obj, err := c.Instantiate(ctx, "db")
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if obj.(*Resource).name != "db" {
		t.Error("aware callbacks should run")
	}
	if want := []string{"name:db"}; !slices.Equal(j.all(), want) {
		t.Errorf("expected %v, got %v", want, j.all())
	}

	again, _ := c.Instantiate(ctx, "db")
	if again == obj {
		t.Error("Instantiate should not cache")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	j := &journal{}
	c := loom.New()
	c.Register("db", resource(j))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
	}()

	deadline := time.After(time.Second)
	for !slices.Contains(j.all(), "initialize:db") {
		select {
		case <-deadline:
			t.Fatal("Run did not refresh the container")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !slices.Contains(j.all(), "destroy:db") {
		t.Error("Run should destroy the container on exit")
	}
}

func TestCreateAndDestroyObservers(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var created, destroyed []string
	c := loom.New(
		loom.WithCreateObserver(func(name string, _ time.Duration, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created = append(created, name)
			}
		}),
		loom.WithDestroyObserver(func(name string, _ time.Duration, _ error) {
			mu.Lock()
			defer mu.Unlock()
			destroyed = append(destroyed, name)
		}),
	)
	j := &journal{}
	c.Register("store", resource(j))
	c.Register("service", loom.DefineType[UserService](loom.WithProperty("ID", 1)))
	ctx := context.Background()

	if err := c.PreInstantiateAll(ctx); err != nil {
		t.Fatalf("PreInstantiateAll failed: %v", err)
	}
	if err := c.Destroy(ctx); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if want := []string{"store", "service"}; !slices.Equal(created, want) {
		t.Errorf("expected created %v, got %v", want, created)
	}
	if want := []string{"store"}; !slices.Equal(destroyed, want) {
		t.Errorf("expected destroyed %v, got %v", want, destroyed)
	}
}
