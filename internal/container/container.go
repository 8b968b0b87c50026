package container

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/danpasecinic/loom/internal/capability"
	"github.com/danpasecinic/loom/internal/definition"
	"github.com/danpasecinic/loom/internal/errs"
	"github.com/danpasecinic/loom/internal/graph"
	"github.com/danpasecinic/loom/internal/instantiate"
	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

type DisposalPolicy int

const (
	// FailFast stops at the first failing teardown and leaves the rest
	// registered.
	FailFast DisposalPolicy = iota
	// ContinueOnError runs every teardown and returns the combined failures.
	ContinueOnError
)

type Hook func(name string, duration time.Duration, err error)

type Container struct {
	registry       *Registry
	singletons     *SingletonStore
	disposals      *DisposalRegistry
	factoryObjects *factoryObjectCache
	processors     processorChain
	inflight       singleflight.Group

	strategy instantiate.Strategy
	policy   DisposalPolicy
	logger   *zap.Logger
	self     capability.Context

	onCreate  []Hook
	onDestroy []Hook
}

type Config struct {
	Logger         *zap.Logger
	Strategy       instantiate.Strategy
	DisposalPolicy DisposalPolicy
	OnCreate       []Hook
	OnDestroy      []Hook

	// Self is what context-aware components receive. It defaults to the
	// container itself.
	Self capability.Context
}

func New(cfg *Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = instantiate.Direct{}
	}

	c := &Container{
		registry:       NewRegistry(),
		singletons:     NewSingletonStore(),
		disposals:      NewDisposalRegistry(),
		factoryObjects: newFactoryObjectCache(),
		strategy:       strategy,
		policy:         cfg.DisposalPolicy,
		logger:         logger.Named("loom"),
		self:           cfg.Self,
		onCreate:       cfg.OnCreate,
		onDestroy:      cfg.OnDestroy,
	}
	if c.self == nil {
		c.self = c
	}
	return c
}

func (c *Container) Register(name string, def *definition.Definition) {
	c.registry.Register(name, def)
}

// RegisterSingleton caches a ready-made object under name. It takes part in
// lookups but never in the creation protocol or disposal.
// RemoveDefinition forgets the definition registered under name or one of
// its aliases. A singleton already built from it stays cached.
func (c *Container) RemoveDefinition(name string) {
	c.registry.Remove(c.registry.Canonical(name))
}

func (c *Container) RegisterSingleton(name string, obj any) {
	c.singletons.Put(name, obj)
}

func (c *Container) Alias(name, alias string) {
	c.registry.Alias(name, alias)
}

func (c *Container) Aliases(name string) []string {
	return c.registry.Aliases(name)
}

func (c *Container) ContainsDefinition(name string) bool {
	return c.registry.Has(c.registry.Canonical(name))
}

func (c *Container) ContainsComponent(name string) bool {
	name = c.registry.Canonical(name)
	if _, ok := c.singletons.Get(name); ok {
		return true
	}
	return c.registry.Has(name)
}

func (c *Container) DefinitionNames() []string {
	return c.registry.Names()
}

func (c *Container) Definition(name string) (*definition.Definition, error) {
	return c.registry.Get(c.registry.Canonical(name))
}

func (c *Container) SingletonNames() []string {
	return c.singletons.Names()
}

// Singleton returns the cached object for name without building it.
func (c *Container) Singleton(name string) (any, bool) {
	return c.singletons.Get(c.registry.Canonical(name))
}

func (c *Container) IsInstantiated(name string) bool {
	_, ok := c.singletons.Get(c.registry.Canonical(name))
	return ok
}

func (c *Container) DisposalNames() []string {
	return c.disposals.Names()
}

func (c *Container) Size() int {
	return c.registry.Size()
}

func (c *Container) AddProcessor(p capability.InitProcessor) {
	c.processors.add(p)
	c.logger.Debug("processor added",
		zap.String("processor", reflectutil.TypeKeyFromValue(p)),
		zap.Int("processors", c.processors.len()),
	)
}

func (c *Container) Processors() []capability.InitProcessor {
	return c.processors.snapshot()
}

// ComponentsOfType builds every component whose definition type, or a
// pre-registered singleton, is assignable to t. Components still under
// construction on the calling resolution path are left out.
func (c *Container) ComponentsOfType(ctx context.Context, t reflect.Type) (map[string]any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	inCreation := resolutionChain(ctx)

	result := make(map[string]any)
	for _, name := range c.registry.Names() {
		if slices.Contains(inCreation, name) {
			continue
		}
		def, err := c.registry.Get(name)
		if err != nil {
			continue
		}
		if !typeMatches(def.Type, t) {
			continue
		}
		obj, err := c.GetComponent(ctx, name)
		if err != nil {
			return nil, err
		}
		result[name] = obj
	}

	for _, name := range c.singletons.Names() {
		if _, done := result[name]; done || c.registry.Has(name) {
			continue
		}
		obj, _ := c.singletons.Get(name)
		if obj != nil && reflectutil.AssignableTo(reflect.TypeOf(obj), t) {
			result[name] = obj
		}
	}
	return result, nil
}

func typeMatches(defType, t reflect.Type) bool {
	if defType == nil || t == nil {
		return false
	}
	if reflectutil.AssignableTo(defType, t) {
		return true
	}
	return defType.Kind() == reflect.Struct && reflectutil.AssignableTo(reflect.PointerTo(defType), t)
}

// Graph returns the reference graph of the registered definitions.
func (c *Container) Graph() *graph.Graph {
	g := graph.New()
	for _, name := range c.registry.Names() {
		def, err := c.registry.Get(name)
		if err != nil {
			continue
		}
		refs := def.Properties.References()
		for i, ref := range refs {
			refs[i] = c.registry.Canonical(ref)
		}
		g.AddNode(name, refs)
	}
	for _, name := range c.singletons.Names() {
		if !g.HasNode(name) {
			g.AddNode(name, nil)
		}
	}
	return g
}

// Validate reports references to undefined components and reference
// cycles without building anything.
func (c *Container) Validate() error {
	g := c.Graph()

	if missing := g.Missing(); len(missing) > 0 {
		return errs.Validation(fmt.Errorf("undefined references: %v", missing))
	}

	if paths := g.CyclePaths(); len(paths) > 0 {
		return errs.Validation(errs.CircularReference(paths[0]))
	}

	return nil
}
