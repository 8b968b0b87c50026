package container

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/loom/internal/capability"
	"github.com/danpasecinic/loom/internal/definition"
	"github.com/danpasecinic/loom/internal/errs"
	"github.com/danpasecinic/loom/internal/populate"
	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

type resolutionKey struct{}

// resolutionChain returns the names currently under construction on this
// call path, outermost first.
func resolutionChain(ctx context.Context) []string {
	chain, _ := ctx.Value(resolutionKey{}).([]string)
	return chain
}

func withResolution(ctx context.Context, name string) (context.Context, error) {
	chain := resolutionChain(ctx)
	next := append(slices.Clone(chain), name)
	if slices.Contains(chain, name) {
		return ctx, errs.CircularReference(next)
	}
	return context.WithValue(ctx, resolutionKey{}, next), nil
}

// GetComponent returns the component registered under name, building it on
// first use. A name prefixed with "&" returns a factory component itself
// instead of the object it produces. Arguments select a constructor by arity
// and are ignored once a singleton is cached.
func (c *Container) GetComponent(ctx context.Context, name string, args ...any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	factoryRef := strings.HasPrefix(name, capability.FactoryPrefix)
	name = c.registry.Canonical(strings.TrimPrefix(name, capability.FactoryPrefix))

	if obj, ok := c.singletons.Get(name); ok {
		return c.exposed(obj, name, factoryRef, true)
	}

	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}

	var obj any
	if def.IsSingleton() {
		obj, err = c.createShared(ctx, name, def, args)
	} else {
		obj, err = c.create(ctx, name, def, args)
	}
	if err != nil {
		return nil, err
	}
	return c.exposed(obj, name, factoryRef, def.IsSingleton())
}

// createShared builds a singleton at most once. Concurrent callers asking for
// the same name wait for the first build and share its result. A name already
// on the caller's own resolution path fails before waiting on itself.
func (c *Container) createShared(ctx context.Context, name string, def *definition.Definition, args []any) (any, error) {
	if slices.Contains(resolutionChain(ctx), name) {
		_, err := withResolution(ctx, name)
		return nil, err
	}

	obj, err, _ := c.inflight.Do(name, func() (any, error) {
		if cached, ok := c.singletons.Get(name); ok {
			return cached, nil
		}
		return c.create(ctx, name, def, args)
	})
	return obj, err
}

func (c *Container) exposed(obj any, name string, factoryRef, shared bool) (any, error) {
	if factoryRef {
		return obj, nil
	}
	return c.factoryObjects.objectFor(obj, name, shared)
}

func (c *Container) create(ctx context.Context, name string, def *definition.Definition, args []any) (obj any, err error) {
	ctx, err = withResolution(ctx, name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		c.callCreateHooks(name, time.Since(start), err)
	}()

	c.logger.Debug("creating component",
		zap.String("component", name),
		zap.Stringer("scope", def.Scope),
	)

	obj, initialized, err := c.build(ctx, name, def, args)
	if err != nil {
		c.logger.Debug("component creation failed", zap.String("component", name), zap.Error(err))
		return nil, errs.Creation(name, err)
	}

	if def.IsSingleton() {
		cached, stored := c.singletons.PutIfAbsent(name, obj)
		if !stored {
			return cached, nil
		}
		if initialized != nil {
			c.registerDisposal(name, initialized, def)
		}
	}

	c.logger.Debug("component created",
		zap.String("component", name),
		zap.Stringer("scope", def.Scope),
		zap.Duration("duration", time.Since(start)),
	)
	return obj, nil
}

// build runs the creation protocol. It returns the exposed object and the
// object init hooks ran on, which is nil when a processor short-circuited
// instantiation.
func (c *Container) build(ctx context.Context, name string, def *definition.Definition, args []any) (any, any, error) {
	substitute, err := c.beforeInstantiation(ctx, def.Type, name)
	if err != nil {
		return nil, nil, err
	}
	if substitute != nil {
		c.logger.Debug("instantiation short-circuited",
			zap.String("component", name),
			zap.String("type", reflectutil.TypeKeyFromValue(substitute)),
		)
		obj, err := c.afterInitialization(ctx, substitute, name)
		return obj, nil, err
	}

	raw, err := c.instantiate(ctx, name, def, args)
	if err != nil {
		return nil, nil, err
	}
	c.applyAware(raw, name)

	initialized, err := c.initialize(ctx, raw, name, def)
	if err != nil {
		return nil, nil, err
	}

	obj, err := c.afterInitialization(ctx, initialized, name)
	if err != nil {
		return nil, nil, err
	}
	return obj, initialized, nil
}

func (c *Container) instantiate(ctx context.Context, name string, def *definition.Definition, args []any) (any, error) {
	obj, err := c.strategy.Instantiate(def, name, args)
	if err != nil {
		return nil, err
	}
	if err := populate.Populate(ctx, c, obj, name, def); err != nil {
		return nil, err
	}
	return obj, nil
}

// Instantiate builds and populates a fresh instance of name without running
// processors or init hooks and without caching it.
func (c *Container) Instantiate(ctx context.Context, name string, args ...any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	name = c.registry.Canonical(name)

	def, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	obj, err := c.instantiate(ctx, name, def, args)
	if err != nil {
		return nil, errs.Creation(name, err)
	}
	c.applyAware(obj, name)
	return obj, nil
}

func (c *Container) applyAware(obj any, name string) {
	if a, ok := obj.(capability.NameAware); ok {
		a.SetComponentName(name)
	}
	if a, ok := obj.(capability.FactoryAware); ok {
		a.SetComponentFactory(c.self)
	}
	if a, ok := obj.(capability.ContextAware); ok {
		a.SetContext(c.self)
	}
}

// initialize runs before-initialization processors, then Initialize and the
// declared init method, in that order. Both run when both are present unless
// the init method is Initialize itself.
func (c *Container) initialize(ctx context.Context, obj any, name string, def *definition.Definition) (any, error) {
	wrapped, err := c.beforeInitialization(ctx, obj, name)
	if err != nil {
		return nil, err
	}

	initializer, ok := wrapped.(capability.Initializer)
	if ok {
		if err := initializer.Initialize(); err != nil {
			return nil, err
		}
	}

	if def.InitMethod != "" && !(ok && def.InitMethod == "Initialize") {
		c.logger.Debug("invoking init method",
			zap.String("component", name),
			zap.String("method", def.InitMethod),
		)
		if err := reflectutil.CallLifecycle(ctx, wrapped, def.InitMethod); err != nil {
			return nil, err
		}
	}

	return wrapped, nil
}

func (c *Container) registerDisposal(name string, obj any, def *definition.Definition) {
	dispose, ok := disposerFor(obj, def)
	if !ok {
		return
	}
	c.disposals.Register(name, dispose)
	c.logger.Debug("disposal registered", zap.String("component", name))
}

func (c *Container) callCreateHooks(name string, duration time.Duration, err error) {
	for _, hook := range c.onCreate {
		hook(name, duration, err)
	}
}

func (c *Container) logSubstitution(name, phase string, obj any) {
	c.logger.Debug("component substituted by processor",
		zap.String("component", name),
		zap.String("phase", phase),
		zap.String("type", reflectutil.TypeKeyFromValue(obj)),
	)
}
