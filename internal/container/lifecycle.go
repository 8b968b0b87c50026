package container

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danpasecinic/loom/internal/capability"
	"github.com/danpasecinic/loom/internal/errs"
)

var (
	definitionProcessorType = reflect.TypeFor[capability.DefinitionProcessor]()
	initProcessorType       = reflect.TypeFor[capability.InitProcessor]()
)

// PreInstantiateAll builds every singleton definition in registration order.
func (c *Container) PreInstantiateAll(ctx context.Context) error {
	for _, name := range c.registry.Names() {
		def, err := c.registry.Get(name)
		if err != nil || !def.IsSingleton() {
			continue
		}
		if _, err := c.GetComponent(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Refresh lets definition processors rewrite the registry, registers the
// init processors found among the definitions and then builds every
// singleton.
func (c *Container) Refresh(ctx context.Context) error {
	start := time.Now()

	if err := c.invokeDefinitionProcessors(ctx); err != nil {
		return err
	}
	if err := c.registerProcessors(ctx); err != nil {
		return err
	}
	if err := c.PreInstantiateAll(ctx); err != nil {
		return err
	}

	c.logger.Debug("container refreshed",
		zap.Int("definitions", c.registry.Size()),
		zap.Int("processors", c.processors.len()),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (c *Container) invokeDefinitionProcessors(ctx context.Context) error {
	for _, name := range c.namesOfType(definitionProcessorType) {
		obj, err := c.GetComponent(ctx, name)
		if err != nil {
			return err
		}
		dp, ok := obj.(capability.DefinitionProcessor)
		if !ok {
			continue
		}
		c.logger.Debug("running definition processor", zap.String("component", name))
		if err := dp.ProcessDefinitions(ctx, c); err != nil {
			return errs.New(errs.CodeComponentCreation, "definition processor failed", err).WithComponent(name)
		}
	}
	return nil
}

func (c *Container) registerProcessors(ctx context.Context) error {
	for _, name := range c.namesOfType(initProcessorType) {
		obj, err := c.GetComponent(ctx, name)
		if err != nil {
			return err
		}
		if p, ok := obj.(capability.InitProcessor); ok {
			c.AddProcessor(p)
		}
	}
	return nil
}

func (c *Container) namesOfType(t reflect.Type) []string {
	var names []string
	for _, name := range c.registry.Names() {
		def, err := c.registry.Get(name)
		if err == nil && typeMatches(def.Type, t) {
			names = append(names, name)
		}
	}
	return names
}

// Destroy runs the registered teardown handles in reverse registration
// order, each at most once, and then drops the cached singletons.
func (c *Container) Destroy(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var combined error
	for {
		name, dispose, ok := c.disposals.Pop()
		if !ok {
			break
		}

		start := time.Now()
		c.logger.Debug("destroying component", zap.String("component", name))
		err := dispose(ctx)
		c.callDestroyHooks(name, time.Since(start), err)
		if err == nil {
			continue
		}

		c.logger.Error("component teardown failed", zap.String("component", name), zap.Error(err))
		if c.policy == FailFast {
			return errs.Disposal(name, err)
		}
		combined = multierr.Append(combined, errs.Disposal(name, err))
	}

	c.singletons.Clear()
	c.factoryObjects.clear()
	return combined
}

func (c *Container) callDestroyHooks(name string, duration time.Duration, err error) {
	for _, hook := range c.onDestroy {
		hook(name, duration, err)
	}
}
