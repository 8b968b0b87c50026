package loom

import (
	"context"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/loom/internal/container"
	"github.com/danpasecinic/loom/internal/instantiate"
)

type Container struct {
	internal *container.Container
	config   *containerConfig
}

type containerConfig struct {
	logger         *zap.Logger
	strategy       instantiate.Strategy
	subclassing    bool
	wrapper        instantiate.Wrapper
	disposalPolicy DisposalPolicy
	onCreate       []CreateHook
	onDestroy      []DestroyHook
	loggerErr      error
}

func New(opts ...Option) *Container {
	cfg := &containerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.L()
	}

	if cfg.loggerErr != nil {
		cfg.logger.Warn("configured logger unavailable, using the default", zap.Error(cfg.loggerErr))
	}

	strategy := cfg.strategy
	if strategy == nil && cfg.subclassing {
		if cfg.wrapper != nil {
			strategy = instantiate.NewSubclassing(cfg.wrapper)
		} else {
			cfg.logger.Warn("subclass instantiation has no stubs, using direct instantiation")
		}
	}

	c := &Container{config: cfg}
	c.internal = container.New(
		&container.Config{
			Logger:         cfg.logger,
			Strategy:       strategy,
			DisposalPolicy: cfg.disposalPolicy,
			OnCreate:       hooks(cfg.onCreate),
			OnDestroy:      hooks(cfg.onDestroy),
			Self:           c,
		},
	)
	return c
}

func hooks[H ~func(string, time.Duration, error)](in []H) []container.Hook {
	out := make([]container.Hook, len(in))
	for i, h := range in {
		out[i] = container.Hook(h)
	}
	return out
}

// Register stores def under name, replacing any earlier definition with that
// name. Nothing is validated until the component is built.
func (c *Container) Register(name string, def *Definition) {
	c.internal.Register(name, def)
}

// RegisterSingleton makes obj available under name as-is. It is not
// processed, populated or disposed.
func (c *Container) RegisterSingleton(name string, obj any) {
	c.internal.RegisterSingleton(name, obj)
}

func (c *Container) Alias(name, alias string) {
	c.internal.Alias(name, alias)
}

func (c *Container) GetComponent(ctx context.Context, name string, args ...any) (any, error) {
	return c.internal.GetComponent(ctx, name, args...)
}

// RemoveDefinition forgets the definition registered under name. A singleton
// already built from it stays cached.
func (c *Container) RemoveDefinition(name string) {
	c.internal.RemoveDefinition(name)
}

func (c *Container) ContainsDefinition(name string) bool {
	return c.internal.ContainsDefinition(name)
}

func (c *Container) ContainsComponent(name string) bool {
	return c.internal.ContainsComponent(name)
}

func (c *Container) DefinitionNames() []string {
	return c.internal.DefinitionNames()
}

func (c *Container) Definition(name string) (*Definition, error) {
	return c.internal.Definition(name)
}

// ComponentsOfType builds and returns every component whose type is
// assignable to t, keyed by name.
func (c *Container) ComponentsOfType(ctx context.Context, t reflect.Type) (map[string]any, error) {
	return c.internal.ComponentsOfType(ctx, t)
}

func (c *Container) Instantiate(ctx context.Context, name string, args ...any) (any, error) {
	return c.internal.Instantiate(ctx, name, args...)
}

func (c *Container) AddProcessor(p Processor) {
	c.internal.AddProcessor(p)
}

func (c *Container) Processors() []Processor {
	return c.internal.Processors()
}

func (c *Container) PreInstantiateAll(ctx context.Context) error {
	return c.internal.PreInstantiateAll(ctx)
}

// Refresh runs the definition processors and registers the processors found
// among the definitions, then builds every singleton.
func (c *Container) Refresh(ctx context.Context) error {
	return c.internal.Refresh(ctx)
}

// Destroy tears down every disposable singleton in reverse creation order.
func (c *Container) Destroy(ctx context.Context) error {
	return c.internal.Destroy(ctx)
}

func (c *Container) Validate() error {
	return c.internal.Validate()
}

func (c *Container) Size() int {
	return c.internal.Size()
}

func (c *Container) Logger() *zap.Logger {
	return c.config.logger
}

// Run refreshes the container, blocks until ctx is done or the process gets
// SIGINT or SIGTERM, and then destroys it.
func (c *Container) Run(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-quit:
	}

	signal.Stop(quit)
	close(quit)

	return c.Destroy(context.Background())
}
