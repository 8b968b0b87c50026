package aop

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/danpasecinic/loom"
	"github.com/danpasecinic/loom/config"
)

// Phase selects where in the creation protocol components are proxied.
type Phase string

const (
	// BeforeInstantiation replaces matching components before they are
	// built. The target is instantiated and populated but init hooks and
	// before-initialization processors do not run on it.
	BeforeInstantiation Phase = config.PhaseBeforeInstantiation
	// AfterInitialization proxies the fully initialized component.
	AfterInitialization Phase = config.PhaseAfterInitialization
)

var infrastructureTypes = []reflect.Type{
	reflect.TypeFor[Advisor](),
	reflect.TypeFor[Interceptor](),
	reflect.TypeFor[Pointcut](),
	reflect.TypeFor[ClassFilter](),
	reflect.TypeFor[MethodMatcher](),
	reflect.TypeFor[loom.Processor](),
}

var advisorType = reflect.TypeFor[Advisor]()

// AutoProxyCreator is a container processor that wraps every component
// matched by a registered Advisor in a proxy built from stubs. The first
// advisor, in registration order, whose class filter matches wins.
type AutoProxyCreator struct {
	stubs           *Stubs
	phase           Phase
	proxyTargetType bool
	logger          *zap.Logger
	factory         loom.Factory
}

type AutoProxyOption func(*AutoProxyCreator)

func WithPhase(p Phase) AutoProxyOption {
	return func(a *AutoProxyCreator) {
		a.phase = p
	}
}

func WithProxyTargetType(enabled bool) AutoProxyOption {
	return func(a *AutoProxyCreator) {
		a.proxyTargetType = enabled
	}
}

func WithLogger(logger *zap.Logger) AutoProxyOption {
	return func(a *AutoProxyCreator) {
		a.logger = logger
	}
}

func WithProxyConfig(cfg config.ProxyConfig) AutoProxyOption {
	return func(a *AutoProxyCreator) {
		a.proxyTargetType = cfg.TargetType
		if cfg.Phase != "" {
			a.phase = Phase(cfg.Phase)
		}
	}
}

func NewAutoProxyCreator(stubs *Stubs, opts ...AutoProxyOption) *AutoProxyCreator {
	a := &AutoProxyCreator{
		stubs: stubs,
		phase: BeforeInstantiation,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.L()
	}
	a.logger = a.logger.Named("loom.aop")
	return a
}

// EnableAutoProxy adds an auto-proxy creator to c.
func EnableAutoProxy(c *loom.Container, stubs *Stubs, opts ...AutoProxyOption) *AutoProxyCreator {
	opts = append([]AutoProxyOption{WithLogger(c.Logger())}, opts...)
	a := NewAutoProxyCreator(stubs, opts...)
	a.SetComponentFactory(c)
	c.AddProcessor(a)
	return a
}

func (a *AutoProxyCreator) SetComponentFactory(f loom.Factory) {
	a.factory = f
}

func (a *AutoProxyCreator) BeforeInstantiation(ctx context.Context, t reflect.Type, name string) (any, error) {
	if a.phase != BeforeInstantiation || a.factory == nil {
		return nil, nil
	}

	t = exposedType(t)
	if isInfrastructure(t) {
		return nil, nil
	}

	advisor, err := a.advisorFor(ctx, t)
	if err != nil || advisor == nil {
		return nil, err
	}

	target, err := a.factory.Instantiate(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.proxy(name, target, advisor)
}

func (a *AutoProxyCreator) BeforeInitialization(_ context.Context, obj any, _ string) (any, error) {
	return obj, nil
}

func (a *AutoProxyCreator) AfterInitialization(ctx context.Context, obj any, name string) (any, error) {
	if a.phase != AfterInitialization || a.factory == nil || obj == nil {
		return obj, nil
	}
	if h, ok := HandlerOf(obj); ok && h.Advised() != nil {
		return obj, nil
	}

	t := reflect.TypeOf(obj)
	if isInfrastructure(t) {
		return obj, nil
	}

	advisor, err := a.advisorFor(ctx, t)
	if err != nil || advisor == nil {
		return obj, err
	}
	return a.proxy(name, obj, advisor)
}

func (a *AutoProxyCreator) proxy(name string, target any, advisor Advisor) (any, error) {
	pointcut := advisor.Pointcut()
	proxy, err := NewProxyFactory(a.stubs, &AdvisedSupport{
		Target:          target,
		Interceptors:    []Interceptor{advisor.Interceptor()},
		MethodMatcher:   pointcut.MethodMatcher(),
		ProxyTargetType: a.proxyTargetType,
	}).Proxy()
	if err != nil {
		return nil, fmt.Errorf("proxying %s: %w", name, err)
	}

	a.logger.Debug("component proxied",
		zap.String("component", name),
		zap.String("phase", string(a.phase)),
		zap.Stringer("target", reflect.TypeOf(target)),
		zap.Stringer("proxy", reflect.TypeOf(proxy)),
	)
	return proxy, nil
}

func (a *AutoProxyCreator) advisorFor(ctx context.Context, t reflect.Type) (Advisor, error) {
	advisors, err := a.advisors(ctx)
	if err != nil {
		return nil, err
	}

	candidates := append([]reflect.Type{t}, a.stubs.Interfaces(t)...)
	for _, advisor := range advisors {
		filter := advisor.Pointcut().ClassFilter()
		for _, candidate := range candidates {
			if filter.MatchesType(candidate) {
				return advisor, nil
			}
		}
	}
	return nil, nil
}

// advisors returns the registered advisors in definition order, followed by
// advisors registered as plain singletons in name order.
func (a *AutoProxyCreator) advisors(ctx context.Context) ([]Advisor, error) {
	found, err := a.factory.ComponentsOfType(ctx, advisorType)
	if err != nil {
		return nil, err
	}

	names := slices.DeleteFunc(slices.Clone(a.factory.DefinitionNames()), func(name string) bool {
		_, ok := found[name]
		return !ok
	})
	var extra []string
	for name := range found {
		if !slices.Contains(names, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	advisors := make([]Advisor, 0, len(found))
	for _, name := range append(names, extra...) {
		if advisor, ok := found[name].(Advisor); ok {
			advisors = append(advisors, advisor)
		}
	}
	return advisors, nil
}

func exposedType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Struct {
		return reflect.PointerTo(t)
	}
	return t
}

func isInfrastructure(t reflect.Type) bool {
	if t == nil {
		return true
	}
	for _, infra := range infrastructureTypes {
		if t.Implements(infra) {
			return true
		}
	}
	return false
}
