package aop_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danpasecinic/loom"
	"github.com/danpasecinic/loom/aop"
	"github.com/danpasecinic/loom/config"
)

func registerAdvisor(c *loom.Container, name, expression, advice string) {
	c.Register(name, loom.DefineType[aop.ExpressionAdvisor](
		loom.WithProperty("Expression", expression),
		loom.WithReference("Advice", advice),
	))
}

func registerUserService(c *loom.Container) {
	c.Register("userService", loom.DefineType[UserService](
		loom.WithProperty("ID", "10001"),
	))
}

func TestAutoProxy_QueryInfoInterceptedSetIDNot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls

	container := loom.New()
	registerUserService(container)
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.QueryInfo(..))", "recorder")
	aop.EnableAutoProxy(container, newStubs())

	svc, err := loom.Get[UserAPI](ctx, container, "userService")
	require.NoError(t, err)
	assert.IsType(t, userAPIProxy{}, svc)

	info, err := svc.QueryInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user 10001", info)
	assert.Equal(t, []string{"rec:before:QueryInfo", "rec:after:QueryInfo"}, c.all())

	svc.SetID("10002")
	assert.Len(t, c.all(), 2)

	info, err = svc.QueryInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user 10002", info)

	again, err := container.GetComponent(ctx, "userService")
	require.NoError(t, err)
	assert.Equal(t, svc, again)
}

func TestAutoProxy_RegisteredAsDefinition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls
	stubs := newStubs()

	container := loom.New()
	container.Register("autoProxy", loom.DefineType[*aop.AutoProxyCreator](
		loom.WithConstructor(func() *aop.AutoProxyCreator {
			return aop.NewAutoProxyCreator(stubs)
		}),
	))
	registerUserService(container)
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.*(..))", "recorder")

	require.NoError(t, container.Refresh(ctx))

	svc := loom.MustGet[UserAPI](ctx, container, "userService")
	_, err := svc.QueryInfo(ctx)
	require.NoError(t, err)
	svc.SetID("2")

	assert.Equal(t, []string{
		"rec:before:QueryInfo", "rec:after:QueryInfo",
		"rec:before:SetID", "rec:after:SetID",
	}, c.all())
}

func TestAutoProxy_LeavesUnmatchedAndInfrastructure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls

	container := loom.New()
	registerUserService(container)
	container.Register("counter", loom.DefineType[Counter]())
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.*(..))", "recorder")
	aop.EnableAutoProxy(container, newStubs())

	counter, err := loom.Get[*Counter](ctx, container, "counter")
	require.NoError(t, err)
	assert.Equal(t, 1, counter.Incr())

	advisor, err := loom.Get[*aop.ExpressionAdvisor](ctx, container, "queryAdvisor")
	require.NoError(t, err)
	assert.Equal(t, "execution(*.UserService.*(..))", advisor.Expression)
	assert.Empty(t, c.all())
}

func TestAutoProxy_MatchEverything(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls

	container := loom.New()
	registerUserService(container)
	container.Register("counter", loom.DefineType[Counter]())
	container.Register("unstubbed", loom.DefineType[Unstubbed]())
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "everything", "execution(*.*(..))", "recorder")
	aop.EnableAutoProxy(container, newStubs())

	counter, err := loom.Get[*counterSubclass](ctx, container, "counter")
	require.NoError(t, err)
	assert.Equal(t, 5, counter.Incr(5))
	assert.Equal(t, []string{"rec:before:Incr", "rec:after:Incr"}, c.all())

	_, err = loom.Get[*aop.ExpressionAdvisor](ctx, container, "everything")
	require.NoError(t, err)

	_, err = container.GetComponent(ctx, "unstubbed")
	require.Error(t, err)
	assert.ErrorIs(t, err, aop.ErrNoProxyStub)
	assert.True(t, loom.IsComponentCreation(err))
}

func TestAutoProxy_FirstAdvisorWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls

	container := loom.New()
	registerUserService(container)
	container.RegisterSingleton("first", c.around("first"))
	container.RegisterSingleton("second", c.around("second"))
	registerAdvisor(container, "a1", "execution(*.UserService.QueryInfo(..))", "first")
	registerAdvisor(container, "a2", "execution(*.UserService.*(..))", "second")
	aop.EnableAutoProxy(container, newStubs())

	svc := loom.MustGet[UserAPI](ctx, container, "userService")
	_, err := svc.QueryInfo(ctx)
	require.NoError(t, err)
	svc.SetID("3")

	assert.Equal(t, []string{"first:before:QueryInfo", "first:after:QueryInfo"}, c.all())
}

func TestAutoProxy_SingletonAdvisor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls

	advisor, err := aop.NewExpressionAdvisor("execution(*.UserAPI.QueryInfo(..))", c.around("rec"))
	require.NoError(t, err)

	container := loom.New()
	registerUserService(container)
	container.RegisterSingleton("advisor", advisor)
	aop.EnableAutoProxy(container, newStubs())

	svc := loom.MustGet[UserAPI](ctx, container, "userService")
	_, err = svc.QueryInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec:before:QueryInfo", "rec:after:QueryInfo"}, c.all())

	_, err = aop.NewExpressionAdvisor("bogus", c.around("rec"))
	assert.Error(t, err)
}

func TestAutoProxy_BadExpressionMatchesNothing(t *testing.T) {
	t.Parallel()

	advisor := &aop.ExpressionAdvisor{Expression: "execution(nothing)"}
	require.Error(t, advisor.Initialize())

	typ := reflect.TypeFor[*UserService]()
	assert.False(t, advisor.Pointcut().ClassFilter().MatchesType(typ))
	assert.False(t, advisor.Pointcut().MethodMatcher().MatchesMethod(method(t, typ, "QueryInfo"), typ))
}

func TestAutoProxy_AfterInitialization(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls

	container := loom.New()
	container.Register("userService", loom.DefineType[UserService](
		loom.WithInitMethod("Name"),
	))
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.QueryInfo(..))", "recorder")
	creator := aop.EnableAutoProxy(container, newStubs(), aop.WithPhase(aop.AfterInitialization))

	obj, err := container.GetComponent(ctx, "userService")
	require.NoError(t, err)
	svc, ok := obj.(UserAPI)
	require.True(t, ok)

	_, err = svc.QueryInfo(ctx)
	assert.ErrorIs(t, err, errNoID)
	assert.Equal(t, []string{"rec:before:QueryInfo", "rec:after:QueryInfo"}, c.all())

	again, err := creator.AfterInitialization(ctx, obj, "userService")
	require.NoError(t, err)
	assert.Equal(t, obj, again)
}

func TestAutoProxy_ProxyConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls

	container := loom.New()
	registerUserService(container)
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.QueryInfo(..))", "recorder")
	aop.EnableAutoProxy(container, newStubs(), aop.WithProxyConfig(config.ProxyConfig{
		TargetType: true,
		Phase:      config.PhaseAfterInitialization,
	}))

	sub, err := loom.Get[*userServiceSubclass](ctx, container, "userService")
	require.NoError(t, err)
	assert.Equal(t, "users", sub.Name())

	_, err = sub.QueryInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec:before:QueryInfo", "rec:after:QueryInfo"}, c.all())
}

func TestAutoProxy_SubclassingStrategy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c calls
	stubs := newStubs()

	container := loom.New(loom.WithSubclassing(stubs))
	registerUserService(container)
	container.Register("counter", loom.DefineType[Counter]())
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.QueryInfo(..))", "recorder")
	aop.EnableAutoProxy(container, stubs)

	sub, err := loom.Get[*userServiceSubclass](ctx, container, "userService")
	require.NoError(t, err)
	assert.Equal(t, "10001", sub.ID)

	info, err := sub.QueryInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user 10001", info)
	assert.Equal(t, []string{"rec:before:QueryInfo", "rec:after:QueryInfo"}, c.all())

	counter, err := loom.Get[*counterSubclass](ctx, container, "counter")
	require.NoError(t, err)
	assert.Equal(t, 1, counter.Incr())
	h, ok := aop.HandlerOf(counter)
	require.True(t, ok)
	assert.Nil(t, h.Advised())
	assert.Len(t, c.all(), 2)
}

func TestAutoProxy_LogsProxiedComponents(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	var c calls

	container := loom.New(loom.WithLogger(zap.New(core)))
	registerUserService(container)
	container.RegisterSingleton("recorder", c.around("rec"))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.*(..))", "recorder")
	aop.EnableAutoProxy(container, newStubs())

	_, err := container.GetComponent(context.Background(), "userService")
	require.NoError(t, err)

	proxied := logs.FilterMessage("component proxied").All()
	require.Len(t, proxied, 1)
	assert.Equal(t, "loom.aop", proxied[0].LoggerName)
	assert.Equal(t, "userService", proxied[0].ContextMap()["component"])
	assert.Equal(t, "before-instantiation", proxied[0].ContextMap()["phase"])
}

func TestAutoProxy_AdviceWithDependencies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	container := loom.New()
	registerUserService(container)
	container.Register("auditLog", loom.DefineType[AuditLog]())
	container.Register("audit", loom.DefineType[auditAdvice](
		loom.WithReference("Log", "auditLog"),
	))
	registerAdvisor(container, "queryAdvisor", "execution(*.UserService.QueryInfo(..))", "audit")
	aop.EnableAutoProxy(container, newStubs())

	require.NoError(t, container.Validate())
	require.NoError(t, container.Refresh(ctx))

	svc := loom.MustGet[UserAPI](ctx, container, "userService")
	_, err := svc.QueryInfo(ctx)
	require.NoError(t, err)
	svc.SetID("2")

	log := loom.MustGet[*AuditLog](ctx, container, "auditLog")
	assert.Equal(t, []string{"audit:QueryInfo"}, log.Entries())
}
