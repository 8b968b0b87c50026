package aop_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danpasecinic/loom/aop"
)

var errNoID = errors.New("user id not set")

type tenantKey struct{}

type UserAPI interface {
	QueryInfo(ctx context.Context) (string, error)
	SetID(id string)
}

type UserService struct {
	ID string

	queries int
}

func (s *UserService) QueryInfo(ctx context.Context) (string, error) {
	s.queries++
	if s.ID == "" {
		return "", errNoID
	}
	if tenant, ok := ctx.Value(tenantKey{}).(string); ok {
		return tenant + "/user " + s.ID, nil
	}
	return "user " + s.ID, nil
}

func (s *UserService) SetID(id string) {
	s.ID = id
}

func (s *UserService) Name() string {
	return "users"
}

type userAPIProxy struct {
	aop.Stub
}

func (p userAPIProxy) QueryInfo(ctx context.Context) (string, error) {
	out := p.Invoke("QueryInfo", ctx)
	return aop.Result[string](out, 0), aop.Error(out)
}

func (p userAPIProxy) SetID(id string) {
	p.Invoke("SetID", id)
}

type userServiceSubclass struct {
	*UserService
	aop.Stub
}

func (s *userServiceSubclass) QueryInfo(ctx context.Context) (string, error) {
	out := s.Invoke("QueryInfo", ctx)
	return aop.Result[string](out, 0), aop.Error(out)
}

func (s *userServiceSubclass) SetID(id string) {
	s.Invoke("SetID", id)
}

type Counter struct {
	n int
}

func (c *Counter) Incr(by ...int) int {
	if len(by) == 0 {
		c.n++
	}
	for _, d := range by {
		c.n += d
	}
	return c.n
}

type counterSubclass struct {
	*Counter
	aop.Stub
}

func (c *counterSubclass) Incr(by ...int) int {
	return aop.Result[int](c.Invoke("Incr", by), 0)
}

type Unstubbed struct{}

func (Unstubbed) Do() {}

func newStubs() *aop.Stubs {
	stubs := aop.NewStubs()
	aop.RegisterInterface(stubs, func(s aop.Stub) UserAPI {
		return userAPIProxy{Stub: s}
	})
	aop.RegisterType(stubs, func(target *UserService, s aop.Stub) any {
		return &userServiceSubclass{UserService: target, Stub: s}
	})
	aop.RegisterType(stubs, func(target *Counter, s aop.Stub) any {
		return &counterSubclass{Counter: target, Stub: s}
	})
	return stubs
}

// calls records which interceptors saw which methods.
type calls struct {
	mu      sync.Mutex
	entries []string
}

func (c *calls) add(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, fmt.Sprintf(format, args...))
}

func (c *calls) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.entries...)
}

func (c *calls) around(label string) aop.Interceptor {
	return aop.InterceptorFunc(func(inv aop.Invocation) ([]any, error) {
		c.add("%s:before:%s", label, inv.Method().Name)
		out, err := inv.Proceed()
		c.add("%s:after:%s", label, inv.Method().Name)
		return out, err
	})
}

// AuditLog is a plain component that advice can depend on.
type AuditLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *AuditLog) Append(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *AuditLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type auditAdvice struct {
	Log *AuditLog
}

func (a *auditAdvice) Invoke(inv aop.Invocation) ([]any, error) {
	a.Log.Append("audit:" + inv.Method().Name)
	return inv.Proceed()
}
