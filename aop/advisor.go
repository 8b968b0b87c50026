package aop

import (
	"reflect"
	"sync"
)

// Advisor pairs a pointcut with the interceptor to run where it matches.
type Advisor interface {
	Pointcut() Pointcut
	Interceptor() Interceptor
}

// ExpressionAdvisor is an Advisor whose pointcut is an execution expression.
// It can be registered as a component:
//
//	c.Register("timingAdvisor", loom.DefineType[aop.ExpressionAdvisor](
//	    loom.WithProperty("Expression", "execution(*.UserService.*(..))"),
//	    loom.WithReference("Advice", "timing"),
//	))
type ExpressionAdvisor struct {
	Expression string
	Advice     Interceptor

	once     sync.Once
	pointcut *ExpressionPointcut
	err      error
}

func NewExpressionAdvisor(expression string, advice Interceptor) (*ExpressionAdvisor, error) {
	a := &ExpressionAdvisor{Expression: expression, Advice: advice}
	if err := a.Initialize(); err != nil {
		return nil, err
	}
	return a, nil
}

// Initialize parses the expression.
func (a *ExpressionAdvisor) Initialize() error {
	a.once.Do(func() {
		a.pointcut, a.err = NewExpressionPointcut(a.Expression)
	})
	return a.err
}

// Pointcut returns the parsed expression. An expression that does not parse
// matches nothing.
func (a *ExpressionAdvisor) Pointcut() Pointcut {
	if err := a.Initialize(); err != nil {
		return never{}
	}
	return a.pointcut
}

func (a *ExpressionAdvisor) Interceptor() Interceptor {
	return a.Advice
}

type never struct{}

func (never) ClassFilter() ClassFilter                        { return never{} }
func (never) MethodMatcher() MethodMatcher                    { return never{} }
func (never) MatchesType(reflect.Type) bool                   { return false }
func (never) MatchesMethod(reflect.Method, reflect.Type) bool { return false }
