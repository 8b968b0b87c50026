// Package aop intercepts method calls on container components.
//
// An advisor pairs a pointcut, which selects types and methods, with an
// interceptor that runs around every selected call. The auto-proxy creator
// is a container processor that replaces matching components with proxies.
// Go cannot derive types at runtime, so every proxy is built from a stub
// registered in a Stubs registry ahead of time.
package aop

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

type ClassFilter interface {
	MatchesType(t reflect.Type) bool
}

// MethodMatcher matches a method of t. A method matcher is consulted
// independently of the class filter.
type MethodMatcher interface {
	MatchesMethod(m reflect.Method, t reflect.Type) bool
}

type Pointcut interface {
	ClassFilter() ClassFilter
	MethodMatcher() MethodMatcher
}

var errEmptyExpression = errors.New("empty pointcut expression")

// ExpressionPointcut matches methods by execution expressions of the form
//
//	execution([ret ]type.method(params))
//
// joined by ||. A * matches any run of characters. The type pattern is tried
// against the import-path qualified name, the package-qualified name and the
// bare name of the type. In the parameter list, .. matches any remaining
// parameters and * exactly one.
type ExpressionPointcut struct {
	expression string
	patterns   []executionPattern
}

type executionPattern struct {
	ret    *regexp.Regexp
	typ    *regexp.Regexp
	method *regexp.Regexp
	params []*regexp.Regexp
	rest   bool
}

func NewExpressionPointcut(expression string) (*ExpressionPointcut, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, errEmptyExpression
	}

	p := &ExpressionPointcut{expression: expression}
	for _, alt := range strings.Split(expression, "||") {
		pattern, err := parseExecution(strings.TrimSpace(alt))
		if err != nil {
			return nil, fmt.Errorf("pointcut %q: %w", expression, err)
		}
		p.patterns = append(p.patterns, pattern)
	}
	return p, nil
}

func MustExpressionPointcut(expression string) *ExpressionPointcut {
	p, err := NewExpressionPointcut(expression)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *ExpressionPointcut) String() string {
	return p.expression
}

func (p *ExpressionPointcut) ClassFilter() ClassFilter {
	return p
}

func (p *ExpressionPointcut) MethodMatcher() MethodMatcher {
	return p
}

func (p *ExpressionPointcut) MatchesType(t reflect.Type) bool {
	names := reflectutil.Names(t)
	for _, pattern := range p.patterns {
		if pattern.matchesType(names) {
			return true
		}
	}
	return false
}

func (p *ExpressionPointcut) MatchesMethod(m reflect.Method, t reflect.Type) bool {
	names := reflectutil.Names(t)
	for _, pattern := range p.patterns {
		if pattern.matchesType(names) && pattern.matchesMethod(m) {
			return true
		}
	}
	return false
}

func parseExecution(s string) (executionPattern, error) {
	body, ok := strings.CutPrefix(s, "execution(")
	if !ok || !strings.HasSuffix(body, ")") {
		return executionPattern{}, fmt.Errorf("expected execution(...), got %q", s)
	}
	body = strings.TrimSpace(strings.TrimSuffix(body, ")"))

	open := strings.LastIndex(body, "(")
	if open < 0 || !strings.HasSuffix(body, ")") {
		return executionPattern{}, fmt.Errorf("missing parameter list in %q", s)
	}
	params := body[open+1 : len(body)-1]
	signature := strings.TrimSpace(body[:open])

	ret := "*"
	if sp := strings.LastIndex(signature, " "); sp >= 0 {
		ret = strings.TrimSpace(signature[:sp])
		signature = strings.TrimSpace(signature[sp+1:])
	}

	dot := strings.LastIndex(signature, ".")
	if dot <= 0 || dot == len(signature)-1 {
		return executionPattern{}, fmt.Errorf("expected type.method in %q", s)
	}

	pattern := executionPattern{
		ret:    glob(ret),
		typ:    glob(signature[:dot]),
		method: glob(signature[dot+1:]),
	}
	for _, param := range strings.Split(params, ",") {
		param = strings.TrimSpace(param)
		switch param {
		case "":
		case "..":
			pattern.rest = true
		default:
			if pattern.rest {
				return executionPattern{}, fmt.Errorf(".. must be the last parameter in %q", s)
			}
			pattern.params = append(pattern.params, glob(param))
		}
	}
	return pattern, nil
}

func glob(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	return regexp.MustCompile("^" + strings.ReplaceAll(quoted, `\*`, ".*") + "$")
}

func (e executionPattern) matchesType(names []string) bool {
	for _, name := range names {
		if e.typ.MatchString(name) {
			return true
		}
	}
	return false
}

func (e executionPattern) matchesMethod(m reflect.Method) bool {
	if !e.method.MatchString(m.Name) {
		return false
	}
	if !e.ret.MatchString(resultString(reflectutil.Out(m))) {
		return false
	}
	return e.matchesParams(reflectutil.In(m))
}

func (e executionPattern) matchesParams(params []reflect.Type) bool {
	if len(params) < len(e.params) || (!e.rest && len(params) != len(e.params)) {
		return false
	}
	for i, pattern := range e.params {
		if !pattern.MatchString(params[i].String()) {
			return false
		}
	}
	return true
}

func resultString(results []reflect.Type) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return results[0].String()
	default:
		names := make([]string, len(results))
		for i, r := range results {
			names[i] = r.String()
		}
		return "(" + strings.Join(names, ", ") + ")"
	}
}
