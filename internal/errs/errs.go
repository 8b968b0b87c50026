package errs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

type Code uint16

const (
	CodeUnknown Code = iota
	CodeUndefinedComponent
	CodeNoMatchingConstructor
	CodePropertyAssignment
	CodeComponentCreation
	CodeDisposal
	CodeCircularReference
	CodeTypeMismatch
	CodeValidationFailed
	CodeFactoryObject
)

var codeNames = map[Code]string{
	CodeUnknown:               "UNKNOWN",
	CodeUndefinedComponent:    "UNDEFINED_COMPONENT",
	CodeNoMatchingConstructor: "NO_MATCHING_CONSTRUCTOR",
	CodePropertyAssignment:    "PROPERTY_ASSIGNMENT",
	CodeComponentCreation:     "COMPONENT_CREATION",
	CodeDisposal:              "DISPOSAL",
	CodeCircularReference:     "CIRCULAR_REFERENCE",
	CodeTypeMismatch:          "TYPE_MISMATCH",
	CodeValidationFailed:      "VALIDATION_FAILED",
	CodeFactoryObject:         "FACTORY_OBJECT",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

type Error struct {
	Code      Code
	Message   string
	Component string
	Cause     error
	Chain     []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if e.Component != "" {
		b.WriteString(fmt.Sprintf(" component=%q:", e.Component))
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so a bare &Error{Code: c}
// works as a sentinel with errors.Is at any depth of the chain.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func (e *Error) WithComponent(name string) *Error {
	e.Component = name
	return e
}

func (e *Error) WithChain(chain []string) *Error {
	e.Chain = chain
	return e
}

func New(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Has reports whether any *Error in err's chain carries code.
func Has(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

func Undefined(name string) *Error {
	return New(
		CodeUndefinedComponent,
		fmt.Sprintf("no definition registered under %q", name),
		nil,
	).WithComponent(name)
}

func NoMatchingConstructor(name string, t reflect.Type, arity int) *Error {
	return New(
		CodeNoMatchingConstructor,
		fmt.Sprintf("no constructor of %v accepts %d argument(s)", t, arity),
		nil,
	).WithComponent(name)
}

func PropertyAssignment(name, property string, cause error) *Error {
	return New(
		CodePropertyAssignment,
		fmt.Sprintf("cannot assign property %q", property),
		cause,
	).WithComponent(name)
}

// Creation wraps cause unless it already is a creation error for the same
// component, which happens when a failure bubbles through nested lookups.
func Creation(name string, cause error) *Error {
	var e *Error
	if errors.As(cause, &e) && e.Code == CodeComponentCreation && e.Component == name {
		return e
	}
	return New(CodeComponentCreation, "failed to create component", cause).WithComponent(name)
}

func Disposal(name string, cause error) *Error {
	return New(CodeDisposal, "teardown failed", cause).WithComponent(name)
}

func CircularReference(chain []string) *Error {
	name := ""
	if len(chain) > 0 {
		name = chain[len(chain)-1]
	}
	return New(
		CodeCircularReference,
		fmt.Sprintf("circular reference: %s", strings.Join(chain, " -> ")),
		nil,
	).WithComponent(name).WithChain(chain)
}

func TypeMismatch(name string, want, got reflect.Type) *Error {
	return New(
		CodeTypeMismatch,
		fmt.Sprintf("component is %v, not %v", got, want),
		nil,
	).WithComponent(name)
}

func Validation(cause error) *Error {
	return New(CodeValidationFailed, "container validation failed", cause)
}

func FactoryObject(name string, cause error) *Error {
	return New(CodeFactoryObject, "factory component failed to produce its object", cause).WithComponent(name)
}
