package loom

import (
	"github.com/danpasecinic/loom/internal/errs"
)

type (
	Error     = errs.Error
	ErrorCode = errs.Code
)

const (
	ErrCodeUnknown               = errs.CodeUnknown
	ErrCodeUndefinedComponent    = errs.CodeUndefinedComponent
	ErrCodeNoMatchingConstructor = errs.CodeNoMatchingConstructor
	ErrCodePropertyAssignment    = errs.CodePropertyAssignment
	ErrCodeComponentCreation     = errs.CodeComponentCreation
	ErrCodeDisposal              = errs.CodeDisposal
	ErrCodeCircularReference     = errs.CodeCircularReference
	ErrCodeTypeMismatch          = errs.CodeTypeMismatch
	ErrCodeValidationFailed      = errs.CodeValidationFailed
	ErrCodeFactoryObject         = errs.CodeFactoryObject
)

// Sentinels for errors.Is. They match any *Error with the same code at any
// depth of the chain.
var (
	ErrUndefinedComponent    = &Error{Code: ErrCodeUndefinedComponent}
	ErrNoMatchingConstructor = &Error{Code: ErrCodeNoMatchingConstructor}
	ErrPropertyAssignment    = &Error{Code: ErrCodePropertyAssignment}
	ErrComponentCreation     = &Error{Code: ErrCodeComponentCreation}
	ErrDisposal              = &Error{Code: ErrCodeDisposal}
	ErrCircularReference     = &Error{Code: ErrCodeCircularReference}
	ErrTypeMismatch          = &Error{Code: ErrCodeTypeMismatch}
	ErrValidationFailed      = &Error{Code: ErrCodeValidationFailed}
	ErrFactoryObject         = &Error{Code: ErrCodeFactoryObject}
)

func IsUndefinedComponent(err error) bool {
	return errs.Has(err, ErrCodeUndefinedComponent)
}

func IsNoMatchingConstructor(err error) bool {
	return errs.Has(err, ErrCodeNoMatchingConstructor)
}

func IsPropertyAssignment(err error) bool {
	return errs.Has(err, ErrCodePropertyAssignment)
}

func IsComponentCreation(err error) bool {
	return errs.Has(err, ErrCodeComponentCreation)
}

func IsDisposal(err error) bool {
	return errs.Has(err, ErrCodeDisposal)
}

func IsCircularReference(err error) bool {
	return errs.Has(err, ErrCodeCircularReference)
}

func IsTypeMismatch(err error) bool {
	return errs.Has(err, ErrCodeTypeMismatch)
}

func IsValidationFailed(err error) bool {
	return errs.Has(err, ErrCodeValidationFailed)
}

func IsFactoryObject(err error) bool {
	return errs.Has(err, ErrCodeFactoryObject)
}
