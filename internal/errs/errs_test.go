package errs

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := PropertyAssignment("userService", "id", errors.New("boom"))
	assert.Equal(t, `[PROPERTY_ASSIGNMENT] component="userService": cannot assign property "id": boom`, err.Error())
	assert.Equal(t, "UNKNOWN(999)", Code(999).String())
}

func TestError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	inner := Undefined("userStore")
	outer := Creation("userService", fmt.Errorf("resolve reference: %w", inner))

	assert.ErrorIs(t, outer, &Error{Code: CodeUndefinedComponent})
	assert.ErrorIs(t, outer, &Error{Code: CodeComponentCreation})
	assert.NotErrorIs(t, outer, &Error{Code: CodeDisposal})
}

func TestHas_WalksCauses(t *testing.T) {
	t.Parallel()

	inner := NoMatchingConstructor("store", reflect.TypeFor[int](), 2)
	outer := Creation("service", Creation("store", inner))

	assert.True(t, Has(outer, CodeNoMatchingConstructor))
	assert.True(t, Has(outer, CodeComponentCreation))
	assert.False(t, Has(outer, CodeCircularReference))
	assert.False(t, Has(errors.New("plain"), CodeUnknown))
	assert.False(t, Has(nil, CodeUnknown))
}

func TestCreation_DoesNotDoubleWrapSameComponent(t *testing.T) {
	t.Parallel()

	first := Creation("a", errors.New("boom"))
	second := Creation("a", first)
	assert.Same(t, first, second)

	other := Creation("b", first)
	assert.NotSame(t, first, other)
	assert.Equal(t, "b", other.Component)
}

func TestCircularReference_Chain(t *testing.T) {
	t.Parallel()

	err := CircularReference([]string{"a", "b", "a"})
	require.Equal(t, []string{"a", "b", "a"}, err.Chain)
	assert.Equal(t, "a", err.Component)
	assert.Contains(t, err.Error(), "a -> b -> a")
}
