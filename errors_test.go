package formkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormErrorMessageComposition(t *testing.T) {
	err := NewFormError(ErrorTypeBind, ErrCodeFieldNotInSchema, "no such field")
	assert.Equal(t, "[bind:FIELD_NOT_IN_SCHEMA] no such field", err.Error())

	err = err.WithField("height")
	assert.Contains(t, err.Error(), "field 'height'")

	err = err.WithElement("text_edit")
	assert.Contains(t, err.Error(), "element 'text_edit'")
	assert.Contains(t, err.Error(), "field 'height'")
}

func TestFormErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistenceError(ErrCodeInsertFailed, "insert failed", cause)
	assert.True(t, errors.Is(err, cause))

	var formErr *FormError
	require.True(t, errors.As(err, &formErr))
	assert.Equal(t, ErrCodeInsertFailed, formErr.Code)
}

func TestFormErrorChainableContext(t *testing.T) {
	err := NewValueError("height", "out of range").
		WithLayer("trees").
		WithDetail("max", 100)

	assert.Equal(t, "trees", err.Layer)
	assert.Equal(t, 100, err.Details["max"])
	assert.Equal(t, "height", err.Field)
}

func TestErrorPredicates(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"parse", NewFormParseError("bad json"), IsFormParseError},
		{"bind", NewElementBindError("photo", "no store"), IsElementBindError},
		{"required attr", NewRequiredAttrError("text_edit", "field_name"), IsElementBindError},
		{"value", NewValueError("height", "not a number"), IsValueError},
		{"conversion", NewConversionError("height", "bad float"), IsValueError},
		{"persistence", NewPersistenceError(ErrCodeUpdateFailed, "boom", nil), IsPersistenceError},
		{"feature not found", NewFeatureNotFoundError("trees", "abc"), IsNotFoundError},
		{"layer not found", NewLayerNotFoundError("trees"), IsNotFoundError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.predicate(tc.err))
		})
	}
}

func TestErrorPredicatesAreDisjoint(t *testing.T) {
	err := NewValueError("height", "bad")
	assert.False(t, IsFormParseError(err))
	assert.False(t, IsElementBindError(err))
	assert.False(t, IsPersistenceError(err))
	assert.False(t, IsNotFoundError(err))

	assert.False(t, IsValueError(errors.New("plain error")))
	assert.False(t, IsValueError(nil))
}
