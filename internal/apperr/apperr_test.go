package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksWrappedChains(t *testing.T) {
	cause := NotFound("declaration %s", "d-1")
	wrapped := fmt.Errorf("loading: %w", cause)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestWrapKeepsTheCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindParse, cause, "bank payload")

	assert.Equal(t, "bank payload: connection reset", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindParse, KindOf(err))
}

func TestConstructorsCarryTheirKind(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
	}{
		{NotFound("x"), KindNotFound},
		{Forbidden("x"), KindForbidden},
		{Conflict("x"), KindConflict},
		{Unprocessable("x"), KindUnprocessable},
		{Parse("x"), KindParse},
		{Internal(errors.New("y"), "x"), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.err.Kind)
	}
}

func TestMessageFormatting(t *testing.T) {
	err := Conflict("declaration %s is %s", "d-1", "ACCEPTED")
	assert.Equal(t, "declaration d-1 is ACCEPTED", err.Error())
}
