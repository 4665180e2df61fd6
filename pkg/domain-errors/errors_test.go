package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	t.Run("new error carries its code", func(t *testing.T) {
		err := New(CodeNotFound, "lobby not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInvalidOperation))
		assert.Equal(t, "lobby not found", err.Error())
	})

	t.Run("wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "failed to save lobby")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to save lobby: connection reset", err.Error())
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "player not found")
		outer := Wrap(inner, CodeInvalidOperation, "cannot join")
		assert.Equal(t, CodeInvalidOperation, CodeOf(outer))
	})

	t.Run("fmt wrapping preserves the code", func(t *testing.T) {
		err := fmt.Errorf("listener: %w", New(CodeInvalidArgument, "bad id"))
		assert.True(t, HasCode(err, CodeInvalidArgument))
	})

	t.Run("uncoded and nil errors", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
		assert.Equal(t, Code(""), CodeOf(nil))
	})
}
