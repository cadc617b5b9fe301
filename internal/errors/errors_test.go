package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error formats code and message", func(t *testing.T) {
		err := New(ErrCodeValidation, "body is missing")
		assert.Equal(t, "VALIDATION_ERROR: body is missing", err.Error())
	})

	t.Run("Error includes cause when present", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := Wrap(ErrCodeDatabase, "save failed", cause)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Unwrap returns the cause", func(t *testing.T) {
		cause := fmt.Errorf("boom")
		err := New(ErrCodeInternal, "oops").WithCause(cause)
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("WithDetails attaches details", func(t *testing.T) {
		err := ValidationError("too long").WithDetails(map[string]int{"length": 5000})
		assert.NotNil(t, err.Details)
	})
}

func TestConstructors(t *testing.T) {
	t.Run("TooManyButtons carries the cap", func(t *testing.T) {
		err := TooManyButtons(3)
		assert.Equal(t, ErrCodeTooManyButtons, err.Code)
		assert.Contains(t, err.Message, "3")
	})

	t.Run("MissingRequired names the field", func(t *testing.T) {
		err := MissingRequired("body")
		assert.Equal(t, ErrCodeMissingRequired, err.Code)
		assert.Contains(t, err.Message, "body")
	})

	t.Run("NotFound names the resource", func(t *testing.T) {
		assert.Equal(t, "session not found", NotFound("session").Message)
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("unwraps a wrapped AppError", func(t *testing.T) {
		inner := TooManySections(10)
		wrapped := fmt.Errorf("build list: %w", inner)

		appErr, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeTooManySections, appErr.Code)
	})

	t.Run("plain errors are not AppErrors", func(t *testing.T) {
		_, ok := AsAppError(fmt.Errorf("plain"))
		assert.False(t, ok)
		assert.False(t, IsAppError(fmt.Errorf("plain")))
	})

	t.Run("GetCode falls back to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(fmt.Errorf("plain")))
		assert.Equal(t, ErrCodeDatabase, GetCode(Database(fmt.Errorf("x"))))
	})
}
