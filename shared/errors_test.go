package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsDisambiguateSameStatus(t *testing.T) {
	invalid := NewInvalidStateError(errors.New("session ended"), "Session is not running")
	conflict := NewConcurrencyConflictError(errors.New("version conflict"), "Retry the outcome")

	// Both map to 409; classification must not collapse them.
	assert.Equal(t, invalid.StatusCode, conflict.StatusCode)

	assert.True(t, IsInvalidState(invalid))
	assert.False(t, IsInvalidState(conflict))

	assert.True(t, IsConcurrencyConflict(conflict))
	assert.False(t, IsConcurrencyConflict(invalid))

	assert.True(t, IsPersistenceUnavailable(NewPersistenceUnavailableError(nil, "store down")))
	assert.False(t, IsPersistenceUnavailable(conflict))
}

func TestErrorKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("recording outcome: %w", NewConcurrencyConflictError(errors.New("cas"), "Retry the outcome"))

	assert.True(t, IsConcurrencyConflict(err))
	assert.False(t, IsInvalidState(err))
}

func TestErrorKindsRejectPlainErrors(t *testing.T) {
	err := errors.New("not an app error")

	assert.False(t, IsInvalidState(err))
	assert.False(t, IsConcurrencyConflict(err))
	assert.False(t, IsPersistenceUnavailable(err))
}
