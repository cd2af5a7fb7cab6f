package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("apply max_day: %w", NewPersistenceError("update row", cause))

	assert.True(t, IsPersistence(err))
	assert.False(t, IsConfiguration(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNilAndPlainErrors(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsValidation(errors.New("boom")))
	assert.Equal(t, "not_found: no such sensor", NewNotFoundError("no such sensor", nil).Error())
}
