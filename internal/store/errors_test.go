package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesDerivedErrors(t *testing.T) {
	derived := ErrNotFound.WithMessage("club not found")

	assert.True(t, errors.Is(derived, ErrNotFound))
	assert.False(t, errors.Is(derived, ErrAlreadyExists))
	assert.Equal(t, "club not found", derived.Error())
	assert.Equal(t, http.StatusNotFound, derived.HTTPCode())
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("consume invite: %w", ErrInviteSpent)
	assert.True(t, errors.Is(err, ErrInviteSpent))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: users.username")
	err := ErrAlreadyExists.WithCause(cause)

	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "resource already exists: UNIQUE")
}
