package validation_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/validation"
)

type signupRequest struct {
	Username       string `json:"username" validate:"notblank,max=150"`
	Password       string `json:"password" validate:"required,max=1024"`
	PasswordRepeat string `json:"password_repeat" validate:"eqfield=Password"`
}

type reviewRequest struct {
	Score   string `json:"score" validate:"required,score"`
	Comment string `json:"comment,omitempty" validate:"max=10000"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(signupRequest{
		Username:       "alice",
		Password:       "pwd",
		PasswordRepeat: "pwd",
	}))
	assert.NoError(t, v.Validate(reviewRequest{Score: "4.5"}))
	assert.NoError(t, v.Validate(reviewRequest{Score: "dnf"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
	}{
		{
			name:      "blank username",
			req:       signupRequest{Username: "   ", Password: "pwd", PasswordRepeat: "pwd"},
			wantField: "username",
		},
		{
			name:      "username too long",
			req:       signupRequest{Username: strings.Repeat("a", 151), Password: "pwd", PasswordRepeat: "pwd"},
			wantField: "username",
		},
		{
			name:      "passwords differ",
			req:       signupRequest{Username: "alice", Password: "pwd", PasswordRepeat: "other"},
			wantField: "password_repeat",
		},
		{
			name:      "score out of range",
			req:       reviewRequest{Score: "6"},
			wantField: "score",
		},
		{
			name:      "score not on half step",
			req:       reviewRequest{Score: "3.3"},
			wantField: "score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Equal(t, errors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{Password: "pwd", PasswordRepeat: "pwd"})
	require.Error(t, err)

	// Should use JSON tag name "username", not struct field name "Username"
	assert.Contains(t, err.Error(), "username")
	assert.NotContains(t, err.Error(), "Username")
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("name", "Bookclub", "notblank,max=255"))

	err := v.Var("name", strings.Repeat("x", 256), "notblank,max=255")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "name must not exceed 255 characters")
}
