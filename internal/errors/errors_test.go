package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		// Legacy clients expect 400 for missing or unowned resources,
		// and for duplicates like a taken email.
		{CodeNotFound, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeAlreadyExists, http.StatusBadRequest},
		{CodeConflict, http.StatusBadRequest},
		{CodeAlreadyConfigured, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeInternal, http.StatusInternalServerError},
		{Code("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPStatus(), "code %s", tt.code)
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := NotFound("list not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("badger: key not found")
	err := Wrap(cause, CodeInternal, "failed to load task")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to load task")
	assert.Contains(t, err.Error(), "badger")
}

func TestWithDetailsDoesNotMutate(t *testing.T) {
	base := Validation("validation failed")
	detailed := base.WithDetails(map[string]string{"title": "required"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.Equal(t, base.Code, detailed.Code)
}
