package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("All fields are required"), http.StatusBadRequest},
		{"conflict", Conflict("Company with this email already exists"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("Invalid credentials"), http.StatusUnauthorized},
		{"forbidden", New(ErrForbidden, "Invalid token"), http.StatusForbidden},
		{"not found wrapped", fmt.Errorf("lookup: %w", NotFound("Document not found")), http.StatusNotFound},
		{"bare sentinel", ErrNotFound, http.StatusNotFound},
		{"external", Wrap(ErrExternalService, "LLM call failed", errors.New("boom")), http.StatusInternalServerError},
		{"plain", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrExternalService, "Webhook call failed", cause)

	assert.ErrorIs(t, err, ErrExternalService)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Webhook call failed: connection refused", err.Error())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Document not found", Message(fmt.Errorf("get: %w", NotFound("Document not found")), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
}
