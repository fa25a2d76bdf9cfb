package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/authsamples/internal/model"
	"github.com/mcoot/authsamples/internal/services/accounts"
	"github.com/mcoot/authsamples/internal/services/auth"
	"github.com/mcoot/authsamples/internal/validation"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", &accounts.DuplicateAccountError{Email: "a@b.c"}, http.StatusConflict, CodeDuplicateAccount},
		{"wrapped duplicate", fmt.Errorf("signup: %w", &accounts.DuplicateAccountError{Email: "a@b.c"}), http.StatusConflict, CodeDuplicateAccount},
		{"bad credentials", accounts.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"bad session", auth.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
		{"no account", model.ErrAccountNotFound, http.StatusNotFound, CodeAccountNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
		{"invalid request", NewInvalidRequestError("bad json"), http.StatusBadRequest, CodeInvalidRequest},
		{"unauthorized", NewUnauthorizedError(), http.StatusUnauthorized, CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestValidationErrorCarriesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewValidationError([]validation.FieldError{
		{Field: "email", Message: "Email is required", Tag: "required"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"VALIDATION_FAILED","message":"Invalid request data","details":[{"field":"email","message":"Email is required","type":"required"}]}}`, rec.Body.String())
}

func TestInternalErrorDoesNotLeakCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("pq: password authentication failed for user admin"))

	assert.NotContains(t, rec.Body.String(), "admin")
}
