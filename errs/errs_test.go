package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageHidesCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed for user \"blog\"")
	err := NewDatabaseError("create", "blog post", cause)

	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "Failed to create blog post", err.Message())
	assert.NotContains(t, err.Message(), "password")
	assert.Contains(t, err.GetFullError(), "password")
	assert.True(t, IsStoreError(err))
}

func TestDatabaseConnectionErrorIsUnavailable(t *testing.T) {
	err := NewDatabaseError("list", "blog post", errors.New("dial tcp: connect: connection refused"))

	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Equal(t, "Unable to connect to database", err.Message())
	assert.ErrorIs(t, err, ErrDatabaseConnection)
}

func TestNotFound(t *testing.T) {
	err := NewNotFound("Blog")

	assert.Equal(t, "Blog not found", err.Message())
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", err)))
	assert.Equal(t, http.StatusNotFound, StatusCode(fmt.Errorf("get: %w", err)))
}

func TestStatusCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
	assert.Equal(t, http.StatusBadGateway, StatusCode(NewAssetUploadError(3, errors.New("timeout"))))
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    *ApiErr
		status int
		field  string
	}{
		{"missing", NewMissingRequiredFieldError("title"), http.StatusBadRequest, "title"},
		{"invalid", NewInvalidFieldError("publishDate", "expected YYYY-MM-DD"), http.StatusBadRequest, "publishDate"},
		{"media type", NewUnsupportedMediaTypeError("text/plain", []string{"image/png"}), http.StatusUnsupportedMediaType, "image"},
		{"too large", NewMaxBodySizeExceededError(10), http.StatusRequestEntityTooLarge, "body_size"},
		{"malformed", NewMalformedPayloadError("JSON", errors.New("eof")), http.StatusBadRequest, "payload"},
		{"bad request", NewBadRequestError("nope"), http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, IsValidationError(tc.err))
			assert.Equal(t, tc.status, tc.err.StatusCode)
			assert.Equal(t, tc.field, tc.err.Field)
		})
	}

	assert.False(t, IsValidationError(NewAssetUploadError(1, nil)))
	assert.False(t, IsValidationError(NewInvalidTokenError(nil)))
}

func TestInsufficientRoleIsForbidden(t *testing.T) {
	err := NewInsufficientRoleError("admin")

	assert.Equal(t, http.StatusForbidden, err.StatusCode)
	assert.True(t, IsForbidden(err))
	assert.True(t, IsInsufficientRoleError(err))
	assert.Equal(t, "Insufficient role. Required: admin", err.Message())
}

func TestTokenErrorsAreUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(NewInvalidTokenError(errors.New("bad signature"))))
	assert.True(t, IsUnauthorized(NewExpiredTokenError()))
	assert.True(t, IsInvalidTokenError(NewInvalidTokenError(nil)))
	assert.True(t, IsExpiredTokenError(NewExpiredTokenError()))
	assert.False(t, IsUnauthorized(NewInsufficientRoleError("admin")))
}

func TestInternalErrorKeepsCauseOutOfMessage(t *testing.T) {
	err := NewInternalErrorWithCause("An unexpected error occurred", errors.New("nil map write"))

	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "An unexpected error occurred", err.Message())
	assert.Contains(t, err.GetFullError(), "nil map write")
	assert.ErrorIs(t, err, ErrInternal)
}
