package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrValidation     = errors.New("validation_error")
	ErrMemberNotFound = errors.New("member_not_found")

	// Token-state violations
	ErrInvalidToken = errors.New("invalid_token")
	ErrTokenExpired = errors.New("token_expired")
	ErrTokenUsed    = errors.New("token_used")

	// For external service failures (identity provider, mail outbox)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// AppError carries a failure from the service layer to the controllers,
// which map it onto the transport response.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap lets controllers match the underlying sentinel with errors.Is.
func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError normalizes any error into an *AppError. Unknown error types
// become a 500 with the underlying message attached, so collaborator
// failures surface in the response body.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrCodeInternal,
		Message:    "An unexpected error occurred",
		Err:        err,
	}
}
