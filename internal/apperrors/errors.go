package apperrors

import (
	"errors"
	"fmt"
)

var (
	// Session state
	ErrNotAuthenticated = errors.New("not authenticated")

	// Token store
	ErrNoTokenPair    = errors.New("token pair not found")
	ErrNoRefreshToken = errors.New("refresh token not found")

	// Backend responses
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// APIError is a non-2xx backend response.
// Status code and the backend 'detail' message are preserved, so callers
// never have to match on rendered error text.
type APIError struct {
	StatusCode int
	Detail     string

	// Sentinel the status maps to, if any. Matched with errors.Is.
	Err error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status=%d, detail=%s", e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func NewAPIError(statusCode int, detail string, err error) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Detail:     detail,
		Err:        err,
	}
}
