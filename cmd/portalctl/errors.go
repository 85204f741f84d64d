package main

import (
	"errors"
	"net/url"

	"github.com/avoronin/portalctl/internal/apperrors"
	"github.com/avoronin/portalctl/internal/input"
)

// userMessage maps errors to user-facing text in one place. Matching is on
// typed errors only, never on message substrings.
func userMessage(err error) string {
	var fields input.FieldErrors
	if errors.As(err, &fields) {
		return fields.Error()
	}

	var urlErr *url.Error

	switch {
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return "You are not logged in. Run 'portalctl login' first."
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, apperrors.ErrForbidden):
		return "You don't have permission to perform this action. Only administrators can."
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "An account with this email already exists."
	case errors.Is(err, apperrors.ErrNoTokenPair), errors.Is(err, apperrors.ErrNoRefreshToken):
		return "No session stored. Run 'portalctl login' first."
	case errors.Is(err, apperrors.ErrNotFound):
		return "The requested resource was not found."
	case errors.As(err, &urlErr):
		return "Network error. Please check your connection and try again."
	default:
		return err.Error()
	}
}
