// Package guard gates operations on session state and role, the way the
// protected pages gate rendering.
package guard

import (
	"errors"

	"github.com/avoronin/portalctl/internal/apperrors"
	"github.com/avoronin/portalctl/internal/models"
)

// Session state the guards read
type Session interface {
	Loading() bool
	Authenticated() bool
	CurrentUser() (models.User, bool)
}

var errSessionLoading = errors.New("session still initializing")

// RequireSession returns the current user or ErrNotAuthenticated.
// A session that has not resolved yet is refused outright: deciding
// "anonymous" before hydration would be a premature redirect.
func RequireSession(s Session) (models.User, error) {
	if s.Loading() {
		return models.User{}, errSessionLoading
	}
	if !s.Authenticated() {
		return models.User{}, apperrors.ErrNotAuthenticated
	}

	user, ok := s.CurrentUser()
	if !ok {
		return models.User{}, apperrors.ErrNotAuthenticated
	}
	return user, nil
}

// RequireAdmin returns the current user when the admin gate passes.
// Non-admins get ErrForbidden, the analog of bouncing back to the dashboard.
func RequireAdmin(s Session) (models.User, error) {
	user, err := RequireSession(s)
	if err != nil {
		return models.User{}, err
	}

	if !user.Admin() {
		return models.User{}, apperrors.ErrForbidden
	}
	return user, nil
}
