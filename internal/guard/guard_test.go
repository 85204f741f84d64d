package guard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avoronin/portalctl/internal/apperrors"
	"github.com/avoronin/portalctl/internal/models"
)

type fakeSession struct {
	loading       bool
	authenticated bool
	user          *models.User
}

func (s fakeSession) Loading() bool       { return s.loading }
func (s fakeSession) Authenticated() bool { return s.authenticated }

func (s fakeSession) CurrentUser() (models.User, bool) {
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("loading session is refused", func(t *testing.T) {
		_, err := RequireSession(fakeSession{loading: true})

		require.Error(t, err, "guards must not decide while the session is loading")
		require.NotErrorIs(t, err, apperrors.ErrNotAuthenticated,
			"loading is not the same as anonymous")
	})

	t.Run("anonymous session is not authenticated", func(t *testing.T) {
		_, err := RequireSession(fakeSession{})

		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	})

	t.Run("authenticated without loaded user is refused", func(t *testing.T) {
		_, err := RequireSession(fakeSession{authenticated: true})

		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	})

	t.Run("authenticated session passes", func(t *testing.T) {
		u := models.User{Email: "nk@example.com", Role: models.RoleViewer}

		got, err := RequireSession(fakeSession{authenticated: true, user: &u})

		require.NoError(t, err)
		require.Equal(t, u, got)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		user    models.User
		wantErr error
	}{
		{
			name:    "viewer is forbidden",
			user:    models.User{Role: models.RoleViewer},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:    "editor is forbidden",
			user:    models.User{Role: models.RoleEditor},
			wantErr: apperrors.ErrForbidden,
		},
		{
			name: "admin role passes without flag",
			user: models.User{Role: models.RoleAdmin},
		},
		{
			name: "admin flag passes without role",
			user: models.User{Role: models.RoleViewer, IsAdmin: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequireAdmin(fakeSession{authenticated: true, user: &tt.user})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.user, got)
		})
	}

	t.Run("anonymous is not authenticated before forbidden", func(t *testing.T) {
		_, err := RequireAdmin(fakeSession{})

		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	})
}
