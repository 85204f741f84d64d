package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avoronin/portalctl/internal/api"
	"github.com/avoronin/portalctl/internal/apperrors"
	"github.com/avoronin/portalctl/internal/models"
	"github.com/avoronin/portalctl/internal/testutil"
	"github.com/avoronin/portalctl/internal/tokenstore"
)

type fixture struct {
	backend *testutil.Backend
	store   *tokenstore.Memory
	session *Session
	logouts *int
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	backend := testutil.NewBackend()
	t.Cleanup(backend.Close)

	store := tokenstore.NewMemory()
	client := api.New(api.Config{BaseURL: backend.URL(), Store: store})

	logouts := 0
	sess, err := New(Config{
		Client:   client,
		Store:    store,
		OnLogout: func() { logouts++ },
	})
	require.NoError(t, err, "session should be created without errors")

	return fixture{backend: backend, store: store, session: sess, logouts: &logouts}
}

func TestSession_Start(t *testing.T) {
	t.Parallel()

	t.Run("fresh session is initializing", func(t *testing.T) {
		f := newFixture(t)

		require.Equal(t, StateInitializing, f.session.State())
		require.True(t, f.session.Loading(), "loading should be distinct from anonymous")
		require.False(t, f.session.Authenticated(), "initializing session reports unauthenticated")
	})

	t.Run("no stored pair resolves anonymous", func(t *testing.T) {
		f := newFixture(t)

		f.session.Start(t.Context())

		require.Equal(t, StateAnonymous, f.session.State())
		require.False(t, f.session.Loading())
		require.False(t, f.session.Authenticated())
	})

	t.Run("valid pair resolves authenticated", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("nk@example.com", "pwd", models.RoleViewer, false)
		require.NoError(t, f.store.Save(f.backend.IssuePair("nk@example.com")))

		f.session.Start(t.Context())

		require.Equal(t, StateAuthenticated, f.session.State())
		require.True(t, f.session.Authenticated())

		user, ok := f.session.CurrentUser()
		require.True(t, ok, "user should be loaded after start")
		require.Equal(t, "nk@example.com", user.Email)
	})

	t.Run("expired pair resolves anonymous without backend call", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("nk@example.com", "pwd", models.RoleViewer, false)
		require.NoError(t, f.store.Save(f.backend.ExpiredPair("nk@example.com")))

		f.session.Start(t.Context())

		require.Equal(t, StateAnonymous, f.session.State())
	})

	t.Run("user fetch failure clears store", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("gone@example.com", "pwd", models.RoleViewer, false)
		require.NoError(t, f.store.Save(f.backend.IssuePair("gone@example.com")))
		f.backend.RemoveUser("gone@example.com")

		f.session.Start(t.Context())

		require.Equal(t, StateAnonymous, f.session.State())
		require.False(t, f.store.Valid(time.Now()), "unusable pair should be dropped")
	})
}

func TestSession_Login(t *testing.T) {
	t.Parallel()

	t.Run("login ok", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("nk@example.com", "StrongEnoughPassword", models.RoleEditor, false)
		f.session.Start(t.Context())

		err := f.session.Login(t.Context(), "nk@example.com", "StrongEnoughPassword")

		require.NoError(t, err)
		require.True(t, f.session.Authenticated())
		require.True(t, f.store.Valid(time.Now()), "pair should be stored")

		user, ok := f.session.CurrentUser()
		require.True(t, ok)
		require.Equal(t, models.RoleEditor, user.Role)
	})

	t.Run("wrong credentials stay anonymous", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("nk@example.com", "StrongEnoughPassword", models.RoleViewer, false)
		f.session.Start(t.Context())

		err := f.session.Login(t.Context(), "nk@example.com", "wrong")

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		require.Equal(t, StateAnonymous, f.session.State())
		require.False(t, f.session.Authenticated())
		require.Equal(t, 0, *f.logouts, "failed login from anonymous should not fire the logout hook")
	})
}

func TestSession_Register(t *testing.T) {
	t.Parallel()

	t.Run("register chains into login", func(t *testing.T) {
		f := newFixture(t)
		f.session.Start(t.Context())

		err := f.session.Register(t.Context(), "new@example.com", "StrongEnoughPassword", models.RoleViewer)

		require.NoError(t, err)
		require.True(t, f.session.Authenticated(), "registration should leave an authenticated session")

		user, ok := f.session.CurrentUser()
		require.True(t, ok)
		require.Equal(t, "new@example.com", user.Email, "loaded user should match the registered email")

		require.Equal(t, 1, f.backend.LoginCalls(), "login endpoint should be hit exactly once")
	})

	t.Run("duplicate email fails before login", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("dup@example.com", "pwd", models.RoleViewer, false)
		f.session.Start(t.Context())

		err := f.session.Register(t.Context(), "dup@example.com", "StrongEnoughPassword", "")

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		require.Equal(t, 0, f.backend.LoginCalls(), "no login attempt should be made")
		require.False(t, f.session.Authenticated())
	})
}

func TestSession_Logout(t *testing.T) {
	t.Parallel()

	t.Run("logout destroys session and fires hook once", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("nk@example.com", "pwd", models.RoleViewer, false)
		f.session.Start(t.Context())
		require.NoError(t, f.session.Login(t.Context(), "nk@example.com", "pwd"))

		f.session.Logout()
		f.session.Logout()

		require.Equal(t, StateAnonymous, f.session.State())
		require.False(t, f.session.Authenticated())
		require.False(t, f.store.Valid(time.Now()), "store should be cleared")

		_, ok := f.session.CurrentUser()
		require.False(t, ok, "user should be dropped")
		require.Equal(t, 1, *f.logouts, "repeated logout should not fire the hook again")
	})

	t.Run("observed 401 destroys session", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("nk@example.com", "pwd", models.RoleViewer, false)
		f.session.Start(t.Context())
		require.NoError(t, f.session.Login(t.Context(), "nk@example.com", "pwd"))

		// Swap the stored pair for an expired one: the next call 401s
		require.NoError(t, f.store.Save(f.backend.ExpiredPair("nk@example.com")))

		err := f.session.ResetPassword(t.Context(), "AnotherPassword123")

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		require.Equal(t, StateAnonymous, f.session.State())
		require.False(t, f.store.Valid(time.Now()), "store should be cleared by the client")
		require.Equal(t, 1, *f.logouts, "forced logout should fire the hook")
	})
}

func TestSession_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("explicit refresh extends session", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("nk@example.com", "pwd", models.RoleViewer, false)
		require.NoError(t, f.store.Save(f.backend.ExpiredPair("nk@example.com")))

		err := f.session.Refresh(t.Context())

		require.NoError(t, err)
		require.True(t, f.store.Valid(time.Now()), "refreshed pair should be valid")
	})

	t.Run("refresh without stored pair fails", func(t *testing.T) {
		f := newFixture(t)

		err := f.session.Refresh(t.Context())

		require.ErrorIs(t, err, apperrors.ErrNoTokenPair)
	})
}
