package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avoronin/portalctl/internal/api"
	"github.com/avoronin/portalctl/internal/logger"
	"github.com/avoronin/portalctl/internal/models"
	"github.com/avoronin/portalctl/internal/testutil"
	"github.com/avoronin/portalctl/internal/tokenstore"
)

func TestFetchDashboard(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*testutil.Backend, *api.Client) {
		t.Helper()

		backend := testutil.NewBackend()
		t.Cleanup(backend.Close)

		admin := backend.AddUser("admin@example.com", "pwd", models.RoleAdmin, true)
		backend.AddItem("First item", "", admin.UserID)
		backend.AddItem("Second item", "", admin.UserID)

		store := tokenstore.NewMemory()
		require.NoError(t, store.Save(backend.IssuePair("admin@example.com")))

		return backend, api.New(api.Config{BaseURL: backend.URL(), Store: store})
	}

	t.Run("both sections load", func(t *testing.T) {
		_, client := setup(t)

		users, items := fetchDashboard(t.Context(), client, logger.NewNoOpLogger())

		require.Len(t, users, 1)
		require.Len(t, items, 2)
	})

	t.Run("failed items degrade to empty, users survive", func(t *testing.T) {
		backend, client := setup(t)
		backend.FailItems(true)

		users, items := fetchDashboard(t.Context(), client, logger.NewNoOpLogger())

		require.Len(t, users, 1, "users section should be unaffected by the items failure")
		require.Empty(t, items, "failed items fetch should show an empty list, not an error")
	})

	t.Run("forbidden users degrade to empty, items survive", func(t *testing.T) {
		backend, client := setup(t)
		backend.AddUser("viewer@example.com", "pwd", models.RoleViewer, false)
		require.NoError(t, client.Store().Save(backend.IssuePair("viewer@example.com")))

		users, items := fetchDashboard(t.Context(), client, logger.NewNoOpLogger())

		require.Empty(t, users, "viewer cannot list users")
		require.Len(t, items, 2, "items section should be unaffected by the users failure")
	})
}
