package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/avoronin/portalctl/internal/api"
	"github.com/avoronin/portalctl/internal/guard"
	"github.com/avoronin/portalctl/internal/logger"
	"github.com/avoronin/portalctl/internal/models"
)

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the account overview with users and items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := guard.RequireSession(a.startSession(cmd.Context()))
			if err != nil {
				return err
			}

			users, items := fetchDashboard(cmd.Context(), a.client, a.logger)

			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n\n", user.Email, user.Role)

			fmt.Fprintf(cmd.OutOrStdout(), "Users (%d)\n", len(users))
			printUsers(cmd, users)

			fmt.Fprintf(cmd.OutOrStdout(), "\nItems (%d)\n", len(items))
			printItems(cmd, items)

			return nil
		},
	}
}

// fetchDashboard loads users and items concurrently. The calls fail
// independently: a failed fetch degrades to an empty list instead of
// failing the whole overview.
func fetchDashboard(ctx context.Context, client *api.Client, log logger.Logger) ([]models.User, []models.Item) {
	var (
		wg    sync.WaitGroup
		users []models.User
		items []models.Item
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fetched, err := client.ListUsers(ctx)
		if err != nil {
			log.Warn("Failed to fetch users, showing none", "error", err)
			return
		}
		users = fetched
	}()
	go func() {
		defer wg.Done()
		fetched, err := client.ListItems(ctx)
		if err != nil {
			log.Warn("Failed to fetch items, showing none", "error", err)
			return
		}
		items = fetched
	}()
	wg.Wait()

	return users, items
}
