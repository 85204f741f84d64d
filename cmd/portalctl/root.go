package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avoronin/portalctl/internal/api"
	"github.com/avoronin/portalctl/internal/logger"
	"github.com/avoronin/portalctl/internal/session"
	"github.com/avoronin/portalctl/internal/tokenstore"
)

// app holds everything the commands share. Built once in the root
// PersistentPreRun, after config resolution is complete.
type app struct {
	cfg     *Config
	logger  logger.Logger
	store   tokenstore.Store
	client  *api.Client
	session *session.Session
}

func (a *app) init() error {
	a.logger = logger.New(a.cfg.Environment, a.cfg.LogLevel)

	a.store = tokenstore.Store(tokenstore.Nop{})
	if a.cfg.StateFile != "" {
		fileStore, err := tokenstore.NewFileStore(a.cfg.StateFile)
		if err != nil {
			return fmt.Errorf("error while opening state file. Err: %w", err)
		}
		a.store = fileStore
	}

	a.client = api.New(api.Config{
		BaseURL: a.cfg.APIURL,
		Store:   a.store,
		Logger:  a.logger,
	})

	sess, err := session.New(session.Config{
		Client: a.client,
		Store:  a.store,
		Logger: a.logger,
		OnLogout: func() {
			fmt.Fprintln(os.Stderr, "Session ended. Run 'portalctl login' to continue.")
		},
	})
	if err != nil {
		return fmt.Errorf("error while creating session. Err: %w", err)
	}
	a.session = sess

	return nil
}

// startSession hydrates the session from the stored pair. Commands guard on
// the result; they never look at the store directly.
func (a *app) startSession(ctx context.Context) *session.Session {
	a.session.Start(ctx)
	return a.session
}

func newRootCmd(getenv func(string) string, getwd func() (string, error)) (*cobra.Command, error) {
	cfg := NewConfig()
	if err := cfg.LoadDotEnv(getwd); err != nil {
		return nil, fmt.Errorf("error while loading .env file. Err: %w", err)
	}
	cfg.LoadEnv(getenv)

	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Command-line client for the portal backend",
		Long:          "portalctl talks to the portal REST backend: log in, manage users and items, inspect your session.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	cfg.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newRegisterCmd(a),
		newRefreshCmd(a),
		newWhoamiCmd(a),
		newResetPasswordCmd(a),
		newInviteCmd(a),
		newUsersCmd(a),
		newItemsCmd(a),
		newDashboardCmd(a),
		newAccountCmd(a),
		newHealthCmd(a),
	)

	return root, nil
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check backend availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}
