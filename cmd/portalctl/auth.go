package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avoronin/portalctl/internal/guard"
	"github.com/avoronin/portalctl/internal/input"
	"github.com/avoronin/portalctl/internal/models"
)

// readPassword returns the flag value or prompts for one line on stdin.
func readPassword(cmd *cobra.Command, flagValue string, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, password, "Password: ")
			if err != nil {
				return err
			}

			in := input.Login{Email: email, Password: password}
			if err := input.Validate(in); err != nil {
				return err
			}

			if err := a.session.Login(cmd.Context(), in.Email, in.Password); err != nil {
				return err
			}

			user, _ := a.session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Destroy the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var email, password, confirm, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm = password
			}

			in := input.Register{Email: email, Password: password, ConfirmPassword: confirm, Role: role}
			if err := input.Validate(in); err != nil {
				return err
			}

			if err := a.session.Register(cmd.Context(), in.Email, in.Password, models.Role(in.Role)); err != nil {
				return err
			}

			user, _ := a.session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Password confirmation (defaults to the password)")
	cmd.Flags().StringVar(&role, "role", "", "Requested role (admin, editor, viewer)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Refresh(cmd.Context()); err != nil {
				return err
			}

			if pair, ok, _ := a.store.Load(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Session refreshed, valid until %s\n",
					pair.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := guard.RequireSession(a.startSession(cmd.Context()))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", user.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "  id:    %s\n", user.UserID)
			fmt.Fprintf(cmd.OutOrStdout(), "  role:  %s\n", user.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "  admin: %t\n", user.Admin())
			if user.FullName != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  name:  %s\n", user.FullName)
			}
			return nil
		},
	}
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var password, confirm string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Change the authenticated user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := guard.RequireSession(a.startSession(cmd.Context())); err != nil {
				return err
			}

			password, err := readPassword(cmd, password, "New password: ")
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm, err = readPassword(cmd, confirm, "Repeat new password: ")
				if err != nil {
					return err
				}
			}

			in := input.ResetPassword{Password: password, ConfirmPassword: confirm}
			if err := input.Validate(in); err != nil {
				return err
			}

			if err := a.session.ResetPassword(cmd.Context(), in.Password); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Password confirmation (prompted when omitted)")

	return cmd
}
