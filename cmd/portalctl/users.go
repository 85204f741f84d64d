package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/avoronin/portalctl/internal/guard"
	"github.com/avoronin/portalctl/internal/input"
	"github.com/avoronin/portalctl/internal/models"
)

func newInviteCmd(a *app) *cobra.Command {
	var email, password, confirm, role string

	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Create an account for a team member (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The admin gate runs before any input touches the backend,
			// the way the invite page bounces non-admins to the dashboard
			if _, err := guard.RequireAdmin(a.startSession(cmd.Context())); err != nil {
				return err
			}

			password, err := readPassword(cmd, password, "Temporary password: ")
			if err != nil {
				return err
			}
			if confirm == "" {
				confirm = password
			}

			in := input.Invite{Email: email, Password: password, ConfirmPassword: confirm, Role: role}
			if err := input.Validate(in); err != nil {
				return err
			}

			user, err := a.client.CreateUser(cmd.Context(), in.Email, in.Password, models.Role(in.Role))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Invited %s with role %s\n", user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the invited user")
	cmd.Flags().StringVar(&password, "password", "", "Temporary password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "Password confirmation (defaults to the password)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleViewer), "Role to assign (admin, editor, viewer)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage portal users (admin only)",
	}

	cmd.AddCommand(newUsersListCmd(a), newUsersDeleteCmd(a))
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := guard.RequireSession(a.startSession(cmd.Context())); err != nil {
				return err
			}

			users, err := a.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			printUsers(cmd, users)
			return nil
		},
	}
}

func newUsersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := guard.RequireAdmin(a.startSession(cmd.Context())); err != nil {
				return err
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}

			if err := a.client.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "User deleted")
			return nil
		},
	}
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the authenticated account",
	}

	cmd.AddCommand(newAccountDeleteCmd(a))
	return cmd
}

func newAccountDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := guard.RequireSession(a.startSession(cmd.Context()))
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", user.Email)
			}

			if err := a.client.DeleteCurrentUser(cmd.Context()); err != nil {
				return err
			}
			a.session.Logout()

			fmt.Fprintln(cmd.OutOrStdout(), "Account deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func printUsers(cmd *cobra.Command, users []models.User) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tADMIN")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.UserID, u.Email, u.Role, u.Admin())
	}
	_ = w.Flush()
}
