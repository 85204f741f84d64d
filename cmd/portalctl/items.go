package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/avoronin/portalctl/internal/guard"
	"github.com/avoronin/portalctl/internal/models"
)

func newItemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage portal items",
	}

	cmd.AddCommand(newItemsListCmd(a), newItemsCreateCmd(a))
	return cmd
}

func newItemsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := guard.RequireSession(a.startSession(cmd.Context())); err != nil {
				return err
			}

			items, err := a.client.ListItems(cmd.Context())
			if err != nil {
				return err
			}

			printItems(cmd, items)
			return nil
		},
	}
}

func newItemsCreateCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := guard.RequireSession(a.startSession(cmd.Context())); err != nil {
				return err
			}

			item, err := a.client.CreateItem(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created item %s (%s)\n", item.Title, item.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Item description")
	return cmd
}

func printItems(cmd *cobra.Command, items []models.Item) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDESCRIPTION")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.ID, item.Title, item.Description)
	}
	_ = w.Flush()
}
