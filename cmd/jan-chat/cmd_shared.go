package main

import (
	"context"

	"github.com/spf13/cobra"

	"jan-server/clients/jan-chat/internal/interfaces/console"
)

var sharedCmd = &cobra.Command{
	Use:   "shared <token|url>",
	Short: "Open a shared conversation (no sign in needed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			shared, err := app.coord.OpenShared(ctx, args[0])
			if err != nil {
				return err
			}
			console.PrintShared(cmd.OutOrStdout(), shared)
			return nil
		})
	},
}
