package main

import (
	"context"

	"github.com/spf13/cobra"

	"jan-server/clients/jan-chat/internal/interfaces/console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat console",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			// Bootstrap failures are reported as notices; the console still opens so
			// the user can /login.
			_ = app.coord.Bootstrap(ctx)

			c := console.New(app.coord, app.notices.C(), cmd.InOrStdin(), cmd.OutOrStdout(), app.log)
			return c.Run(ctx)
		})
	},
}
