package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec [code]",
	Short: "Run a JavaScript or Python snippet on the backend",
	Long: `Run code in the backend sandbox and print the result formatted as a message.
Pass the code as arguments, or with --stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		language, _ := cmd.Flags().GetString("lang")
		fromStdin, _ := cmd.Flags().GetBool("stdin")
		send, _ := cmd.Flags().GetBool("send")

		code := strings.Join(args, " ")
		if fromStdin {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			code = string(data)
		}

		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			exec, err := app.coord.ExecuteCode(ctx, code, language)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exec.Compose)
			if !send {
				return nil
			}
			if app.coord.Registry().ActiveID() == "" {
				if _, err := app.coord.Create(ctx); err != nil {
					return err
				}
			}
			return app.coord.SendMessage(ctx, exec.Compose, false)
		})
	},
}

func init() {
	execCmd.Flags().StringP("lang", "l", "javascript", "Language: javascript or python")
	execCmd.Flags().Bool("stdin", false, "Read the code from standard input")
	execCmd.Flags().Bool("send", false, "Also post the formatted result to the latest conversation")
}
