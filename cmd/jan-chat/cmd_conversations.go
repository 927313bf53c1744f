package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jan-server/clients/jan-chat/internal/interfaces/console"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			console.PrintConversations(cmd.OutOrStdout(), app.coord.Registry().Snapshot())
			return nil
		})
	},
}

var conversationsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			created, err := app.coord.Create(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", created.ID, created.Title)
			return nil
		})
	},
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			ok, err := confirmDelete(cmd, yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := app.coord.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

var conversationsShareCmd = &cobra.Command{
	Use:   "share <id>",
	Short: "Create a public read-only link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			link, err := app.coord.Share(ctx, args[0])
			if err != nil {
				return err
			}
			app.notices.Drain()
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		})
	},
}

var conversationsSummarizeCmd = &cobra.Command{
	Use:   "summarize <id>",
	Short: "Ask the backend for a summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			summary, err := app.coord.Summarize(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		})
	},
}

var conversationsMessagesCmd = &cobra.Command{
	Use:   "messages <id>",
	Short: "Print the messages of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			if err := app.coord.Select(ctx, args[0]); err != nil {
				return err
			}
			console.PrintMessages(cmd.OutOrStdout(), app.coord.Messages().Snapshot().Messages)
			return nil
		})
	},
}

// confirmDelete asks on the command's input unless yes is set. End of input
// counts as no.
func confirmDelete(cmd *cobra.Command, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), console.DeletePrompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return console.Confirmed(answer), nil
}

func init() {
	conversationsDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsNewCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
	conversationsCmd.AddCommand(conversationsShareCmd)
	conversationsCmd.AddCommand(conversationsSummarizeCmd)
	conversationsCmd.AddCommand(conversationsMessagesCmd)
}
