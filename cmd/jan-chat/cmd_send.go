package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"jan-server/clients/jan-chat/internal/interfaces/console"
)

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send a message and print the refreshed conversation",
	Long: `Send a message to a conversation. Without --conversation the most recently
updated conversation is used, and one is created when none exist.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID, _ := cmd.Flags().GetString("conversation")
		useRAG, _ := cmd.Flags().GetBool("rag")
		text := strings.Join(args, " ")

		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.signedIn(ctx); err != nil {
				return err
			}
			switch {
			case conversationID != "":
				if err := app.coord.Select(ctx, conversationID); err != nil {
					return err
				}
			case app.coord.Registry().ActiveID() == "":
				if _, err := app.coord.Create(ctx); err != nil {
					return err
				}
			}

			if err := app.coord.SendMessage(ctx, text, useRAG); err != nil {
				return err
			}
			console.PrintMessages(cmd.OutOrStdout(), app.coord.Messages().Snapshot().Messages)
			return nil
		})
	},
}

func init() {
	sendCmd.Flags().StringP("conversation", "c", "", "Conversation id")
	sendCmd.Flags().Bool("rag", false, "Answer from uploaded documents")
}
