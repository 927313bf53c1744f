package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

var version = "1.0.0"

func main() {
	loadEnvFiles()

	if err := rootCmd.Execute(); err != nil {
		// Coordinator failures were already shown as notices.
		var reported *platformerrors.PlatformError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jan-chat",
	Short: "Jan Chat - terminal client for the chat backend",
	Long: `jan-chat talks to the chat backend: sign in, manage conversations,
send messages, upload documents and run code.

Examples:
  jan-chat login --email ada@example.com --password secret1
  jan-chat conversations list
  jan-chat send --rag "What do my notes say about Go?"
  jan-chat chat`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(sharedCmd)
	rootCmd.AddCommand(chatCmd)

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default $JAN_CHAT_CONFIG)")
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL, e.g. http://localhost:5000/api")
	rootCmd.PersistentFlags().String("token-file", "", "Where the session token is stored")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
