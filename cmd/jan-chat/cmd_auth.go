package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jan-server/clients/jan-chat/internal/interfaces/console"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.coord.Bootstrap(ctx); err != nil {
				return err
			}
			s, err := app.coord.Register(ctx, name, email, password)
			if err != nil {
				return err
			}
			console.PrintSession(cmd.OutOrStdout(), s)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.coord.Bootstrap(ctx); err != nil {
				return err
			}
			s, err := app.coord.Login(ctx, email, password)
			if err != nil {
				return err
			}
			console.PrintSession(cmd.OutOrStdout(), s)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.coord.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *Application) error {
			if err := app.coord.Bootstrap(ctx); err != nil {
				return err
			}
			console.PrintSession(cmd.OutOrStdout(), app.coord.Session().Current())
			return nil
		})
	},
}

func init() {
	registerCmd.Flags().String("name", "", "Display name")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("password", "", "Password (at least 6 characters)")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().String("email", "", "Email address")
	loginCmd.Flags().String("password", "", "Password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
