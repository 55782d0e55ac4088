package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <user-id>",
		Short: "Set the acting viewer for subsequent commands",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogin,
	}
	cmd.Flags().String("name", "", "Display name for the viewer")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	userID := strings.TrimSpace(args[0])
	if userID == "" {
		return usageError(cmd, "user id is required")
	}
	name, _ := cmd.Flags().GetString("name")

	app.Session.SetViewer(userID, strings.TrimSpace(name))
	if err := app.Sessions.Save(app.Session); err != nil {
		return Exitf(ExitCodeFailure, "save session: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", userID)
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted viewer session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Sessions.Clear(); err != nil {
				return Exitf(ExitCodeFailure, "clear session: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			viewerID := app.ViewerID()
			if viewerID == "" {
				return Exitf(ExitCodeFailure, "no viewer configured")
			}
			if app.Session.UserName != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", viewerID, app.Session.UserName)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), viewerID)
			return nil
		},
	}
}
