// Package cli implements the tutorchat command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tutorchat",
		Short:         "Per-job chat for the tutoring marketplace",
		Long:          "tutorchat reads and sends per-job messages against the marketplace backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().String("config", "", "Config file path (default: search standard locations)")

	cmd.AddCommand(
		newChatsCmd(),
		newThreadCmd(),
		newSendCmd(),
		newWatchCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
	)

	return cmd
}
