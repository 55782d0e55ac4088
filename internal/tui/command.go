package tui

import (
	"github.com/spf13/cobra"
)

// Execute runs the TUI entrypoint.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:           "tutorchat-tui",
		Short:         "tutorchat terminal UI",
		Long:          "Bubbletea-based terminal UI for per-job marketplace chat.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.ConfigFile, "config", "", "config file path")
	cmd.Flags().StringVar(&cfg.Theme, "theme", DefaultTheme.Name, "theme: default|high-contrast")
	cmd.Flags().DurationVar(&cfg.PollInterval, "poll-interval", 0, "poll interval for background refresh")
	return cmd
}
