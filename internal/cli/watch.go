package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classmarket/tutorchat/internal/chat"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the chat list and print updates until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().Bool("json", false, "Machine-readable output, one summary set per refresh")
	cmd.Flags().Duration("interval", 0, "Poll interval (default: chat.poll_interval_seconds)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	viewerID := app.ViewerID()
	if viewerID == "" {
		return Exitf(ExitCodeFailure, "no viewer configured; run 'tutorchat login' or set auth.user_id")
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = app.Config.PollInterval()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	aggregator := chat.NewAggregator(app.Client, chat.WithPageSize(app.Config.Chat.PageSize))
	out := cmd.OutOrStdout()

	poller := chat.NewPoller(chat.PollerConfig{Interval: interval}, aggregator, viewerID, func(summaries []chat.Summary) {
		if jsonOutput {
			_ = writeJSON(cmd, summariesPayload(summaries))
			return
		}
		unread := 0
		for _, summary := range summaries {
			unread += summary.UnreadCount
		}
		fmt.Fprintf(out, "%s  %d conversations, %d unread\n",
			time.Now().Format("15:04:05"), len(summaries), unread)
	})

	if err := poller.Start(ctx); err != nil {
		return Exitf(ExitCodeFailure, "start poller: %v", err)
	}

	<-ctx.Done()
	return poller.Stop()
}
