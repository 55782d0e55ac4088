package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classmarket/tutorchat/internal/chat"
)

func newThreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thread <job-id>",
		Short: "Show the message thread for one job",
		Args:  cobra.ExactArgs(1),
		RunE:  runThread,
	}
	cmd.Flags().Bool("json", false, "Machine-readable output")
	cmd.Flags().Bool("mark-read", false, "Mark unread incoming messages as read")
	return cmd
}

func runThread(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	viewerID := app.ViewerID()
	if viewerID == "" {
		return Exitf(ExitCodeFailure, "no viewer configured; run 'tutorchat login' or set auth.user_id")
	}

	jobID := strings.TrimSpace(args[0])
	if jobID == "" {
		return usageError(cmd, "job id is required")
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	markRead, _ := cmd.Flags().GetBool("mark-read")
	ctx := cmd.Context()

	store := chat.NewStore(jobID, viewerID, app.Client)
	messages, err := store.Load(ctx)
	if err != nil {
		var offline bool
		messages, offline = cachedThread(ctx, app, jobID, err)
		if !offline {
			return Exitf(ExitCodeFailure, "fetch thread: %v", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: backend unreachable, showing cached thread")
		markRead = false
	} else {
		cacheMessages(ctx, app, messages)
	}

	if markRead {
		updater := chat.NewStatusUpdater(app.Client)
		marked, failed := updater.MarkThreadRead(ctx, store)
		if len(failed) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d of %d read acks failed\n", len(failed), marked+len(failed))
		}
		messages = store.Messages()
	}

	app.Session.SetLastJob(jobID)
	if err := app.Sessions.Save(app.Session); err != nil {
		// Session persistence is a convenience, not a failure mode.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: save session: %v\n", err)
	}

	if jsonOutput {
		return writeJSON(cmd, messages)
	}
	if len(messages) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No messages.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, message := range messages {
		direction := "<-"
		if message.SenderID == viewerID {
			direction = "->"
		}
		fmt.Fprintf(out, "%s %s %s [%s] %s\n",
			formatWhen(message.CreatedAt),
			direction,
			message.Counterpart(viewerID),
			strings.ToLower(string(message.Status)),
			message.Body,
		)
	}
	return nil
}

func cachedThread(ctx context.Context, app *App, jobID string, fetchErr error) ([]chat.Message, bool) {
	var fe *chat.FetchError
	if !errors.As(fetchErr, &fe) {
		return nil, false
	}
	cache, err := app.Cache()
	if err != nil || cache == nil {
		return nil, false
	}
	messages, err := cache.Thread(ctx, jobID)
	if err != nil {
		return nil, false
	}
	return messages, true
}
