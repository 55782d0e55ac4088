package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/classmarket/tutorchat/internal/chat"
	"github.com/classmarket/tutorchat/internal/logging"
)

func newChatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List conversations, newest activity first",
		Args:  cobra.NoArgs,
		RunE:  runChats,
	}
	cmd.Flags().Bool("json", false, "Machine-readable output")
	cmd.Flags().Bool("ack-delivered", false, "Acknowledge delivery of unread incoming messages")
	return cmd
}

func runChats(cmd *cobra.Command, _ []string) error {
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
	ackDelivered, _ := cmd.Flags().GetBool("ack-delivered")
	ctx := cmd.Context()

	aggregator := chat.NewAggregator(app.Client, chat.WithPageSize(app.Config.Chat.PageSize))
	messages, err := aggregator.Merged(ctx, viewerID)
	if err != nil {
		var offline bool
		messages, offline = cachedMessages(ctx, app, err)
		if !offline {
			return Exitf(ExitCodeFailure, "fetch conversations: %v", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: backend unreachable, showing cached conversations")
	} else {
		cacheMessages(ctx, app, messages)
		if ackDelivered {
			updater := chat.NewStatusUpdater(app.Client)
			if _, failed := updater.MarkDelivered(ctx, viewerID, messages); len(failed) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d delivery acks failed\n", len(failed))
			}
		}
	}

	summaries := chat.Summarize(messages, viewerID)

	if jsonOutput {
		return writeJSON(cmd, summariesPayload(summaries))
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversations.")
		return nil
	}

	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []string{
			summary.JobID,
			summary.CounterpartID,
			strconv.Itoa(summary.MessageCount),
			formatUnread(summary.UnreadCount),
			truncate(summary.LastMessage.Body, 48),
			formatWhen(summary.LastMessage.CreatedAt),
		})
	}
	return writeTable(cmd.OutOrStdout(), []string{"JOB", "WITH", "MSGS", "UNREAD", "LAST MESSAGE", "WHEN"}, rows)
}

// cachedMessages serves the offline path: on a fetch error with the
// cache enabled, fall back to locally cached messages.
func cachedMessages(ctx context.Context, app *App, fetchErr error) ([]chat.Message, bool) {
	var fe *chat.FetchError
	if !errors.As(fetchErr, &fe) {
		return nil, false
	}
	cache, err := app.Cache()
	if err != nil || cache == nil {
		return nil, false
	}
	messages, err := cache.All(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("cache read failed")
		return nil, false
	}
	return messages, true
}

func cacheMessages(ctx context.Context, app *App, messages []chat.Message) {
	cache, err := app.Cache()
	if err != nil || cache == nil {
		return
	}
	if err := cache.Put(ctx, messages); err != nil {
		logging.Warn().Err(err).Msg("cache write failed")
	}
}

type summaryJSON struct {
	JobID         string        `json:"jobId"`
	CounterpartID string        `json:"counterpartId"`
	MessageCount  int           `json:"messageCount"`
	UnreadCount   int           `json:"unreadCount"`
	LastMessage   *chat.Message `json:"lastMessage,omitempty"`
}

func summariesPayload(summaries []chat.Summary) []summaryJSON {
	out := make([]summaryJSON, 0, len(summaries))
	for _, summary := range summaries {
		item := summaryJSON{
			JobID:         summary.JobID,
			CounterpartID: summary.CounterpartID,
			MessageCount:  summary.MessageCount,
			UnreadCount:   summary.UnreadCount,
		}
		if summary.LastMessage.ID != "" {
			last := summary.LastMessage
			item.LastMessage = &last
		}
		out = append(out, item)
	}
	return out
}

func writeJSON(cmd *cobra.Command, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Exitf(ExitCodeFailure, "encode output: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func formatUnread(count int) string {
	if count == 0 {
		return "-"
	}
	return strconv.Itoa(count)
}

func formatWhen(at time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	return at.Local().Format("2006-01-02 15:04")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
