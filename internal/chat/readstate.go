package chat

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/classmarket/tutorchat/internal/logging"
)

// StatusUpdater drives the read/delivery state machine. Each transition
// call is independent and best-effort: one failure never blocks the rest,
// and a failed call is corrected by the next refresh since refresh
// re-derives status from server data.
type StatusUpdater struct {
	api    MessageAPI
	logger zerolog.Logger
}

// NewStatusUpdater creates a StatusUpdater over the given API.
func NewStatusUpdater(api MessageAPI) *StatusUpdater {
	return &StatusUpdater{
		api:    api,
		logger: logging.Component("chat-status"),
	}
}

// MarkThreadRead marks every loaded incoming SENT message of the store's
// thread as read. Only the viewer's incoming messages are touched; own
// sent messages are updated solely by server data on the next fetch.
// Returns the number of successful transitions and one StatusUpdateError
// per failed call.
func (u *StatusUpdater) MarkThreadRead(ctx context.Context, store *Store) (int, []error) {
	marked := 0
	var failed []error
	for _, message := range store.UnreadIncoming() {
		if err := u.api.MarkRead(ctx, message.ID); err != nil {
			failed = append(failed, &StatusUpdateError{MessageID: message.ID, Err: err})
			u.logger.Warn().Err(err).Str("message_id", message.ID).Msg("mark-as-read failed")
			continue
		}
		store.AdvanceStatus(message.ID, StatusRead)
		marked++
	}
	return marked, failed
}

// MarkDelivered acknowledges delivery of incoming SENT messages observed
// in a chat-list refresh, without opening their threads. Same best-effort
// semantics as MarkThreadRead.
func (u *StatusUpdater) MarkDelivered(ctx context.Context, viewerID string, messages []Message) (int, []error) {
	marked := 0
	var failed []error
	for _, message := range messages {
		if message.RecipientID != viewerID || message.Status != StatusSent {
			continue
		}
		if err := u.api.MarkDelivered(ctx, message.ID); err != nil {
			failed = append(failed, &StatusUpdateError{MessageID: message.ID, Err: err})
			u.logger.Warn().Err(err).Str("message_id", message.ID).Msg("mark-as-delivered failed")
			continue
		}
		marked++
	}
	return marked, failed
}
