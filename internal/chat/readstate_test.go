package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarkThreadReadOnlyIncomingSent(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{}
	store := NewStore("10", "b", api)
	store.Append(jobMsg("1", "10", "a", "b", at, StatusSent))
	store.Append(jobMsg("2", "10", "a", "b", at.Add(time.Minute), StatusRead))
	store.Append(jobMsg("3", "10", "b", "a", at.Add(2*time.Minute), StatusSent))

	marked, failed := NewStatusUpdater(api).MarkThreadRead(context.Background(), store)
	require.Empty(t, failed)
	require.Equal(t, 1, marked)
	require.Equal(t, []string{"1"}, api.readCalls)
	require.Empty(t, store.UnreadIncoming())
}

func TestMarkThreadReadIdempotent(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{}
	store := NewStore("10", "b", api)
	store.Append(jobMsg("1", "10", "a", "b", at, StatusSent))

	updater := NewStatusUpdater(api)
	marked, _ := updater.MarkThreadRead(context.Background(), store)
	require.Equal(t, 1, marked)

	marked, _ = updater.MarkThreadRead(context.Background(), store)
	require.Zero(t, marked)
	require.Equal(t, []string{"1"}, api.readCalls)
}

func TestMarkThreadReadFailureDoesNotBlockOthers(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{readErrs: map[string]error{"2": errors.New("409")}}
	store := NewStore("10", "b", api)
	store.Append(jobMsg("1", "10", "a", "b", at, StatusSent))
	store.Append(jobMsg("2", "10", "a", "b", at.Add(time.Minute), StatusSent))
	store.Append(jobMsg("3", "10", "a", "b", at.Add(2*time.Minute), StatusSent))

	marked, failed := NewStatusUpdater(api).MarkThreadRead(context.Background(), store)
	require.Equal(t, 2, marked)
	require.Len(t, failed, 1)

	var statusErr *StatusUpdateError
	require.ErrorAs(t, failed[0], &statusErr)
	require.Equal(t, "2", statusErr.MessageID)

	// The failed one is still pending for the next attempt.
	unread := store.UnreadIncoming()
	require.Len(t, unread, 1)
	require.Equal(t, "2", unread[0].ID)
}

func TestMarkThreadReadDropsUnreadCount(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{}
	store := NewStore("10", "b", api)
	store.Append(jobMsg("1", "10", "a", "b", at, StatusSent))

	summaries := Summarize(store.Messages(), "b")
	require.Equal(t, 1, summaries[0].UnreadCount)

	_, failed := NewStatusUpdater(api).MarkThreadRead(context.Background(), store)
	require.Empty(t, failed)

	summaries = Summarize(store.Messages(), "b")
	require.Zero(t, summaries[0].UnreadCount)
}

func TestMarkDeliveredFiltersAndReports(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{}
	messages := []Message{
		jobMsg("1", "10", "a", "b", at, StatusSent),
		jobMsg("2", "10", "b", "a", at.Add(time.Minute), StatusSent),
		jobMsg("3", "11", "c", "b", at.Add(2*time.Minute), StatusRead),
	}

	marked, failed := NewStatusUpdater(api).MarkDelivered(context.Background(), "b", messages)
	require.Empty(t, failed)
	require.Equal(t, 1, marked)
	require.Equal(t, []string{"1"}, api.deliveredCalls)
}

func TestMarkDeliveredFailure(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{deliveredErr: errors.New("501")}
	messages := []Message{jobMsg("1", "10", "a", "b", at, StatusSent)}

	marked, failed := NewStatusUpdater(api).MarkDelivered(context.Background(), "b", messages)
	require.Zero(t, marked)
	require.Len(t, failed, 1)
}
