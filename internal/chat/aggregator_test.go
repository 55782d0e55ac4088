package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classmarket/tutorchat/internal/logging"
)

func jobMsg(id, jobID, sender, recipient string, at time.Time, status Status) Message {
	return Message{
		ID:          id,
		JobID:       jobID,
		SenderID:    sender,
		RecipientID: recipient,
		Body:        "body-" + id,
		CreatedAt:   at,
		Status:      status,
	}
}

func TestAggregatorMergedDeduplicatesAcrossPaths(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	shared := jobMsg("1", "10", "a", "b", at, StatusRead)
	api := &fakeAPI{
		recipientPages: [][]Message{{shared}},
		senderPages:    [][]Message{{shared, jobMsg("2", "10", "b", "a", at.Add(time.Minute), StatusSent)}},
	}

	merged, err := NewAggregator(api).Merged(context.Background(), "b")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids(merged))
}

func TestAggregatorRecipientFetchFailure(t *testing.T) {
	api := &fakeAPI{recipientErr: errors.New("boom")}

	_, err := NewAggregator(api).Summaries(context.Background(), "b")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, "recipient messages", fetchErr.Op)
}

func TestAggregatorSenderFetchDegrades(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		recipientPages: [][]Message{{jobMsg("1", "10", "a", "b", at, StatusSent)}},
		senderErr:      errors.New("not implemented"),
	}

	summaries, err := NewAggregator(api).Summaries(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "10", summaries[0].JobID)
}

type absentEndpointErr struct{}

func (absentEndpointErr) Error() string        { return "status=404" }
func (absentEndpointErr) EndpointAbsent() bool { return true }

func TestEndpointAbsentDetection(t *testing.T) {
	require.True(t, endpointAbsent(absentEndpointErr{}))
	require.True(t, endpointAbsent(fmt.Errorf("page 0: %w", absentEndpointErr{})))
	require.False(t, endpointAbsent(errors.New("boom")))
}

func TestAggregatorSenderEndpointAbsenceStaysQuiet(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "info", Format: "json", Output: &buf})
	defer logging.Init(logging.DefaultConfig())

	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		recipientPages: [][]Message{{jobMsg("1", "10", "a", "b", at, StatusSent)}},
		senderErr:      absentEndpointErr{},
	}

	summaries, err := NewAggregator(api).Summaries(context.Background(), "b")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotContains(t, buf.String(), "sender-side fetch degraded")
}

func TestAggregatorSenderFetchFailureWarns(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "info", Format: "json", Output: &buf})
	defer logging.Init(logging.DefaultConfig())

	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		recipientPages: [][]Message{{jobMsg("1", "10", "a", "b", at, StatusSent)}},
		senderErr:      errors.New("boom"),
	}

	_, err := NewAggregator(api).Summaries(context.Background(), "b")
	require.NoError(t, err)
	require.Contains(t, buf.String(), "sender-side fetch degraded")
}

func TestAggregatorFetchesAllPages(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		recipientPages: [][]Message{
			{jobMsg("1", "10", "a", "b", at, StatusRead), jobMsg("2", "10", "a", "b", at.Add(time.Minute), StatusRead)},
			{jobMsg("3", "10", "a", "b", at.Add(2*time.Minute), StatusRead)},
		},
	}

	merged, err := NewAggregator(api, WithPageSize(2)).Merged(context.Background(), "b")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, ids(merged))
}

func TestSummarizePartitionsByJob(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	messages := []Message{
		jobMsg("1", "10", "a", "b", at, StatusRead),
		jobMsg("2", "11", "c", "b", at.Add(time.Minute), StatusSent),
		jobMsg("3", "10", "b", "a", at.Add(2*time.Minute), StatusSent),
	}

	summaries := Summarize(messages, "b")
	require.Len(t, summaries, 2)

	byJob := make(map[string]Summary, len(summaries))
	for _, summary := range summaries {
		byJob[summary.JobID] = summary
	}
	require.Equal(t, 2, byJob["10"].MessageCount)
	require.Equal(t, 1, byJob["11"].MessageCount)
	require.Equal(t, "a", byJob["10"].CounterpartID)
	require.Equal(t, "c", byJob["11"].CounterpartID)
}

func TestSummarizeUnreadCountsOnlyIncomingSent(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	messages := []Message{
		jobMsg("1", "10", "a", "b", at, StatusSent),
		jobMsg("2", "10", "a", "b", at.Add(time.Minute), StatusSent),
		jobMsg("3", "10", "a", "b", at.Add(2*time.Minute), StatusRead),
		jobMsg("4", "10", "b", "a", at.Add(3*time.Minute), StatusSent),
	}

	summaries := Summarize(messages, "b")
	require.Len(t, summaries, 1)
	require.Equal(t, 2, summaries[0].UnreadCount)
}

func TestSummarizeOrdersByLastActivityDescending(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	messages := []Message{
		jobMsg("1", "10", "a", "b", at.Add(time.Hour), StatusRead),
		jobMsg("2", "11", "c", "b", at, StatusRead),
		jobMsg("3", "11", "c", "b", at.Add(2*time.Hour), StatusSent),
	}

	summaries := Summarize(messages, "b")
	require.Equal(t, "11", summaries[0].JobID)
	require.Equal(t, "3", summaries[0].LastMessage.ID)
	require.Equal(t, "10", summaries[1].JobID)
}

func TestSummarizeLastMessageByTimeNotSliceOrder(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	messages := []Message{
		jobMsg("late", "10", "a", "b", at.Add(time.Hour), StatusRead),
		jobMsg("early", "10", "a", "b", at, StatusRead),
	}

	summaries := Summarize(messages, "b")
	require.Equal(t, "late", summaries[0].LastMessage.ID)
}

func TestSummarizeUnknownTimeSortsOldest(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	messages := []Message{
		jobMsg("no-time", "11", "c", "b", time.Time{}, StatusRead),
		jobMsg("1", "10", "a", "b", at, StatusRead),
	}

	summaries := Summarize(messages, "b")
	require.Equal(t, "10", summaries[0].JobID)
	require.Equal(t, "11", summaries[1].JobID)
}

func TestSummarizeEmptyInput(t *testing.T) {
	require.Empty(t, Summarize(nil, "b"))
}
