package chat

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/classmarket/tutorchat/internal/logging"
)

const defaultPageSize = 50

// Summary is the derived, non-persisted projection of one job thread for
// list display. Recomputed on every fetch.
type Summary struct {
	JobID         string
	CounterpartID string
	LastMessage   Message
	MessageCount  int
	UnreadCount   int
}

// Aggregator builds one Summary per job for a viewer from the two paged
// fetch paths the backend offers (as recipient, as sender).
type Aggregator struct {
	api      MessageAPI
	pageSize int
	logger   zerolog.Logger
}

// AggregatorOption customizes an Aggregator.
type AggregatorOption func(*Aggregator)

// WithPageSize overrides the fetch page size.
func WithPageSize(size int) AggregatorOption {
	return func(a *Aggregator) {
		if size > 0 {
			a.pageSize = size
		}
	}
}

// NewAggregator creates an Aggregator over the given API.
func NewAggregator(api MessageAPI, opts ...AggregatorOption) *Aggregator {
	agg := &Aggregator{
		api:      api,
		pageSize: defaultPageSize,
		logger:   logging.Component("chat-aggregator"),
	}
	for _, opt := range opts {
		opt(agg)
	}
	return agg
}

// Summaries fetches, merges and projects the viewer's conversations,
// newest activity first. A failed recipient-side fetch surfaces a
// *FetchError; the sender-side fetch is best-effort and degrades to
// partial data.
func (a *Aggregator) Summaries(ctx context.Context, viewerID string) ([]Summary, error) {
	messages, err := a.Merged(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return Summarize(messages, viewerID), nil
}

// Merged returns the deduplicated union of both fetch paths.
func (a *Aggregator) Merged(ctx context.Context, viewerID string) ([]Message, error) {
	received, err := a.fetchAll(ctx, viewerID, a.api.RecipientMessages)
	if err != nil {
		return nil, &FetchError{Op: "recipient messages", Err: err}
	}

	sent, err := a.fetchAll(ctx, viewerID, a.api.SenderMessages)
	if err != nil {
		// The sender-side endpoint is optional; proceed with what we have.
		// A backend that lacks the endpoint entirely is expected, not
		// worth a warning on every cycle.
		if endpointAbsent(err) {
			a.logger.Debug().Str("viewer_id", viewerID).Msg("sender-side endpoint absent")
		} else {
			a.logger.Warn().Err(err).Str("viewer_id", viewerID).Msg("sender-side fetch degraded")
		}
		sent = nil
	}

	merged := make([]Message, 0, len(received)+len(sent))
	seen := make(map[string]struct{}, len(received)+len(sent))
	for _, message := range append(received, sent...) {
		if _, ok := seen[message.ID]; ok {
			continue
		}
		seen[message.ID] = struct{}{}
		merged = append(merged, message)
	}
	return merged, nil
}

// endpointAbsent reports whether err marks an endpoint the backend does
// not offer at all, as opposed to a transient failure. Transport errors
// opt in by implementing EndpointAbsent.
func endpointAbsent(err error) bool {
	var absence interface{ EndpointAbsent() bool }
	return errors.As(err, &absence) && absence.EndpointAbsent()
}

type pagedFetch func(ctx context.Context, userID string, page Page) ([]Message, error)

func (a *Aggregator) fetchAll(ctx context.Context, userID string, fetch pagedFetch) ([]Message, error) {
	var all []Message
	for number := 0; ; number++ {
		batch, err := fetch(ctx, userID, Page{Number: number, Size: a.pageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < a.pageSize {
			return all, nil
		}
	}
}

// Summarize partitions messages by job and projects one Summary per job
// for the viewer. Pure: also used over cached messages when offline.
// The last message is picked by true chronological comparison, never by
// slice order; an unparseable last-message time sorts the summary oldest.
func Summarize(messages []Message, viewerID string) []Summary {
	byJob := make(map[string][]Message)
	order := make([]string, 0, 8)
	for _, message := range messages {
		if _, ok := byJob[message.JobID]; !ok {
			order = append(order, message.JobID)
		}
		byJob[message.JobID] = append(byJob[message.JobID], message)
	}

	summaries := make([]Summary, 0, len(order))
	for _, jobID := range order {
		partition := byJob[jobID]
		summary := Summary{JobID: jobID, MessageCount: len(partition)}
		for _, message := range partition {
			if message.RecipientID == viewerID && message.Status == StatusSent {
				summary.UnreadCount++
			}
			if summary.CounterpartID == "" {
				if other := message.Counterpart(viewerID); other != viewerID {
					summary.CounterpartID = other
				}
			}
			if summary.LastMessage.ID == "" || laterThan(message, summary.LastMessage) {
				summary.LastMessage = message
			}
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.CreatedAt.After(summaries[j].LastMessage.CreatedAt)
	})
	return summaries
}

func laterThan(candidate, current Message) bool {
	if candidate.CreatedAt.IsZero() {
		return false
	}
	if current.CreatedAt.IsZero() {
		return true
	}
	return candidate.CreatedAt.After(current.CreatedAt)
}
