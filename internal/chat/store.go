package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/classmarket/tutorchat/internal/logging"
)

// Store holds the ordered message list for one open thread (job + viewer).
// Display order is always re-derived by timestamp sort with insertion
// order as tiebreak; callers must not rely on call order.
type Store struct {
	jobID    string
	viewerID string
	api      MessageAPI
	logger   zerolog.Logger

	mu      sync.Mutex
	entries []storeEntry
	nextSeq uint64
}

type storeEntry struct {
	message Message
	seq     uint64
}

// NewStore creates an empty thread store.
func NewStore(jobID, viewerID string, api MessageAPI) *Store {
	return &Store{
		jobID:    jobID,
		viewerID: viewerID,
		api:      api,
		logger:   logging.Component("chat-store").With().Str("job_id", jobID).Logger(),
	}
}

// JobID returns the thread's job id.
func (s *Store) JobID() string {
	return s.jobID
}

// ViewerID returns the viewer this store was opened for.
func (s *Store) ViewerID() string {
	return s.viewerID
}

// Load fetches the full thread from the backend and replaces the stored
// messages. Pending optimistic messages survive a load: only a server
// record with the same id replaces them. Fails with *FetchError when the
// network call fails.
func (s *Store) Load(ctx context.Context) ([]Message, error) {
	fetched, err := s.api.ThreadMessages(ctx, s.jobID, s.viewerID)
	if err != nil {
		return nil, &FetchError{Op: "thread messages", Err: err}
	}

	s.mu.Lock()
	pending := make([]storeEntry, 0, 2)
	for _, entry := range s.entries {
		if entry.message.IsTemp() {
			pending = append(pending, entry)
		}
	}
	s.entries = pending
	for _, message := range fetched {
		s.upsertLocked(message)
	}
	s.sortLocked()
	out := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(out)).Msg("thread loaded")
	return out, nil
}

// Append inserts a message maintaining sort order. A record with an id
// already present merges instead: an authoritative (non-SENDING) record
// replaces the stored one entirely, while a SENDING record never
// overwrites anything.
func (s *Store) Append(message Message) {
	s.mu.Lock()
	s.upsertLocked(message)
	s.sortLocked()
	s.mu.Unlock()
}

// Replace swaps a temporary message for its authoritative counterpart and
// re-sorts, since the server timestamp may differ from the optimistic one.
func (s *Store) Replace(tempID string, server Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(tempID)
	if idx < 0 {
		return ErrTempNotFound
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.upsertLocked(server)
	s.sortLocked()
	return nil
}

// RemoveTemp drops a temporary message; the rollback path of a failed send.
func (s *Store) RemoveTemp(tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(tempID)
	if idx < 0 {
		return false
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	return true
}

// AdvanceStatus moves a message's status forward. Regressions are ignored.
func (s *Store) AdvanceStatus(messageID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(messageID)
	if idx < 0 {
		return
	}
	s.entries[idx].message.Status = s.entries[idx].message.Status.Advance(status)
}

// Messages returns the thread in display order (ascending by normalized
// createdAt; unknown timestamps last, insertion order breaking ties).
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UnreadIncoming returns loaded messages addressed to the viewer that are
// still in SENT, the input set of the read state machine.
func (s *Store) UnreadIncoming() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, 0, 4)
	for _, entry := range s.entries {
		if entry.message.RecipientID == s.viewerID && entry.message.Status == StatusSent {
			out = append(out, entry.message)
		}
	}
	return out
}

// Counterpart returns the other participant of the thread, if any message
// reveals one.
func (s *Store) Counterpart() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if other := entry.message.Counterpart(s.viewerID); other != "" && other != s.viewerID {
			return other
		}
	}
	return ""
}

func (s *Store) indexLocked(messageID string) int {
	for idx, entry := range s.entries {
		if entry.message.ID == messageID {
			return idx
		}
	}
	return -1
}

func (s *Store) upsertLocked(message Message) {
	if idx := s.indexLocked(message.ID); idx >= 0 {
		if message.Status == StatusSending {
			// A local optimistic record is never authoritative.
			return
		}
		s.entries[idx].message = message
		return
	}
	s.entries = append(s.entries, storeEntry{message: message, seq: s.nextSeq})
	s.nextSeq++
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return entryLess(s.entries[i], s.entries[j])
	})
}

func (s *Store) snapshotLocked() []Message {
	out := make([]Message, len(s.entries))
	for idx, entry := range s.entries {
		out[idx] = entry.message
	}
	return out
}

// entryLess orders by normalized createdAt ascending. Records without a
// parseable timestamp sort last ("just now" semantics) rather than being
// discarded; ties fall back to insertion order.
func entryLess(a, b storeEntry) bool {
	aZero, bZero := a.message.CreatedAt.IsZero(), b.message.CreatedAt.IsZero()
	switch {
	case aZero && bZero:
		return a.seq < b.seq
	case aZero:
		return false
	case bZero:
		return true
	}
	if a.message.CreatedAt.Equal(b.message.CreatedAt) {
		return a.seq < b.seq
	}
	return a.message.CreatedAt.Before(b.message.CreatedAt)
}
