// Package chat implements the per-job conversation core: the message
// model, the thread store, chat-list aggregation, the optimistic send
// pipeline and the read/delivery state machine.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TempIDPrefix tags locally-generated message ids pending server confirmation.
const TempIDPrefix = "temp-"

// Status is the delivery state of a message. It only ever advances
// (SENDING -> SENT -> DELIVERED -> READ); SENDING exists only for
// locally-optimistic records and is never authoritative.
type Status string

const (
	StatusSending   Status = "SENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
)

var statusRanks = map[Status]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// ParseStatus normalizes a wire status value. Unknown or empty values map
// to SENT: anything the server stored was at least sent.
func ParseStatus(raw string) Status {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := statusRanks[status]; ok {
		return status
	}
	return StatusSent
}

// Before reports whether s precedes other in the delivery lifecycle.
func (s Status) Before(other Status) bool {
	return statusRanks[s] < statusRanks[other]
}

// Advance returns the later of s and other. Status never regresses
// through this path; full replacement by a server record is the only
// way an earlier status can reappear.
func (s Status) Advance(other Status) Status {
	if s.Before(other) {
		return other
	}
	return s
}

// Message is one chat message in a job thread. CreatedAt is normalized
// to a single instant at the decoding boundary; a zero CreatedAt means
// the wire timestamp was missing or unparseable (unknown recency).
type Message struct {
	ID          string
	JobID       string
	SenderID    string
	RecipientID string
	Body        string
	CreatedAt   time.Time
	Status      Status
}

// IsTemp reports whether the message carries a locally-generated id.
func (m Message) IsTemp() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

// Counterpart returns the participant that is not the viewer.
func (m Message) Counterpart(viewerID string) string {
	if m.SenderID == viewerID {
		return m.RecipientID
	}
	return m.SenderID
}

type wireMessage struct {
	ID          json.RawMessage `json:"id"`
	JobID       json.RawMessage `json:"jobId"`
	SenderID    json.RawMessage `json:"senderId"`
	RecipientID json.RawMessage `json:"recipientId"`
	Body        string          `json:"message"`
	CreatedAt   json.RawMessage `json:"createdAt"`
	Status      string          `json:"status"`
}

// UnmarshalJSON decodes the wire shape. Identifiers arrive as JSON
// numbers or strings and are normalized to strings; createdAt is
// normalized through ParseTime.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	id, err := DecodeID(wire.ID)
	if err != nil {
		return fmt.Errorf("decode message id: %w", err)
	}
	jobID, err := DecodeID(wire.JobID)
	if err != nil {
		return fmt.Errorf("decode job id: %w", err)
	}
	senderID, err := DecodeID(wire.SenderID)
	if err != nil {
		return fmt.Errorf("decode sender id: %w", err)
	}
	recipientID, err := DecodeID(wire.RecipientID)
	if err != nil {
		return fmt.Errorf("decode recipient id: %w", err)
	}

	m.ID = id
	m.JobID = jobID
	m.SenderID = senderID
	m.RecipientID = recipientID
	m.Body = wire.Body
	m.CreatedAt, _ = ParseTime(wire.CreatedAt)
	m.Status = ParseStatus(wire.Status)
	return nil
}

// MarshalJSON emits the wire shape with an RFC 3339 timestamp.
func (m Message) MarshalJSON() ([]byte, error) {
	createdAt := ""
	if !m.CreatedAt.IsZero() {
		createdAt = m.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(struct {
		ID          string `json:"id"`
		JobID       string `json:"jobId"`
		SenderID    string `json:"senderId"`
		RecipientID string `json:"recipientId"`
		Body        string `json:"message"`
		CreatedAt   string `json:"createdAt,omitempty"`
		Status      string `json:"status"`
	}{
		ID:          m.ID,
		JobID:       m.JobID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		CreatedAt:   createdAt,
		Status:      string(m.Status),
	})
}

// DecodeID normalizes a wire identifier, which may arrive as a JSON
// number or string, into its canonical string form.
func DecodeID(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Wire timestamp layouts seen from the backend. The zoneless variants
// are emitted by its Java time serializer and are taken as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTime normalizes the two wire timestamp shapes into a single
// instant: an ISO-8601 string, or a component array
// [year, month(1-based), day, hour, minute, second, nanosecond] where
// trailing components may be omitted. It reports false for anything it
// cannot parse; callers treat that as unknown recency, not an error.
// This is the only place date shapes are branched on.
func ParseTime(raw json.RawMessage) (time.Time, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return time.Time{}, false
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	}

	if trimmed[0] == '[' {
		var parts []int64
		if err := json.Unmarshal(raw, &parts); err != nil {
			return time.Time{}, false
		}
		if len(parts) < 3 || len(parts) > 7 {
			return time.Time{}, false
		}
		padded := make([]int64, 7)
		copy(padded, parts)
		instant := time.Date(
			int(padded[0]),
			time.Month(padded[1]),
			int(padded[2]),
			int(padded[3]),
			int(padded[4]),
			int(padded[5]),
			int(padded[6]),
			time.UTC,
		)
		return instant, true
	}

	return time.Time{}, false
}
