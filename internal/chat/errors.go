package chat

import (
	"errors"
	"fmt"
)

// Core error taxonomy. FetchError on the primary aggregation fetch blocks
// chat-list population; the same failure on the sender-side fetch degrades
// silently to partial data. SendError always follows a rollback of the
// optimistic insert. StatusUpdateError is best-effort and self-heals on
// the next refresh.
var (
	ErrEmptyBody           = errors.New("message body is empty")
	ErrNoViewer            = errors.New("viewer identity required")
	ErrNoCredential        = errors.New("credential required")
	ErrRecipientUnresolved = errors.New("recipient unresolved")
	ErrTempNotFound        = errors.New("temporary message not found")
)

// FetchError wraps a failed read (network or decode) from the backend.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SendError reports a dispatch failure after the optimistic insert was
// rolled back. Body carries the typed text so the caller can offer retry
// without losing the composed message.
type SendError struct {
	JobID string
	Body  string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send message for job %s: %v", e.JobID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// StatusUpdateError reports a failed mark-read or mark-delivered call.
// Never fatal: the next full refresh re-derives status from server data.
type StatusUpdateError struct {
	MessageID string
	Err       error
}

func (e *StatusUpdateError) Error() string {
	return fmt.Sprintf("update status of message %s: %v", e.MessageID, e.Err)
}

func (e *StatusUpdateError) Unwrap() error {
	return e.Err
}
