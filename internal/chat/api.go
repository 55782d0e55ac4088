package chat

import "context"

// Page selects one page of a paged message fetch.
type Page struct {
	Number int
	Size   int
	// Status optionally restricts results to one delivery state.
	Status Status
}

// Outgoing is the payload of a send call.
type Outgoing struct {
	JobID       string
	SenderID    string
	RecipientID string
	Body        string
}

// Job is the metadata needed for recipient fallback resolution.
type Job struct {
	ID      string
	OwnerID string
	Title   string
}

// MessageAPI abstracts message access for the chat core. The production
// implementation lives in internal/api; tests substitute fakes.
type MessageAPI interface {
	// SendMessage dispatches a message and returns the authoritative
	// server record.
	SendMessage(ctx context.Context, out Outgoing) (Message, error)
	// ThreadMessages lists all messages of one job thread.
	ThreadMessages(ctx context.Context, jobID, userID string) ([]Message, error)
	// RecipientMessages lists messages addressed to the user.
	RecipientMessages(ctx context.Context, userID string, page Page) ([]Message, error)
	// SenderMessages lists messages originated by the user. The endpoint
	// is optional on the backend; absence surfaces as an error which
	// callers tolerate.
	SenderMessages(ctx context.Context, userID string, page Page) ([]Message, error)
	// MarkRead transitions a message to READ. Idempotent.
	MarkRead(ctx context.Context, messageID string) error
	// MarkDelivered transitions a message to DELIVERED. Idempotent.
	MarkDelivered(ctx context.Context, messageID string) error
}

// JobAPI resolves job metadata, used as the last recipient fallback.
type JobAPI interface {
	Job(ctx context.Context, jobID string) (Job, error)
}

// CredentialSource supplies the bearer credential. The credential is
// owned by an external auth collaborator and may be invalid at any call.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticCredential wraps a fixed token.
type StaticCredential string

func (c StaticCredential) Token(context.Context) (string, error) {
	return string(c), nil
}
