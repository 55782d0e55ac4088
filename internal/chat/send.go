package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/classmarket/tutorchat/internal/logging"
)

// SendRequest describes one outgoing message before resolution.
type SendRequest struct {
	JobID string
	Body  string
	// RecipientID, when set, overrides recipient resolution.
	RecipientID string
}

// Sender runs the optimistic send pipeline against one thread store:
// precondition checks, temp insert, dispatch, reconcile or roll back.
// Concurrent sends produce independent temporary ids and do not block
// each other.
type Sender struct {
	api       MessageAPI
	jobs      JobAPI
	creds     CredentialSource
	store     *Store
	logger    zerolog.Logger
	now       func() time.Time
	newTempID func() string
}

// SenderOption customizes a Sender.
type SenderOption func(*Sender)

// WithSenderNow injects the clock stamped onto optimistic messages.
func WithSenderNow(now func() time.Time) SenderOption {
	return func(s *Sender) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTempIDGenerator injects the temp id source.
func WithTempIDGenerator(gen func() string) SenderOption {
	return func(s *Sender) {
		if gen != nil {
			s.newTempID = gen
		}
	}
}

// NewSender creates a Sender bound to a thread store.
func NewSender(api MessageAPI, jobs JobAPI, creds CredentialSource, store *Store, opts ...SenderOption) *Sender {
	sender := &Sender{
		api:    api,
		jobs:   jobs,
		creds:  creds,
		store:  store,
		logger: logging.Component("chat-sender"),
		now:    func() time.Time { return time.Now().UTC() },
		newTempID: func() string {
			return TempIDPrefix + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(sender)
	}
	return sender
}

// Send runs the pipeline end to end and returns the authoritative server
// record. Precondition failures never touch the store; a dispatch failure
// rolls the temp insert back and returns a *SendError carrying the typed
// body for retry.
func (s *Sender) Send(ctx context.Context, req SendRequest) (Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return Message{}, ErrEmptyBody
	}
	viewerID := s.store.ViewerID()
	if viewerID == "" {
		return Message{}, ErrNoViewer
	}
	if token, err := s.creds.Token(ctx); err != nil || strings.TrimSpace(token) == "" {
		return Message{}, ErrNoCredential
	}
	recipientID, err := s.resolveRecipient(ctx, req)
	if err != nil {
		return Message{}, err
	}

	temp := Message{
		ID:          s.newTempID(),
		JobID:       req.JobID,
		SenderID:    viewerID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   s.now(),
		Status:      StatusSending,
	}
	s.store.Append(temp)

	server, err := s.api.SendMessage(ctx, Outgoing{
		JobID:       req.JobID,
		SenderID:    viewerID,
		RecipientID: recipientID,
		Body:        body,
	})
	if err != nil {
		s.store.RemoveTemp(temp.ID)
		s.logger.Warn().Err(err).Str("job_id", req.JobID).Msg("send failed, optimistic insert rolled back")
		return Message{}, &SendError{JobID: req.JobID, Body: req.Body, Err: err}
	}

	if err := s.store.Replace(temp.ID, server); err != nil {
		// The temp vanished mid-flight (e.g. a racing rollback); keep the
		// authoritative record regardless.
		s.store.Append(server)
	}
	s.logger.Debug().Str("job_id", req.JobID).Str("message_id", server.ID).Msg("send confirmed")
	return server, nil
}

// resolveRecipient resolves the other party: explicit request value, then
// the counterpart visible in already-loaded thread messages, then the job
// owner from job metadata.
func (s *Sender) resolveRecipient(ctx context.Context, req SendRequest) (string, error) {
	if recipient := strings.TrimSpace(req.RecipientID); recipient != "" {
		return recipient, nil
	}
	if counterpart := s.store.Counterpart(); counterpart != "" {
		return counterpart, nil
	}
	if s.jobs != nil {
		job, err := s.jobs.Job(ctx, req.JobID)
		if err == nil && job.OwnerID != "" && job.OwnerID != s.store.ViewerID() {
			return job.OwnerID, nil
		}
		if err != nil {
			s.logger.Debug().Err(err).Str("job_id", req.JobID).Msg("job owner lookup failed")
		}
	}
	return "", ErrRecipientUnresolved
}
