package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/classmarket/tutorchat/internal/chat"
)

// MessageCache persists the last fetched message set so chat views render
// instantly on startup. The cache is a convenience copy, never
// authoritative: server data always overwrites it.
type MessageCache struct {
	db *DB
}

// NewMessageCache creates a MessageCache.
func NewMessageCache(db *DB) *MessageCache {
	return &MessageCache{db: db}
}

// Put upserts a batch of messages. Temporary (unconfirmed) messages are
// skipped: only server records are worth surviving a restart.
func (c *MessageCache) Put(ctx context.Context, messages []chat.Message) error {
	if len(messages) == 0 {
		return nil
	}
	return c.db.TransactionWithRetry(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO messages (id, job_id, sender_id, recipient_id, body, created_at, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				job_id = excluded.job_id,
				sender_id = excluded.sender_id,
				recipient_id = excluded.recipient_id,
				body = excluded.body,
				created_at = excluded.created_at,
				status = excluded.status
		`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, message := range messages {
			if message.IsTemp() {
				continue
			}
			createdAt := ""
			if !message.CreatedAt.IsZero() {
				createdAt = message.CreatedAt.UTC().Format(time.RFC3339Nano)
			}
			if _, err := stmt.ExecContext(ctx,
				message.ID,
				message.JobID,
				message.SenderID,
				message.RecipientID,
				message.Body,
				createdAt,
				string(message.Status),
			); err != nil {
				return fmt.Errorf("upsert message %s: %w", message.ID, err)
			}
		}
		return nil
	})
}

// Thread returns the cached messages of one job thread.
func (c *MessageCache) Thread(ctx context.Context, jobID string) ([]chat.Message, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, job_id, sender_id, recipient_id, body, created_at, status
		FROM messages WHERE job_id = ?
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query thread %s: %w", jobID, err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// All returns every cached message, the input for an offline chat-list
// projection via chat.Summarize.
func (c *MessageCache) All(ctx context.Context) ([]chat.Message, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, job_id, sender_id, recipient_id, body, created_at, status
		FROM messages
	`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]chat.Message, error) {
	var out []chat.Message
	for rows.Next() {
		var message chat.Message
		var createdAt, status string
		if err := rows.Scan(
			&message.ID,
			&message.JobID,
			&message.SenderID,
			&message.RecipientID,
			&message.Body,
			&createdAt,
			&status,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if createdAt != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
				message.CreatedAt = parsed.UTC()
			}
		}
		message.Status = chat.ParseStatus(status)
		out = append(out, message)
	}
	return out, rows.Err()
}
