package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/classmarket/tutorchat/internal/chat"
)

// Compile-time check that Client satisfies the chat collaborator surface.
var _ chat.MessageAPI = (*Client)(nil)

type sendPayload struct {
	JobID       string `json:"jobId"`
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
}

type pagedResponse struct {
	Messages []chat.Message `json:"messages"`
}

// SendMessage dispatches a message via POST /chat and returns the
// authoritative server record.
func (c *Client) SendMessage(ctx context.Context, out chat.Outgoing) (chat.Message, error) {
	var created chat.Message
	err := c.do(ctx, http.MethodPost, "/chat", nil, sendPayload{
		JobID:       out.JobID,
		SenderID:    out.SenderID,
		RecipientID: out.RecipientID,
		Message:     out.Body,
	}, &created)
	if err != nil {
		return chat.Message{}, err
	}
	return created, nil
}

// ThreadMessages lists the full thread for one job and user.
func (c *Client) ThreadMessages(ctx context.Context, jobID, userID string) ([]chat.Message, error) {
	var messages []chat.Message
	path := "/chat/job/" + url.PathEscape(jobID) + "/user/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// RecipientMessages lists one page of messages addressed to the user.
func (c *Client) RecipientMessages(ctx context.Context, userID string, page chat.Page) ([]chat.Message, error) {
	return c.pagedMessages(ctx, "/chat/recipient/"+url.PathEscape(userID), page)
}

// SenderMessages lists one page of messages originated by the user. The
// endpoint is optional on the backend; absence surfaces as a *StatusError
// whose EndpointAbsent reports true.
func (c *Client) SenderMessages(ctx context.Context, userID string, page chat.Page) ([]chat.Message, error) {
	return c.pagedMessages(ctx, "/chat/sender/"+url.PathEscape(userID), page)
}

func (c *Client) pagedMessages(ctx context.Context, path string, page chat.Page) ([]chat.Message, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page.Number))
	if page.Size > 0 {
		query.Set("size", strconv.Itoa(page.Size))
	}
	if page.Status != "" {
		query.Set("status", string(page.Status))
	}

	var res pagedResponse
	if err := c.do(ctx, http.MethodGet, path, query, nil, &res); err != nil {
		return nil, err
	}
	return res.Messages, nil
}

// MarkRead transitions a message to READ. Idempotent on the backend.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPatch, "/chat/"+url.PathEscape(messageID)+"/read", nil, nil, nil)
}

// MarkDelivered transitions a message to DELIVERED. Idempotent on the
// backend.
func (c *Client) MarkDelivered(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPatch, "/chat/"+url.PathEscape(messageID)+"/delivered", nil, nil, nil)
}
