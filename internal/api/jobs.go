package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/classmarket/tutorchat/internal/chat"
)

var _ chat.JobAPI = (*Client)(nil)

type jobResponse struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	OwnerID   json.RawMessage `json:"ownerId"`
	CreatedBy json.RawMessage `json:"createdBy"`
}

// Job fetches job metadata, used by the send pipeline's job-owner
// recipient fallback. Older backend revisions expose the owner as
// createdBy instead of ownerId.
func (c *Client) Job(ctx context.Context, jobID string) (chat.Job, error) {
	var res jobResponse
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, nil, &res); err != nil {
		return chat.Job{}, err
	}
	id, err := chat.DecodeID(res.ID)
	if err != nil {
		return chat.Job{}, fmt.Errorf("decode job id: %w", err)
	}
	owner, err := chat.DecodeID(res.OwnerID)
	if err != nil || owner == "" {
		owner, err = chat.DecodeID(res.CreatedBy)
		if err != nil {
			return chat.Job{}, fmt.Errorf("decode job owner: %w", err)
		}
	}
	return chat.Job{
		ID:      id,
		OwnerID: owner,
		Title:   res.Title,
	}, nil
}
