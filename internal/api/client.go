// Package api implements the tutoring-marketplace REST client. It is the
// production implementation of the collaborator interfaces consumed by
// internal/chat.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/classmarket/tutorchat/internal/chat"
	"github.com/classmarket/tutorchat/internal/logging"
)

const defaultTimeout = 20 * time.Second

// Config describes a Client.
type Config struct {
	// BaseURL is the backend root, e.g. https://api.example.com/api/v1.
	BaseURL string
	// Credentials supplies the bearer token attached to every call.
	Credentials chat.CredentialSource
	// Timeout bounds each request. Default: 20s.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is a bearer-authenticated JSON client for the chat and job
// endpoints. It never refreshes or validates the credential itself; any
// call may fail with an auth error owned by the external collaborator.
type Client struct {
	baseURL string
	creds   chat.CredentialSource
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url required")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("credential source required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: base,
		creds:   cfg.Credentials,
		http:    httpClient,
		logger:  logging.Component("api-client"),
	}, nil
}

// do performs one JSON round-trip. A nil body sends no payload; a nil out
// skips decoding. Non-2xx responses become errors carrying the redacted
// response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if res.StatusCode >= 300 {
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   res.StatusCode,
			Body:   logging.Redact(string(data)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status=%d body=%s", e.Method, e.Path, e.Code, e.Body)
}

// EndpointAbsent reports whether the status marks an endpoint the
// backend does not offer (404 or 501). The chat layer uses it to quiet
// degradation on optional fetch paths.
func (e *StatusError) EndpointAbsent() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusNotImplemented
}
