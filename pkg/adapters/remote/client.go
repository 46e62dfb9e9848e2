// Package remote talks to a commit message service over HTTP
// (POST /generateCommitMessage and POST /setup).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/commitquest/pkg/domain"
)

const (
	generatePath = "/generateCommitMessage"
	setupPath    = "/setup"

	// maxErrorBody bounds how much of a failed response is kept for the message.
	maxErrorBody = 4 << 10
)

// Client implements ports.Backend against an HTTP service.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New creates a client for the service at baseURL (e.g. http://localhost:5000).
// Call timeouts come from the caller's context.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateCommitMessage posts the request and decodes the result.
func (c *Client) GenerateCommitMessage(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	var res domain.GenerationResult
	if err := c.post(ctx, "generate", generatePath, req, &res); err != nil {
		return domain.GenerationResult{}, err
	}
	if res.CommitMessage == "" {
		return domain.GenerationResult{}, &domain.TransportError{Op: "generate", Detail: "response has no commitMessage"}
	}
	return res, nil
}

// Setup posts the project directory and decodes the configuration.
func (c *Client) Setup(ctx context.Context, req domain.SetupRequest) (domain.SetupResult, error) {
	var res domain.SetupResult
	if err := c.post(ctx, "setup", setupPath, req, &res); err != nil {
		return domain.SetupResult{}, err
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	if c.baseURL == "" {
		return domain.NewConfigurationError("backend.url", "no service URL configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &domain.ConfigurationError{Field: "backend.url", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &domain.TransportError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.TransportError{Op: op, Status: resp.StatusCode, Detail: errorDetail(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{Op: op, Status: resp.StatusCode, Cause: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

// errorDetail prefers the service's {"error": "..."} field over the raw body.
func errorDetail(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// IsUnreachable reports whether err means the service could not be contacted.
func IsUnreachable(err error) bool {
	var te *domain.TransportError
	return errors.As(err, &te) && te.Status == 0
}
