// Package assistant is a minimal client for the OpenAI Assistants v2 API:
// files, threads, runs and messages.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	betaHeader       = "OpenAI-Beta"
	betaHeaderValue  = "assistants=v2"
	maxResponseBytes = 4 << 20
)

var (
	ErrMissingAPIKey      = errors.New("OPENAI_API_KEY is not configured")
	ErrMissingAssistantID = errors.New("OPENAI_ASSISTANT_ID is not configured")
)

// Client talks to the Assistants API with raw HTTP.
type Client struct {
	apiKey      string
	assistantID string
	baseURL     string
	httpClient  *http.Client
}

// NewClient constructs a client. Missing credentials are reported by
// CheckConfig rather than here so the service can start without them.
func NewClient(apiKey, assistantID, baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		assistantID: strings.TrimSpace(assistantID),
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// CheckConfig reports missing credentials.
func (c *Client) CheckConfig() error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if c.assistantID == "" {
		return ErrMissingAssistantID
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if err := c.CheckConfig(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set(betaHeader, betaHeaderValue)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
