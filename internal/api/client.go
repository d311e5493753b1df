// Package api is the HTTP client for the banking-agent backend. It covers the
// chat endpoint, the decision update endpoint and the read-only snapshot and
// health endpoints. It deliberately does not interpret reply payloads; that is
// the format package's job.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatRequest is the outbound payload of one conversational turn.
// SessionID is attached iff a session currently exists; CustomerID only for
// manager-scoped turns; EndSession marks the terminal turn of a session.
type ChatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	EndSession bool   `json:"end_session,omitempty"`
}

// Response is a raw backend response. Body interpretation is left to callers
// because reply payloads are heterogeneous.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK reports whether the response carries a success status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// IsJSON reports whether the response declares a JSON body.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType, "json")
}

// Client talks to one banking-agent backend instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL. Timeout policy is
// delegated to the caller's context and the transport; by default requests
// wait until the server answers or the connection fails.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client,
// mainly so tests can shorten timeouts.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat posts one turn to the chat endpoint and returns the raw response.
// A transport failure returns an error; a non-2xx status is returned as a
// Response so the caller can distinguish the two.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*Response, error) {
	return c.post(ctx, "/chat", req)
}

// UpdateDecision posts a manager override to the decision update endpoint.
// Any non-2xx status is an error carrying the server's detail text.
func (c *Client) UpdateDecision(ctx context.Context, customerID, decision, reason string) error {
	payload := map[string]string{
		"customer_id": customerID,
		"decision":    decision,
		"reason":      reason,
	}
	resp, err := c.post(ctx, "/update-decisions", payload)
	if err != nil {
		return fmt.Errorf("update decisions request failed: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("update decisions returned status %d: %s", resp.Status, errorDetail(resp.Body))
	}
	return nil
}

// Get fetches a backend path and returns the raw response.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(httpReq)
}

// Health checks the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("health check returned status %d", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// errorDetail extracts a FastAPI-style {"detail": "..."} message, falling back
// to the raw body.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return strings.TrimSpace(string(body))
}
