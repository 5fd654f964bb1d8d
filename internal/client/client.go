// Package client talks to the multi-agent backend: session creation, health
// probing and turn submission in both JSON and SSE modes.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultAppName = "app"
	DefaultUserID  = "u_999"
)

// ErrSessionNotFound means the backend no longer knows the session; callers
// recreate it and retry once.
var ErrSessionNotFound = errors.New("session not found")

// BackendError is a non-2xx response
type BackendError struct {
	Op     string
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s failed: %d %s\n%s", e.Op, e.Status, http.StatusText(e.Status), e.Body)
}

// Temporary reports whether retrying the same request may succeed
func (e *BackendError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusRequestTimeout || e.Status == http.StatusTooManyRequests
}

// Session identifies a backend conversation
type Session struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	AppName string `json:"appName"`
}

// InlineData is a base64 attachment sent alongside the query text
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Part is one element of a user message
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// Content is the newMessage field of a run request
type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role"`
}

// Attachment is a file to send with a query
type Attachment struct {
	MimeType string
	Data     []byte
}

// NewUserMessage builds the message for query plus any attachments
func NewUserMessage(query string, attachments ...Attachment) Content {
	parts := []Part{{Text: query}}
	for _, a := range attachments {
		parts = append(parts, Part{InlineData: &InlineData{
			MimeType: a.MimeType,
			Data:     base64.StdEncoding.EncodeToString(a.Data),
		}})
	}
	return Content{Parts: parts, Role: "user"}
}

// RunRequest is the body of POST /run
type RunRequest struct {
	AppName    string  `json:"appName"`
	UserID     string  `json:"userId"`
	SessionID  string  `json:"sessionId"`
	NewMessage Content `json:"newMessage"`
	Streaming  bool    `json:"streaming"`
}

// Client is a backend API client
type Client struct {
	BaseURL    string
	AppName    string
	UserID     string
	HTTPClient *http.Client
	Retry      RetryPolicy
}

// Option is a functional option for configuring the client
type Option func(*Client)

// WithBaseURL sets the backend URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.BaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = httpClient
	}
}

// WithRetryPolicy replaces the session-creation retry policy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.Retry = p
	}
}

// WithUser sets the app and user the sessions belong to
func WithUser(appName, userID string) Option {
	return func(c *Client) {
		c.AppName = appName
		c.UserID = userID
	}
}

// New creates a backend client
func New(opts ...Option) *Client {
	c := &Client{
		BaseURL: DefaultBaseURL,
		AppName: DefaultAppName,
		UserID:  DefaultUserID,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		Retry: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession registers a new session under a random id
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	path := fmt.Sprintf("/apps/%s/users/%s/sessions/%s", c.AppName, c.UserID, uuid.NewString())
	resp, err := c.do(ctx, "create_session", http.MethodPost, path, struct{}{})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	if s.UserID == "" {
		s.UserID = c.UserID
	}
	if s.AppName == "" {
		s.AppName = c.AppName
	}
	internal.LogDebug("Created session %s", s.ID)
	return &s, nil
}

// CheckHealth probes GET /docs
func (c *Client) CheckHealth(ctx context.Context) error {
	resp, err := c.do(ctx, "health", http.MethodGet, "/docs", nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Run submits a turn without streaming and returns the raw response body
func (c *Client) Run(ctx context.Context, req RunRequest) ([]byte, error) {
	req.Streaming = false
	resp, err := c.do(ctx, "run", http.MethodPost, "/run", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read run response")
	}
	return body, nil
}

// RunStream submits a turn in streaming mode and calls onFrame with every
// event payload in arrival order. A non-nil error from onFrame stops the
// stream.
func (c *Client) RunStream(ctx context.Context, req RunRequest, onFrame func(frame []byte) error) error {
	req.Streaming = true
	resp, err := c.do(ctx, "run_stream", http.MethodPost, "/run", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := internal.NewSSEReader(resp.Body)
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read event stream")
		}
		if err := onFrame(frame); err != nil {
			return err
		}
	}
}

// NewRunRequest fills in the identity fields for session
func (c *Client) NewRunRequest(session *Session, message Content) RunRequest {
	return RunRequest{
		AppName:    session.AppName,
		UserID:     session.UserID,
		SessionID:  session.ID,
		NewMessage: message,
	}
}

// do sends a JSON request and returns the response when it is 2xx. The
// caller closes the body.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	metrics.BackendLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		metrics.BackendRequests.WithLabelValues(endpoint, fmt.Sprintf("%dxx", resp.StatusCode/100)).Inc()
		internal.LogDebug("Backend %s returned %d: %s", endpoint, resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusNotFound && strings.Contains(string(respBody), "Session not found") {
			return nil, ErrSessionNotFound
		}
		return nil, &BackendError{Op: endpoint, Status: resp.StatusCode, Body: string(respBody)}
	}

	metrics.BackendRequests.WithLabelValues(endpoint, "ok").Inc()
	return resp, nil
}
