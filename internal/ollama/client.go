// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with an
// Ollama-compatible model host.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents a classified error from the client.
type ClientError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorKind categorizes client errors for handling.
//
// Classification is mutually exclusive and checked in order: transport
// failures first, then the resource (memory) upgrade, then the generic
// request failure. A memory failure looks like a generic failure to the
// transport layer, so the error text has to be inspected to upgrade it.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindUnreachable
	ErrKindTimeout
	ErrKindInvalidURL
	ErrKindResource
	ErrKindRequest
	ErrKindInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Kind: ErrKindUnreachable, Message: "model host is unreachable"}
	ErrTimeout     = &ClientError{Kind: ErrKindTimeout, Message: "request timed out"}
)

// IsUnreachable reports whether an error indicates the host could not be reached.
func IsUnreachable(err error) bool {
	return errorKindOf(err) == ErrKindUnreachable
}

// IsTimeout reports whether an error is a timeout error.
func IsTimeout(err error) bool {
	return errorKindOf(err) == ErrKindTimeout
}

// IsResource reports whether an error is a memory/capacity failure.
func IsResource(err error) bool {
	return errorKindOf(err) == ErrKindResource
}

// IsRequestFailure reports whether an error is a generic request failure.
func IsRequestFailure(err error) bool {
	return errorKindOf(err) == ErrKindRequest
}

func errorKindOf(err error) ErrorKind {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind
	}
	return ErrKindUnknown
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the client.
type ClientConfig struct {
	// Host is the model host base URL (default: http://localhost:11434)
	Host string

	// APIKey is sent as a bearer token when set (remote providers).
	APIKey string

	// ProbeTimeout bounds reachability checks and model listing (default: 3s)
	ProbeTimeout time.Duration

	// StreamTimeout bounds an entire streaming response (default: 5m)
	StreamTimeout time.Duration

	// DefaultModel to fall back to when the catalog is empty (default: "gemma3:1b")
	DefaultModel string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Host:          "http://localhost:11434",
		ProbeTimeout:  3 * time.Second,
		StreamTimeout: 5 * time.Minute,
		DefaultModel:  "gemma3:1b",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the model host. It holds no state
// between calls beyond its configuration; each call is independent.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.Host == "" {
		config.Host = "http://localhost:11434"
	}
	if config.ProbeTimeout == 0 {
		config.ProbeTimeout = 3 * time.Second
	}
	if config.StreamTimeout == 0 {
		config.StreamTimeout = 5 * time.Minute
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "gemma3:1b"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.ProbeTimeout,
		},
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// GetDefaultModel returns the fallback model identifier.
func (c *Client) GetDefaultModel() string {
	return c.config.DefaultModel
}

// =============================================================================
// REACHABILITY PROBE
// =============================================================================

// ProbeResult is the outcome of a reachability check. The diagnostic is a
// user-actionable message; the probe never returns an error.
type ProbeResult struct {
	OK         bool
	Diagnostic string
}

// CheckReachable performs a bounded-time GET against the host root and
// reports whether the host answered, with a diagnostic that distinguishes
// connection refused, malformed URL, timeout, and generic failure.
func (c *Client) CheckReachable(ctx context.Context) ProbeResult {
	host := strings.TrimRight(c.config.Host, "/")

	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ProbeResult{
			OK:         false,
			Diagnostic: "Invalid host URL. Make sure it starts with http:// or https://",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host, nil)
	if err != nil {
		return ProbeResult{
			OK:         false,
			Diagnostic: "Invalid host URL. Make sure it starts with http:// or https://",
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProbeResult{OK: false, Diagnostic: probeDiagnostic(err)}
	}
	defer resp.Body.Close()
	drain(resp.Body)

	return ProbeResult{OK: true, Diagnostic: "Reachable: HTTP " + resp.Status}
}

// probeDiagnostic maps a transport error to a user-actionable message.
func probeDiagnostic(err error) string {
	if isTimeoutErr(err) {
		return "Connection timed out — check network and host/port"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "Connection refused — is Ollama running? Try `ollama serve`"
	}
	return "Error: " + err.Error()
}

// isTimeoutErr reports whether err is any flavor of timeout.
func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels queries GET {host}/v1/models and returns the available model
// identifiers. On any failure (network, non-2xx, malformed JSON) it returns
// an empty catalog rather than an error; stale entries are never retained.
// Entries lacking an id are silently skipped.
func (c *Client) ListModels(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	endpoint := strings.TrimRight(c.config.Host, "/") + "/v1/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return nil
	}

	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil
	}

	ids := make([]string, 0, len(list.Data))
	for _, entry := range list.Data {
		if entry.ID != "" {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chat sends a chat request and returns the complete response (non-streaming).
// Errors are classified the same way as for ChatStream. Generation is bounded
// by StreamTimeout, not ProbeTimeout; a full response routinely takes longer
// than a probe.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	if model == "" {
		model = c.config.DefaultModel
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.StreamTimeout)
	defer cancel()

	resp, err := c.postChat(ctx, &http.Client{}, ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Kind: ErrKindInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return &result, nil
}

// StreamCallback is called for each chunk received during streaming.
type StreamCallback func(chunk StreamChunk)

// ChatStream sends a streaming chat request and calls the callback for each
// fragment, synchronously and in arrival order. A single attempt is made;
// retry is a user-initiated action, never this layer's.
//
// Errors before the first fragment are classified: transport failures as
// unreachable/timeout, memory failures as resource, anything else as a
// generic request failure carrying the host's raw diagnostic.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, callback StreamCallback) error {
	if model == "" {
		model = c.config.DefaultModel
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.StreamTimeout)
	defer cancel()

	// The probe-scoped client timeout would cut streams short, so streaming
	// uses a client without one; the context carries the overall bound.
	streamClient := &http.Client{}

	resp, err := c.postChat(ctx, streamClient, ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := NewStreamReader(resp.Body)
	if err := reader.Process(ctx, callback); err != nil {
		// Mid-stream cancellation and deadline expiry classify the same
		// as a pre-submit timeout; callers never see a bare context error.
		if isTimeoutErr(err) || errors.Is(err, context.Canceled) {
			return &ClientError{Kind: ErrKindTimeout, Message: "stream interrupted", Cause: err}
		}
		return err
	}
	return nil
}

// postChat issues the POST to /api/chat and classifies submission failures.
// On success the caller owns the response body.
func (c *Client) postChat(ctx context.Context, httpClient *http.Client, reqBody ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ClientError{Kind: ErrKindInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	endpoint := strings.TrimRight(c.config.Host, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Kind: ErrKindInvalidURL, Message: "invalid host URL", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := httpClient.Do(req)
	if err != nil {
		if isTimeoutErr(err) || errors.Is(err, context.Canceled) {
			return nil, ErrTimeout
		}
		return nil, ErrUnreachable
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, classifySubmitFailure(resp)
	}

	return resp, nil
}

// classifySubmitFailure turns a non-200 chat response into a classified error.
// The memory-keyword check runs before the generic fallback so that
// out-of-memory failures surface with their own remediation.
func classifySubmitFailure(resp *http.Response) *ClientError {
	raw := "chat request failed: " + resp.Status
	var hostErr hostError
	if err := json.NewDecoder(resp.Body).Decode(&hostErr); err == nil && hostErr.Error != "" {
		raw = hostErr.Error
	}

	if isMemoryError(raw) {
		return &ClientError{
			Kind:    ErrKindResource,
			Message: "the model failed to run due to insufficient system memory",
			Cause:   errors.New(raw),
		}
	}

	return &ClientError{Kind: ErrKindRequest, Message: raw}
}

// isMemoryError reports whether an error text indicates an out-of-memory or
// insufficient-memory condition. Case-insensitive substring match.
func isMemoryError(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "out of memory") || strings.Contains(lower, "memory")
}

// authorize attaches the bearer token for remote providers when configured.
func (c *Client) authorize(req *http.Request) {
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}

// drain consumes a response body so the connection can be reused.
func drain(r io.Reader) {
	io.Copy(io.Discard, r)
}
