// Package api is the typed client for the portal REST backend.
//
// The client attaches the stored bearer token to authenticated calls and maps
// non-2xx responses to errors from the apperrors package. It never navigates
// or prompts: deciding what to do about an expired session is the caller's job.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avoronin/portalctl/internal/apperrors"
	"github.com/avoronin/portalctl/internal/logger"
	"github.com/avoronin/portalctl/internal/tokenstore"
)

const (
	// DefaultBaseURL is used when no backend address is configured
	DefaultBaseURL = "http://localhost:8000"

	defaultTimeout = 10 * time.Second
)

type Config struct {
	// Backend address. DefaultBaseURL if empty
	BaseURL string

	// Store for the session token pair. Defaults to tokenstore.Nop,
	// which keeps every call unauthenticated.
	Store tokenstore.Store

	// Per-request timeout. defaultTimeout if zero
	Timeout time.Duration

	Logger     logger.Logger
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	store   tokenstore.Store
	timeout time.Duration

	client *http.Client
	logger logger.Logger
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Store == nil {
		cfg.Store = tokenstore.Nop{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		store:   cfg.Store,
		timeout: cfg.Timeout,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger,
	}
}

// Store returns the token store the client persists pairs to.
func (c *Client) Store() tokenstore.Store {
	return c.store
}

// do sends a request and maps any non-2xx response to an error.
// Returns the response body; empty on 204.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, auth bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if auth {
		if pair, ok, _ := c.store.Load(); ok {
			req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// doJSON sends 'in' as a JSON body (nil for no body) and decodes the
// response into 'out' (nil to discard).
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, auth bool) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	data, err := c.do(ctx, method, path, body, contentType, auth)
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("Failed to decode response", "path", path, "error", err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps a non-2xx response to a typed error.
//
// A 401 means the stored pair is unusable: the store is cleared here so every
// caller observes the same forced logout. Clearing is idempotent, concurrent
// 401s clear at most once effectively.
func (c *Client) statusError(resp *http.Response) error {
	detail := decodeDetail(resp.Body)

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("Failed to clear token store after 401", "error", err)
		}
		sentinel = apperrors.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = apperrors.ErrForbidden
	case http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict:
		// The backend reports duplicates as 400 with a human detail.
		// This is the single place that looks at it.
		if strings.Contains(strings.ToLower(detail), "already") {
			sentinel = apperrors.ErrAlreadyExists
		}
	}

	c.logger.Debug("Request failed", "status_code", resp.StatusCode, "detail", detail)
	return apperrors.NewAPIError(resp.StatusCode, detail, sentinel)
}

// decodeDetail extracts the 'detail' field the backend sets on errors.
// Falls back to the raw body text.
func decodeDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(data))
}

// Health checks backend availability. Never authenticated.
func (c *Client) Health(ctx context.Context) (string, error) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &payload, false); err != nil {
		return "", err
	}
	return payload.Status, nil
}
