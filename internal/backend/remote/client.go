// Package remote implements the backend contract over the grownby HTTP API.
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
	"sync"

	"github.com/stwalsh4118/grownby/internal/backend"
	apierrors "github.com/stwalsh4118/grownby/internal/errors"
	"github.com/stwalsh4118/grownby/internal/logger"
)

// TokenKey is the key/value slot holding the bearer token between runs.
const TokenKey = "backend.authToken"

// APIError is a non-2xx response carrying the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to cmd/server. It keeps the bearer token of the signed-in
// user in memory and mirrors it into the key/value slot.
type Client struct {
	baseURL string
	http    *http.Client
	kv      backend.KeyValue
	log     *logger.Logger

	mu          sync.Mutex
	token       string
	tokenLoaded bool
}

// New creates a client for the server at baseURL. httpClient must not set a
// Timeout, since watch streams stay open; nil uses a plain http.Client.
func New(baseURL string, httpClient *http.Client, kv backend.KeyValue, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		kv:      kv,
		log:     log.WithComponent("backend"),
	}
}

// Backend returns the client wired as a backend.Client.
func (c *Client) Backend() *backend.Client {
	return &backend.Client{Identity: c, Documents: c, Blobs: c}
}

// bearer returns the current token, reading the key/value slot on first use.
func (c *Client) bearer(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokenLoaded || c.kv == nil {
		return c.token
	}
	token, ok, err := c.kv.Get(ctx, TokenKey)
	if err != nil {
		c.log.Warn("Failed to read stored token", map[string]interface{}{
			"error": err.Error(),
		})
		return c.token
	}
	c.tokenLoaded = true
	if ok {
		c.token = token
	}
	return c.token
}

func (c *Client) storeToken(ctx context.Context, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.tokenLoaded = true
	if c.kv == nil {
		return
	}

	var err error
	if token == "" {
		err = c.kv.Remove(ctx, TokenKey)
	} else {
		err = c.kv.Set(ctx, TokenKey, token)
	}
	if err != nil {
		c.log.Warn("Failed to persist token", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doJSON sends in as a JSON body (when non-nil) and decodes a 2xx response
// into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope apierrors.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// apiCode returns the envelope code of err, or "".
func apiCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
