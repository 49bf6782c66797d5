package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fruit-fusion/internal/core/config"
	"fruit-fusion/internal/core/httpclient"
	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/proxy"

	"go.uber.org/zap"
)

// Database is the set of hosted store primitives the features depend on.
type Database interface {
	Get(ctx context.Context, path string, out any) error
	Set(ctx context.Context, path string, value any) error
	Update(ctx context.Context, path string, partial any) error
	Remove(ctx context.Context, path string) error
	Push(ctx context.Context, path string, value any) (string, error)
	Query(ctx context.Context, path, orderByChild, equalTo string, out any) error
	Subscribe(ctx context.Context, path string, onEvent func(Event)) error
	Ping(ctx context.Context) error
}

// Client talks to a realtime database over its REST protocol.
type Client struct {
	baseURL string
	auth    string
	http    *http.Client
	stream  *http.Client
	logger  *zap.Logger
}

// NewClient creates a Client for the configured database.
func NewClient(cfg config.StoreConfig, proxySettings proxy.Settings) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		auth:    cfg.AuthToken,
		http:    httpclient.NewProxiedClient(cfg.Timeout(), proxySettings),
		stream:  httpclient.NewStreamingClient(proxySettings),
		logger:  logger.Named("store"),
	}
}

// Get reads the value at path into out. Returns ErrNotFound when the path holds no value.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if isNull(body) {
		return &Error{Op: "get", Path: path, Err: ErrNotFound}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: "get", Path: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// Set replaces the value at path.
func (c *Client) Set(ctx context.Context, path string, value any) error {
	_, err := c.do(ctx, http.MethodPut, path, nil, value)
	return err
}

// Update merges the given fields into the value at path.
func (c *Client) Update(ctx context.Context, path string, partial any) error {
	_, err := c.do(ctx, http.MethodPatch, path, nil, partial)
	return err
}

// Remove deletes the value at path.
func (c *Client) Remove(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Push writes value under a new server generated child key of path and returns the key.
func (c *Client) Push(ctx context.Context, path string, value any) (string, error) {
	body, err := c.do(ctx, http.MethodPost, path, nil, value)
	if err != nil {
		return "", err
	}

	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Name == "" {
		return "", &Error{Op: "push", Path: path, Err: fmt.Errorf("missing generated key in response: %s", string(body))}
	}
	return resp.Name, nil
}

// Query reads the children of path whose orderByChild field equals equalTo.
// A path without matches leaves out untouched.
func (c *Client) Query(ctx context.Context, path, orderByChild, equalTo string, out any) error {
	params := url.Values{}
	params.Set("orderBy", quote(orderByChild))
	params.Set("equalTo", quote(equalTo))

	body, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	if isNull(body) {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: "query", Path: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// Ping checks that the database is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("shallow", "true")
	_, err := c.do(ctx, http.MethodGet, "", params, nil)
	return err
}

func (c *Client) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if c.auth != "" {
		params.Set("auth", c.auth)
	}

	u := c.baseURL + "/" + strings.Trim(path, "/") + ".json"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, error) {
	op := strings.ToLower(method)

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Op: op, Path: path, Err: fmt.Errorf("failed to encode payload: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, params), reader)
	if err != nil {
		return nil, &Error{Op: op, Path: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Path: path, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Path: path, Err: fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(op, path, resp.StatusCode, body)
	}

	return body, nil
}

func statusError(op, path string, status int, body []byte) *Error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	kind := ErrRejected
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		kind = ErrUnavailable
	}

	return &Error{
		Op:         op,
		Path:       path,
		StatusCode: status,
		Err:        fmt.Errorf("%w: status %d: %s", kind, status, msg),
	}
}

func isNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// IsUnavailable reports whether err means the store could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
