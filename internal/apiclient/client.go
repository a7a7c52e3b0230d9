// Package apiclient fetches pre-aggregated dashboard metrics from the metrics API.
package apiclient

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

	"github.com/go-playground/validator/v10"
)

// BasePath is the versioned prefix every endpoint lives under.
const BasePath = "/api/v1"

// Config holds the client settings. TimeoutMs of 0 disables the request timeout.
type Config struct {
	BaseURL   string `validate:"required,url"`
	TimeoutMs int    `validate:"gte=0"`
}

// Timeout converts TimeoutMs into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Observer records the outcome of each fetch.
type Observer interface {
	ObserveFetch(resource string, duration time.Duration, err error)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver attaches a fetch observer.
func WithObserver(obs Observer) Option {
	return func(c *Client) {
		c.observer = obs
	}
}

// Client wraps interactions with the metrics API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	observer   Observer
}

var validate = validator.New()

// New constructs a client after validating cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("apiclient: invalid config: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + BasePath,
		timeout:    cfg.Timeout(),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchError reports a failed fetch of a named resource.
type FetchError struct {
	Resource string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	return "failed to fetch " + e.Resource
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrUnexpectedStatus marks a non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// fetch issues one GET for path and hands the unwrapped payload to decode. The
// observer sees the outcome after decoding, so a malformed body counts as a failure.
func (c *Client) fetch(ctx context.Context, resource, path string, decode func([]byte) error) (err error) {
	started := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveFetch(resource, time.Since(started), err)
		}
	}()

	payload, err := c.get(ctx, resource, path)
	if err != nil {
		return err
	}
	if err := decode(payload); err != nil {
		return &FetchError{Resource: resource, Status: http.StatusOK, Err: err}
	}
	return nil
}

// get issues one GET for path and returns the payload with any envelope removed.
func (c *Client) get(ctx context.Context, resource, path string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &FetchError{Resource: resource, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Resource: resource, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{
			Resource: resource,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode),
		}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Resource: resource, Status: resp.StatusCode, Err: err}
	}
	payload, err := unwrapEnvelope(raw)
	if err != nil {
		return nil, &FetchError{Resource: resource, Status: resp.StatusCode, Err: err}
	}
	return payload, nil
}

// unwrapEnvelope returns the data member of {"data": ...} responses and the raw
// body otherwise.
func unwrapEnvelope(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return nil, errors.New("invalid json body")
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if data, ok := envelope["data"]; ok {
		return data, nil
	}
	return trimmed, nil
}

func (c *Client) getJSON(ctx context.Context, resource, path string, dst any) error {
	return c.fetch(ctx, resource, path, func(payload []byte) error {
		return json.Unmarshal(payload, dst)
	})
}
