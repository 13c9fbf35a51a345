package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/webizupfr/notion-mirror/internal/logging"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

const (
	defaultBaseURL    = "https://api.notion.com/v1"
	defaultAPIVersion = "2022-06-28"
	defaultAttempts   = 3
	defaultRetryDelay = 400 * time.Millisecond
)

// Client is the typed surface the sync orchestrator consumes. All calls are
// single-cursor requests; pagination loops belong to the caller.
type Client interface {
	QueryDatabase(ctx context.Context, databaseID string, req QueryDatabaseRequest) (*QueryDatabaseResponse, error)
	ListBlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*ListBlockChildrenResponse, error)
	RetrievePage(ctx context.Context, pageID string) (*Page, error)
	RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error)
	Search(ctx context.Context, query, objectType, cursor string, pageSize int) (*SearchResponse, error)
}

// HTTPClient implements Client over the upstream REST API with bounded
// retry/backoff on rate limits and transient failures.
type HTTPClient struct {
	baseURL    string
	apiVersion string
	token      string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
	logger     interfaces.Logger
}

// ClientOption configures the HTTP client at construction time.
type ClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at a different API root, used in tests.
func WithBaseURL(base string) ClientOption {
	return func(c *HTTPClient) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithAPIVersion overrides the upstream version header.
func WithAPIVersion(version string) ClientOption {
	return func(c *HTTPClient) {
		if trimmed := strings.TrimSpace(version); trimmed != "" {
			c.apiVersion = trimmed
		}
	}
}

// WithRetry bounds the retry budget applied to transient upstream failures.
func WithRetry(attempts uint, delay time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
	}
}

// WithLogger injects the source logger namespace.
func WithLogger(logger interfaces.Logger) ClientOption {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPClient constructs a client with the supplied integration token.
func NewHTTPClient(token string, opts ...ClientOption) (*HTTPClient, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenRequired
	}
	c := &HTTPClient{
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		attempts:   defaultAttempts,
		delay:      defaultRetryDelay,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// QueryDatabase fetches one result page of a database query.
func (c *HTTPClient) QueryDatabase(ctx context.Context, databaseID string, req QueryDatabaseRequest) (*QueryDatabaseResponse, error) {
	path := fmt.Sprintf("/databases/%s/query", url.PathEscape(databaseID))
	out := &QueryDatabaseResponse{}
	if err := c.do(ctx, http.MethodPost, path, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBlockChildren fetches one result page of a block's direct children.
func (c *HTTPClient) ListBlockChildren(ctx context.Context, blockID, cursor string, pageSize int) (*ListBlockChildrenResponse, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("start_cursor", cursor)
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	path := fmt.Sprintf("/blocks/%s/children", url.PathEscape(blockID))
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	out := &ListBlockChildrenResponse{}
	if err := c.do(ctx, http.MethodGet, path, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RetrievePage fetches a single page record.
func (c *HTTPClient) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	out := &Page{}
	if err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(pageID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RetrieveDatabase fetches a single database record.
func (c *HTTPClient) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	out := &Database{}
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search issues a global search, optionally filtered to one object type.
func (c *HTTPClient) Search(ctx context.Context, query, objectType, cursor string, pageSize int) (*SearchResponse, error) {
	body := map[string]any{}
	if query != "" {
		body["query"] = query
	}
	if objectType != "" {
		body["filter"] = map[string]any{"property": "object", "value": objectType}
	}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	if pageSize > 0 {
		body["page_size"] = pageSize
	}
	out := &SearchResponse{}
	if err := c.do(ctx, http.MethodPost, "/search", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, target any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("notion: encode request: %w", err)
		}
		payload = encoded
	}

	return retry.Do(
		func() error {
			return c.doOnce(ctx, method, path, payload, target)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("source.request.retry", "method", method, "path", path, "attempt", attempt, "error", err)
		}),
	)
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, payload []byte, target any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(resp)
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("notion: decode response: %w", err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{Status: resp.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		statusErr.Code = body.Code
		statusErr.Message = body.Message
	}
	return statusErr
}
