// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notion is a small bearer-token client for the Notion REST API,
// limited to what the formatter needs: reading block children, archiving
// and appending blocks, and setting a page status property.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/notion-formatter/internal/httputil"
	"github.com/pdiddy/notion-formatter/pkg/types"
)

// apiBase is the Notion API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.notion.com/v1"

const (
	// DefaultVersion is the Notion-Version header sent when none is configured.
	DefaultVersion = "2022-06-28"

	// DefaultRateLimit is Notion's documented average of 3 requests per second.
	DefaultRateLimit = 3

	pageSize        = 100
	appendBatchSize = 50
	defaultTimeout  = 30 * time.Second
)

// Client talks to the Notion API. The zero value is not usable; build one
// with New or fill Token and Client.
type Client struct {
	Token   string
	Version string
	Client  *http.Client

	// Limiter throttles outgoing requests. Nil disables throttling.
	Limiter *rate.Limiter

	// MaxRetries bounds retries of 429 and 5xx responses (0 uses the httputil default).
	MaxRetries int

	Logger *zap.Logger
}

// New builds a Client from cfg. log may be nil.
func New(cfg types.NotionConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		Token:   cfg.APIKey,
		Version: version,
		Client:  &http.Client{Timeout: timeout},
		Limiter: rate.NewLimiter(rate.Limit(limit), 1),
		Logger:  log,
	}
}

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion %s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("notion %s %s: HTTP %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
}

// errorBody is Notion's error response shape.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type childrenResponse struct {
	Results    []types.Block `json:"results"`
	NextCursor *string       `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

func (c *Client) log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Children returns every child of blockID, following pagination cursors
// until the list is exhausted. A page ID may be used as blockID.
func (c *Client) Children(ctx context.Context, blockID string) ([]types.Block, error) {
	var all []types.Block
	cursor := ""
	for {
		params := url.Values{"page_size": {fmt.Sprintf("%d", pageSize)}}
		if cursor != "" {
			params.Set("start_cursor", cursor)
		}

		var resp childrenResponse
		path := "/blocks/" + blockID + "/children?" + params.Encode()
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}
	c.log().Debug("fetched children", zap.String("block_id", blockID), zap.Int("blocks", len(all)))
	return all, nil
}

// AppendChildren appends blocks under blockID in batches of at most 50,
// the API's per-request limit. It returns the number of blocks appended
// before any error.
func (c *Client) AppendChildren(ctx context.Context, blockID string, blocks []types.Block) (int, error) {
	appended := 0
	for start := 0; start < len(blocks); start += appendBatchSize {
		end := min(start+appendBatchSize, len(blocks))
		body := map[string]any{"children": blocks[start:end]}
		if err := c.do(ctx, http.MethodPatch, "/blocks/"+blockID+"/children", body, nil); err != nil {
			return appended, fmt.Errorf("appending blocks %d-%d: %w", start, end-1, err)
		}
		appended = end
	}
	return appended, nil
}

// Archive moves a block to the trash.
func (c *Client) Archive(ctx context.Context, blockID string) error {
	return c.do(ctx, http.MethodPatch, "/blocks/"+blockID, map[string]any{"archived": true}, nil)
}

// UpdateStatus sets the status property of a page to the named option.
func (c *Client) UpdateStatus(ctx context.Context, pageID, property, option string) error {
	if property == "" {
		return fmt.Errorf("status property name must not be empty")
	}
	if option == "" {
		return fmt.Errorf("status option must not be empty")
	}
	body := map[string]any{
		"properties": map[string]any{
			property: map[string]any{"status": map[string]string{"name": option}},
		},
	}
	return c.do(ctx, http.MethodPatch, "/pages/"+pageID, body, nil)
}

// do sends one JSON request and decodes the response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, payload)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", c.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, httpClient, req, c.MaxRetries)
	if err != nil {
		return fmt.Errorf("notion %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log().Debug("notion request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var eb errorBody
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			apiErr.Code, apiErr.Message = eb.Code, eb.Message
		}
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing notion response: %w", err)
	}
	return nil
}
