// Package httpapi reads declarant data from the upstream timeline API.
package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"cruce/internal/core"
	"cruce/internal/source"
)

const (
	defaultBaseURL   = "http://127.0.0.1:8000"
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "cruce/1.0"
	maxErrorBody     = 512

	pathByName    = "/timeline/by-nombre"
	pathSuggest   = "/timeline/suggest"
	pathRoster    = "/timeline/declarantes"
	pathCross     = "/timeline/declarantes-cruce-toma"
	pathConflicts = "/timeline/declarantes-conflicto"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the default client; Timeout is then ignored.
	HTTPClient *http.Client
}

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpapi: GET %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Unwrap lets callers match any status failure against source.ErrUnavailable.
func (e *StatusError) Unwrap() error {
	return source.ErrUnavailable
}

type Client struct {
	config Config
	client *http.Client
}

var _ source.Source = (*Client)(nil)

// New returns a client for baseURL with default settings.
func New(baseURL string) *Client {
	return NewWithConfig(Config{BaseURL: baseURL})
}

func NewWithConfig(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{config: cfg, client: client}
}

type (
	recordsResponse struct {
		Count     int                   `json:"count"`
		Contracts []core.ContractRecord `json:"contratos"`
	}
	namesResponse struct {
		Items []string `json:"items"`
	}
	crossResponse struct {
		Count int             `json:"count"`
		Items []core.CrossRow `json:"items"`
	}
	conflictResponse struct {
		Count int                `json:"count"`
		Items []core.ConflictRow `json:"items"`
	}
)

func (c *Client) ContractsByName(ctx context.Context, name string) ([]core.ContractRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	var resp recordsResponse
	if err := c.getJSON(ctx, pathByName, url.Values{"nombre": {name}}, &resp); err != nil {
		return nil, err
	}
	if resp.Contracts == nil {
		return []core.ContractRecord{}, nil
	}
	return resp.Contracts, nil
}

// Suggest returns nothing without a request for queries shorter than
// source.MinSuggestLength.
func (c *Client) Suggest(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < source.MinSuggestLength {
		return []string{}, nil
	}
	var resp namesResponse
	if err := c.getJSON(ctx, pathSuggest, url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Items), nil
}

// ListDeclarants accepts both {"items": [...]} and a bare array.
func (c *Client) ListDeclarants(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, pathRoster, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("httpapi: decode %s: %w", pathRoster, err)
		}
		return nonNil(items), nil
	}
	var resp namesResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("httpapi: decode %s: %w", pathRoster, err)
	}
	return nonNil(resp.Items), nil
}

func (c *Client) CrossRoster(ctx context.Context, key core.SortKey) ([]core.CrossRow, error) {
	if key == "" {
		key = core.SortByAmount
	}
	params := url.Values{"sort_by": {string(key)}, "sort_dir": {"desc"}}
	var resp crossResponse
	if err := c.getJSON(ctx, pathCross, params, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []core.CrossRow{}, nil
	}
	return resp.Items, nil
}

func (c *Client) ConflictRoster(ctx context.Context) ([]core.ConflictRow, error) {
	params := url.Values{"sort_by": {string(core.SortByAmount)}, "sort_dir": {"desc"}}
	var resp conflictResponse
	if err := c.getJSON(ctx, pathConflicts, params, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []core.ConflictRow{}, nil
	}
	return resp.Items, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	uri := c.config.BaseURL + path
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("httpapi: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("httpapi: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpapi: decode %s: %w", path, err)
	}
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
