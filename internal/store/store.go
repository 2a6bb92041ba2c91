// Package store is the typed adapter over the external record store: a
// REST-like backend offering per-collection CRUD with filter strings,
// relation expansion, and transparent pagination.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const perPage = 200

// Client is the low-level HTTP boundary against the record store. Every
// method absorbs network and backend errors, logs them, and reports
// absence — callers treat a failure exactly like "row not found" and skip
// it for the current cycle, per the store adapter's error-handling design.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a store Client against baseURL with the given timeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "store").Logger(),
	}
}

// Healthy reports whether the store's /api/health endpoint returns 200.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type listResponse[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

// escapeFilterValue escapes backslash and double-quote for the store's
// filter-string dialect.
func escapeFilterValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// eqFilter builds a `field = "value"` filter clause with value escaped.
func eqFilter(field, value string) string {
	return fmt.Sprintf(`%s = "%s"`, field, escapeFilterValue(value))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, full, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("store request failed")
		return nil, fmt.Errorf("store request %s %s: %w", method, path, err)
	}
	return resp, nil
}

// getJSON performs a GET and decodes a 2xx JSON body into out. A non-2xx
// status or transport error is logged and reported as absence (false).
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) bool {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false
	}
	if resp.StatusCode/100 != 2 {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("store returned non-2xx")
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("store response decode failed")
		return false
	}
	return true
}

// writeJSON performs a POST/PATCH/DELETE and decodes a 2xx JSON body into
// out (if non-nil). Reports success/failure the same way getJSON does.
func (c *Client) writeJSON(ctx context.Context, method, path string, body, out any) bool {
	resp, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		c.log.Warn().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Msg("store returned non-2xx")
		return false
	}
	if out == nil {
		return true
	}
	if resp.StatusCode == http.StatusNoContent {
		return true
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("store response decode failed")
		return false
	}
	return true
}

// listAll transparently pages through a collection, applying filter and
// expand query parameters on every page, and returns every item.
func listAll[T any](ctx context.Context, c *Client, collection, filter, expand string) []T {
	var all []T
	page := 1
	for {
		q := url.Values{}
		q.Set("page", fmt.Sprintf("%d", page))
		q.Set("perPage", fmt.Sprintf("%d", perPage))
		if filter != "" {
			q.Set("filter", filter)
		}
		if expand != "" {
			q.Set("expand", expand)
		}

		var resp listResponse[T]
		if !c.getJSON(ctx, "/api/collections/"+collection+"/records", q, &resp) {
			break
		}
		all = append(all, resp.Items...)
		if page >= resp.TotalPages || len(resp.Items) < perPage {
			break
		}
		page++
	}
	return all
}
