// Package debrid is the client for the external debrid service: list,
// add-by-magnet, file selection, and delete, with exponential backoff on
// retryable transport errors.
package debrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/reconciled/reconciled/internal/errs"
)

const listPageSize = 100

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {}, ".mpg": {}, ".mpeg": {}, ".ts": {}, ".vob": {},
	".m2ts": {}, ".iso": {},
}

// TorrentInfo is one row of the paginated torrent list.
type TorrentInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Bytes    int64  `json:"bytes"`
}

// File is one member of a torrent's file list.
type File struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// Info is the detailed per-torrent response, including its file list.
type Info struct {
	OriginalFilename string `json:"original_filename"`
	Files            []File `json:"files"`
}

// Client talks to the external debrid service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
	minSize int64
}

// NewClient builds a debrid Client. minFileSizeMB gates which files
// SelectVideoFiles treats as qualifying.
func NewClient(baseURL, apiKey string, timeout time.Duration, minFileSizeMB int, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "debrid").Logger(),
		minSize: int64(minFileSizeMB) * 1024 * 1024,
	}
}

// Magnet builds a bare info-hash magnet URI, per the debrid service's
// expected input to AddMagnet.
func Magnet(hash string) string {
	return "magnet:?xt=urn:btih:" + hash
}

// ListAll pages through the torrent list (page size 100), stopping on a
// short page.
func (c *Client) ListAll(ctx context.Context) []TorrentInfo {
	var all []TorrentInfo
	page := 1
	for {
		q := url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(listPageSize)}}
		var items []TorrentInfo
		if err := c.doRetrying(ctx, http.MethodGet, "/torrents", q, nil, &items); err != nil {
			c.log.Warn().Err(err).Msg("listAll failed")
			break
		}
		all = append(all, items...)
		if len(items) < listPageSize {
			break
		}
		page++
	}
	return all
}

// GetInfo returns the file list for a debrid torrent id.
func (c *Client) GetInfo(ctx context.Context, debridID string) (Info, bool) {
	var info Info
	if err := c.doRetrying(ctx, http.MethodGet, "/torrents/info/"+debridID, nil, nil, &info); err != nil {
		c.log.Warn().Err(err).Str("debrid_id", debridID).Msg("getInfo failed")
		return Info{}, false
	}
	return info, true
}

// AddMagnet adds a torrent by info hash and returns its new debrid id.
// "Already active" errors are treated as success with absence, matching
// the debrid service's idempotent-add semantics.
func (c *Client) AddMagnet(ctx context.Context, hash string) (string, bool) {
	form := url.Values{"magnet": {Magnet(hash)}}
	var out struct {
		ID string `json:"id"`
	}
	err := c.doRetryingForm(ctx, "/torrents/addMagnet", form, &out)
	if err != nil {
		if isAlreadyActive(err) {
			return "", false
		}
		c.log.Warn().Err(err).Str("hash", hash).Msg("addMagnet failed")
		return "", false
	}
	return out.ID, true
}

func isAlreadyActive(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already active")
}

// SelectVideoFiles selects every file in debridID whose extension is a
// known video extension and whose size is >= the configured minimum. It
// reports false if no qualifying file was found.
func (c *Client) SelectVideoFiles(ctx context.Context, debridID string) bool {
	info, ok := c.GetInfo(ctx, debridID)
	if !ok {
		return false
	}

	var ids []string
	for _, f := range info.Files {
		ext := extOf(f.Path)
		if _, isVideo := videoExtensions[ext]; !isVideo {
			continue
		}
		if f.Bytes < c.minSize {
			continue
		}
		ids = append(ids, f.ID)
	}
	if len(ids) == 0 {
		return false
	}

	form := url.Values{"files": {strings.Join(ids, ",")}}
	if err := c.doRetryingForm(ctx, fmt.Sprintf("/torrents/selectFiles/%s", debridID), form, nil); err != nil {
		c.log.Warn().Err(err).Str("debrid_id", debridID).Msg("selectVideoFiles failed")
		return false
	}
	return true
}

// Delete removes a debrid torrent by id.
func (c *Client) Delete(ctx context.Context, debridID string) bool {
	if err := c.doRetrying(ctx, http.MethodDelete, "/torrents/delete/"+debridID, nil, nil, nil); err != nil {
		c.log.Warn().Err(err).Str("debrid_id", debridID).Msg("delete failed")
		return false
	}
	return true
}

func extOf(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx:])
}

// backoff builds the `2*2^n` exponential policy, capped at 3 retries,
// used by every call below.
func backoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))
}

func (c *Client) doRetrying(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return retry.Do(ctx, backoff(), func(ctx context.Context) error {
		var reader *bytes.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return err
			}
			reader = bytes.NewReader(buf)
		} else {
			reader = bytes.NewReader(nil)
		}

		full := c.baseURL + path
		if len(query) > 0 {
			full += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, method, full, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		return c.execute(req, out)
	})
}

func (c *Client) doRetryingForm(ctx context.Context, path string, form url.Values, out any) error {
	return retry.Do(ctx, backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		return c.execute(req, out)
	})
}

func (c *Client) execute(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("%w: %v", errs.ErrTransportRetryable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 2:
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return retry.RetryableError(fmt.Errorf("%w: status %d", errs.ErrTransportRetryable, resp.StatusCode))
	default:
		var body bytes.Buffer
		_, _ = body.ReadFrom(resp.Body)
		return fmt.Errorf("%w: status %d: %s", errs.ErrTransportFatal, resp.StatusCode, strings.TrimSpace(body.String()))
	}
}
