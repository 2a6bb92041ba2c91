// Package mediaserver issues targeted library refresh calls against an
// optional, Jellyfin-shaped media server after the symlink tree changes.
package mediaserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CollectionType names a Jellyfin virtual-folder collection type.
const (
	CollectionMovies  = "movies"
	CollectionTVShows = "tvshows"
)

type virtualFolder struct {
	ItemID         string `json:"ItemId"`
	Name           string `json:"Name"`
	CollectionType string `json:"CollectionType"`
}

// Client refreshes media-server libraries. A nil *Client (zero URL) is a
// valid no-op, matching the spec's "optional" media-server integration.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a mediaserver Client. Returns nil if baseURL is empty,
// so callers can unconditionally call RefreshChanged.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "mediaserver").Logger(),
	}
}

// RefreshChanged enumerates libraries and issues a refresh for every
// library whose CollectionType is "movies" when filmsChanged, and
// "tvshows" when showsChanged. A nil Client is a no-op.
func (c *Client) RefreshChanged(ctx context.Context, filmsChanged, showsChanged bool) {
	if c == nil || (!filmsChanged && !showsChanged) {
		return
	}

	folders, ok := c.listVirtualFolders(ctx)
	if !ok {
		return
	}

	for _, f := range folders {
		switch f.CollectionType {
		case CollectionMovies:
			if filmsChanged {
				c.refreshLibrary(ctx, f.ItemID)
			}
		case CollectionTVShows:
			if showsChanged {
				c.refreshLibrary(ctx, f.ItemID)
			}
		}
	}
}

func (c *Client) listVirtualFolders(ctx context.Context) ([]virtualFolder, bool) {
	var folders []virtualFolder
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Library/VirtualFolders", nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to list virtual folders")
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("unexpected status listing virtual folders")
		return nil, false
	}
	if err := json.NewDecoder(resp.Body).Decode(&folders); err != nil {
		c.log.Warn().Err(err).Msg("failed to decode virtual folders")
		return nil, false
	}
	return folders, true
}

func (c *Client) refreshLibrary(ctx context.Context, itemID string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Items/"+itemID+"/Refresh", nil)
	if err != nil {
		return
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("item_id", itemID).Msg("refresh request failed")
		return
	}
	defer resp.Body.Close()
}
