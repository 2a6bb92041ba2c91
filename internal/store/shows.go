package store

import (
	"context"
	"fmt"
	"net/http"
)

// Episode is one row per (tmdb_id, season, episode) triple, stored in the
// "shows" collection.
type Episode struct {
	ID      string `json:"id"`
	Torrent string `json:"torrent"`
	TMDBID  int    `json:"tmdb_id"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// EpisodePatch is a partial update; nil fields are left untouched.
type EpisodePatch struct {
	Torrent *string `json:"torrent,omitempty"`
	Title   *string `json:"title,omitempty"`
	Year    *int    `json:"year,omitempty"`
}

// ShowStore is the typed CRUD adapter over the "shows" collection.
type ShowStore struct{ c *Client }

// NewShowStore wraps c for the shows collection.
func NewShowStore(c *Client) *ShowStore { return &ShowStore{c: c} }

// GetByTriple returns the episode row for (tmdbID, season, episode), if any.
func (s *ShowStore) GetByTriple(ctx context.Context, tmdbID, season, episode int) (Episode, bool) {
	filter := fmt.Sprintf(`tmdb_id = "%d" && season = "%d" && episode = "%d"`, tmdbID, season, episode)
	items := listAll[Episode](ctx, s.c, "shows", filter, "")
	if len(items) == 0 {
		return Episode{}, false
	}
	return items[0], true
}

// Create inserts a new episode row.
func (s *ShowStore) Create(ctx context.Context, e Episode) (Episode, bool) {
	var out Episode
	ok := s.c.writeJSON(ctx, "POST", "/api/collections/shows/records", e, &out)
	return out, ok
}

// Update applies a partial patch to an episode row.
func (s *ShowStore) Update(ctx context.Context, id string, patch EpisodePatch) (Episode, bool) {
	var out Episode
	ok := s.c.writeJSON(ctx, http.MethodPatch, "/api/collections/shows/records/"+id, patch, &out)
	return out, ok
}

// Delete removes the episode row by id.
func (s *ShowStore) Delete(ctx context.Context, id string) bool {
	return s.c.writeJSON(ctx, http.MethodDelete, "/api/collections/shows/records/"+id, nil, nil)
}

// ListAll returns every episode row, with the torrent relation expanded.
func (s *ShowStore) ListAll(ctx context.Context) []Episode {
	return listAll[Episode](ctx, s.c, "shows", "", "torrent")
}

// ListByTorrent returns every episode row referencing the given torrent id.
func (s *ShowStore) ListByTorrent(ctx context.Context, torrentID string) []Episode {
	return listAll[Episode](ctx, s.c, "shows", eqFilter("torrent", torrentID), "")
}

// ListByTMDBID returns every episode row for a given show's catalogue id.
func (s *ShowStore) ListByTMDBID(ctx context.Context, tmdbID int) []Episode {
	return listAll[Episode](ctx, s.c, "shows", eqFilter("tmdb_id", fmt.Sprintf("%d", tmdbID)), "")
}
