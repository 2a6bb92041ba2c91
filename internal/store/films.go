package store

import (
	"context"
	"fmt"
	"net/http"
)

// Film is one row per tmdb_id: a movie and the torrent currently providing
// it (if any).
type Film struct {
	ID      string `json:"id"`
	Torrent string `json:"torrent"`
	TMDBID  int    `json:"tmdb_id"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
}

// FilmPatch is a partial update; nil fields are left untouched.
type FilmPatch struct {
	Torrent *string `json:"torrent,omitempty"`
	Title   *string `json:"title,omitempty"`
	Year    *int    `json:"year,omitempty"`
}

// FilmStore is the typed CRUD adapter over the "films" collection.
type FilmStore struct{ c *Client }

// NewFilmStore wraps c for the films collection.
func NewFilmStore(c *Client) *FilmStore { return &FilmStore{c: c} }

// GetByTMDBID returns the film row for the given catalogue id, if any.
func (s *FilmStore) GetByTMDBID(ctx context.Context, tmdbID int) (Film, bool) {
	items := listAll[Film](ctx, s.c, "films", eqFilter("tmdb_id", fmt.Sprintf("%d", tmdbID)), "")
	if len(items) == 0 {
		return Film{}, false
	}
	return items[0], true
}

// Create inserts a new film row.
func (s *FilmStore) Create(ctx context.Context, f Film) (Film, bool) {
	var out Film
	ok := s.c.writeJSON(ctx, http.MethodPost, "/api/collections/films/records", f, &out)
	return out, ok
}

// Update applies a partial patch to a film row.
func (s *FilmStore) Update(ctx context.Context, id string, patch FilmPatch) (Film, bool) {
	var out Film
	ok := s.c.writeJSON(ctx, http.MethodPatch, "/api/collections/films/records/"+id, patch, &out)
	return out, ok
}

// Delete removes the film row by id.
func (s *FilmStore) Delete(ctx context.Context, id string) bool {
	return s.c.writeJSON(ctx, http.MethodDelete, "/api/collections/films/records/"+id, nil, nil)
}

// ListAll returns every film row, with the torrent relation expanded.
func (s *FilmStore) ListAll(ctx context.Context) []Film {
	return listAll[Film](ctx, s.c, "films", "", "torrent")
}

// ListByTorrent returns every film row referencing the given torrent id.
func (s *FilmStore) ListByTorrent(ctx context.Context, torrentID string) []Film {
	return listAll[Film](ctx, s.c, "films", eqFilter("torrent", torrentID), "")
}
