package store

import (
	"context"
	"net/http"
)

// Torrent is one row per distinct mount entry (folder or loose file).
type Torrent struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Path           string `json:"path"`
	Score          int    `json:"score"`
	Archived       bool   `json:"archived"`
	Manual         bool   `json:"manual"`
	Hash           string `json:"hash"`
	DebridID       string `json:"debrid_id"`
	DebridFilename string `json:"debrid_filename"`
	RepairAttempts int    `json:"repair_attempts"`
}

// TorrentPatch is a partial update; nil fields are left untouched.
type TorrentPatch struct {
	Name           *string `json:"name,omitempty"`
	Path           *string `json:"path,omitempty"`
	Score          *int    `json:"score,omitempty"`
	Archived       *bool   `json:"archived,omitempty"`
	Manual         *bool   `json:"manual,omitempty"`
	Hash           *string `json:"hash,omitempty"`
	DebridID       *string `json:"debrid_id,omitempty"`
	DebridFilename *string `json:"debrid_filename,omitempty"`
	RepairAttempts *int    `json:"repair_attempts,omitempty"`
}

// TorrentStore is the typed CRUD adapter over the "torrents" collection.
type TorrentStore struct{ c *Client }

// NewTorrentStore wraps c for the torrents collection.
func NewTorrentStore(c *Client) *TorrentStore { return &TorrentStore{c: c} }

// GetByPath returns the torrent whose unique path field equals path, or
// (Torrent{}, false) if none exists or the lookup failed.
func (s *TorrentStore) GetByPath(ctx context.Context, path string) (Torrent, bool) {
	items := listAll[Torrent](ctx, s.c, "torrents", eqFilter("path", path), "")
	if len(items) == 0 {
		return Torrent{}, false
	}
	return items[0], true
}

// GetByID returns the torrent with the given store id.
func (s *TorrentStore) GetByID(ctx context.Context, id string) (Torrent, bool) {
	var t Torrent
	ok := s.c.getJSON(ctx, "/api/collections/torrents/records/"+id, nil, &t)
	return t, ok
}

// Create inserts a new torrent row and returns it with its assigned id.
func (s *TorrentStore) Create(ctx context.Context, t Torrent) (Torrent, bool) {
	var out Torrent
	ok := s.c.writeJSON(ctx, http.MethodPost, "/api/collections/torrents/records", t, &out)
	return out, ok
}

// Update applies a partial patch and returns the updated row.
func (s *TorrentStore) Update(ctx context.Context, id string, patch TorrentPatch) (Torrent, bool) {
	var out Torrent
	ok := s.c.writeJSON(ctx, http.MethodPatch, "/api/collections/torrents/records/"+id, patch, &out)
	return out, ok
}

// Delete removes the torrent row by id.
func (s *TorrentStore) Delete(ctx context.Context, id string) bool {
	return s.c.writeJSON(ctx, http.MethodDelete, "/api/collections/torrents/records/"+id, nil, nil)
}

// ListAll returns every torrent row.
func (s *TorrentStore) ListAll(ctx context.Context) []Torrent {
	return listAll[Torrent](ctx, s.c, "torrents", "", "")
}

// ListUnidentified returns torrents with neither archived nor manual set,
// the candidate set for Phase B's identification queue. Film/episode
// back-reference exclusion is applied by the caller (Phase A), since that
// check spans two other collections.
func (s *TorrentStore) ListUnidentified(ctx context.Context) []Torrent {
	return listAll[Torrent](ctx, s.c, "torrents", `archived = "false" && manual = "false"`, "")
}

// ListArchived returns every torrent row marked archived, for the
// optional cleanup phase.
func (s *TorrentStore) ListArchived(ctx context.Context) []Torrent {
	return listAll[Torrent](ctx, s.c, "torrents", eqFilter("archived", "true"), "")
}
