// Package identify implements identification of newly discovered mount
// entries against the metadata catalogue, and the duplicate-resolution
// primitives shared between the scan cycle and the manual CLI.
package identify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/reconciled/reconciled/internal/store"
)

// Outcome names what resolveFilmDuplicate / resolveEpisodeDuplicate did.
type Outcome int

const (
	Created Outcome = iota
	Relinked
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Relinked:
		return "relinked"
	case Won:
		return "won"
	default:
		return "lost"
	}
}

// Resolver runs the duplicate-contest primitives against the store.
// It is shared verbatim between the scan cycle (C9) and the manual
// resolution CLI.
type Resolver struct {
	torrents *store.TorrentStore
	films    *store.FilmStore
	shows    *store.ShowStore
	log      zerolog.Logger
}

// NewResolver builds a Resolver over the given store adapters.
func NewResolver(torrents *store.TorrentStore, films *store.FilmStore, shows *store.ShowStore, log zerolog.Logger) *Resolver {
	return &Resolver{torrents: torrents, films: films, shows: shows, log: log.With().Str("component", "resolver").Logger()}
}

// ResolveFilmDuplicate runs the film duplicate-contest protocol for
// (newTorrentID, newScore, catalogueID, title, year).
func (r *Resolver) ResolveFilmDuplicate(ctx context.Context, newTorrentID string, newScore int, catalogueID int, title string, year int) Outcome {
	existing, ok := r.films.GetByTMDBID(ctx, catalogueID)
	if !ok {
		r.films.Create(ctx, store.Film{Torrent: newTorrentID, TMDBID: catalogueID, Title: title, Year: year})
		return Created
	}

	if existing.Torrent == "" {
		newTorrent := newTorrentID
		r.films.Update(ctx, existing.ID, store.FilmPatch{Torrent: &newTorrent})
		return Relinked
	}

	oldTorrent, hasOld := r.torrents.GetByID(ctx, existing.Torrent)
	oldScore := 0
	if hasOld {
		oldScore = oldTorrent.Score
	}

	if newScore > oldScore {
		newTorrent := newTorrentID
		r.films.Update(ctx, existing.ID, store.FilmPatch{Torrent: &newTorrent})
		r.archiveTorrent(ctx, existing.Torrent)
		return Won
	}

	r.archiveTorrent(ctx, newTorrentID)
	return Lost
}

// ResolveEpisodeDuplicate runs the episode duplicate-contest protocol for
// (catalogueID, season, episode), attaching newTorrentID on a win or
// creation. On Won, the displaced torrent is additionally checked for
// orphaning via MaybeArchiveOrphan.
func (r *Resolver) ResolveEpisodeDuplicate(ctx context.Context, newTorrentID string, newScore int, catalogueID, season, episode int, title string, year int) Outcome {
	existing, ok := r.shows.GetByTriple(ctx, catalogueID, season, episode)
	if !ok {
		r.shows.Create(ctx, store.Episode{
			Torrent: newTorrentID, TMDBID: catalogueID, Title: title, Year: year,
			Season: season, Episode: episode,
		})
		return Created
	}

	if existing.Torrent == "" {
		newTorrent := newTorrentID
		r.shows.Update(ctx, existing.ID, store.EpisodePatch{Torrent: &newTorrent})
		return Relinked
	}

	oldTorrent, hasOld := r.torrents.GetByID(ctx, existing.Torrent)
	oldScore := 0
	if hasOld {
		oldScore = oldTorrent.Score
	}

	if newScore > oldScore {
		displaced := existing.Torrent
		newTorrent := newTorrentID
		r.shows.Update(ctx, existing.ID, store.EpisodePatch{Torrent: &newTorrent})
		r.MaybeArchiveOrphan(ctx, displaced)
		return Won
	}

	r.archiveTorrent(ctx, newTorrentID)
	return Lost
}

// MaybeArchiveOrphan archives torrentID if no film or episode row still
// references it.
func (r *Resolver) MaybeArchiveOrphan(ctx context.Context, torrentID string) {
	if torrentID == "" {
		return
	}
	if len(r.films.ListByTorrent(ctx, torrentID)) > 0 {
		return
	}
	if len(r.shows.ListByTorrent(ctx, torrentID)) > 0 {
		return
	}
	r.archiveTorrent(ctx, torrentID)
}

func (r *Resolver) archiveTorrent(ctx context.Context, torrentID string) {
	if torrentID == "" {
		return
	}
	archived := true
	r.torrents.Update(ctx, torrentID, store.TorrentPatch{Archived: &archived})
}
