// Package repair implements the C10 repair state machine: torrents whose
// mount path has disappeared are re-added via the debrid client up to a
// configured attempt limit, then orphaned and deleted on exhaustion.
package repair

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/reconciled/reconciled/internal/debrid"
	"github.com/reconciled/reconciled/internal/store"
)

// Config holds the repair policy.
type Config struct {
	Enabled     bool
	MaxAttempts int
}

// Machine drives the repair state machine for a single scan cycle.
type Machine struct {
	cfg      Config
	torrents *store.TorrentStore
	films    *store.FilmStore
	shows    *store.ShowStore
	debrid   *debrid.Client
	log      zerolog.Logger
}

// NewMachine builds a repair Machine.
func NewMachine(cfg Config, torrents *store.TorrentStore, films *store.FilmStore, shows *store.ShowStore, debridClient *debrid.Client, log zerolog.Logger) *Machine {
	return &Machine{
		cfg: cfg, torrents: torrents, films: films, shows: shows,
		debrid: debridClient, log: log.With().Str("component", "repair").Logger(),
	}
}

// Reconcile processes every torrent row whose path no longer exists on
// the mount.
func (m *Machine) Reconcile(ctx context.Context) {
	for _, t := range m.torrents.ListAll(ctx) {
		if _, err := os.Stat(t.Path); err == nil {
			continue
		}
		m.handleMissing(ctx, t)
	}
}

func (m *Machine) handleMissing(ctx context.Context, t store.Torrent) {
	if m.canRepair(t) {
		if m.attemptRepair(ctx, t) {
			return
		}
	}
	m.deleteOrphaning(ctx, t)
}

func (m *Machine) canRepair(t store.Torrent) bool {
	return m.cfg.Enabled && m.debrid != nil && t.Hash != "" && t.RepairAttempts < m.cfg.MaxAttempts
}

// attemptRepair tries to re-add the torrent by hash. It always increments
// repair_attempts; it returns true when the row should be left in place
// for a future scan (either the attempt succeeded, or retries remain).
func (m *Machine) attemptRepair(ctx context.Context, t store.Torrent) bool {
	attempts := t.RepairAttempts + 1
	m.torrents.Update(ctx, t.ID, store.TorrentPatch{RepairAttempts: &attempts})

	newID, ok := m.debrid.AddMagnet(ctx, t.Hash)
	if !ok {
		m.log.Warn().Str("torrent_id", t.ID).Msg("repair addMagnet failed")
		return attempts < m.cfg.MaxAttempts
	}

	if !m.debrid.SelectVideoFiles(ctx, newID) {
		m.log.Warn().Str("torrent_id", t.ID).Str("debrid_id", newID).Msg("repair selectVideoFiles failed")
		return attempts < m.cfg.MaxAttempts
	}

	if t.DebridID != "" && t.DebridID != newID {
		m.debrid.Delete(ctx, t.DebridID)
	}

	newDebridID := newID
	m.torrents.Update(ctx, t.ID, store.TorrentPatch{DebridID: &newDebridID})
	m.log.Info().Str("torrent_id", t.ID).Str("debrid_id", newID).Msg("repair succeeded, awaiting rediscovery")
	return true
}

func (m *Machine) deleteOrphaning(ctx context.Context, t store.Torrent) {
	empty := ""
	for _, f := range m.films.ListByTorrent(ctx, t.ID) {
		m.films.Update(ctx, f.ID, store.FilmPatch{Torrent: &empty})
	}
	for _, e := range m.shows.ListByTorrent(ctx, t.ID) {
		m.shows.Update(ctx, e.ID, store.EpisodePatch{Torrent: &empty})
	}
	m.torrents.Delete(ctx, t.ID)
	m.log.Info().Str("torrent_id", t.ID).Msg("torrent deleted, referencing rows orphaned")
}
