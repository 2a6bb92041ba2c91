// Package scan is the C12 scan orchestrator: it sequences Phases A-E
// each cycle and drives the wait-for-interval-or-trigger loop.
package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reconciled/reconciled/internal/identify"
	"github.com/reconciled/reconciled/internal/mediaserver"
	"github.com/reconciled/reconciled/internal/metrics"
	"github.com/reconciled/reconciled/internal/mount"
	"github.com/reconciled/reconciled/internal/quality"
	"github.com/reconciled/reconciled/internal/repair"
	"github.com/reconciled/reconciled/internal/store"
	"github.com/reconciled/reconciled/internal/symlink"
)

// Config configures the scan loop's pacing and archived-cleanup policy.
type Config struct {
	Interval        time.Duration
	CleanupArchived bool
}

// Orchestrator sequences one scan cycle across all components.
type Orchestrator struct {
	cfg Config

	mount      *mount.Scanner
	torrents   *store.TorrentStore
	films      *store.FilmStore
	shows      *store.ShowStore
	identifier *identify.Identifier
	repair     *repair.Machine
	symlinks   *symlink.Reconciler
	media      *mediaserver.Client
	metrics    *metrics.Registry

	debridDelete func(ctx context.Context, debridID string) bool

	log zerolog.Logger
}

// Deps bundles every component the orchestrator sequences.
type Deps struct {
	Mount        *mount.Scanner
	Torrents     *store.TorrentStore
	Films        *store.FilmStore
	Shows        *store.ShowStore
	Identifier   *identify.Identifier
	Repair       *repair.Machine
	Symlinks     *symlink.Reconciler
	Media        *mediaserver.Client
	Metrics      *metrics.Registry
	DebridDelete func(ctx context.Context, debridID string) bool
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(cfg Config, d Deps, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg: cfg,
		mount: d.Mount, torrents: d.Torrents, films: d.Films, shows: d.Shows,
		identifier: d.Identifier, repair: d.Repair, symlinks: d.Symlinks,
		media: d.Media, metrics: d.Metrics, debridDelete: d.DebridDelete,
		log: log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run blocks, running a scan cycle on the configured interval or
// whenever trigger receives a signal, until ctx is cancelled. trigger
// must be a buffered channel of capacity 1.
func (o *Orchestrator) Run(ctx context.Context, trigger <-chan struct{}) {
	timer := time.NewTimer(o.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-trigger:
		}

		drain(trigger)

		o.RunCycle(ctx)

		timer.Reset(o.cfg.Interval)
	}
}

func drain(trigger <-chan struct{}) {
	select {
	case <-trigger:
	default:
	}
}

// RunCycle runs one full Phase A-E sequence. A panic in any phase is
// recovered and logged; it aborts that cycle only, and Run goes on to
// schedule the next one.
func (o *Orchestrator) RunCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	log := o.log.With().Str("cycle_id", cycleID).Logger()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("scan cycle aborted")
		}
	}()
	log.Info().Msg("scan cycle starting")

	entries := o.phaseScanMount(ctx, log)
	queue := o.phaseSync(ctx, log, entries)
	o.phaseIdentify(ctx, log, queue, entries)
	o.phaseRepair(ctx, log)
	result := o.phaseReconcileSymlinks(ctx, log)

	if o.media != nil && (result.FilmsChanged || result.ShowsChanged) {
		o.media.RefreshChanged(ctx, result.FilmsChanged, result.ShowsChanged)
	}

	if o.cfg.CleanupArchived {
		o.phaseCleanupArchived(ctx, log)
	}

	if o.metrics != nil {
		o.metrics.CyclesTotal.Inc()
	}
	log.Info().Msg("scan cycle complete")
}

type queueItem struct {
	torrent store.Torrent
	entry   string
}

func (o *Orchestrator) phaseScanMount(ctx context.Context, log zerolog.Logger) map[string][]string {
	entries := o.mount.Scan()
	log.Info().Int("entries", len(entries)).Msg("phase A: mount scanned")
	return entries
}

// phaseSync upserts a torrent row per mount entry and builds the
// identification queue.
func (o *Orchestrator) phaseSync(ctx context.Context, log zerolog.Logger, entries map[string][]string) []queueItem {
	var queue []queueItem

	for name, files := range entries {
		if len(files) == 0 {
			continue
		}
		path := o.mount.EntryPath(name)

		existing, ok := o.torrents.GetByPath(ctx, path)
		if !ok {
			created, ok := o.torrents.Create(ctx, store.Torrent{Name: name, Path: path, Score: quality.Score(name)})
			if !ok {
				continue
			}
			queue = append(queue, queueItem{torrent: created, entry: name})
			continue
		}

		if existing.Archived || existing.Manual {
			continue
		}
		if hasReferencingRows(ctx, o.films, o.shows, existing.ID) {
			continue
		}
		queue = append(queue, queueItem{torrent: existing, entry: name})
	}

	log.Info().Int("queued", len(queue)).Msg("phase A: identification queue built")
	return queue
}

func hasReferencingRows(ctx context.Context, films *store.FilmStore, shows *store.ShowStore, torrentID string) bool {
	if len(films.ListByTorrent(ctx, torrentID)) > 0 {
		return true
	}
	if len(shows.ListByTorrent(ctx, torrentID)) > 0 {
		return true
	}
	return false
}

func (o *Orchestrator) phaseIdentify(ctx context.Context, log zerolog.Logger, queue []queueItem, entries map[string][]string) {
	identified := 0
	for _, item := range queue {
		files := entries[item.entry]
		if o.identifier.Identify(ctx, item.torrent, item.entry, files) {
			identified++
		}
	}
	if o.metrics != nil {
		o.metrics.TorrentsIdentified.Add(float64(identified))
	}
	log.Info().Int("identified", identified).Int("queued", len(queue)).Msg("phase B: identification complete")
}

func (o *Orchestrator) phaseRepair(ctx context.Context, log zerolog.Logger) {
	o.repair.Reconcile(ctx)
	log.Info().Msg("phase C: repair reconciled")
}

func (o *Orchestrator) phaseReconcileSymlinks(ctx context.Context, log zerolog.Logger) symlink.Result {
	result := o.symlinks.Reconcile(ctx)
	log.Info().Bool("films_changed", result.FilmsChanged).Bool("shows_changed", result.ShowsChanged).
		Msg("phase D: symlinks reconciled")
	return result
}

func (o *Orchestrator) phaseCleanupArchived(ctx context.Context, log zerolog.Logger) {
	count := 0
	for _, t := range o.torrents.ListArchived(ctx) {
		if t.DebridID != "" && o.debridDelete != nil {
			o.debridDelete(ctx, t.DebridID)
		}
		o.torrents.Delete(ctx, t.ID)
		count++
	}
	log.Info().Int("deleted", count).Msg("phase E: archived torrents cleaned up")
}
