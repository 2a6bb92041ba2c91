package scan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/reconciled/reconciled/internal/identify"
	"github.com/reconciled/reconciled/internal/mediaserver"
	"github.com/reconciled/reconciled/internal/metrics"
	"github.com/reconciled/reconciled/internal/mount"
	"github.com/reconciled/reconciled/internal/repair"
	"github.com/reconciled/reconciled/internal/store"
	"github.com/reconciled/reconciled/internal/symlink"
)

func emptyStoreServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/health":
			w.WriteHeader(http.StatusOK)
		default:
			_ = json.NewEncoder(w).Encode(struct {
				Page, PerPage, TotalItems, TotalPages int
				Items                                 []struct{} `json:"items"`
			}{1, 200, 0, 1, nil})
		}
	}))
}

func buildOrchestrator(t *testing.T) *Orchestrator {
	mountRoot := t.TempDir()
	outRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(outRoot, "films"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(outRoot, "shows"), 0o755))

	storeSrv := emptyStoreServer()
	t.Cleanup(storeSrv.Close)

	sc := store.NewClient(storeSrv.URL, 5*time.Second, zerolog.Nop())
	torrents := store.NewTorrentStore(sc)
	films := store.NewFilmStore(sc)
	shows := store.NewShowStore(sc)

	cat := catalogue.NewClient("http://unused.invalid", "key", 5*time.Second, 100, zerolog.Nop())
	resolver := identify.NewResolver(torrents, films, shows, zerolog.Nop())
	identifier := identify.NewIdentifier(torrents, films, shows, cat, resolver, zerolog.Nop())
	repairMachine := repair.NewMachine(repair.Config{Enabled: false}, torrents, films, shows, nil, zerolog.Nop())
	reconciler := symlink.NewReconciler(symlink.Config{
		FilmsDir: filepath.Join(outRoot, "films"),
		ShowsDir: filepath.Join(outRoot, "shows"),
	}, films, shows, torrents, cat, zerolog.Nop())

	var media *mediaserver.Client

	return NewOrchestrator(Config{Interval: time.Hour}, Deps{
		Mount:      mount.NewScanner(mountRoot, zerolog.Nop()),
		Torrents:   torrents,
		Films:      films,
		Shows:      shows,
		Identifier: identifier,
		Repair:     repairMachine,
		Symlinks:   reconciler,
		Media:      media,
		Metrics:    metrics.NewRegistry(),
	}, zerolog.Nop())
}

func TestRunCycle_EmptyMountCompletesWithoutPanic(t *testing.T) {
	o := buildOrchestrator(t)
	o.RunCycle(context.Background())
}

func TestRun_TriggerCausesImmediateCycle(t *testing.T) {
	o := buildOrchestrator(t)
	o.cfg.Interval = time.Hour

	trigger := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		o.Run(ctx, trigger)
		close(done)
	}()

	trigger <- struct{}{}
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
