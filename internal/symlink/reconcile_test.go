package symlink

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
	"github.com/reconciled/reconciled/internal/store"
)

func TestReconcile_PreservesMatchingTargetInode(t *testing.T) {
	mountRoot := t.TempDir()
	filmFile := filepath.Join(mountRoot, "movie.mkv")
	require.NoError(t, os.WriteFile(filmFile, []byte("data"), 0o644))

	outRoot := t.TempDir()
	filmsDir := filepath.Join(outRoot, "films")
	showsDir := filepath.Join(outRoot, "shows")
	require.NoError(t, os.MkdirAll(filmsDir, 0o755))
	require.NoError(t, os.MkdirAll(showsDir, 0o755))

	storeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/collections/films/records":
			_ = json.NewEncoder(w).Encode(struct {
				Page, PerPage, TotalItems, TotalPages int
				Items                                 []store.Film `json:"items"`
			}{1, 200, 1, 1, []store.Film{{ID: "f1", Torrent: "t1", TMDBID: 603, Title: "The Matrix", Year: 1999}}})
		case "/api/collections/shows/records":
			_ = json.NewEncoder(w).Encode(struct {
				Page, PerPage, TotalItems, TotalPages int
				Items                                 []store.Episode `json:"items"`
			}{1, 200, 0, 1, nil})
		case "/api/collections/torrents/records/t1":
			_ = json.NewEncoder(w).Encode(store.Torrent{ID: "t1", Path: filmFile})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer storeSrv.Close()

	sc := store.NewClient(storeSrv.URL, 5*time.Second, zerolog.Nop())
	films := store.NewFilmStore(sc)
	shows := store.NewShowStore(sc)
	torrents := store.NewTorrentStore(sc)
	cat := catalogue.NewClient("http://unused.invalid", "key", 5*time.Second, 100, zerolog.Nop())

	cfg := Config{FilmsDir: filmsDir, ShowsDir: showsDir}
	r := NewReconciler(cfg, films, shows, torrents, cat, zerolog.Nop())

	result := r.Reconcile(context.Background())
	require.True(t, result.FilmsChanged)

	linkPath := filepath.Join(filmsDir, "The Matrix (1999) [tmdbid=603]", "The Matrix (1999) [tmdbid=603].mkv")
	target, err := os.Readlink(linkPath)
	require.NoError(t, err)
	require.Equal(t, filmFile, target)

	info, _ := os.Lstat(linkPath)
	inodeBefore := info.Sys()

	result = r.Reconcile(context.Background())
	require.False(t, result.FilmsChanged)

	infoAfter, _ := os.Lstat(linkPath)
	require.Equal(t, inodeBefore, infoAfter.Sys())
}
