package identify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/reconciled/reconciled/internal/store"
)

func TestIdentify_FilmHitCreatesRow(t *testing.T) {
	fs := newFakeStore()
	storeSrv := fs.server(t)
	defer storeSrv.Close()

	catSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type result struct {
			ID          int     `json:"id"`
			Title       string  `json:"title"`
			ReleaseDate string  `json:"release_date"`
			Popularity  float64 `json:"popularity"`
		}
		_ = json.NewEncoder(w).Encode(struct {
			Results []result `json:"results"`
		}{Results: []result{{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31", Popularity: 80}}})
	}))
	defer catSrv.Close()

	sc := store.NewClient(storeSrv.URL, 5*time.Second, zerolog.Nop())
	torrents := store.NewTorrentStore(sc)
	films := store.NewFilmStore(sc)
	shows := store.NewShowStore(sc)
	cat := catalogue.NewClient(catSrv.URL, "key", 5*time.Second, 100, zerolog.Nop())
	resolver := NewResolver(torrents, films, shows, zerolog.Nop())
	identifier := NewIdentifier(torrents, films, shows, cat, resolver, zerolog.Nop())

	fs.torrents["t1"] = store.Torrent{ID: "t1", Score: 0}

	ok := identifier.Identify(context.Background(), fs.torrents["t1"], "The.Matrix.1999.1080p.BluRay.x264-GROUP", []string{"The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv"})
	require.True(t, ok)
	require.Len(t, fs.films, 1)
	require.False(t, fs.torrents["t1"].Manual)
}
