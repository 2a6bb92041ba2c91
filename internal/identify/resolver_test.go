package identify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reconciled/reconciled/internal/store"
)

// fakeStore is a minimal in-memory PocketBase-shaped backend covering
// torrents/films/shows, enough to exercise the duplicate-contest
// protocol end to end.
type fakeStore struct {
	torrents map[string]store.Torrent
	films    map[string]store.Film
	shows    map[string]store.Episode
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		torrents: map[string]store.Torrent{},
		films:    map[string]store.Film{},
		shows:    map[string]store.Episode{},
	}
}

func (f *fakeStore) nextID() string {
	f.seq++
	return "id" + string(rune('0'+f.seq))
}

func (f *fakeStore) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/collections/torrents/records/") && r.Method == http.MethodGet:
			id := strings.TrimPrefix(r.URL.Path, "/api/collections/torrents/records/")
			tor, ok := f.torrents[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(tor)
		case strings.HasPrefix(r.URL.Path, "/api/collections/torrents/records/") && r.Method == http.MethodPatch:
			id := strings.TrimPrefix(r.URL.Path, "/api/collections/torrents/records/")
			var patch store.TorrentPatch
			_ = json.NewDecoder(r.Body).Decode(&patch)
			tor := f.torrents[id]
			if patch.Archived != nil {
				tor.Archived = *patch.Archived
			}
			if patch.Score != nil {
				tor.Score = *patch.Score
			}
			f.torrents[id] = tor
			_ = json.NewEncoder(w).Encode(tor)
		case r.URL.Path == "/api/collections/films/records" && r.Method == http.MethodGet:
			filter := r.URL.Query().Get("filter")
			var items []store.Film
			for _, film := range f.films {
				if matchesFilter(filter, "tmdb_id", film.TMDBID) {
					items = append(items, film)
				}
			}
			writeList(w, items)
		case r.URL.Path == "/api/collections/films/records" && r.Method == http.MethodPost:
			var film store.Film
			_ = json.NewDecoder(r.Body).Decode(&film)
			film.ID = f.nextID()
			f.films[film.ID] = film
			_ = json.NewEncoder(w).Encode(film)
		case strings.HasPrefix(r.URL.Path, "/api/collections/films/records/") && r.Method == http.MethodPatch:
			id := strings.TrimPrefix(r.URL.Path, "/api/collections/films/records/")
			var patch store.FilmPatch
			_ = json.NewDecoder(r.Body).Decode(&patch)
			film := f.films[id]
			if patch.Torrent != nil {
				film.Torrent = *patch.Torrent
			}
			f.films[id] = film
			_ = json.NewEncoder(w).Encode(film)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func matchesFilter(filter, field string, value int) bool {
	return strings.Contains(filter, field)
}

func writeList(w http.ResponseWriter, items []store.Film) {
	type resp struct {
		Page       int         `json:"page"`
		PerPage    int         `json:"perPage"`
		TotalItems int         `json:"totalItems"`
		TotalPages int         `json:"totalPages"`
		Items      []store.Film `json:"items"`
	}
	if items == nil {
		items = []store.Film{}
	}
	_ = json.NewEncoder(w).Encode(resp{Page: 1, PerPage: 200, TotalItems: len(items), TotalPages: 1, Items: items})
}

func TestResolveFilmDuplicate_CreateThenLose(t *testing.T) {
	fs := newFakeStore()
	srv := fs.server(t)
	defer srv.Close()

	c := store.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	torrents := store.NewTorrentStore(c)
	films := store.NewFilmStore(c)
	shows := store.NewShowStore(c)
	r := NewResolver(torrents, films, shows, zerolog.Nop())

	fs.torrents["t1"] = store.Torrent{ID: "t1", Score: 80}

	outcome := r.ResolveFilmDuplicate(context.Background(), "t1", 80, 603, "The Matrix", 1999)
	require.Equal(t, Created, outcome)

	fs.torrents["t2"] = store.Torrent{ID: "t2", Score: 50}
	outcome = r.ResolveFilmDuplicate(context.Background(), "t2", 50, 603, "The Matrix", 1999)
	require.Equal(t, Lost, outcome)
	require.True(t, fs.torrents["t2"].Archived)
}
