package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop()), srv
}

func TestTorrentStore_GetByPath_Found(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/collections/torrents/records", r.URL.Path)
		require.Equal(t, `path = "/mnt/debrid/Arrival.2016"`, r.URL.Query().Get("filter"))
		_ = json.NewEncoder(w).Encode(listResponse[Torrent]{
			Page: 1, PerPage: 200, TotalItems: 1, TotalPages: 1,
			Items: []Torrent{{ID: "t1", Path: "/mnt/debrid/Arrival.2016"}},
		})
	})

	ts := NewTorrentStore(c)
	got, ok := ts.GetByPath(context.Background(), "/mnt/debrid/Arrival.2016")
	require.True(t, ok)
	require.Equal(t, "t1", got.ID)
}

func TestTorrentStore_GetByPath_NotFound(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(listResponse[Torrent]{Items: nil, TotalPages: 1})
	})

	ts := NewTorrentStore(c)
	_, ok := ts.GetByPath(context.Background(), "/nowhere")
	require.False(t, ok)
}

func TestListAll_PagesTransparently(t *testing.T) {
	calls := 0
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		page := r.URL.Query().Get("page")
		if page == "1" {
			items := make([]Torrent, 200)
			for i := range items {
				items[i] = Torrent{ID: "a"}
			}
			_ = json.NewEncoder(w).Encode(listResponse[Torrent]{Page: 1, TotalPages: 2, Items: items})
			return
		}
		_ = json.NewEncoder(w).Encode(listResponse[Torrent]{Page: 2, TotalPages: 2, Items: []Torrent{{ID: "b"}}})
	})

	ts := NewTorrentStore(c)
	got := ts.ListAll(context.Background())
	require.Len(t, got, 201)
	require.Equal(t, 2, calls)
}

func TestClient_Healthy(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	require.True(t, c.Healthy(context.Background()))
}

func TestEscapeFilterValue(t *testing.T) {
	require.Equal(t, `a\\b\"c`, escapeFilterValue(`a\b"c`))
}
