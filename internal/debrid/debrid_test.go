package debrid

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

func TestAddMagnet_AlreadyActiveIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "This torrent is already active", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second, 100, zerolog.Nop())
	id, ok := c.AddMagnet(context.Background(), "abc123")
	require.False(t, ok)
	require.Empty(t, id)
}

func TestAddMagnet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "d1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second, 100, zerolog.Nop())
	id, ok := c.AddMagnet(context.Background(), "abc123")
	require.True(t, ok)
	require.Equal(t, "d1", id)
}

func TestSelectVideoFiles_FiltersByExtensionAndSize(t *testing.T) {
	var selectedIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(Info{Files: []File{
				{ID: "1", Path: "/Movie/movie.mkv", Bytes: 2 * 1024 * 1024 * 1024},
				{ID: "2", Path: "/Movie/sample.mkv", Bytes: 10 * 1024 * 1024},
				{ID: "3", Path: "/Movie/movie.nfo", Bytes: 2 * 1024 * 1024 * 1024},
			}})
		default:
			_ = r.ParseForm()
			selectedIDs = r.FormValue("files")
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second, 100, zerolog.Nop())
	ok := c.SelectVideoFiles(context.Background(), "d1")
	require.True(t, ok)
	require.Equal(t, "1", selectedIDs)
}

func TestListAll_StopsOnShortPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("page") == "1" {
			items := make([]TorrentInfo, listPageSize)
			for i := range items {
				items[i] = TorrentInfo{ID: "x"}
			}
			_ = json.NewEncoder(w).Encode(items)
			return
		}
		_ = json.NewEncoder(w).Encode([]TorrentInfo{{ID: "last"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second, 100, zerolog.Nop())
	all := c.ListAll(context.Background())
	require.Equal(t, listPageSize+1, len(all))
	require.Equal(t, 2, calls)
}

func TestMagnet(t *testing.T) {
	require.Equal(t, "magnet:?xt=urn:btih:deadbeef", Magnet("deadbeef"))
}
