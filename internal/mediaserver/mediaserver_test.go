package mediaserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRefreshChanged_OnlyMatchingCollectionType(t *testing.T) {
	var refreshed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/Library/VirtualFolders":
			_ = json.NewEncoder(w).Encode([]virtualFolder{
				{ItemID: "1", Name: "Movies", CollectionType: "movies"},
				{ItemID: "2", Name: "Shows", CollectionType: "tvshows"},
			})
		case r.Method == http.MethodPost:
			refreshed = append(refreshed, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", zerolog.Nop())
	c.RefreshChanged(context.Background(), true, false)

	require.Equal(t, []string{"/Items/1/Refresh"}, refreshed)
}

func TestNewClient_EmptyURLIsNilNoOp(t *testing.T) {
	c := NewClient("", "", zerolog.Nop())
	require.Nil(t, c)
	c.RefreshChanged(context.Background(), true, true)
}
