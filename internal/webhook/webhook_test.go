package webhook

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/reconciled/reconciled/internal/metrics"
)

func TestTrigger_SetsSignalWithoutBlocking(t *testing.T) {
	signal := make(chan struct{}, 1)
	s := NewServer(0, signal, metrics.NewRegistry(), zerolog.Nop())

	req := httptest.NewRequest("POST", "/trigger", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)

	// A second trigger while the signal is already set must coalesce,
	// not block.
	rec2 := httptest.NewRecorder()
	s.echo.ServeHTTP(rec2, httptest.NewRequest("POST", "/trigger", nil))
	require.Equal(t, 200, rec2.Code)

	select {
	case <-signal:
	default:
		t.Fatal("expected signal to be set")
	}
}

func TestHealth(t *testing.T) {
	s := NewServer(0, make(chan struct{}, 1), metrics.NewRegistry(), zerolog.Nop())
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, 200, rec.Code)
}
