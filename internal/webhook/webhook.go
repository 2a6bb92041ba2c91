// Package webhook runs the inbound trigger receiver: POST /trigger sets
// the scan loop's wake signal, GET /health reports liveness, and
// GET /metrics exposes the prometheus registry.
package webhook

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/reconciled/reconciled/internal/metrics"
)

// Server is the trigger webhook's HTTP server.
type Server struct {
	echo   *echo.Echo
	port   int
	log    zerolog.Logger
	signal chan struct{}
}

// NewServer builds a Server. signal is the single-shot, auto-clearing
// wake channel shared with the scan loop; it must be buffered with
// capacity 1.
func NewServer(port int, signal chan struct{}, registry *metrics.Registry, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, port: port, log: log.With().Str("component", "webhook").Logger(), signal: signal}

	e.POST("/trigger", s.trigger)
	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry.Gatherer(), promhttp.HandlerOpts{})))

	return s
}

func (s *Server) trigger(c echo.Context) error {
	select {
	case s.signal <- struct{}{}:
	default:
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) health(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(portAddr(s.port))
	}()

	select {
	case <-ctx.Done():
		return s.echo.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func portAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
