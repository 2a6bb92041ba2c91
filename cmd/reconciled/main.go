package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/reconciled/reconciled/internal/catalogue"
	"github.com/reconciled/reconciled/internal/config"
	"github.com/reconciled/reconciled/internal/debrid"
	"github.com/reconciled/reconciled/internal/identify"
	"github.com/reconciled/reconciled/internal/logger"
	"github.com/reconciled/reconciled/internal/mediaserver"
	"github.com/reconciled/reconciled/internal/metrics"
	"github.com/reconciled/reconciled/internal/mount"
	"github.com/reconciled/reconciled/internal/repair"
	"github.com/reconciled/reconciled/internal/scan"
	"github.com/reconciled/reconciled/internal/store"
	"github.com/reconciled/reconciled/internal/symlink"
	"github.com/reconciled/reconciled/internal/webhook"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().Msg("starting reconciled")

	sc := store.NewClient(cfg.Store.BaseURL, time.Duration(cfg.Store.Timeout)*time.Second, log.Logger)
	torrents := store.NewTorrentStore(sc)
	films := store.NewFilmStore(sc)
	shows := store.NewShowStore(sc)

	cat := catalogue.NewClient(cfg.Catalogue.BaseURL, cfg.Catalogue.APIKey,
		time.Duration(cfg.Catalogue.Timeout)*time.Second, cfg.Catalogue.RateLimitPerSec, log.Logger)

	var debridClient *debrid.Client
	if cfg.Debrid.APIKey != "" {
		debridClient = debrid.NewClient(cfg.Debrid.BaseURL, cfg.Debrid.APIKey,
			time.Duration(cfg.Debrid.Timeout)*time.Second, cfg.Debrid.MinFileSizeMB, log.Logger)
	}

	media := mediaserver.NewClient(cfg.MediaServer.URL, cfg.MediaServer.APIKey, log.Logger)

	resolver := identify.NewResolver(torrents, films, shows, log.Logger)
	identifier := identify.NewIdentifier(torrents, films, shows, cat, resolver, log.Logger)

	repairMachine := repair.NewMachine(repair.Config{
		Enabled:     cfg.Repair.Enabled,
		MaxAttempts: cfg.Repair.MaxAttempts,
	}, torrents, films, shows, debridClient, log.Logger)

	reconciler := symlink.NewReconciler(symlink.Config{
		FilmsDir: cfg.Mount.FilmsDir,
		ShowsDir: cfg.Mount.ShowsDir,
		Mapping: symlink.PathMapping{
			HostPrefix:     cfg.Mount.Root,
			ConsumerPrefix: cfg.Mount.ConsumerRoot,
		},
	}, films, shows, torrents, cat, log.Logger)

	registry := metrics.NewRegistry()

	var debridDelete func(ctx context.Context, debridID string) bool
	if debridClient != nil {
		debridDelete = debridClient.Delete
	}

	orchestrator := scan.NewOrchestrator(scan.Config{
		Interval:        time.Duration(cfg.Scan.IntervalSeconds) * time.Second,
		CleanupArchived: cfg.Scan.CleanupArchived,
	}, scan.Deps{
		Mount:        mount.NewScanner(cfg.Mount.Root, log.Logger),
		Torrents:     torrents,
		Films:        films,
		Shows:        shows,
		Identifier:   identifier,
		Repair:       repairMachine,
		Symlinks:     reconciler,
		Media:        media,
		Metrics:      registry,
		DebridDelete: debridDelete,
	}, log.Logger)

	trigger := make(chan struct{}, 1)
	webhookServer := webhook.NewServer(cfg.Webhook.Port, trigger, registry, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := webhookServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("webhook server error")
		}
	}()

	go orchestrator.Run(ctx, trigger)

	<-ctx.Done()
	log.Info().Msg("received shutdown signal, stopping")
}
