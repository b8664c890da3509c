// Command roomscand runs the room detection daemon: it accepts upload
// notifications over HTTP, runs the detection pipeline in a worker pool and
// serves job status and results.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomscan/internal/config"
	"roomscan/internal/detect"
	"roomscan/internal/imaging"
	"roomscan/internal/job"
	"roomscan/internal/logger"
	"roomscan/internal/server"
	"roomscan/internal/status"
	"roomscan/internal/store/postgres"
	"roomscan/internal/store/sqlite"
	"roomscan/internal/trigger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "roomscand:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	images := imaging.NewImageCache(newFetcher(cfg))

	detector := detect.NewContourDetector()
	queue := trigger.NewQueue(store, images, detector, trigger.QueueConfig{
		Workers: cfg.Workers,
		Depth:   cfg.QueueDepth,
		Timeout: cfg.DetectTimeout,
		Params:  cfg.Params,
	}, log)
	trig := trigger.New(store, queue, log)
	stat := status.NewService(store)

	api := server.New(trig, stat, images, log)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "store", cfg.Store, "workers", cfg.Workers)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		queue.Shutdown()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	queue.Shutdown()
	log.Info("stopped")
	return nil
}

// openStore builds the configured job store and a release function.
func openStore(ctx context.Context, cfg *config.Config) (job.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return job.NewMemoryStore(), func() {}, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

// newFetcher selects HTTP or filesystem blob access.
func newFetcher(cfg *config.Config) imaging.Fetcher {
	if cfg.BlobBaseURL != "" {
		return imaging.NewHTTPFetcher(cfg.BlobBaseURL, nil)
	}
	return imaging.NewFSFetcher(cfg.BlobRoot)
}
