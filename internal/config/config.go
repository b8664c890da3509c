// Package config handles environment variable loading for the daemon:
// listen address, store backend, blob access and detection tunables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"roomscan/internal/detect"
)

// Store backend names accepted in ROOMSCAN_STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds all configuration values for the daemon.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// Store selects the job store backend: memory, sqlite or postgres.
	Store string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string

	// BlobRoot is the local directory holding uploaded images, keyed by
	// content address. Used when BlobBaseURL is empty.
	BlobRoot string

	// BlobBaseURL, when set, fetches images over HTTP from this base URL
	// instead of the local filesystem.
	BlobBaseURL string

	// Workers is the number of concurrent detection workers.
	Workers int

	// QueueDepth is the processing queue capacity.
	QueueDepth int

	// DetectTimeout bounds one detection run.
	DetectTimeout time.Duration

	// LogLevel is the minimum slog level.
	LogLevel slog.Level

	// Params are the detection parameters, with per-field env overrides
	// applied over the defaults.
	Params detect.Params
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    getString("ROOMSCAN_ADDR", ":8080"),
		Store:         getString("ROOMSCAN_STORE", StoreSQLite),
		SQLitePath:    getString("ROOMSCAN_SQLITE_PATH", "roomscan.db"),
		PostgresDSN:   os.Getenv("ROOMSCAN_POSTGRES_DSN"),
		BlobRoot:      getString("ROOMSCAN_BLOB_ROOT", "blobs"),
		BlobBaseURL:   os.Getenv("ROOMSCAN_BLOB_BASE_URL"),
		Params:        detect.DefaultParams(),
		DetectTimeout: 60 * time.Second,
		LogLevel:      slog.LevelInfo,
	}

	switch cfg.Store {
	case StoreMemory, StoreSQLite, StorePostgres:
	default:
		return nil, fmt.Errorf("invalid ROOMSCAN_STORE %q", cfg.Store)
	}
	if cfg.Store == StorePostgres && cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("ROOMSCAN_POSTGRES_DSN is required for the postgres store")
	}

	var err error
	if cfg.Workers, err = getInt("ROOMSCAN_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.QueueDepth, err = getInt("ROOMSCAN_QUEUE_DEPTH", 64); err != nil {
		return nil, err
	}
	if cfg.DetectTimeout, err = getDuration("ROOMSCAN_DETECT_TIMEOUT", cfg.DetectTimeout); err != nil {
		return nil, err
	}
	if cfg.Params.MinAreaPx, err = getFloat("ROOMSCAN_MIN_AREA_PX", cfg.Params.MinAreaPx); err != nil {
		return nil, err
	}
	if cfg.Params.MaxAreaPx, err = getFloat("ROOMSCAN_MAX_AREA_PX", cfg.Params.MaxAreaPx); err != nil {
		return nil, err
	}
	if cfg.Params.SimplifyEpsilonRatio, err = getFloat("ROOMSCAN_SIMPLIFY_EPSILON_RATIO", cfg.Params.SimplifyEpsilonRatio); err != nil {
		return nil, err
	}
	if cfg.Params.ContainmentRatioThreshold, err = getFloat("ROOMSCAN_CONTAINMENT_RATIO", cfg.Params.ContainmentRatioThreshold); err != nil {
		return nil, err
	}

	if lvl := os.Getenv("ROOMSCAN_LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("invalid ROOMSCAN_LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
