// Package cli provides common CLI initialization utilities shared by
// cmd/clinic, cmd/clinic-worker and cmd/report-scheduler.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clinic/internal/analytics"
	"clinic/internal/cache"
	"clinic/internal/config"
	"clinic/internal/log"
	"clinic/internal/sheets/google"
)

const (
	reportCacheSize    = 256
	reportCachePrefix  = "clinic:report"
	cacheCleanupPeriod = time.Minute
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			lc.Level = level
		}
		if cfg.LogFormat != "" {
			lc.Format = cfg.LogFormat
		}
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads .env, reads the configuration and sets up the
// logger for component. It exits the process when validation fails.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// ReportCache is the finance report cache selected by CACHE_BACKEND.
type ReportCache struct {
	Cache cache.Cache[analytics.FinanceReport]
	// Stats is nil for caches that do not keep counters.
	Stats func() cache.Stats

	manager *cache.Manager
	closeFn func() error
}

// Close stops background cleanup and releases the Redis connection, if any.
func (c *ReportCache) Close() error {
	if c == nil {
		return nil
	}
	if c.manager != nil {
		c.manager.Stop()
	}
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// NewReportCache builds the report cache. "none" disables caching and yields
// a nil Cache. An unreachable Redis falls back to the in-process LRU.
func NewReportCache(ctx context.Context, cfg *config.Config, logger *log.Logger) *ReportCache {
	switch cfg.CacheBackend {
	case "none":
		logger.Info("Report cache disabled")
		return &ReportCache{}
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Initialized Redis report cache", "ttl", cfg.CacheTTL)
			return &ReportCache{
				Cache:   cache.NewRedisCache[analytics.FinanceReport](client, reportCachePrefix, cfg.CacheTTL, logger.WithComponent(log.ComponentCache).Slog()),
				closeFn: client.Close,
			}
		}
		logger.Warn("Redis unavailable, using in-memory report cache", "error", err)
	}

	lru := cache.NewLRUCache[analytics.FinanceReport](reportCacheSize, cfg.CacheTTL)
	manager := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	manager.Register(lru)
	manager.StartCleanup(cacheCleanupPeriod)
	logger.Info("Initialized in-memory report cache", "size", reportCacheSize, "ttl", cfg.CacheTTL)
	return &ReportCache{Cache: lru, Stats: lru.Stats, manager: manager}
}

// ErrSheetsDisabled is returned by NewSheetsWriter when no spreadsheet is
// configured.
var ErrSheetsDisabled = errors.New("google sheets export not configured")

// NewSheetsWriter creates the Google Sheets report writer.
func NewSheetsWriter(ctx context.Context, cfg *config.Config) (*google.Client, error) {
	if !cfg.SheetsEnabled() {
		return nil, ErrSheetsDisabled
	}
	client, err := google.New(ctx, google.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("google sheets client: %w", err)
	}
	return client, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
