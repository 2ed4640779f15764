package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"clinic/internal/adapters"
	"clinic/internal/amqp"
	"clinic/internal/backend"
	"clinic/internal/cli"
	apphttp "clinic/internal/http"
	"clinic/internal/log"
	"clinic/internal/middleware/ratelimit"
	"clinic/internal/services"
	"clinic/internal/sheets"
	"clinic/internal/worker"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)
	logger.Info("Starting clinic server", "port", cfg.Port, "backend", cfg.DataBackend)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	reportCache := cli.NewReportCache(ctx, cfg, logger)
	reports := services.NewReportService(result.Backend, reportCache.Cache, services.ReportOptions{
		Locale:    cfg.ReportLocale,
		WeekStart: cfg.WeekStart(),
	})

	// Exports go through the broker when it is reachable, otherwise straight
	// to Google Sheets from this process.
	var publisher services.ExportPublisher
	switch {
	case result.Publisher != nil:
		publisher = result.Publisher
	case cfg.SheetsEnabled():
		writer, err := cli.NewSheetsWriter(ctx, cfg)
		if err != nil {
			logger.Warn("Google Sheets unavailable, report exports disabled", "error", err)
			break
		}
		publisher = worker.NewExportWorker(result.Backend,
			map[string]sheets.ReportWriter{amqp.TargetSheets: writer},
			cfg.ReportLocale, cfg.WeekStart())
		logger.Info("Report exports run in-process", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		logger.Info("Report exports disabled")
	}

	records := services.NewRecordService(result.Backend, publisher, amqp.TargetSheets)
	records.OnChange(reports.Invalidate)

	opts := apphttp.Options{
		Addr:         ":" + cfg.Port,
		Records:      adapters.NewRecordAdapter(result.Backend, records),
		Reports:      reports,
		Publisher:    publisher,
		ExportTarget: amqp.TargetSheets,
		Location:     time.Local,
		CacheStats:   reportCache.Stats,
		Logger:       logger,
		RateLimit:    ratelimit.DefaultConfig(),
	}
	if p, ok := result.Backend.(pinger); ok {
		opts.Ready = p.Ping
	}
	srv := apphttp.NewServer(opts)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := reportCache.Close(); err != nil {
			logger.Error("Report cache close error", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Listening", "addr", opts.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
