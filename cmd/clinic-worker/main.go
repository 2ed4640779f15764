package main

import (
	"context"
	"errors"
	"os"
	"time"

	"clinic/internal/amqp"
	"clinic/internal/backend"
	"clinic/internal/cli"
	"clinic/internal/log"
	"clinic/internal/sheets"
	"clinic/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting clinic-worker")

	ctx := context.Background()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	writer, err := cli.NewSheetsWriter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

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
	if result.Publisher == nil {
		logger.Error("AMQP broker unreachable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(result.Backend,
		map[string]sheets.ReportWriter{amqp.TargetSheets: writer},
		cfg.ReportLocale, cfg.WeekStart())

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Consuming report export messages", "queue", cfg.AMQPQueue)
	err = result.Publisher.ConsumeReportExports(runCtx, exportWorker.HandleExportMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped gracefully")
}
