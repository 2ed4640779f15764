package main

import (
	"context"
	"os"
	"time"

	"clinic/internal/backend"
	"clinic/internal/cli"
	"clinic/internal/log"
	"clinic/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentScheduler)
	logger.Info("Starting report-scheduler", "interval", cfg.SchedulerInterval)

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
	if result.Publisher == nil {
		logger.Error("Scheduled exports need a reachable AMQP broker", "url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	processor := services.NewScheduleProcessor(result.Backend, result.Publisher, cfg.WeekStart())
	runner := services.NewScheduleRunner(processor, cfg.SchedulerInterval)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := runner.Stop(ctx); err != nil {
			logger.Error("Scheduler stop error", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	if err := runner.Start(runCtx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Scheduler stopped gracefully")
}
