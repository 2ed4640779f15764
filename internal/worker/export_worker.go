package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clinic/internal/amqp"
	"clinic/internal/analytics"
	"clinic/internal/sheets"
)

// ExportWorker turns report export requests into written reports.
type ExportWorker struct {
	loader    sheets.DatasetLoader
	writers   map[string]sheets.ReportWriter
	locale    string
	weekStart time.Weekday
}

// NewExportWorker creates a worker. writers maps message targets (for
// example amqp.TargetSheets) to the sink that handles them.
func NewExportWorker(loader sheets.DatasetLoader, writers map[string]sheets.ReportWriter, locale string, weekStart time.Weekday) *ExportWorker {
	return &ExportWorker{
		loader:    loader,
		writers:   writers,
		locale:    locale,
		weekStart: weekStart,
	}
}

// HandleExportMessage rebuilds the report for the message range from a fresh
// snapshot and writes it. A returned error makes the consumer requeue.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"message_id", msg.ID,
		"target", msg.Target,
		"reason", msg.Reason)

	writer, ok := w.writers[msg.Target]
	if !ok {
		// nothing can ever handle it; acknowledge and drop
		slog.WarnContext(ctx, "No writer configured for export target, skipping",
			"message_id", msg.ID,
			"target", msg.Target)
		return nil
	}

	ds, err := w.loader.LoadDataset(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	report, err := analytics.BuildFinanceReport(ctx, ds, msg.From, msg.To,
		analytics.WithLocale(w.locale),
		analytics.WithWeekStart(w.weekStart))
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	ref, err := writer.WriteReport(ctx, report, w.locale)
	if err != nil {
		return fmt.Errorf("write report to %s: %w", msg.Target, err)
	}

	slog.InfoContext(ctx, "Successfully exported report",
		"message_id", msg.ID,
		"target", msg.Target,
		"ref", ref,
		"from", report.From.Format(time.DateOnly),
		"to", report.To.Format(time.DateOnly),
		"buckets", len(report.Series))
	return nil
}

// PublishReportExport handles the message in-process. It lets the API and
// scheduler export without a broker.
func (w *ExportWorker) PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return w.HandleExportMessage(ctx, msg)
}
