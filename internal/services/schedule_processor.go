package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clinic/internal/amqp"
	"clinic/internal/sheets"
)

// ScheduleProcessor queues report exports for schedules that are due.
type ScheduleProcessor struct {
	schedules sheets.ScheduleStore
	publisher ExportPublisher
	weekStart time.Weekday
}

func NewScheduleProcessor(schedules sheets.ScheduleStore, publisher ExportPublisher, weekStart time.Weekday) *ScheduleProcessor {
	return &ScheduleProcessor{
		schedules: schedules,
		publisher: publisher,
		weekStart: weekStart,
	}
}

// ProcessDueSchedules publishes one export per due schedule and records the
// run. Failures on one schedule are logged and do not stop the others.
func (p *ScheduleProcessor) ProcessDueSchedules(ctx context.Context, now time.Time) (int, error) {
	if p.schedules == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	active, err := p.schedules.ListActiveSchedules(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active schedules: %w", err)
	}

	slog.InfoContext(ctx, "Processing report schedules",
		"total_active", len(active),
		"processing_date", now.Format(time.DateOnly))

	processed := 0
	for _, s := range active {
		checker, err := GetDuenessChecker(s.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping schedule", "schedule_id", s.ID, "error", err)
			continue
		}
		if !checker.IsDue(s.LastRunAt, now, s.AnchorDay) {
			continue
		}

		from, to := checker.PeriodFor(now, p.weekStart)
		msg := amqp.NewReportExportMessage(from, to, s.Target, amqp.ReasonScheduled)
		if err := p.publisher.PublishReportExport(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish scheduled export",
				"schedule_id", s.ID,
				"name", s.Name,
				"error", err)
			continue
		}

		if err := p.schedules.UpdateScheduleLastRun(ctx, s.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update schedule last run",
				"schedule_id", s.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Scheduled report export queued",
			"schedule_id", s.ID,
			"name", s.Name,
			"every", s.Every,
			"from", from.Format(time.DateOnly),
			"to", to.Format(time.DateOnly))
	}

	slog.InfoContext(ctx, "Report schedule processing complete",
		"processed", processed,
		"total_checked", len(active))

	return processed, nil
}
