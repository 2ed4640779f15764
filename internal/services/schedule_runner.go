package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ScheduleRunner polls a ScheduleProcessor on a fixed interval.
type ScheduleRunner struct {
	processor *ScheduleProcessor
	interval  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduleRunner(processor *ScheduleProcessor, interval time.Duration) *ScheduleRunner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ScheduleRunner{
		processor: processor,
		interval:  interval,
		now:       time.Now,
	}
}

// Start begins the polling loop. Returns an error if already running.
func (r *ScheduleRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("schedule runner is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Schedule runner started", "interval", r.interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (r *ScheduleRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Schedule runner stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Schedule runner stop timed out")
		return ctx.Err()
	}
}

func (r *ScheduleRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *ScheduleRunner) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// first pass on startup
	r.runOnce(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *ScheduleRunner) runOnce(ctx context.Context) {
	if _, err := r.processor.ProcessDueSchedules(ctx, r.now()); err != nil {
		slog.ErrorContext(ctx, "Schedule processing failed", "error", err)
	}
}
