package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clinic/internal/analytics"
	"clinic/internal/cache"
	"clinic/internal/locale"
	"clinic/internal/sheets"
)

const defaultReportTimeout = 10 * time.Second

// ReportService builds finance reports from the current dataset and caches
// them per range, locale and week start.
type ReportService struct {
	loader    sheets.DatasetLoader
	cache     cache.Cache[analytics.FinanceReport]
	locale    string
	weekStart time.Weekday
	timeout   time.Duration

	// generation counts invalidations. A report is cached only if no
	// invalidation happened since its dataset was loaded.
	mu         sync.Mutex
	generation uint64
}

type ReportOptions struct {
	Locale    string
	WeekStart time.Weekday
	// Timeout bounds loading plus computation (default 10s).
	Timeout time.Duration
}

// NewReportService creates a report service. c may be nil to disable caching.
func NewReportService(loader sheets.DatasetLoader, c cache.Cache[analytics.FinanceReport], opts ReportOptions) *ReportService {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultReportTimeout
	}
	return &ReportService{
		loader:    loader,
		cache:     c,
		locale:    locale.Normalize(opts.Locale),
		weekStart: opts.WeekStart,
		timeout:   opts.Timeout,
	}
}

// Locale is the default report locale.
func (s *ReportService) Locale() string { return s.locale }

// Report returns the finance report for [from, to]. An empty tag selects the
// service default locale.
func (s *ReportService) Report(ctx context.Context, from, to time.Time, tag string) (analytics.FinanceReport, error) {
	if tag == "" {
		tag = s.locale
	}
	tag = locale.Normalize(tag)
	key := cacheKey(from, to, tag, s.weekStart)

	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, key); ok {
			slog.DebugContext(ctx, "Report cache hit", "key", key)
			return r, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gen := s.currentGeneration()
	ds, err := s.loader.LoadDataset(ctx)
	if err != nil {
		return analytics.FinanceReport{}, fmt.Errorf("load dataset: %w", err)
	}

	start := time.Now()
	report, err := analytics.BuildFinanceReport(ctx, ds, from, to,
		analytics.WithLocale(tag),
		analytics.WithWeekStart(s.weekStart))
	if err != nil {
		return analytics.FinanceReport{}, err
	}

	slog.InfoContext(ctx, "Finance report built",
		"from", report.From.Format(time.DateOnly),
		"to", report.To.Format(time.DateOnly),
		"granularity", report.Granularity,
		"buckets", len(report.Series),
		"locale", tag,
		"duration_ms", time.Since(start).Milliseconds())

	s.store(ctx, key, report, gen)
	return report, nil
}

func (s *ReportService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// store caches report unless the cache was invalidated after gen was read.
func (s *ReportService) store(ctx context.Context, key string, report analytics.FinanceReport, gen uint64) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		slog.DebugContext(ctx, "Skipping cache of stale report", "key", key)
		return
	}
	s.cache.Set(ctx, key, report)
}

// Invalidate drops every cached report, including ones still being built.
func (s *ReportService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cache != nil {
		s.cache.Clear(ctx)
	}
}

func cacheKey(from, to time.Time, tag string, weekStart time.Weekday) string {
	return fmt.Sprintf("%s|%s|%s|%d",
		from.Format(time.RFC3339), to.Format(time.RFC3339), tag, weekStart)
}
