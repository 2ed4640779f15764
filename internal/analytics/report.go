package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"clinic/internal/core"
)

// Dataset is a snapshot of every record the reports read from.
type Dataset struct {
	Payments     []core.Payment
	Expenses     []core.Expense
	Patients     []core.Patient
	Appointments []core.Appointment
}

// FinanceReport bundles the series, category breakdown and period summary
// computed over the same range and snapshot.
type FinanceReport struct {
	From        time.Time           `json:"from"`
	To          time.Time           `json:"to"`
	Granularity Granularity         `json:"granularity"`
	Series      []FinanceDataPoint  `json:"series"`
	Categories  []CategoryBreakdown `json:"categories"`
	Summary     PeriodSummary       `json:"summary"`
}

// BuildFinanceReport runs the three independent computations concurrently.
// Only an invalid range or a cancelled context makes it fail.
func BuildFinanceReport(ctx context.Context, ds Dataset, from, to time.Time, opts ...Option) (FinanceReport, error) {
	if err := ctx.Err(); err != nil {
		return FinanceReport{}, err
	}
	start, end, err := normalizeRange(from, to)
	if err != nil {
		return FinanceReport{}, err
	}

	report := FinanceReport{From: start, To: end, Granularity: ChooseGranularity(start, end)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buckets, err := Bucketize(start, end, opts...)
		if err != nil {
			return err
		}
		report.Series = Aggregate(buckets, ds.Payments, ds.Expenses, opts...)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Categories = GroupByCategory(ds.Expenses, start, end)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Summary = SummarizePeriod(ds.Payments, ds.Expenses, ds.Patients, ds.Appointments, start, end)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return FinanceReport{}, err
	}
	return report, nil
}
