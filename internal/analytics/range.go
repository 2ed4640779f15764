// Package analytics turns raw payment, expense, patient and appointment
// records into report-ready aggregates: time-bucketed revenue/expense
// series, expense category breakdowns and period-over-period summaries.
//
// Every function here is pure. Inputs are already-loaded snapshots; nothing
// in this package performs I/O or keeps state between calls.
package analytics

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when the start of a range is after its end.
var ErrInvalidRange = errors.New("invalid range")

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// daysPerMonth converts a span in days into fractional months.
const daysPerMonth = 30.0

type (
	// Granularity is the bucket size class of a series.
	Granularity string

	// Bucket is a closed sub-interval [Start, End] of a reporting range.
	Bucket struct {
		Start       time.Time   `json:"start"`
		End         time.Time   `json:"end"`
		Granularity Granularity `json:"granularity"`
	}
)

// Contains reports whether t falls inside the bucket, bounds included.
func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// DayStart returns the first instant of the calendar day (y, m, d) in loc.
// Out-of-range values normalize as in time.Date. Where a DST shift skips
// midnight, time.Date lands on the previous day, so step forward until the
// day begins. A day the zone skipped entirely yields the start of the next.
func DayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for {
		ty, tm, td := t.Date()
		if !time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).Before(want) {
			return t
		}
		t = t.Add(time.Hour)
	}
}

// DayEnd returns the last nanosecond of the calendar day (y, m, d) in loc.
func DayEnd(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

// StartOfDay floors t to the first instant of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return DayStart(y, m, d, t.Location())
}

// EndOfDay ceils t to the last nanosecond of its calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return DayEnd(y, m, d, t.Location())
}

// calendarDays counts whole calendar days from a to b, ignoring clock time
// and DST shifts. Negative when b is before a.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// nextDay returns the start of the calendar day after t.
func nextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return DayStart(y, m, d+1, t.Location())
}

// SpanMonths expresses the distance between two dates in fractional months
// of 30 days.
func SpanMonths(from, to time.Time) float64 {
	days := calendarDays(from, to.In(from.Location()))
	if days < 0 {
		days = -days
	}
	return float64(days) / daysPerMonth
}

// GranularityForSpan applies the bucket size rule: up to one month is daily,
// eight months or more is monthly, anything strictly between is weekly.
func GranularityForSpan(months float64) Granularity {
	switch {
	case months <= 1:
		return Day
	case months >= 8:
		return Month
	default:
		return Week
	}
}

// ChooseGranularity picks the bucket granularity for [from, to].
func ChooseGranularity(from, to time.Time) Granularity {
	return GranularityForSpan(SpanMonths(from, to))
}

// normalizeRange floors from, ceils to and expresses both in from's location.
func normalizeRange(from, to time.Time) (time.Time, time.Time, error) {
	start := StartOfDay(from)
	end := EndOfDay(to.In(from.Location()))
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %s is after to %s",
			ErrInvalidRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return start, end, nil
}

// Bucketize partitions [from, to] into contiguous, ascending buckets whose
// size is chosen by ChooseGranularity. from is floored to start of day and
// to is ceiled to end of day before splitting. Week buckets start on
// Monday unless WithWeekStart says otherwise.
func Bucketize(from, to time.Time, opts ...Option) ([]Bucket, error) {
	o := buildOptions(opts)

	start, end, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	strategy, err := StrategyFor(ChooseGranularity(start, end))
	if err != nil {
		return nil, err
	}
	return strategy.Split(start, end, o.weekStart), nil
}
