// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for report schedule dueness.
// Each frequency (daily, weekly, monthly, yearly) has its own strategy that
// decides whether a schedule is due and which completed period it exports.

package services

import (
	"fmt"
	"time"

	"clinic/internal/analytics"
	"clinic/internal/core"
)

// DuenessChecker is the strategy interface for report schedules.
type DuenessChecker interface {
	// IsDue returns true if the schedule should run given its last run time.
	IsDue(lastRun, now time.Time, anchorDay int) bool
	// PeriodFor returns the last fully completed period before now, as
	// whole days [from, to].
	PeriodFor(now time.Time, weekStart time.Weekday) (from, to time.Time)
}

// dayOffset returns the start of the day n calendar days after t's day.
func dayOffset(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return analytics.DayStart(y, m, d+n, t.Location())
}

// clampDay caps day at the length of the month containing t.
func clampDay(t time.Time, day int) int {
	if day < 1 {
		day = 1
	}
	last := time.Date(t.Year(), t.Month()+1, 0, 12, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// DailyChecker exports yesterday once per day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastRun, now time.Time, _ int) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format(time.DateOnly) != now.Format(time.DateOnly)
}

func (DailyChecker) PeriodFor(now time.Time, _ time.Weekday) (time.Time, time.Time) {
	y := dayOffset(now, -1)
	return y, y
}

// WeeklyChecker exports the previous full week every 7 days.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRun, now time.Time, _ int) bool {
	if lastRun.IsZero() {
		return true
	}
	daysSince := now.Sub(lastRun).Hours() / 24
	return daysSince >= 7
}

func (WeeklyChecker) PeriodFor(now time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	back := (int(now.Weekday()) - int(weekStart) + 7) % 7
	return dayOffset(now, -back-7), dayOffset(now, -back-1)
}

// MonthlyChecker exports the previous month once the anchor day is reached.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time, anchorDay int) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(now, anchorDay)
}

func (MonthlyChecker) PeriodFor(now time.Time, _ time.Weekday) (time.Time, time.Time) {
	y, m, loc := now.Year(), now.Month(), now.Location()
	return analytics.DayStart(y, m-1, 1, loc), analytics.DayStart(y, m, 0, loc)
}

// YearlyChecker exports the previous year once the anchor day of January is
// reached.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRun, now time.Time, anchorDay int) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() {
		return false
	}
	if now.Month() > time.January {
		return true
	}
	return now.Day() >= clampDay(now, anchorDay)
}

func (YearlyChecker) PeriodFor(now time.Time, _ time.Weekday) (time.Time, time.Time) {
	y := now.Year() - 1
	return analytics.DayStart(y, time.January, 1, now.Location()),
		analytics.DayStart(y, time.December, 31, now.Location())
}

// duenessStrategies maps schedule frequencies to their checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownFrequency, frequency)
	}
	return checker, nil
}

// RegisterDuenessChecker registers a checker for a new frequency.
func RegisterDuenessChecker(frequency core.Frequency, checker DuenessChecker) {
	duenessStrategies[frequency] = checker
}
