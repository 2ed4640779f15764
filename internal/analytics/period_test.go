package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/internal/core"
)

func appointments(n int, at time.Time, status core.AppointmentStatus) []core.Appointment {
	out := make([]core.Appointment, n)
	for i := range out {
		out[i] = core.Appointment{ID: uuid.New(), PatientID: uuid.New(), StartTime: at, Status: status}
	}
	return out
}

func TestGroupByCategory(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	expenses := []core.Expense{
		expense("100", date(2024, 6, 1), core.Rent),
		expense("50.50", date(2024, 6, 10), core.Rent),
		expense("20", EndOfDay(date(2024, 6, 30)), core.Utilities),
		expense("999", date(2024, 7, 1), core.Salary),
		expense("999", date(2024, 5, 31), core.Other),
	}

	got := GroupByCategory(expenses, from, to)

	require.Len(t, got, 6)
	order := core.ExpenseCategories()
	for i, b := range got {
		assert.Equal(t, order[i], b.Category)
	}
	totals := map[core.ExpenseCategory]string{}
	for _, b := range got {
		totals[b.Category] = b.Total.String()
	}
	assert.Equal(t, "150.5", totals[core.Rent])
	assert.Equal(t, "20", totals[core.Utilities])
	assert.Equal(t, "0", totals[core.Salary])
	assert.Equal(t, "0", totals[core.Other])
}

func TestGroupByCategory_Empty(t *testing.T) {
	got := GroupByCategory(nil, date(2024, 6, 1), date(2024, 6, 30))
	require.Len(t, got, 6)
	for _, b := range got {
		assert.True(t, b.Total.IsZero())
	}
}

func TestGroupByCategory_InvertedRangeMatchesNothing(t *testing.T) {
	got := GroupByCategory([]core.Expense{expense("5", date(2024, 6, 15), core.Rent)}, date(2024, 6, 30), date(2024, 6, 1))
	require.Len(t, got, 6)
	for _, b := range got {
		assert.True(t, b.Total.IsZero())
	}
}

func TestPreviousPeriod(t *testing.T) {
	tests := []struct {
		name               string
		from, to           time.Time
		wantFrom, wantTo   time.Time
	}{
		{"june", date(2024, 6, 1), date(2024, 6, 30), date(2024, 5, 2), date(2024, 5, 31)},
		{"single day", date(2024, 3, 1), date(2024, 3, 1), date(2024, 2, 29), date(2024, 2, 29)},
		{"week", date(2024, 1, 8), date(2024, 1, 14), date(2024, 1, 1), date(2024, 1, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFrom, gotTo := PreviousPeriod(tt.from, tt.to)
			assert.Equal(t, tt.wantFrom, gotFrom)
			assert.Equal(t, EndOfDay(tt.wantTo), gotTo)
		})
	}
}

func TestPreviousPeriod_SkippedMidnight(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2024-09-08 has no 00:00 in Santiago
	day := time.Date(2024, 9, 9, 10, 0, 0, 0, santiago)
	gotFrom, gotTo := PreviousPeriod(day, day)

	assert.Equal(t, "2024-09-08", gotFrom.Format(time.DateOnly))
	assert.Equal(t, 1, gotFrom.Hour())
	assert.Equal(t, "2024-09-08", gotTo.Format(time.DateOnly))

	week := time.Date(2024, 9, 15, 0, 0, 0, 0, santiago)
	gotFrom, gotTo = PreviousPeriod(week.AddDate(0, 0, -6), week)
	assert.Equal(t, "2024-09-02", gotFrom.Format(time.DateOnly))
	assert.Equal(t, "2024-09-08", gotTo.Format(time.DateOnly))
}

func TestSummarizePeriod_Totals(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	payments := []core.Payment{
		payment("300", date(2024, 6, 5), true),
		payment("200", date(2024, 6, 6), true),
		payment("1000", date(2024, 6, 7), false),
		payment("250", date(2024, 5, 20), true),
	}
	expenses := []core.Expense{
		expense("100", date(2024, 6, 5), core.Rent),
		expense("200", date(2024, 5, 5), core.Rent),
	}
	patients := []core.Patient{
		{ID: uuid.New(), FullName: "A", CreatedAt: date(2024, 6, 2)},
		{ID: uuid.New(), FullName: "B", CreatedAt: date(2024, 6, 3)},
		{ID: uuid.New(), FullName: "C", CreatedAt: date(2024, 5, 3)},
	}
	appts := append(appointments(2, date(2024, 6, 10), core.Confirmed), appointments(3, date(2024, 6, 10), core.Pending)...)

	s := SummarizePeriod(payments, expenses, patients, appts, from, to)

	assert.Equal(t, "500", s.Current.TotalRevenue.String())
	assert.Equal(t, "100", s.Current.TotalExpenses.String())
	assert.Equal(t, "400", s.Current.NetIncome.String())
	assert.Equal(t, int64(2), s.Current.TotalPatients)
	assert.Equal(t, int64(2), s.Current.TotalConfirmedAppointments)

	assert.Equal(t, "250", s.Previous.TotalRevenue.String())
	assert.Equal(t, "200", s.Previous.TotalExpenses.String())
	assert.Equal(t, "50", s.Previous.NetIncome.String())
	assert.Equal(t, int64(1), s.Previous.TotalPatients)

	assert.Equal(t, "100", s.PercentageChange.TotalRevenue.String())
	assert.Equal(t, "-50", s.PercentageChange.TotalExpenses.String())
	assert.Equal(t, "700", s.PercentageChange.NetIncome.String())
	assert.Equal(t, int64(1), s.PercentageChange.TotalPatients)
	assert.Equal(t, int64(2), s.PercentageChange.TotalConfirmedAppointments)
}

func TestSummarizePeriod_ZeroPreviousGivesZeroPercent(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	s := SummarizePeriod(nil, []core.Expense{expense("100", date(2024, 6, 15), core.Other)}, nil, nil, from, to)

	assert.Equal(t, "100", s.Current.TotalExpenses.String())
	assert.True(t, s.Previous.TotalExpenses.IsZero())
	assert.True(t, s.PercentageChange.TotalExpenses.IsZero())
}

func TestSummarizePeriod_NegativePreviousNetIncomeGivesZeroPercent(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	s := SummarizePeriod(nil, []core.Expense{expense("10", date(2024, 5, 15), core.Other)}, nil, nil, from, to)

	assert.Equal(t, "-10", s.Previous.NetIncome.String())
	assert.True(t, s.PercentageChange.NetIncome.IsZero())
}

func TestSummarizePeriod_AppointmentDeltaIsAbsolute(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	appts := append(
		appointments(150, date(2024, 6, 12), core.Confirmed),
		appointments(120, date(2024, 5, 12), core.Confirmed)...,
	)
	appts = append(appts, appointments(40, date(2024, 6, 12), core.Cancelled)...)

	s := SummarizePeriod(nil, nil, nil, appts, from, to)

	assert.Equal(t, int64(150), s.Current.TotalConfirmedAppointments)
	assert.Equal(t, int64(120), s.Previous.TotalConfirmedAppointments)
	assert.Equal(t, int64(30), s.PercentageChange.TotalConfirmedAppointments)
}

func TestSummarizePeriod_PeriodsDoNotOverlap(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	boundary := payment("10", date(2024, 6, 1), true)
	lastPrev := payment("5", EndOfDay(date(2024, 5, 31)), true)

	s := SummarizePeriod([]core.Payment{boundary, lastPrev}, nil, nil, nil, from, to)

	assert.Equal(t, "10", s.Current.TotalRevenue.String())
	assert.Equal(t, "5", s.Previous.TotalRevenue.String())
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, "25", PercentChange(dec("125"), dec("100")).String())
	assert.Equal(t, "-100", PercentChange(dec("0"), dec("40")).String())
	assert.True(t, PercentChange(dec("5"), dec("0")).IsZero())
	assert.True(t, PercentChange(dec("5"), dec("-5")).IsZero())
}

func TestBuildFinanceReport(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	ds := Dataset{
		Payments: []core.Payment{payment("500", date(2024, 6, 15), true)},
		Expenses: []core.Expense{expense("200", date(2024, 6, 15), core.Equipment)},
	}

	report, err := BuildFinanceReport(context.Background(), ds, from, to, WithLocale("it"))
	require.NoError(t, err)

	assert.Equal(t, Day, report.Granularity)
	assert.Len(t, report.Series, 30)
	assert.Len(t, report.Categories, 6)
	assert.Equal(t, "500", report.Summary.Current.TotalRevenue.String())
	assert.Equal(t, "200", report.Summary.Current.TotalExpenses.String())

	revenue, expense := SeriesTotals(report.Series)
	assert.True(t, revenue.Equal(report.Summary.Current.TotalRevenue))
	assert.True(t, expense.Equal(report.Summary.Current.TotalExpenses))
}

func TestBuildFinanceReport_InvalidRange(t *testing.T) {
	_, err := BuildFinanceReport(context.Background(), Dataset{}, date(2024, 7, 1), date(2024, 6, 1))
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestBuildFinanceReport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildFinanceReport(ctx, Dataset{}, date(2024, 6, 1), date(2024, 6, 30))
	assert.ErrorIs(t, err, context.Canceled)
}
