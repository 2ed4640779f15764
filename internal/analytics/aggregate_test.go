package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func payment(amount string, at time.Time, paid bool) core.Payment {
	return core.Payment{ID: uuid.New(), PatientID: uuid.New(), Amount: dec(amount), PaymentDate: at, IsPaid: paid}
}

func expense(amount string, at time.Time, c core.ExpenseCategory) core.Expense {
	return core.Expense{ID: uuid.New(), Amount: dec(amount), ExpenseDate: at, Category: c}
}

func TestAggregate_JuneScenario(t *testing.T) {
	from, to := date(2024, 6, 1), date(2024, 6, 30)
	buckets, err := Bucketize(from, to)
	require.NoError(t, err)

	at := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	points := Aggregate(buckets,
		[]core.Payment{payment("500", at, true)},
		[]core.Expense{expense("200", at, core.Rent)},
	)

	require.Len(t, points, 30)
	for _, p := range points {
		if p.Label == "15-06-2024" {
			assert.True(t, p.RevenueTotal.Equal(dec("500")))
			assert.True(t, p.ExpenseTotal.Equal(dec("200")))
			assert.Len(t, p.Payments, 1)
			assert.Len(t, p.Expenses, 1)
			continue
		}
		assert.True(t, p.RevenueTotal.IsZero(), "bucket %s revenue", p.Label)
		assert.True(t, p.ExpenseTotal.IsZero(), "bucket %s expense", p.Label)
		assert.Empty(t, p.Payments)
		assert.Empty(t, p.Expenses)
	}
}

func TestAggregate_UnpaidPaymentsIgnored(t *testing.T) {
	buckets, err := Bucketize(date(2024, 6, 1), date(2024, 6, 2))
	require.NoError(t, err)

	points := Aggregate(buckets, []core.Payment{
		payment("100", date(2024, 6, 1), false),
		payment("40", date(2024, 6, 1), true),
	}, nil)

	require.Len(t, points, 2)
	assert.True(t, points[0].RevenueTotal.Equal(dec("40")))
	assert.Len(t, points[0].Payments, 1)
}

func TestAggregate_ConservesTotals(t *testing.T) {
	from, to := date(2024, 1, 1), date(2024, 4, 30)
	buckets, err := Bucketize(from, to)
	require.NoError(t, err)

	var payments []core.Payment
	var expenses []core.Expense
	wantRevenue, wantExpense := decimal.Zero, decimal.Zero
	for d := from; !d.After(to); d = d.AddDate(0, 0, 3) {
		p := payment("12.50", d.Add(13*time.Hour), true)
		e := expense("7.25", d.Add(23*time.Hour+59*time.Minute), core.Operational)
		payments = append(payments, p)
		expenses = append(expenses, e)
		wantRevenue = wantRevenue.Add(p.Amount)
		wantExpense = wantExpense.Add(e.Amount)
	}
	// outside the range
	payments = append(payments, payment("999", date(2024, 5, 1), true))
	expenses = append(expenses, expense("999", date(2023, 12, 31), core.Other))

	points := Aggregate(buckets, payments, expenses)

	revenue, expense := SeriesTotals(points)
	assert.True(t, wantRevenue.Equal(revenue), "revenue %s want %s", revenue, wantRevenue)
	assert.True(t, wantExpense.Equal(expense), "expense %s want %s", expense, wantExpense)
}

func TestAggregate_BoundaryInstants(t *testing.T) {
	buckets, err := Bucketize(date(2024, 6, 1), date(2024, 6, 2))
	require.NoError(t, err)

	points := Aggregate(buckets, []core.Payment{
		payment("1", date(2024, 6, 1), true),
		payment("2", EndOfDay(date(2024, 6, 1)), true),
		payment("4", date(2024, 6, 2), true),
	}, nil)

	assert.True(t, points[0].RevenueTotal.Equal(dec("3")))
	assert.True(t, points[1].RevenueTotal.Equal(dec("4")))
}

func TestAggregate_EmptyBuckets(t *testing.T) {
	points := Aggregate(nil, []core.Payment{payment("1", date(2024, 1, 1), true)}, nil)
	assert.Empty(t, points)
}

type fixedLabeler string

func (f fixedLabeler) Label(Bucket) string { return string(f) }

func TestAggregate_CustomLabeler(t *testing.T) {
	buckets, err := Bucketize(date(2024, 6, 1), date(2024, 6, 1))
	require.NoError(t, err)

	points := Aggregate(buckets, nil, nil, WithLabeler(fixedLabeler("x")))
	require.Len(t, points, 1)
	assert.Equal(t, "x", points[0].Label)
}
