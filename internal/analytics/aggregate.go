package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"clinic/internal/core"
)

// FinanceDataPoint is the revenue/expense aggregate of one bucket together
// with the records that produced it.
type FinanceDataPoint struct {
	Bucket       Bucket          `json:"bucket"`
	Label        string          `json:"label"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	RevenueTotal decimal.Decimal `json:"revenueTotal"`
	Expenses     []core.Expense  `json:"contributingExpenses"`
	Payments     []core.Payment  `json:"contributingPayments"`
}

// Aggregate sums paid payments and all expenses into the given buckets.
// Records outside every bucket are ignored. The result has one point per
// bucket, in bucket order, labeled by the configured Labeler.
func Aggregate(buckets []Bucket, payments []core.Payment, expenses []core.Expense, opts ...Option) []FinanceDataPoint {
	o := buildOptions(opts)

	points := make([]FinanceDataPoint, len(buckets))
	for i, b := range buckets {
		points[i] = FinanceDataPoint{
			Bucket:       b,
			Label:        o.labeler.Label(b),
			ExpenseTotal: decimal.Zero,
			RevenueTotal: decimal.Zero,
			Expenses:     []core.Expense{},
			Payments:     []core.Payment{},
		}
	}

	for _, p := range payments {
		if !p.IsPaid {
			continue
		}
		if i := findBucket(buckets, p.PaymentDate); i >= 0 {
			points[i].RevenueTotal = points[i].RevenueTotal.Add(p.Amount)
			points[i].Payments = append(points[i].Payments, p)
		}
	}
	for _, e := range expenses {
		if i := findBucket(buckets, e.ExpenseDate); i >= 0 {
			points[i].ExpenseTotal = points[i].ExpenseTotal.Add(e.Amount)
			points[i].Expenses = append(points[i].Expenses, e)
		}
	}
	return points
}

// findBucket returns the index of the bucket containing t, or -1. Buckets
// must be ascending and non-overlapping, which Bucketize guarantees.
func findBucket(buckets []Bucket, t time.Time) int {
	i := sort.Search(len(buckets), func(i int) bool {
		return !buckets[i].End.Before(t)
	})
	if i < len(buckets) && buckets[i].Contains(t) {
		return i
	}
	return -1
}

// SeriesTotals sums revenue and expense over a whole series.
func SeriesTotals(points []FinanceDataPoint) (revenue, expense decimal.Decimal) {
	revenue, expense = decimal.Zero, decimal.Zero
	for _, p := range points {
		revenue = revenue.Add(p.RevenueTotal)
		expense = expense.Add(p.ExpenseTotal)
	}
	return revenue, expense
}
