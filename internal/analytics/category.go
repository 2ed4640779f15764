package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"clinic/internal/core"
)

// CategoryBreakdown is the expense total of one category.
type CategoryBreakdown struct {
	Category core.ExpenseCategory `json:"category"`
	Total    decimal.Decimal      `json:"total"`
}

// GroupByCategory sums the expenses dated within [from, to] per category.
// The result always holds one entry per category, zero-filled, in the order
// of core.ExpenseCategories. An inverted range matches nothing.
func GroupByCategory(expenses []core.Expense, from, to time.Time) []CategoryBreakdown {
	start, end := StartOfDay(from), EndOfDay(to.In(from.Location()))

	sums := make(map[core.ExpenseCategory]decimal.Decimal, 6)
	for _, e := range expenses {
		if e.ExpenseDate.Before(start) || e.ExpenseDate.After(end) {
			continue
		}
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	categories := core.ExpenseCategories()
	out := make([]CategoryBreakdown, 0, len(categories))
	for _, c := range categories {
		total, ok := sums[c]
		if !ok {
			total = decimal.Zero
		}
		out = append(out, CategoryBreakdown{Category: c, Total: total})
	}
	return out
}
