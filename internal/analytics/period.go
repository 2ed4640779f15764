package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"clinic/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Totals are the headline figures of one period.
type Totals struct {
	TotalExpenses              decimal.Decimal `json:"totalExpenses"`
	TotalRevenue               decimal.Decimal `json:"totalRevenue"`
	NetIncome                  decimal.Decimal `json:"netIncome"`
	TotalPatients              int64           `json:"totalPatients"`
	TotalConfirmedAppointments int64           `json:"totalConfirmedAppointments"`
}

// PeriodSummary compares a period with the one immediately before it.
//
// In PercentageChange the three money fields are percentages while
// TotalPatients and TotalConfirmedAppointments are absolute deltas
// (current - previous). Report consumers depend on that layout.
type PeriodSummary struct {
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	PreviousFrom     time.Time `json:"previousFrom"`
	PreviousTo       time.Time `json:"previousTo"`
	Current          Totals    `json:"current"`
	Previous         Totals    `json:"previous"`
	PercentageChange Totals    `json:"percentageChange"`
}

// PreviousPeriod returns the range of the same length in calendar days that
// ends the day before from. Inputs are floored/ceiled to whole days.
func PreviousPeriod(from, to time.Time) (time.Time, time.Time) {
	start, end := StartOfDay(from), EndOfDay(to.In(from.Location()))
	length := calendarDays(start, end) + 1
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	prevStart := DayStart(sy, sm, sd-length, start.Location())
	prevEnd := DayEnd(ey, em, ed-length, start.Location())
	return prevStart, prevEnd
}

// SummarizePeriod totals [from, to] and the preceding period of equal length
// and computes their changes. It never fails: empty inputs give zero totals
// and a zero previous value gives a zero percentage.
func SummarizePeriod(payments []core.Payment, expenses []core.Expense, patients []core.Patient, appointments []core.Appointment, from, to time.Time) PeriodSummary {
	start, end := StartOfDay(from), EndOfDay(to.In(from.Location()))
	prevStart, prevEnd := PreviousPeriod(from, to)

	current := computeTotals(payments, expenses, patients, appointments, start, end)
	previous := computeTotals(payments, expenses, patients, appointments, prevStart, prevEnd)

	return PeriodSummary{
		From:         start,
		To:           end,
		PreviousFrom: prevStart,
		PreviousTo:   prevEnd,
		Current:      current,
		Previous:     previous,
		PercentageChange: Totals{
			TotalExpenses:              PercentChange(current.TotalExpenses, previous.TotalExpenses),
			TotalRevenue:               PercentChange(current.TotalRevenue, previous.TotalRevenue),
			NetIncome:                  PercentChange(current.NetIncome, previous.NetIncome),
			TotalPatients:              current.TotalPatients - previous.TotalPatients,
			TotalConfirmedAppointments: current.TotalConfirmedAppointments - previous.TotalConfirmedAppointments,
		},
	}
}

// PercentChange is (current - previous) / previous * 100 when previous is
// positive and 0 otherwise.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if !previous.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func computeTotals(payments []core.Payment, expenses []core.Expense, patients []core.Patient, appointments []core.Appointment, start, end time.Time) Totals {
	t := Totals{TotalExpenses: decimal.Zero, TotalRevenue: decimal.Zero}

	for _, e := range expenses {
		if within(e.ExpenseDate, start, end) {
			t.TotalExpenses = t.TotalExpenses.Add(e.Amount)
		}
	}
	for _, p := range payments {
		if p.IsPaid && within(p.PaymentDate, start, end) {
			t.TotalRevenue = t.TotalRevenue.Add(p.Amount)
		}
	}
	for _, p := range patients {
		if within(p.CreatedAt, start, end) {
			t.TotalPatients++
		}
	}
	for _, a := range appointments {
		if a.Status == core.Confirmed && within(a.StartTime, start, end) {
			t.TotalConfirmedAppointments++
		}
	}
	t.NetIncome = t.TotalRevenue.Sub(t.TotalExpenses)
	return t
}
