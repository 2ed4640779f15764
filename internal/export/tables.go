// Package export renders a finance report as tabular data for spreadsheet
// sinks: an XLSX workbook for download and Google Sheets for sharing.
package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"clinic/internal/analytics"
	"clinic/internal/locale"
)

// Table is one titled block of a report. Money cells hold decimal.Decimal,
// counts hold int64 and everything else is a string.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// SeriesRows lists one row per bucket.
func SeriesRows(r analytics.FinanceReport) Table {
	t := Table{
		Name:   "Series",
		Header: []string{"Period", "Start", "End", "Revenue", "Expenses", "Net"},
	}
	for _, p := range r.Series {
		t.Rows = append(t.Rows, []any{
			p.Label,
			p.Bucket.Start.Format(time.DateOnly),
			p.Bucket.End.Format(time.DateOnly),
			p.RevenueTotal,
			p.ExpenseTotal,
			p.RevenueTotal.Sub(p.ExpenseTotal),
		})
	}
	return t
}

// CategoryRows lists every category with its localized label, including
// zero totals.
func CategoryRows(r analytics.FinanceReport, tag string) Table {
	t := Table{
		Name:   "Categories",
		Header: []string{"Category", "Total"},
	}
	for _, c := range r.Categories {
		t.Rows = append(t.Rows, []any{locale.CategoryLabel(tag, c.Category), c.Total})
	}
	return t
}

// SummaryRows compares the report period with the previous one. Money
// changes are percentages; patient and appointment changes are absolute.
func SummaryRows(r analytics.FinanceReport) Table {
	s := r.Summary
	return Table{
		Name:   "Summary",
		Header: []string{"Metric", "Current", "Previous", "Change"},
		Rows: [][]any{
			{"Period", dateSpan(s.From, s.To), dateSpan(s.PreviousFrom, s.PreviousTo), ""},
			{"Total revenue", s.Current.TotalRevenue, s.Previous.TotalRevenue, s.PercentageChange.TotalRevenue},
			{"Total expenses", s.Current.TotalExpenses, s.Previous.TotalExpenses, s.PercentageChange.TotalExpenses},
			{"Net income", s.Current.NetIncome, s.Previous.NetIncome, s.PercentageChange.NetIncome},
			{"Patients", s.Current.TotalPatients, s.Previous.TotalPatients, s.PercentageChange.TotalPatients},
			{"Confirmed appointments", s.Current.TotalConfirmedAppointments, s.Previous.TotalConfirmedAppointments, s.PercentageChange.TotalConfirmedAppointments},
		},
	}
}

// Tables returns the series, category and summary tables in display order.
func Tables(r analytics.FinanceReport, tag string) []Table {
	return []Table{SeriesRows(r), CategoryRows(r, tag), SummaryRows(r)}
}

// Filename is the download name of the report workbook.
func Filename(r analytics.FinanceReport) string {
	return fmt.Sprintf("finance_%s_%s.xlsx", r.From.Format(time.DateOnly), r.To.Format(time.DateOnly))
}

func dateSpan(from, to time.Time) string {
	return from.Format(time.DateOnly) + ".." + to.Format(time.DateOnly)
}

// Cell converts a table value for sinks that want plain numbers: decimals
// become float64 rounded to cents.
func Cell(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.Round(2).InexactFloat64()
	}
	return v
}
