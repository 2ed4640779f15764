package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clinic/internal/analytics"
	"clinic/internal/core"
)

func juneReport(t *testing.T) analytics.FinanceReport {
	t.Helper()
	at := func(d int) time.Time { return time.Date(2024, 6, d, 10, 0, 0, 0, time.UTC) }
	ds := analytics.Dataset{
		Payments: []core.Payment{
			{ID: uuid.New(), PatientID: uuid.New(), Amount: decimal.RequireFromString("120.50"), PaymentDate: at(3), IsPaid: true},
		},
		Expenses: []core.Expense{
			{ID: uuid.New(), Amount: decimal.NewFromInt(40), ExpenseDate: at(4), Category: core.Utilities},
		},
	}
	r, err := analytics.BuildFinanceReport(context.Background(), ds, at(1), at(7), analytics.WithLocale("it"))
	require.NoError(t, err)
	return r
}

func TestTables(t *testing.T) {
	r := juneReport(t)

	series := SeriesRows(r)
	require.Len(t, series.Rows, 7)
	assert.Equal(t, "2024-06-03", series.Rows[2][1])
	assert.True(t, series.Rows[2][3].(decimal.Decimal).Equal(decimal.RequireFromString("120.50")))
	assert.True(t, series.Rows[3][5].(decimal.Decimal).Equal(decimal.NewFromInt(-40)))

	cats := CategoryRows(r, "en")
	require.Len(t, cats.Rows, len(core.ExpenseCategories()))

	summary := SummaryRows(r)
	assert.Equal(t, "2024-06-01..2024-06-07", summary.Rows[0][1])
	assert.Equal(t, "2024-05-25..2024-05-31", summary.Rows[0][2])
	assert.Len(t, Tables(r, "en"), 3)
}

func TestCell(t *testing.T) {
	assert.Equal(t, 12.35, Cell(decimal.RequireFromString("12.345")))
	assert.Equal(t, int64(3), Cell(int64(3)))
	assert.Equal(t, "x", Cell("x"))
}

func TestWriteWorkbook(t *testing.T) {
	r := juneReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, r, "en"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Series", "Categories", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Series")
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"Period", "Start", "End", "Revenue", "Expenses", "Net"}, rows[0])
	assert.Equal(t, "120.5", rows[3][3])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "Net income", summary[4][0])
}

func TestFilename(t *testing.T) {
	r := juneReport(t)
	assert.Equal(t, "finance_2024-06-01_2024-06-07.xlsx", Filename(r))
}
