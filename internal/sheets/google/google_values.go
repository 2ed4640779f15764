package google

import (
	"fmt"
	"strings"
	"time"

	"clinic/internal/export"
)

// reportValues stacks tables vertically: a title row, the header, the rows
// and one blank separator row between tables.
func reportValues(tables []export.Table) [][]interface{} {
	var out [][]interface{}
	for i, t := range tables {
		if i > 0 {
			out = append(out, []interface{}{})
		}
		out = append(out, []interface{}{t.Name})
		header := make([]interface{}, len(t.Header))
		for j, h := range t.Header {
			header[j] = h
		}
		out = append(out, header)
		for _, row := range t.Rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = export.Cell(v)
			}
			out = append(out, cells)
		}
	}
	return out
}

func width(values [][]interface{}) int {
	w := 1
	for _, row := range values {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// columnName converts a 1-based column index to its A1 letters.
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

// periodSheetName returns "<base> <from>..<to>", or "<base> <yyyy-mm>" when
// the range is exactly one calendar month.
func periodSheetName(base string, from, to time.Time) string {
	base = strings.TrimSpace(base)
	y, m, d := from.Date()
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, from.Location())
	ty, tm, td := to.Date()
	if d == 1 && ty == y && tm == m && td == last.Day() {
		return fmt.Sprintf("%s %04d-%02d", base, y, int(m))
	}
	return fmt.Sprintf("%s %s..%s", base, from.Format(time.DateOnly), to.Format(time.DateOnly))
}
