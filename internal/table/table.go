// Package table provides the row-ordered, column-addressable table that all
// pipeline stages operate on, plus CSV input/output and the append-only
// checkpoint writer used for durable per-record progress.
package table

import (
	"strings"
)

// Table is an ordered set of columns over an ordered set of rows. Row order is
// significant and preserved by every operation; stages must never reorder or
// drop rows.
type Table struct {
	columns []string
	rows    []map[string]string
}

// New returns an empty table with n pre-allocated empty rows and no columns.
func New(n int) *Table {
	rows := make([]map[string]string, n)
	for i := range rows {
		rows[i] = make(map[string]string)
	}
	return &Table{rows: rows}
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnsureColumns adds any missing columns, preserving declaration order for
// existing ones. New columns default to the empty string in every row.
func (t *Table) EnsureColumns(names ...string) {
	for _, name := range names {
		if !t.HasColumn(name) {
			t.columns = append(t.columns, name)
		}
	}
}

// Cell returns the value at (row, column). Missing columns read as "".
func (t *Table) Cell(row int, column string) string {
	if row < 0 || row >= len(t.rows) {
		return ""
	}
	return t.rows[row][column]
}

// SetCell writes a value, declaring the column if needed.
func (t *Table) SetCell(row int, column, value string) {
	if row < 0 || row >= len(t.rows) {
		return
	}
	t.EnsureColumns(column)
	t.rows[row][column] = value
}

// Row returns a copy of one row keyed by column name.
func (t *Table) Row(row int) map[string]string {
	out := make(map[string]string, len(t.columns))
	if row < 0 || row >= len(t.rows) {
		return out
	}
	for _, c := range t.columns {
		out[c] = t.rows[row][c]
	}
	return out
}

// Clone returns a deep copy sharing nothing with the receiver.
func (t *Table) Clone() *Table {
	out := New(len(t.rows))
	out.columns = make([]string, len(t.columns))
	copy(out.columns, t.columns)
	for i, row := range t.rows {
		for k, v := range row {
			out.rows[i][k] = v
		}
	}
	return out
}

// RowValues returns one row as a slice aligned with the given column order.
func (t *Table) RowValues(row int, columns []string) []string {
	out := make([]string, len(columns))
	if row < 0 || row >= len(t.rows) {
		return out
	}
	for i, c := range columns {
		out[i] = t.rows[row][c]
	}
	return out
}

// SetRow writes all values from the map into the row, declaring columns as
// needed. Keys absent from the map leave existing cells untouched.
func (t *Table) SetRow(row int, values map[string]string) {
	if row < 0 || row >= len(t.rows) {
		return
	}
	for k, v := range values {
		t.SetCell(row, k, v)
	}
}

// AppendRow adds a row at the end and returns its index.
func (t *Table) AppendRow(values map[string]string) int {
	t.rows = append(t.rows, make(map[string]string))
	idx := len(t.rows) - 1
	t.SetRow(idx, values)
	return idx
}

// IsPlaceholder reports whether a value is empty or one of the placeholder
// tokens treated as "no value" throughout the pipeline.
func IsPlaceholder(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "not specified", "unknown", "n/a", "none":
		return true
	default:
		return false
	}
}
