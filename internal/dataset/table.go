// Package dataset holds uploaded cell-site spreadsheets as string tables and
// implements the row filtering used by the facet filters.
package dataset

import (
	"fmt"
	"strings"
)

// Row is one data line. Index is its zero-based position in the uploaded file
// and survives filtering, so validation messages always point at the source.
type Row struct {
	Index  int
	Values []string
}

// Table is an ordered set of named string columns. Every value is kept as
// text exactly as read; nothing is coerced to numbers or nulls.
type Table struct {
	Columns []string
	Rows    []Row
	index   map[string]int
}

// New builds a table from a header and data lines. Short lines are padded
// with empty strings and long lines are truncated to the header width.
func New(columns []string, lines [][]string) *Table {
	t := &Table{Columns: columns}
	t.buildIndex()
	t.Rows = make([]Row, 0, len(lines))
	for i, line := range lines {
		values := make([]string, len(columns))
		copy(values, line)
		t.Rows = append(t.Rows, Row{Index: i, Values: values})
	}
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, exists := t.index[c]; !exists {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Has reports whether column exists.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Lookup returns the value of column in row and whether the column exists.
func (t *Table) Lookup(row Row, column string) (string, bool) {
	i, ok := t.index[column]
	if !ok {
		return "", false
	}
	return row.Values[i], true
}

// Get returns the value of column in row, or "" when the column is unknown
// or empty.
func (t *Table) Get(row Row, column string) string {
	v, _ := t.Lookup(row, column)
	return v
}

// Column returns every value of column in row order.
func (t *Table) Column(column string) ([]string, error) {
	i, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	values := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row.Values[i]
	}
	return values, nil
}

// Record returns row as a column name to value map.
func (t *Table) Record(row Row) map[string]string {
	rec := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := rec[c]; dup {
			continue
		}
		rec[c] = row.Values[i]
	}
	return rec
}

// Preview returns up to n leading rows as records.
func (t *Table) Preview(n int) []map[string]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	records := make([]map[string]string, 0, n)
	for _, row := range t.Rows[:n] {
		records = append(records, t.Record(row))
	}
	return records
}

// Clone returns a table sharing the column layout and the row values but
// owning its own row slice.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	return t.withRows(rows)
}

func (t *Table) withRows(rows []Row) *Table {
	return &Table{Columns: t.Columns, Rows: rows, index: t.index}
}

// normalizeColumn lowercases a column name and drops '_', ' ' and '-'.
func normalizeColumn(name string) string {
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(strings.ToLower(name))
}

// NormalizeColumn is exported for column matchers in other packages.
func NormalizeColumn(name string) string {
	return normalizeColumn(name)
}
