// pkg/model/metadata.go
package model

import "strings"

// Row is a single record of a dataset keyed by column name
type Row map[string]interface{}

// Snapshot is a point-in-time view of tabular data (rows x named columns)
type Snapshot struct {
	Columns []string // Column names in display order
	Rows    []Row    // Row collection
}

// NewSnapshot creates a snapshot from a column list and rows
func NewSnapshot(columns []string, rows []Row) *Snapshot {
	if rows == nil {
		rows = make([]Row, 0)
	}
	return &Snapshot{
		Columns: columns,
		Rows:    rows,
	}
}

// Len returns the number of rows
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// HasColumn reports whether the snapshot carries the named column
func (s *Snapshot) HasColumn(name string) bool {
	return s.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of a column, or -1 if absent.
// Exact matches win over case-insensitive ones.
func (s *Snapshot) ColumnIndex(name string) int {
	if s == nil {
		return -1
	}
	for i, col := range s.Columns {
		if col == name {
			return i
		}
	}
	normalizedName := normalizeColumnName(name)
	for i, col := range s.Columns {
		if normalizeColumnName(col) == normalizedName {
			return i
		}
	}
	return -1
}

// Values returns the values of one column in row order
func (s *Snapshot) Values(column string) []interface{} {
	if s == nil {
		return nil
	}
	values := make([]interface{}, len(s.Rows))
	for i, row := range s.Rows {
		values[i] = row[column]
	}
	return values
}

// Clone returns a deep copy of the snapshot's column list and rows.
// Cell values are scalars and are copied by value.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	columns := make([]string, len(s.Columns))
	copy(columns, s.Columns)

	rows := make([]Row, len(s.Rows))
	for i, row := range s.Rows {
		rows[i] = row.Clone()
	}
	return &Snapshot{Columns: columns, Rows: rows}
}

// Clone copies a row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
