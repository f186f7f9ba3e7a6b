// Package table defines the column-oriented backend contract the executor
// evaluates DAG nodes against, and the Series value type columns are made
// of. Package memtable supplies the reference in-memory implementation.
package table

import "fmt"

// Series is an ordered, indexable column of scalar values. Scalars are one
// of nil, bool, int64, float64, decimal.Decimal (github.com/shopspring/decimal)
// or string; callers normalize before constructing a Series.
type Series interface {
	Len() int
	At(i int) any

	// Sum, Mean, Min, Max, Count, First are the backend's scalar aggregates.
	// All but Count null-skip; Count counts non-null values.
	Sum() any
	Mean() any
	Min() any
	Max() any
	Count() int64
	First() any
}

// Table is the backend contract: a relation whose columns are addressed by
// their full "table_id.col_id" name.
type Table interface {
	// Columns lists full column names in construction order.
	Columns() []string
	// Column returns the named column's series.
	Column(name string) (Series, error)
	// NumRows reports the row count (1 for DUAL).
	NumRows() int

	// Mask retains rows where mask is truthy, preserving the column set.
	Mask(mask Series) (Table, error)
	// DropDuplicates removes exact duplicate rows, preserving the column set.
	DropDuplicates() Table
	// Merge performs an equi-join against other on the paired key lists.
	// how is one of "inner", "outer", "left", "right". The result's column
	// set is the union of both inputs' columns.
	Merge(other Table, how string, leftOn, rightOn []string) (Table, error)
	// ResetIndex produces a table with canonical row positions.
	ResetIndex() Table
}

// ErrUnknownColumn is returned by Column when name is not present.
type ErrUnknownColumn struct{ Name string }

func (e ErrUnknownColumn) Error() string { return fmt.Sprintf("unknown column %q", e.Name) }

// ErrUnknownJoinKind is returned by Merge for an unrecognized how value.
type ErrUnknownJoinKind struct{ How string }

func (e ErrUnknownJoinKind) Error() string { return fmt.Sprintf("unknown join kind %q", e.How) }
