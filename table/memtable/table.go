package memtable

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lzmch/framequery/table"
)

// Table is the reference in-memory table.Table implementation: an ordered
// list of column names plus a name->Series map, all sharing one row count.
type Table struct {
	order []string
	cols  map[string]table.Series
	rows  int
}

// New constructs a Table from columns in insertion order. All series must
// share the same length.
func New(order []string, cols map[string]table.Series) (*Table, error) {
	rows := 0
	if len(order) > 0 {
		rows = cols[order[0]].Len()
	}
	for _, name := range order {
		s, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("memtable: column %q missing from data", name)
		}
		if s.Len() != rows {
			return nil, fmt.Errorf("memtable: column %q has %d rows, want %d", name, s.Len(), rows)
		}
	}
	return &Table{order: append([]string(nil), order...), cols: cols, rows: rows}, nil
}

// Dual returns the canonical 1-row, 0-column placeholder table used for
// literal-only selects with no FROM clause.
func Dual() *Table {
	return &Table{order: nil, cols: map[string]table.Series{}, rows: 1}
}

func (t *Table) Columns() []string { return append([]string(nil), t.order...) }

func (t *Table) Column(name string) (table.Series, error) {
	s, ok := t.cols[name]
	if !ok {
		return nil, table.ErrUnknownColumn{Name: name}
	}
	return s, nil
}

func (t *Table) NumRows() int { return t.rows }

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func (t *Table) Mask(mask table.Series) (table.Table, error) {
	if mask.Len() != t.rows {
		return nil, fmt.Errorf("memtable: mask has %d rows, want %d", mask.Len(), t.rows)
	}
	var keep []int
	for i := 0; i < t.rows; i++ {
		if truthy(mask.At(i)) {
			keep = append(keep, i)
		}
	}
	return t.selectRows(keep), nil
}

func (t *Table) selectRows(idx []int) *Table {
	out := &Table{order: append([]string(nil), t.order...), cols: map[string]table.Series{}, rows: len(idx)}
	for _, name := range t.order {
		src := t.cols[name]
		vals := make([]any, len(idx))
		for i, r := range idx {
			vals[i] = src.At(r)
		}
		out.cols[name] = NewSeries(vals)
	}
	return out
}

func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ad, aok := toDecimalValue(a)
	bd, bok := toDecimalValue(b)
	if aok && bok {
		return ad.Equal(bd)
	}
	return a == b
}

func toDecimalValue(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	default:
		return decimal.Decimal{}, false
	}
}

func rowKey(vals []any) string {
	s := ""
	for i, v := range vals {
		if i > 0 {
			s += "\x1f"
		}
		if d, ok := toDecimalValue(v); ok {
			s += d.String()
		} else {
			s += fmt.Sprintf("%v", v)
		}
	}
	return s
}

func (t *Table) DropDuplicates() table.Table {
	seen := map[string]bool{}
	var keep []int
	for i := 0; i < t.rows; i++ {
		vals := make([]any, len(t.order))
		for j, name := range t.order {
			vals[j] = t.cols[name].At(i)
		}
		k := rowKey(vals)
		if !seen[k] {
			seen[k] = true
			keep = append(keep, i)
		}
	}
	return t.selectRows(keep)
}

func (t *Table) ResetIndex() table.Table {
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	return t.selectRows(idx)
}

// Merge performs an equi-join keyed on the paired leftOn/rightOn column
// lists. how selects which side's unmatched rows are padded with nulls.
func (t *Table) Merge(otherT table.Table, how string, leftOn, rightOn []string) (table.Table, error) {
	other, ok := otherT.(*Table)
	if !ok {
		return nil, fmt.Errorf("memtable: Merge requires a *memtable.Table counterpart")
	}
	if len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("memtable: mismatched join key counts: %d vs %d", len(leftOn), len(rightOn))
	}
	switch how {
	case "inner", "outer", "left", "right":
	default:
		return nil, table.ErrUnknownJoinKind{How: how}
	}

	rightIndex := map[string][]int{}
	for i := 0; i < other.rows; i++ {
		vals := make([]any, len(rightOn))
		for j, name := range rightOn {
			vals[j] = other.cols[name].At(i)
		}
		k := rowKey(vals)
		rightIndex[k] = append(rightIndex[k], i)
	}

	order := append(append([]string(nil), t.order...), other.order...)
	leftVals := map[string][]any{}
	rightVals := map[string][]any{}
	for _, n := range t.order {
		leftVals[n] = nil
	}
	for _, n := range other.order {
		rightVals[n] = nil
	}

	appendRow := func(li, ri int) {
		for _, n := range t.order {
			if li < 0 {
				leftVals[n] = append(leftVals[n], nil)
			} else {
				leftVals[n] = append(leftVals[n], t.cols[n].At(li))
			}
		}
		for _, n := range other.order {
			if ri < 0 {
				rightVals[n] = append(rightVals[n], nil)
			} else {
				rightVals[n] = append(rightVals[n], other.cols[n].At(ri))
			}
		}
	}

	matchedRight := map[int]bool{}
	for li := 0; li < t.rows; li++ {
		vals := make([]any, len(leftOn))
		for j, name := range leftOn {
			vals[j] = t.cols[name].At(li)
		}
		k := rowKey(vals)
		matches := rightIndex[k]
		if len(matches) == 0 {
			if how == "left" || how == "outer" {
				appendRow(li, -1)
			}
			continue
		}
		for _, ri := range matches {
			matchedRight[ri] = true
			appendRow(li, ri)
		}
	}
	if how == "right" || how == "outer" {
		for ri := 0; ri < other.rows; ri++ {
			if !matchedRight[ri] {
				appendRow(-1, ri)
			}
		}
	}

	cols := map[string]table.Series{}
	for _, n := range order {
		if vs, ok := leftVals[n]; ok {
			cols[n] = NewSeries(vs)
		} else {
			cols[n] = NewSeries(rightVals[n])
		}
	}
	return New(order, cols)
}
