// Package memtable is the reference in-memory implementation of the
// table.Table backend contract: plain Go slices for row storage, with
// shopspring/decimal used for numeric scalar aggregates so repeated
// addition of floating fractions stays exact enough for grouped sums.
package memtable

import (
	"github.com/shopspring/decimal"

	"github.com/lzmch/framequery/table"
)

// series is a slice-backed table.Series.
type series struct {
	values []any
}

// NewSeries wraps values (any of nil, bool, int64, float64,
// decimal.Decimal, string) as a table.Series.
func NewSeries(values []any) table.Series {
	return &series{values: values}
}

func (s *series) Len() int { return len(s.values) }

func (s *series) At(i int) any { return s.values[i] }

func (s *series) toDecimal(v any) (decimal.Decimal, bool) {
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

func (s *series) numericValues() []decimal.Decimal {
	var out []decimal.Decimal
	for _, v := range s.values {
		if v == nil {
			continue
		}
		if d, ok := s.toDecimal(v); ok {
			out = append(out, d)
		}
	}
	return out
}

func (s *series) Sum() any {
	nums := s.numericValues()
	if len(nums) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, d := range nums {
		total = total.Add(d)
	}
	return total
}

func (s *series) Mean() any {
	nums := s.numericValues()
	if len(nums) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, d := range nums {
		total = total.Add(d)
	}
	return total.Div(decimal.NewFromInt(int64(len(nums))))
}

func (s *series) Min() any {
	nums := s.numericValues()
	if len(nums) == 0 {
		return nil
	}
	min := nums[0]
	for _, d := range nums[1:] {
		if d.LessThan(min) {
			min = d
		}
	}
	return min
}

func (s *series) Max() any {
	nums := s.numericValues()
	if len(nums) == 0 {
		return nil
	}
	max := nums[0]
	for _, d := range nums[1:] {
		if d.GreaterThan(max) {
			max = d
		}
	}
	return max
}

func (s *series) Count() int64 {
	var n int64
	for _, v := range s.values {
		if v != nil {
			n++
		}
	}
	return n
}

func (s *series) First() any {
	for _, v := range s.values {
		if v != nil {
			return v
		}
	}
	return nil
}
