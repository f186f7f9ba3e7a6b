package exec

import (
	"sort"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/table"
)

// applyOrder imposes a total order over t per by, breaking ties by t's
// existing row order (sort.SliceStable).
func (e *Evaluator) applyOrder(t table.Table, aliases map[string]string, by []ast.OrderBy) (table.Table, error) {
	n := t.NumRows()
	fr := frame{tbl: t, aliases: aliases}
	keys := make([][]any, len(by))
	for i, ob := range by {
		s, err := e.evalSeries(ob.Value, fr)
		if err != nil {
			return nil, err
		}
		vals := make([]any, n)
		for r := 0; r < n; r++ {
			vals[r] = s.At(r)
		}
		keys[i] = vals
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := idx[a], idx[b]
		for k, ob := range by {
			cmp := compareValues(keys[k][ra], keys[k][rb])
			if cmp == 0 {
				continue
			}
			if ob.Order == ast.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return selectIndices(t, idx), nil
}

// compareValues orders nulls last, then compares numerically or as strings.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	if ad, aok := toNumber(a); aok {
		if bd, bok := toNumber(b); bok {
			return ad.Cmp(bd)
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		if ab == bb {
			return 0
		}
		if !ab && bb {
			return -1
		}
		return 1
	}
	return 0
}
