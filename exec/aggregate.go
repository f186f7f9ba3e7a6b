package exec

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/plan"
	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

// allowedSetFunctions is the exhaustive set of aggregate names the executor
// evaluates; everything else is a planning-time-visible but runtime error.
var allowedSetFunctions = map[string]bool{
	"SUM": true, "AVG": true, "MIN": true, "MAX": true, "COUNT": true, "FIRST_VALUE": true,
}

func (e *Evaluator) evalAggregate(n plan.Aggregate, scope map[string]table.Table) (table.Table, map[string]string, error) {
	input, aliases, err := e.eval(n.Input, scope)
	if err != nil {
		return nil, nil, err
	}
	fr := frame{tbl: input, aliases: aliases}
	id := e.NextID()

	groups, err := e.partitionGroups(n.GroupBy, fr)
	if err != nil {
		return nil, nil, err
	}

	order := make([]string, len(n.Columns))
	colVals := make([][]any, len(n.Columns))
	for ci, col := range n.Columns {
		order[ci] = id + "." + col.Alias
		vals := make([]any, len(groups))
		for gi, rows := range groups {
			v, err := e.aggColumnValue(col.Value, fr, rows)
			if err != nil {
				return nil, nil, err
			}
			vals[gi] = v
		}
		colVals[ci] = vals
	}

	cols := map[string]table.Series{}
	for i, name := range order {
		cols[name] = memtable.NewSeries(colVals[i])
	}
	out, err := memtable.New(order, cols)
	if err != nil {
		return nil, nil, err
	}
	return out, map[string]string{}, nil
}

// partitionGroups buckets row indices of fr.tbl by the composite key of
// groupBy, preserving first-occurrence group order. No GROUP BY clause
// yields exactly one group spanning every row (possibly zero rows).
func (e *Evaluator) partitionGroups(groupBy []ast.Value, fr frame) ([][]int, error) {
	n := fr.tbl.NumRows()
	if len(groupBy) == 0 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return [][]int{rows}, nil
	}
	var order []string
	byKey := map[string][]int{}
	for i := 0; i < n; i++ {
		parts := make([]any, len(groupBy))
		for gi, g := range groupBy {
			v, err := e.evalScalar(g, fr, i)
			if err != nil {
				return nil, err
			}
			parts[gi] = v
		}
		key := groupKey(parts)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], i)
	}
	groups := make([][]int, len(order))
	for i, k := range order {
		groups[i] = byKey[k]
	}
	return groups, nil
}

func groupKey(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if d, ok := toNumber(v); ok {
			b.WriteString(d.String())
		} else {
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

func (e *Evaluator) aggColumnValue(v ast.Value, fr frame, rows []int) (any, error) {
	switch n := v.(type) {
	case ast.CallSetFunction:
		return e.computeSetFunction(n, fr, rows)
	case ast.Name:
		if len(rows) == 0 {
			return nil, nil
		}
		full, err := resolveName(n, fr)
		if err != nil {
			return nil, err
		}
		col, err := fr.tbl.Column(full)
		if err != nil {
			return nil, err
		}
		return col.At(rows[0]), nil
	default:
		return nil, fmt.Errorf("%w: aggregate output expression must be a set function or bare column reference, got %T", ErrUnsupported, v)
	}
}

func (e *Evaluator) computeSetFunction(c ast.CallSetFunction, fr frame, rows []int) (any, error) {
	fn := strings.ToUpper(c.Func)
	if !allowedSetFunctions[fn] {
		return nil, fmt.Errorf("%w: unknown set function %q", ErrUnsupported, c.Func)
	}
	if c.Quantifier != "" {
		return nil, fmt.Errorf("%w: set function quantifier %q is not supported", ErrUnsupported, c.Quantifier)
	}
	if fn == "COUNT" && len(c.Args) == 0 {
		return decimal.NewFromInt(int64(len(rows))), nil
	}
	if len(c.Args) != 1 {
		return nil, fmt.Errorf("exec: %s requires exactly one argument", fn)
	}
	name, ok := c.Args[0].(ast.Name)
	if !ok {
		return nil, fmt.Errorf("%w: set function argument must be a bare column reference", ErrUnsupported)
	}
	full, err := resolveName(name, fr)
	if err != nil {
		return nil, err
	}
	col, err := fr.tbl.Column(full)
	if err != nil {
		return nil, err
	}
	sub := make([]any, len(rows))
	for i, r := range rows {
		sub[i] = col.At(r)
	}
	s := memtable.NewSeries(sub)
	switch fn {
	case "SUM":
		return s.Sum(), nil
	case "AVG":
		return s.Mean(), nil
	case "MIN":
		return s.Min(), nil
	case "MAX":
		return s.Max(), nil
	case "COUNT":
		return decimal.NewFromInt(s.Count()), nil
	case "FIRST_VALUE":
		return s.First(), nil
	default:
		return nil, fmt.Errorf("%w: unknown set function %q", ErrUnsupported, c.Func)
	}
}
