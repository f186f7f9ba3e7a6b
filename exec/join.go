package exec

import (
	"strings"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/plan"
	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

func (e *Evaluator) evalJoin(n plan.Join, scope map[string]table.Table) (table.Table, map[string]string, error) {
	left, leftAliases, err := e.eval(n.Left, scope)
	if err != nil {
		return nil, nil, err
	}
	right, rightAliases, err := e.eval(n.Right, scope)
	if err != nil {
		return nil, nil, err
	}
	combined := mergeAliases(leftAliases, rightAliases)

	leftOn, rightOn, ok := extractEquiJoin(n.On, left, leftAliases, right, rightAliases)
	var merged table.Table
	if ok {
		merged, err = left.Merge(right, string(n.How), leftOn, rightOn)
		if err != nil {
			return nil, nil, err
		}
		if e.Strict {
			mask, err := e.evalSeries(n.On, frame{tbl: merged, aliases: combined})
			if err != nil {
				return nil, nil, err
			}
			merged, err = merged.Mask(mask)
			if err != nil {
				return nil, nil, err
			}
		}
	} else {
		cross, err := crossJoin(left, right)
		if err != nil {
			return nil, nil, err
		}
		mask, err := e.evalSeries(n.On, frame{tbl: cross, aliases: combined})
		if err != nil {
			return nil, nil, err
		}
		merged, err = cross.Mask(mask)
		if err != nil {
			return nil, nil, err
		}
	}
	return merged, combined, nil
}

func mergeAliases(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// extractEquiJoin recognizes on as a conjunction of equalities, each pairing
// one column resolvable against left with one resolvable against right.
func extractEquiJoin(on ast.Value, left table.Table, leftAliases map[string]string, right table.Table, rightAliases map[string]string) (leftOn, rightOn []string, ok bool) {
	leftFr := frame{tbl: left, aliases: leftAliases}
	rightFr := frame{tbl: right, aliases: rightAliases}
	for _, c := range flattenAnd(on) {
		bop, isBinOp := c.(ast.BinaryOp)
		if !isBinOp || bop.Op != "=" {
			return nil, nil, false
		}
		ln, lok := bop.Left.(ast.Name)
		rn, rok := bop.Right.(ast.Name)
		if !lok || !rok {
			return nil, nil, false
		}
		if lf, err := resolveName(ln, leftFr); err == nil {
			if rf, err := resolveName(rn, rightFr); err == nil {
				leftOn = append(leftOn, lf)
				rightOn = append(rightOn, rf)
				continue
			}
		}
		if lf, err := resolveName(rn, leftFr); err == nil {
			if rf, err := resolveName(ln, rightFr); err == nil {
				leftOn = append(leftOn, lf)
				rightOn = append(rightOn, rf)
				continue
			}
		}
		return nil, nil, false
	}
	return leftOn, rightOn, true
}

func flattenAnd(v ast.Value) []ast.Value {
	if bop, ok := v.(ast.BinaryOp); ok && strings.ToLower(bop.Op) == "and" {
		return append(flattenAnd(bop.Left), flattenAnd(bop.Right)...)
	}
	return []ast.Value{v}
}

// crossJoin builds the full cartesian product of left and right, used as
// the fallback evaluation path for non-equi joins.
func crossJoin(left, right table.Table) (table.Table, error) {
	lCols, rCols := left.Columns(), right.Columns()
	order := append(append([]string{}, lCols...), rCols...)
	lRows, rRows := left.NumRows(), right.NumRows()

	lSeries := make([]table.Series, len(lCols))
	for i, c := range lCols {
		lSeries[i], _ = left.Column(c)
	}
	rSeries := make([]table.Series, len(rCols))
	for i, c := range rCols {
		rSeries[i], _ = right.Column(c)
	}

	total := lRows * rRows
	data := make([][]any, len(order))
	for i := range data {
		data[i] = make([]any, 0, total)
	}
	for i := 0; i < lRows; i++ {
		for j := 0; j < rRows; j++ {
			for k := range lCols {
				data[k] = append(data[k], lSeries[k].At(i))
			}
			for k := range rCols {
				data[len(lCols)+k] = append(data[len(lCols)+k], rSeries[k].At(j))
			}
		}
	}
	cols := map[string]table.Series{}
	for i, name := range order {
		cols[name] = memtable.NewSeries(data[i])
	}
	return memtable.New(order, cols)
}
