// Package exec evaluates a plan.Node DAG against a scope of backend tables,
// dispatching per node kind with a type switch rather than the reflective
// evaluate_<kind> lookup an interpreter might otherwise reach for.
package exec

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/internal/logx"
	"github.com/lzmch/framequery/plan"
	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

// ErrUnknownTable is returned when a GetTable node names a table absent
// from scope.
var ErrUnknownTable = fmt.Errorf("exec: unknown table")

// ErrUnsupported marks a DAG or expression shape the executor declines to
// evaluate (e.g. a scalar subquery, or analytics OVER evaluation).
var ErrUnsupported = fmt.Errorf("exec: unsupported construct")

// IDGenerator yields fresh table ids, in order, for one Evaluator's
// lifetime. The default produces "$0", "$1", ....
type IDGenerator func() string

// DefaultIDGenerator returns a monotonic "$0", "$1", ... generator.
func DefaultIDGenerator() IDGenerator {
	n := 0
	return func() string {
		id := fmt.Sprintf("$%d", n)
		n++
		return id
	}
}

// Evaluator holds the state threaded through one query's evaluation: its
// scope of named tables, id generator and strictness flag. Create a fresh
// Evaluator per query; none of its state is safe to share across queries.
type Evaluator struct {
	Scope  map[string]table.Table
	NextID IDGenerator
	Strict bool

	queryID string
}

// New constructs an Evaluator over the given table scope.
func New(scope map[string]table.Table) *Evaluator {
	return &Evaluator{Scope: scope, NextID: DefaultIDGenerator()}
}

// frame pairs a materialized table with the alias->table_id bindings in
// scope while evaluating expressions against it.
type frame struct {
	tbl     table.Table
	aliases map[string]string
}

// Run evaluates root to a result table.
func (e *Evaluator) Run(root plan.Node) (table.Table, error) {
	if e.NextID == nil {
		e.NextID = DefaultIDGenerator()
	}
	e.queryID = uuid.NewString()
	log := logx.For("exec").WithField("query_id", e.queryID)
	log.WithField("plan", root.String()).Debug("evaluating plan")
	tbl, _, err := e.eval(root, e.Scope)
	if err != nil {
		log.WithError(err).Warn("evaluation failed")
		return nil, err
	}
	log.Debug("evaluation complete")
	return tbl, nil
}

func (e *Evaluator) eval(node plan.Node, scope map[string]table.Table) (table.Table, map[string]string, error) {
	switch n := node.(type) {
	case plan.Literal:
		return n.Table, map[string]string{}, nil

	case plan.GetTable:
		return e.evalGetTable(n, scope)

	case plan.Alias:
		tbl, _, err := e.eval(n.Input, scope)
		if err != nil {
			return nil, nil, err
		}
		id, ok := soleTableID(tbl)
		if !ok {
			id = e.NextID()
			var err error
			tbl, err = rebrand(tbl, id)
			if err != nil {
				return nil, nil, err
			}
		}
		return tbl, map[string]string{n.Name: id}, nil

	case plan.DefineTables:
		derived := make(map[string]table.Table, len(scope)+len(n.Tables))
		for k, v := range scope {
			derived[k] = v
		}
		for _, b := range n.Tables {
			sub, _, err := e.eval(b.Node, derived)
			if err != nil {
				return nil, nil, fmt.Errorf("exec: CTE %q: %w", b.Name, err)
			}
			derived[b.Name] = sub
		}
		return e.eval(n.Body, derived)

	case plan.Transform:
		return e.evalTransform(n, scope)

	case plan.Filter:
		input, aliases, err := e.eval(n.Input, scope)
		if err != nil {
			return nil, nil, err
		}
		fr := frame{tbl: input, aliases: aliases}
		mask, err := e.evalSeries(n.Predicate, fr)
		if err != nil {
			return nil, nil, err
		}
		out, err := input.Mask(mask)
		if err != nil {
			return nil, nil, err
		}
		return out, aliases, nil

	case plan.DropDuplicates:
		input, aliases, err := e.eval(n.Input, scope)
		if err != nil {
			return nil, nil, err
		}
		return input.DropDuplicates(), aliases, nil

	case plan.Aggregate:
		return e.evalAggregate(n, scope)

	case plan.Join:
		return e.evalJoin(n, scope)

	case plan.Order:
		input, aliases, err := e.eval(n.Input, scope)
		if err != nil {
			return nil, nil, err
		}
		out, err := e.applyOrder(input, aliases, n.By)
		if err != nil {
			return nil, nil, err
		}
		return out, aliases, nil

	case plan.Limit:
		input, aliases, err := e.eval(n.Input, scope)
		if err != nil {
			return nil, nil, err
		}
		fr := frame{tbl: input, aliases: aliases}
		count, err := e.evalScalarConst(n.Count, fr)
		if err != nil {
			return nil, nil, err
		}
		k := int(count)
		if k < 0 {
			k = 0
		}
		if k > input.NumRows() {
			k = input.NumRows()
		}
		out := sliceRows(input, 0, k)
		return out, aliases, nil

	case plan.Offset:
		input, aliases, err := e.eval(n.Input, scope)
		if err != nil {
			return nil, nil, err
		}
		fr := frame{tbl: input, aliases: aliases}
		count, err := e.evalScalarConst(n.Count, fr)
		if err != nil {
			return nil, nil, err
		}
		k := int(count)
		if k < 0 {
			k = 0
		}
		if k > input.NumRows() {
			k = input.NumRows()
		}
		out := sliceRows(input, k, input.NumRows())
		return out, aliases, nil

	default:
		return nil, nil, fmt.Errorf("%w: DAG node %T", ErrUnsupported, node)
	}
}

func (e *Evaluator) evalGetTable(n plan.GetTable, scope map[string]table.Table) (table.Table, map[string]string, error) {
	var src table.Table
	if strings.EqualFold(n.Name, "dual") {
		src = memtable.Dual()
	} else {
		t, ok := scope[n.Name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTable, n.Name)
		}
		src = t
	}
	id := e.NextID()
	out, err := rebrand(src, id)
	if err != nil {
		return nil, nil, err
	}
	alias := n.Alias
	if alias == "" {
		alias = n.Name
	}
	return out, map[string]string{alias: id}, nil
}

func (e *Evaluator) evalTransform(n plan.Transform, scope map[string]table.Table) (table.Table, map[string]string, error) {
	input, aliases, err := e.eval(n.Input, scope)
	if err != nil {
		return nil, nil, err
	}
	fr := frame{tbl: input, aliases: aliases}
	id := e.NextID()

	var order []string
	cols := map[string]table.Series{}
	seen := map[string]int{}
	add := func(colID string, s table.Series) {
		if _, dup := seen[colID]; dup {
			seen[colID]++
			colID = fmt.Sprintf("%s_%d", colID, seen[colID])
		} else {
			seen[colID] = 0
		}
		full := id + "." + colID
		order = append(order, full)
		cols[full] = s
	}

	for i, col := range n.Columns {
		if wc, ok := col.Value.(ast.WildCard); ok {
			for _, full := range input.Columns() {
				if wc.Table != "" {
					tid, known := aliases[wc.Table]
					if !known || colPrefix(full) != tid {
						continue
					}
				}
				s, _ := input.Column(full)
				add(colSuffix(full), s)
			}
			continue
		}
		s, err := e.evalSeries(col.Value, fr)
		if err != nil {
			return nil, nil, err
		}
		colID := col.Alias
		if colID == "" {
			if nm, ok := col.Value.(ast.Name); ok {
				parts := nm.Parts()
				colID = parts[len(parts)-1]
			}
		}
		if colID == "" {
			colID = fmt.Sprintf("col_%d", i)
		}
		add(colID, s)
	}

	out, err := memtable.New(order, cols)
	if err != nil {
		return nil, nil, err
	}
	return out, map[string]string{}, nil
}

func sliceRows(t table.Table, lo, hi int) table.Table {
	idx := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		idx = append(idx, i)
	}
	return selectIndices(t, idx)
}

// selectIndices builds a new table containing only the given row indices,
// in the given order, from any table.Table.
func selectIndices(t table.Table, idx []int) table.Table {
	order := t.Columns()
	cols := map[string]table.Series{}
	for _, name := range order {
		src, _ := t.Column(name)
		vals := make([]any, len(idx))
		for i, r := range idx {
			vals[i] = src.At(r)
		}
		cols[name] = memtable.NewSeries(vals)
	}
	out, _ := memtable.New(order, cols)
	return out
}

func colSuffix(full string) string {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[i+1:]
	}
	return full
}

func colPrefix(full string) string {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[:i]
	}
	return ""
}

// rebrand rewrites every column of t to "id.<suffix>", preserving order.
func rebrand(t table.Table, id string) (table.Table, error) {
	order := t.Columns()
	cols := map[string]table.Series{}
	renamed := make([]string, len(order))
	for i, name := range order {
		s, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		full := id + "." + colSuffix(name)
		renamed[i] = full
		cols[full] = s
	}
	return memtable.New(renamed, cols)
}

// soleTableID reports the common table_id prefix of t's columns, if all
// columns share exactly one.
func soleTableID(t table.Table) (string, bool) {
	cols := t.Columns()
	if len(cols) == 0 {
		return "", false
	}
	id := colPrefix(cols[0])
	for _, c := range cols[1:] {
		if colPrefix(c) != id {
			return "", false
		}
	}
	return id, true
}
