package plan

import (
	"fmt"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/internal/logx"
)

// ErrUnsupported marks a construct the planner declines to lower, e.g. an
// indirect GROUP BY target.
var ErrUnsupported = fmt.Errorf("plan: unsupported construct")

// Build translates a parsed SELECT into its logical DAG.
func Build(stmt *ast.Select) (Node, error) {
	body, err := buildBody(stmt)
	if err != nil {
		return nil, err
	}
	if len(stmt.CTE) == 0 {
		return body, nil
	}
	bindings := make([]Binding, len(stmt.CTE))
	for i, cte := range stmt.CTE {
		sub, err := Build(cte.Query)
		if err != nil {
			return nil, fmt.Errorf("plan: CTE %q: %w", cte.Name, err)
		}
		bindings[i] = Binding{Name: cte.Name, Node: sub}
		logx.For("plan").WithField("cte", cte.Name).Trace("bound CTE into scope")
	}
	return DefineTables{Tables: bindings, Body: body}, nil
}

func buildBody(stmt *ast.Select) (Node, error) {
	var from Node
	if stmt.From == nil || len(stmt.From.Tables) == 0 {
		from = GetTable{Name: "dual"}
	} else {
		node, err := buildTableExpr(stmt.From.Tables[0])
		if err != nil {
			return nil, err
		}
		from = node
		for _, te := range stmt.From.Tables[1:] {
			right, err := buildTableExpr(te)
			if err != nil {
				return nil, err
			}
			from = Join{Left: from, Right: right, How: JoinInner, On: ast.Bool{Value: "true"}}
		}
	}

	if stmt.Where != nil {
		from = Filter{Input: from, Predicate: stmt.Where}
	}

	hasAgg := len(stmt.GroupBy) > 0 || columnsContainSetFunction(stmt.Columns) || (stmt.Having != nil && valueContainsSetFunction(stmt.Having))
	if !hasAgg {
		out := Node(Transform{Input: from, Columns: stmt.Columns})
		return applyTail(stmt, out), nil
	}

	var specs []aggSpec
	aggColumns := make([]ast.Column, len(stmt.GroupBy))
	for i, g := range stmt.GroupBy {
		name, ok := g.(ast.Name)
		if !ok {
			return nil, fmt.Errorf("%w: GROUP BY target must be a bare column reference", ErrUnsupported)
		}
		aggColumns[i] = ast.Column{Value: name, Alias: groupAlias(name)}
	}
	projected := make([]ast.Column, len(stmt.Columns))
	for i, c := range stmt.Columns {
		projected[i] = ast.Column{Value: rewriteAggregates(c.Value, &specs), Alias: c.Alias}
	}
	var having ast.Value
	if stmt.Having != nil {
		having = rewriteAggregates(stmt.Having, &specs)
	}
	for _, s := range specs {
		aggColumns = append(aggColumns, ast.Column{Value: s.call, Alias: s.alias})
	}

	agg := Node(Aggregate{Input: from, GroupBy: stmt.GroupBy, Columns: aggColumns})
	if having != nil {
		agg = Filter{Input: agg, Predicate: having}
	}
	out := Node(Transform{Input: agg, Columns: projected})
	return applyTail(stmt, out), nil
}

func applyTail(stmt *ast.Select, node Node) Node {
	if stmt.Quantifier == "distinct" {
		node = DropDuplicates{Input: node}
	}
	if len(stmt.OrderBy) > 0 {
		node = Order{Input: node, By: stmt.OrderBy}
	}
	if stmt.Offset != nil {
		node = Offset{Input: node, Count: stmt.Offset}
	}
	if stmt.Limit != nil {
		node = Limit{Input: node, Count: stmt.Limit}
	}
	return node
}

func groupAlias(n ast.Name) string {
	parts := n.Parts()
	return parts[len(parts)-1]
}

type aggSpec struct {
	call  ast.Value
	alias string
}

func aggKey(call ast.Value) string {
	c := call.(ast.CallSetFunction)
	key := c.Func + "|" + c.Quantifier
	for _, a := range c.Args {
		if n, ok := a.(ast.Name); ok {
			key += "|" + n.Qualified
		} else {
			key += "|?"
		}
	}
	return key
}

// rewriteAggregates replaces every CallSetFunction subexpression of v with a
// reference to a synthetic column computed by the Aggregate node, recording
// each distinct call (by function+quantifier+args) once in specs.
func rewriteAggregates(v ast.Value, specs *[]aggSpec) ast.Value {
	switch n := v.(type) {
	case ast.CallSetFunction:
		key := aggKey(n)
		for _, s := range *specs {
			if aggKey(s.call) == key {
				return ast.Name{Qualified: s.alias}
			}
		}
		alias := fmt.Sprintf("__agg_%d", len(*specs))
		*specs = append(*specs, aggSpec{call: n, alias: alias})
		return ast.Name{Qualified: alias}
	case ast.BinaryOp:
		n.Left = rewriteAggregates(n.Left, specs)
		n.Right = rewriteAggregates(n.Right, specs)
		return n
	case ast.UnaryOp:
		n.Arg = rewriteAggregates(n.Arg, specs)
		return n
	case ast.Cast:
		n.Value = rewriteAggregates(n.Value, specs)
		return n
	case ast.Call:
		args := make([]ast.Value, len(n.Args))
		for i, a := range n.Args {
			args[i] = rewriteAggregates(a, specs)
		}
		n.Args = args
		return n
	case ast.CaseExpression:
		cases := make([]ast.Case, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = ast.Case{Condition: rewriteAggregates(c.Condition, specs), Result: rewriteAggregates(c.Result, specs)}
		}
		n.Cases = cases
		if n.Else != nil {
			n.Else = rewriteAggregates(n.Else, specs)
		}
		return n
	default:
		return v
	}
}

func columnsContainSetFunction(cols []ast.Column) bool {
	for _, c := range cols {
		if valueContainsSetFunction(c.Value) {
			return true
		}
	}
	return false
}

func valueContainsSetFunction(v ast.Value) bool {
	switch n := v.(type) {
	case ast.CallSetFunction:
		return true
	case ast.CallAnalyticsFunction:
		return false
	case ast.BinaryOp:
		return valueContainsSetFunction(n.Left) || valueContainsSetFunction(n.Right)
	case ast.UnaryOp:
		return valueContainsSetFunction(n.Arg)
	case ast.Cast:
		return valueContainsSetFunction(n.Value)
	case ast.Call:
		for _, a := range n.Args {
			if valueContainsSetFunction(a) {
				return true
			}
		}
		return false
	case ast.CaseExpression:
		for _, c := range n.Cases {
			if valueContainsSetFunction(c.Condition) || valueContainsSetFunction(c.Result) {
				return true
			}
		}
		if n.Else != nil {
			return valueContainsSetFunction(n.Else)
		}
		return false
	default:
		return false
	}
}

func buildTableExpr(te ast.TableExpr) (Node, error) {
	switch t := te.(type) {
	case ast.TableRef:
		name := t.Name
		if t.Schema != "" {
			name = t.Schema + "." + t.Name
		}
		alias := t.Alias
		if alias == "" {
			alias = t.Name
		}
		return GetTable{Name: name, Alias: alias}, nil
	case ast.TableFunction:
		if len(t.Args) > 0 {
			return nil, fmt.Errorf("%w: table function %s(...) with arguments", ErrUnsupported, t.Func)
		}
		alias := t.Alias
		if alias == "" {
			alias = t.Func
		}
		return Alias{Input: GetTable{Name: t.Func}, Name: alias}, nil
	case ast.SubQuery:
		sub, err := Build(t.Query)
		if err != nil {
			return nil, err
		}
		if t.Alias == "" {
			return sub, nil
		}
		return Alias{Input: sub, Name: t.Alias}, nil
	case ast.Lateral:
		return buildTableExpr(t.Table)
	case ast.Join:
		left, err := buildTableExpr(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := buildTableExpr(t.Right)
		if err != nil {
			return nil, err
		}
		return Join{Left: left, Right: right, How: JoinHow(t.How), On: t.On}, nil
	default:
		return nil, fmt.Errorf("%w: table expression %T", ErrUnsupported, te)
	}
}
