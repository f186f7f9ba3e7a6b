// Package plan defines the logical DAG of relational operators the planner
// builds from an AST Select and the executor evaluates against the table
// backend.
package plan

import (
	"fmt"
	"strings"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/table"
)

// Node is the marker interface implemented by every DAG node. String
// renders an EXPLAIN-style tree for diagnostics.
type Node interface {
	node()
	String() string
}

type base struct{}

func (base) node() {}

// Literal injects an already-materialized table (e.g. a CTE inlined as a
// constant, or the DUAL placeholder) into the DAG.
type Literal struct {
	base
	Table table.Table
}

func (l Literal) String() string { return fmt.Sprintf("Literal(rows=%d)", l.Table.NumRows()) }

// GetTable resolves Name against the evaluator's current scope. Name "dual"
// (case-insensitive, handled by the executor) yields the canonical 1x0
// placeholder instead of a scope lookup.
type GetTable struct {
	base
	Name  string
	Alias string
}

func (g GetTable) String() string {
	if g.Alias != "" {
		return fmt.Sprintf("GetTable(%s AS %s)", g.Name, g.Alias)
	}
	return fmt.Sprintf("GetTable(%s)", g.Name)
}

// Binding is one name->subplan pair introduced by DefineTables.
type Binding struct {
	Name string
	Node Node
}

// DefineTables introduces CTE bindings visible to Body.
type DefineTables struct {
	base
	Tables []Binding
	Body   Node
}

func (d DefineTables) String() string {
	var b strings.Builder
	b.WriteString("DefineTables(")
	for i, t := range d.Tables {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", t.Name, t.Node)
	}
	b.WriteString(") -> ")
	b.WriteString(d.Body.String())
	return b.String()
}

// Transform projects Input through Columns, producing one output column per
// entry (computed or renamed) under a freshly allocated table id.
type Transform struct {
	base
	Input   Node
	Columns []ast.Column
}

func (t Transform) String() string { return fmt.Sprintf("Transform(%s, cols=%d)", t.Input, len(t.Columns)) }

// Filter retains rows of Input where Predicate evaluates truthy.
type Filter struct {
	base
	Input     Node
	Predicate ast.Value
}

func (f Filter) String() string { return fmt.Sprintf("Filter(%s)", f.Input) }

// DropDuplicates removes exact duplicate rows from Input.
type DropDuplicates struct {
	base
	Input Node
}

func (d DropDuplicates) String() string { return fmt.Sprintf("DropDuplicates(%s)", d.Input) }

// Aggregate computes Columns (each an output column expression, which may
// be a set-function call or a bare group-by column) over Input, grouped by
// GroupBy when non-empty; a nil/empty GroupBy yields a single scalar row.
type Aggregate struct {
	base
	Input   Node
	GroupBy []ast.Value
	Columns []ast.Column
}

func (a Aggregate) String() string {
	return fmt.Sprintf("Aggregate(%s, group_by=%d, cols=%d)", a.Input, len(a.GroupBy), len(a.Columns))
}

// JoinHow mirrors ast.JoinHow in the DAG's vocabulary.
type JoinHow string

const (
	JoinInner JoinHow = "inner"
	JoinOuter JoinHow = "outer"
	JoinLeft  JoinHow = "left"
	JoinRight JoinHow = "right"
)

// Join pairs Left and Right under How, filtered by On.
type Join struct {
	base
	Left  Node
	Right Node
	How   JoinHow
	On    ast.Value
}

func (j Join) String() string { return fmt.Sprintf("Join(%s, %s %s)", j.Left, j.How, j.Right) }

// Alias rebinds Input under Name for qualified column resolution, used for
// FROM-clause subqueries, table functions and LATERAL items that carry an
// alias the underlying node doesn't already know about.
type Alias struct {
	base
	Input Node
	Name  string
}

func (a Alias) String() string { return fmt.Sprintf("Alias(%s AS %s)", a.Input, a.Name) }

// Order imposes a total row order over Input per By; ties preserve Input's
// row order.
type Order struct {
	base
	Input Node
	By    []ast.OrderBy
}

func (o Order) String() string { return fmt.Sprintf("Order(%s, by=%d)", o.Input, len(o.By)) }

// Limit caps Input to at most Count rows.
type Limit struct {
	base
	Input Node
	Count ast.Value
}

func (l Limit) String() string { return fmt.Sprintf("Limit(%s)", l.Input) }

// Offset skips the first Count rows of Input.
type Offset struct {
	base
	Input Node
	Count ast.Value
}

func (o Offset) String() string { return fmt.Sprintf("Offset(%s)", o.Input) }
