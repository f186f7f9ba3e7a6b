// Package ast defines the tagged AST node set produced by the parser. Every
// node is constructed once and treated as an immutable value thereafter.
package ast

// Node is the marker interface implemented by every AST node.
type Node interface {
	astNode()
}

// Value is an expression-producing node.
type Value interface {
	Node
	astValue()
}

// Statement is a top-level parsed construct.
type Statement interface {
	Node
	astStatement()
}

type base struct{}

func (base) astNode() {}

type valueBase struct{ base }

func (valueBase) astValue() {}

// ---- literals ----

type Null struct{ valueBase }

type Integer struct {
	valueBase
	Value string
}

type Float struct {
	valueBase
	Value string
}

type Bool struct {
	valueBase
	Value string
}

// String is a quoted string literal; Value retains the surrounding quotes.
type String struct {
	valueBase
	Value string
}

// Name is a dotted identifier, up to three parts (e.g. schema.table.column).
type Name struct {
	valueBase
	Qualified string
}

// Parts splits a qualified name on '.'.
func (n Name) Parts() []string {
	return splitDots(n.Qualified)
}

func splitDots(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// ---- operators and calls ----

type BinaryOp struct {
	valueBase
	Op    string
	Left  Value
	Right Value
}

type UnaryOp struct {
	valueBase
	Op  string
	Arg Value
}

type Call struct {
	valueBase
	Func string
	Args []Value
}

// CallSetFunction is an aggregate function call, e.g. SUM(x), COUNT(DISTINCT x).
type CallSetFunction struct {
	valueBase
	Func       string
	Quantifier string // "", "distinct", or "all"
	Args       []Value
}

// CallAnalyticsFunction wraps a call with an OVER (...) window clause.
type CallAnalyticsFunction struct {
	valueBase
	Call         Value
	PartitionBy  []Value
	OrderByItems []OrderBy
}

// Case is one WHEN condition THEN result arm of a CaseExpression.
type Case struct {
	base
	Condition Value
	Result    Value
}

type CaseExpression struct {
	valueBase
	Cases []Case
	Else  Value // nil if absent
}

type Cast struct {
	valueBase
	Value Value
	Type  string
}

// WildCard is `*` or `table.*`.
type WildCard struct {
	valueBase
	Table string // "" if unqualified
}

// Column is one item of a select list: an expression plus optional alias.
type Column struct {
	base
	Value Value
	Alias string // "" if absent
}

// ---- table references ----

type TableExpr interface {
	Node
	astTable()
}

type tableBase struct{ base }

func (tableBase) astTable() {}

type TableRef struct {
	tableBase
	Schema string // "" if absent
	Name   string
	Alias  string // "" if absent
}

type TableFunction struct {
	tableBase
	Func  string
	Args  []Value
	Alias string
}

type SubQuery struct {
	tableBase
	Query *Select
	Alias string
}

type Lateral struct {
	tableBase
	Table TableExpr
}

// JoinHow enumerates join kinds.
type JoinHow string

const (
	JoinInner JoinHow = "inner"
	JoinOuter JoinHow = "outer"
	JoinLeft  JoinHow = "left"
	JoinRight JoinHow = "right"
)

type Join struct {
	tableBase
	How   JoinHow
	Left  TableExpr // nil when this is the base of a join chain
	Right TableExpr
	On    Value
}

type FromClause struct {
	base
	Tables []TableExpr
}

// ---- ordering, CTEs, select ----

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

type OrderBy struct {
	base
	Value Value
	Order SortOrder
}

// CTE binds a name to a subquery for WITH name AS (select).
type CTE struct {
	base
	Name  string
	Query *Select
}

type Select struct {
	base
	CTE             []CTE
	Quantifier      string // "", "distinct", or "all"
	Columns         []Column
	From            *FromClause
	Where           Value
	GroupBy         []Value
	Having          Value
	OrderBy         []OrderBy
	Limit           Value
	Offset          Value
}

func (*Select) astStatement() {}

// ---- admin statements ----

type CopyFrom struct {
	base
	Table   string
	Path    string
	Options map[string]string
}

func (*CopyFrom) astStatement() {}

type CopyTo struct {
	base
	Table   string
	Path    string
	Options map[string]string
}

func (*CopyTo) astStatement() {}

type DropTable struct {
	base
	Tables []string
}

func (*DropTable) astStatement() {}

type CreateTableAs struct {
	base
	Table string
	Query *Select
}

func (*CreateTableAs) astStatement() {}

// Show captures the remaining token tail verbatim.
type Show struct {
	base
	Tail string
}

func (*Show) astStatement() {}
