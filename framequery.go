// Package framequery is the thin public entry point wiring parse -> plan ->
// evaluate for embedding the engine in a host program.
package framequery

import (
	"fmt"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/exec"
	"github.com/lzmch/framequery/internal/logx"
	"github.com/lzmch/framequery/parser"
	"github.com/lzmch/framequery/plan"
	"github.com/lzmch/framequery/table"
)

// ErrNotASelect is returned when Execute is asked to evaluate a statement
// that does not lower to a table (COPY, DROP TABLE, CREATE TABLE AS, SHOW).
var ErrNotASelect = fmt.Errorf("framequery: statement does not produce a table")

// Option configures a call to Execute.
type Option func(*options)

type options struct {
	strict bool
	nextID exec.IDGenerator
}

// Strict enables strict-mode join evaluation: the full ON predicate is
// re-applied as a post-filter after an equi-join merge, guarding against
// stale nulls surfaced by outer joins.
func Strict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// IDGenerator overrides the default "$0", "$1", ... table id sequence,
// primarily for deterministic tests.
func IDGenerator(gen func() string) Option {
	return func(o *options) { o.nextID = gen }
}

// Execute parses sql, lowers it to a logical plan, and evaluates that plan
// against tables. Statements other than SELECT (COPY, DROP TABLE, CREATE
// TABLE AS, SHOW) are parsed but must be interpreted by the host via Parse;
// Execute only evaluates SELECT.
func Execute(sql string, tables map[string]table.Table, opts ...Option) (table.Table, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*ast.Select)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotASelect, stmt)
	}

	root, err := plan.Build(sel)
	if err != nil {
		return nil, err
	}

	ev := exec.New(tables)
	ev.Strict = o.strict
	if o.nextID != nil {
		ev.NextID = o.nextID
	}
	logx.For("framequery").WithField("sql", sql).Debug("executing query")
	return ev.Run(root)
}

// Parse exposes the statement parser directly for hosts that need to
// dispatch non-SELECT statements (COPY, DROP TABLE, CREATE TABLE AS, SHOW)
// themselves.
func Parse(sql string) (ast.Statement, error) {
	return parser.Parse(sql)
}
