package exec

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/plan"
	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func name(s string) ast.Name { return ast.Name{Qualified: s} }

func peopleScope(t *testing.T) map[string]table.Table {
	t.Helper()
	tbl, err := memtable.New([]string{"t.id", "t.name"}, map[string]table.Series{
		"t.id":   memtable.NewSeries([]any{dec("1"), dec("2"), dec("3")}),
		"t.name": memtable.NewSeries([]any{"alice", "bob", "carol"}),
	})
	require.NoError(t, err)
	return map[string]table.Table{"t": tbl}
}

func TestRunGetTableReturnsRebrandedTable(t *testing.T) {
	e := New(peopleScope(t))
	out, err := e.Run(plan.GetTable{Name: "t"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())
	assert.Equal(t, []string{"$0.id", "$0.name"}, out.Columns())
}

func TestRunGetTableUnknownNameFails(t *testing.T) {
	e := New(peopleScope(t))
	_, err := e.Run(plan.GetTable{Name: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestRunGetTableDualIsOneRowZeroColumns(t *testing.T) {
	e := New(map[string]table.Table{})
	out, err := e.Run(plan.GetTable{Name: "dual"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())
}

func TestRunTransformProjectsComputedAndRenamedColumns(t *testing.T) {
	e := New(peopleScope(t))
	root := plan.Transform{
		Input: plan.GetTable{Name: "t"},
		Columns: []ast.Column{
			{Value: name("name"), Alias: "who"},
			{Value: ast.BinaryOp{Op: "*", Left: name("id"), Right: ast.Integer{Value: "10"}}, Alias: "id10"},
		},
	}
	out, err := e.Run(root)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())
	who, err := out.Column("$1.who")
	require.NoError(t, err)
	assert.Equal(t, "alice", who.At(0))
	id10, err := out.Column("$1.id10")
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(id10.At(0).(decimal.Decimal)))
}

func TestRunTransformWildcardExpandsAllColumns(t *testing.T) {
	e := New(peopleScope(t))
	root := plan.Transform{
		Input:   plan.GetTable{Name: "t"},
		Columns: []ast.Column{{Value: ast.WildCard{}}},
	}
	out, err := e.Run(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"$1.id", "$1.name"}, out.Columns())
}

func TestRunFilterKeepsOnlyTruthyRows(t *testing.T) {
	e := New(peopleScope(t))
	root := plan.Filter{
		Input:     plan.GetTable{Name: "t"},
		Predicate: ast.BinaryOp{Op: ">", Left: name("id"), Right: ast.Integer{Value: "1"}},
	}
	out, err := e.Run(root)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestRunOrderLimitOffset(t *testing.T) {
	e := New(peopleScope(t))
	ordered := plan.Order{
		Input: plan.GetTable{Name: "t"},
		By:    []ast.OrderBy{{Value: name("id"), Order: ast.Desc}},
	}
	out, err := e.Run(ordered)
	require.NoError(t, err)
	idCol, _ := out.Column("$0.id")
	assert.True(t, dec("3").Equal(idCol.At(0).(decimal.Decimal)))

	limited := plan.Limit{Input: plan.GetTable{Name: "t"}, Count: ast.Integer{Value: "2"}}
	out, err = e.Run(limited)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())

	offset := plan.Offset{Input: plan.GetTable{Name: "t"}, Count: ast.Integer{Value: "1"}}
	out, err = e.Run(offset)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestRunDropDuplicates(t *testing.T) {
	tbl, err := memtable.New([]string{"t.a"}, map[string]table.Series{
		"t.a": memtable.NewSeries([]any{dec("1"), dec("1"), dec("2")}),
	})
	require.NoError(t, err)
	e := New(map[string]table.Table{"t": tbl})
	out, err := e.Run(plan.DropDuplicates{Input: plan.GetTable{Name: "t"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestRunDefineTablesBindsCTEIntoScope(t *testing.T) {
	e := New(peopleScope(t))
	root := plan.DefineTables{
		Tables: []plan.Binding{{Name: "recent", Node: plan.GetTable{Name: "t"}}},
		Body:   plan.GetTable{Name: "recent"},
	}
	out, err := e.Run(root)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())
}

func TestRunAliasRebindsWhenInputHasMultipleTableIDs(t *testing.T) {
	e := New(peopleScope(t))
	joined := plan.Join{
		Left:  plan.GetTable{Name: "t"},
		Right: plan.GetTable{Name: "t"},
		How:   plan.JoinInner,
		On:    ast.BinaryOp{Op: "=", Left: name("t.id"), Right: ast.Integer{Value: "1"}},
	}
	root := plan.Alias{Input: joined, Name: "combined"}
	out, err := e.Run(root)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Columns())
}

