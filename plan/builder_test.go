package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzmch/framequery/ast"
)

func name(s string) ast.Name { return ast.Name{Qualified: s} }

func TestBuildSimpleSelectIsGetTableThenTransform(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform, ok := node.(Transform)
	require.True(t, ok)
	get, ok := transform.Input.(GetTable)
	require.True(t, ok)
	assert.Equal(t, "t", get.Name)
	assert.Equal(t, "t", get.Alias)
}

func TestBuildNoFromClauseUsesDual(t *testing.T) {
	stmt := &ast.Select{Columns: []ast.Column{{Value: ast.Integer{Value: "1"}}}}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	get := transform.Input.(GetTable)
	assert.Equal(t, "dual", get.Name)
}

func TestBuildWhereWrapsFilterBeforeTransform(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
		Where:   ast.BinaryOp{Op: "=", Left: name("a"), Right: ast.Integer{Value: "1"}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	filter, ok := transform.Input.(Filter)
	require.True(t, ok)
	_, ok = filter.Input.(GetTable)
	require.True(t, ok)
}

func TestBuildMultipleFromItemsProducesImplicitInnerJoinChain(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From: &ast.FromClause{Tables: []ast.TableExpr{
			ast.TableRef{Name: "t1"},
			ast.TableRef{Name: "t2"},
		}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	join, ok := transform.Input.(Join)
	require.True(t, ok)
	assert.Equal(t, JoinInner, join.How)
	assert.Equal(t, ast.Bool{Value: "true"}, join.On)
}

func TestBuildExplicitJoinPreservesHowAndOn(t *testing.T) {
	on := ast.BinaryOp{Op: "=", Left: name("t1.id"), Right: name("t2.id")}
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From: &ast.FromClause{Tables: []ast.TableExpr{
			ast.Join{How: ast.JoinLeft, Left: ast.TableRef{Name: "t1"}, Right: ast.TableRef{Name: "t2"}, On: on},
		}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	join := transform.Input.(Join)
	assert.Equal(t, JoinLeft, join.How)
	assert.Equal(t, on, join.On)
}

func TestBuildGroupByRewritesAggregatesIntoSyntheticColumns(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{
			{Value: name("region"), Alias: "region"},
			{Value: ast.CallSetFunction{Func: "sum", Args: []ast.Value{name("amount")}}, Alias: "total"},
		},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
		GroupBy: []ast.Value{name("region")},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	agg, ok := transform.Input.(Aggregate)
	require.True(t, ok)
	require.Len(t, agg.GroupBy, 1)
	// one group-by column plus one synthetic aggregate column
	require.Len(t, agg.Columns, 2)
	assert.Equal(t, "region", agg.Columns[0].Alias)
	_, isSetFn := agg.Columns[1].Value.(ast.CallSetFunction)
	assert.True(t, isSetFn)

	// the projected "total" column now references the synthetic alias, not the call itself
	require.Len(t, transform.Columns, 2)
	ref, ok := transform.Columns[1].Value.(ast.Name)
	require.True(t, ok)
	assert.Equal(t, agg.Columns[1].Alias, ref.Qualified)
}

func TestBuildGroupByRejectsNonNameTarget(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
		GroupBy: []ast.Value{ast.Integer{Value: "1"}},
	}
	_, err := Build(stmt)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBuildHavingIsFilteredAfterAggregate(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{
			{Value: ast.CallSetFunction{Func: "sum", Args: []ast.Value{name("amount")}}, Alias: "total"},
		},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
		GroupBy: []ast.Value{name("region")},
		Having:  ast.BinaryOp{Op: ">", Left: ast.CallSetFunction{Func: "sum", Args: []ast.Value{name("amount")}}, Right: ast.Integer{Value: "10"}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	filter, ok := transform.Input.(Filter)
	require.True(t, ok)
	_, ok = filter.Input.(Aggregate)
	require.True(t, ok)

	// the HAVING predicate's SUM(amount) collapses to the same synthetic
	// alias as the projected SUM(amount), since rewriteAggregates dedupes by
	// function+quantifier+args.
	pred := filter.Predicate.(ast.BinaryOp)
	aggRef := pred.Left.(ast.Name)
	agg := filter.Input.(Aggregate)
	assert.Equal(t, agg.Columns[1].Alias, aggRef.Qualified)
}

func TestBuildDistinctOrderLimitOffsetWrapInOrder(t *testing.T) {
	stmt := &ast.Select{
		Columns:    []ast.Column{{Value: name("a")}},
		From:       &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
		Quantifier: "distinct",
		OrderBy:    []ast.OrderBy{{Value: name("a"), Order: ast.Asc}},
		Limit:      ast.Integer{Value: "10"},
		Offset:     ast.Integer{Value: "5"},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	limit, ok := node.(Limit)
	require.True(t, ok)
	offset, ok := limit.Input.(Offset)
	require.True(t, ok)
	order, ok := offset.Input.(Order)
	require.True(t, ok)
	_, ok = order.Input.(DropDuplicates)
	require.True(t, ok)
}

func TestBuildCTEWrapsBodyInDefineTables(t *testing.T) {
	cteQuery := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
	}
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "recent"}}},
		CTE:     []ast.CTE{{Name: "recent", Query: cteQuery}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	def, ok := node.(DefineTables)
	require.True(t, ok)
	require.Len(t, def.Tables, 1)
	assert.Equal(t, "recent", def.Tables[0].Name)
	_, ok = def.Tables[0].Node.(Transform)
	require.True(t, ok)
}

func TestBuildTableFunctionWithArgsIsUnsupported(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From: &ast.FromClause{Tables: []ast.TableExpr{
			ast.TableFunction{Func: "range", Args: []ast.Value{ast.Integer{Value: "10"}}},
		}},
	}
	_, err := Build(stmt)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBuildTableFunctionWithoutArgsWrapsInAlias(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From: &ast.FromClause{Tables: []ast.TableExpr{
			ast.TableFunction{Func: "dual"},
		}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	alias, ok := transform.Input.(Alias)
	require.True(t, ok)
	assert.Equal(t, "dual", alias.Name)
}

func TestBuildSubqueryInFromWrapsInAliasWhenAliased(t *testing.T) {
	inner := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.TableRef{Name: "t"}}},
	}
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.SubQuery{Query: inner, Alias: "sub"}}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	alias, ok := transform.Input.(Alias)
	require.True(t, ok)
	assert.Equal(t, "sub", alias.Name)
}

func TestBuildLateralDelegatesToUnderlyingTable(t *testing.T) {
	stmt := &ast.Select{
		Columns: []ast.Column{{Value: name("a")}},
		From:    &ast.FromClause{Tables: []ast.TableExpr{ast.Lateral{Table: ast.TableRef{Name: "t"}}}},
	}
	node, err := Build(stmt)
	require.NoError(t, err)
	transform := node.(Transform)
	_, ok := transform.Input.(GetTable)
	require.True(t, ok)
}
