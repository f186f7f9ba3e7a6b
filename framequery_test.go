package framequery

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzmch/framequery/ast"
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

func employeesTable(t *testing.T) map[string]table.Table {
	t.Helper()
	tbl, err := memtable.New([]string{"id", "name", "dept"}, map[string]table.Series{
		"id":   memtable.NewSeries([]any{dec("1"), dec("2"), dec("3")}),
		"name": memtable.NewSeries([]any{"alice", "bob", "carol"}),
		"dept": memtable.NewSeries([]any{"eng", "eng", "sales"}),
	})
	require.NoError(t, err)
	return map[string]table.Table{"employees": tbl}
}

func TestExecuteSimpleProjectionAndFilter(t *testing.T) {
	out, err := Execute("SELECT name FROM employees WHERE dept = 'eng'", employeesTable(t))
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestExecuteGroupByAggregation(t *testing.T) {
	out, err := Execute("SELECT dept, COUNT(*) AS n FROM employees GROUP BY dept ORDER BY dept", employeesTable(t))
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
	dept, err := out.Column(out.Columns()[0])
	require.NoError(t, err)
	assert.Equal(t, "eng", dept.At(0))
	assert.Equal(t, "sales", dept.At(1))
}

func TestExecuteWithCustomIDGenerator(t *testing.T) {
	n := 0
	gen := func() string {
		id := []string{"t0", "t1", "t2"}[n]
		n++
		return id
	}
	out, err := Execute("SELECT id FROM employees", employeesTable(t), IDGenerator(gen))
	require.NoError(t, err)
	// GetTable consumes "t0" first, then Transform allocates its own "t1".
	assert.Equal(t, []string{"t1.id"}, out.Columns())
}

func TestExecuteStrictModeAffectsJoinNullHandling(t *testing.T) {
	left, err := memtable.New([]string{"id"}, map[string]table.Series{"id": memtable.NewSeries([]any{nil})})
	require.NoError(t, err)
	right, err := memtable.New([]string{"id"}, map[string]table.Series{"id": memtable.NewSeries([]any{nil})})
	require.NoError(t, err)
	tables := map[string]table.Table{"a": left, "b": right}

	loose, err := Execute("SELECT a.id FROM a JOIN b ON a.id = b.id", tables)
	require.NoError(t, err)
	assert.Equal(t, 1, loose.NumRows())

	strict, err := Execute("SELECT a.id FROM a JOIN b ON a.id = b.id", tables, Strict(true))
	require.NoError(t, err)
	assert.Equal(t, 0, strict.NumRows())
}

func TestExecuteNonSelectStatementFails(t *testing.T) {
	_, err := Execute("DROP TABLE employees", employeesTable(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotASelect)
}

func TestExecutePropagatesParseErrors(t *testing.T) {
	_, err := Execute("SELECT FROM", employeesTable(t))
	assert.Error(t, err)
}

func TestParseReexportsNonSelectStatements(t *testing.T) {
	stmt, err := Parse("COPY employees TO '/tmp/out.csv'")
	require.NoError(t, err)
	_, ok := stmt.(*ast.CopyTo)
	assert.True(t, ok)
}
