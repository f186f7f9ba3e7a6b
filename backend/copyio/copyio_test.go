package copyio

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

func sqliteDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func seedTable(t *testing.T, dsn string) {
	t.Helper()
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE people (id INTEGER, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO people (id, name) VALUES (1, 'alice'), (2, 'bob')`)
	require.NoError(t, err)
}

func TestOpenRejectsUnsupportedDriver(t *testing.T) {
	_, err := Open(Driver("oracle"), "whatever")
	assert.Error(t, err)
}

func TestOpenSQLiteSucceeds(t *testing.T) {
	db, err := Open(SQLite, sqliteDSN(t))
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Ping())
}

func TestCopyFromRequiresDriverAndDSNOptions(t *testing.T) {
	_, err := CopyFrom(context.Background(), &ast.CopyFrom{Table: "people", Path: "people", Options: map[string]string{}})
	require.Error(t, err)
	var missing ErrMissingOption
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "driver", missing.Name)

	_, err = CopyFrom(context.Background(), &ast.CopyFrom{Table: "people", Path: "people", Options: map[string]string{"driver": "sqlite3"}})
	require.Error(t, err)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "dsn", missing.Name)
}

func TestCopyFromMaterializesQueryResultAsTable(t *testing.T) {
	dsn := sqliteDSN(t)
	seedTable(t, dsn)

	stmt := &ast.CopyFrom{
		Table:   "people",
		Path:    "people",
		Options: map[string]string{"driver": "sqlite3", "dsn": dsn},
	}
	out, err := CopyFrom(context.Background(), stmt)
	require.NoError(t, err)
	assert.Equal(t, []string{"copy.id", "copy.name"}, out.Columns())
	assert.Equal(t, 2, out.NumRows())
	name, err := out.Column("copy.name")
	require.NoError(t, err)
	assert.Equal(t, "alice", name.At(0))
}

func TestCopyToInsertsTableRows(t *testing.T) {
	dsn := sqliteDSN(t)
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE out_people (id INTEGER, name TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	data, err := memtable.New([]string{"copy.id", "copy.name"}, map[string]table.Series{
		"copy.id":   memtable.NewSeries([]any{int64(1), int64(2)}),
		"copy.name": memtable.NewSeries([]any{"carol", "dave"}),
	})
	require.NoError(t, err)

	stmt := &ast.CopyTo{
		Table:   "out_people",
		Path:    "out_people",
		Options: map[string]string{"driver": "sqlite3", "dsn": dsn},
	}
	err = CopyTo(context.Background(), stmt, data)
	require.NoError(t, err)

	verify, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer verify.Close()
	var count int
	require.NoError(t, verify.QueryRow(`SELECT COUNT(*) FROM out_people`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestCopyToNoRowsIsANoOp(t *testing.T) {
	dsn := sqliteDSN(t)
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE empty_out (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	data, err := memtable.New([]string{"copy.id"}, map[string]table.Series{"copy.id": memtable.NewSeries(nil)})
	require.NoError(t, err)

	stmt := &ast.CopyTo{Table: "empty_out", Path: "empty_out", Options: map[string]string{"driver": "sqlite3", "dsn": dsn}}
	err = CopyTo(context.Background(), stmt, data)
	assert.NoError(t, err)
}

func TestColShortNameStripsTablePrefix(t *testing.T) {
	assert.Equal(t, "name", colShortName("copy.name"))
	assert.Equal(t, "name", colShortName("name"))
}

func TestNormalizeSQLValueConvertsBytesToString(t *testing.T) {
	assert.Equal(t, "hello", normalizeSQLValue([]byte("hello")))
	assert.Equal(t, int64(5), normalizeSQLValue(int64(5)))
}
