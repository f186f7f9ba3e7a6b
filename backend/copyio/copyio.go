// Package copyio implements the host-boundary execution of COPY FROM/TO
// statements against real databases. The core engine only parses COPY; a
// host program chooses whether and how to run it, typically through this
// package or an equivalent of its own.
package copyio

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/internal/logx"
	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

// Driver names the registered database/sql driver to dial.
type Driver string

const (
	MySQL    Driver = "mysql"
	Postgres Driver = "pgx"
	SQLite   Driver = "sqlite3"
)

// ErrMissingOption is returned when a required WITH (...) option is absent.
type ErrMissingOption struct{ Name string }

func (e ErrMissingOption) Error() string { return fmt.Sprintf("copyio: missing option %q", e.Name) }

func dsnOptions(opts map[string]string) (Driver, string, error) {
	driver, ok := opts["driver"]
	if !ok {
		return "", "", ErrMissingOption{Name: "driver"}
	}
	dsn, ok := opts["dsn"]
	if !ok {
		return "", "", ErrMissingOption{Name: "dsn"}
	}
	return Driver(driver), dsn, nil
}

// Open dials the database named by driver/dsn. Callers are responsible for
// closing the returned *sql.DB.
func Open(driver Driver, dsn string) (*sql.DB, error) {
	switch driver {
	case MySQL, Postgres, SQLite:
		return sql.Open(string(driver), dsn)
	default:
		return nil, fmt.Errorf("copyio: unsupported driver %q", driver)
	}
}

// CopyFrom executes stmt against the database named in its WITH options,
// treating Path as a table or view name, and materializes the result as an
// in-memory table under the single table id "copy".
func CopyFrom(ctx context.Context, stmt *ast.CopyFrom) (table.Table, error) {
	driver, dsn, err := dsnOptions(stmt.Options)
	if err != nil {
		return nil, err
	}
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("copyio: open %s: %w", driver, err)
	}
	defer db.Close()

	logx.For("copyio").WithField("table", stmt.Table).WithField("source", stmt.Path).Info("copy from")

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", stmt.Path))
	if err != nil {
		return nil, fmt.Errorf("copyio: query %s: %w", stmt.Path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	order := make([]string, len(cols))
	data := make([][]any, len(cols))
	for i, c := range cols {
		order[i] = "copy." + c
	}
	scanDest := make([]any, len(cols))
	scanVals := make([]any, len(cols))
	for i := range scanDest {
		scanDest[i] = &scanVals[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("copyio: scan row: %w", err)
		}
		for i, v := range scanVals {
			data[i] = append(data[i], normalizeSQLValue(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seriesMap := map[string]table.Series{}
	for i, name := range order {
		seriesMap[name] = memtable.NewSeries(data[i])
	}
	return memtable.New(order, seriesMap)
}

// CopyTo writes data to the destination named in stmt's WITH options,
// treating Path as a table name, via a batched multi-row INSERT.
func CopyTo(ctx context.Context, stmt *ast.CopyTo, data table.Table) error {
	driver, dsn, err := dsnOptions(stmt.Options)
	if err != nil {
		return err
	}
	db, err := Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("copyio: open %s: %w", driver, err)
	}
	defer db.Close()

	logx.For("copyio").WithField("table", stmt.Table).WithField("dest", stmt.Path).Info("copy to")

	cols := data.Columns()
	if len(cols) == 0 {
		return nil
	}
	short := make([]string, len(cols))
	for i, c := range cols {
		short[i] = colShortName(c)
	}

	rows := data.NumRows()
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", stmt.Path, strings.Join(short, ", "),
		strings.TrimSuffix(strings.Repeat(placeholders+",", rows), ","))
	if rows == 0 {
		return nil
	}

	args := make([]any, 0, rows*len(cols))
	seriesList := make([]table.Series, len(cols))
	for i, c := range cols {
		seriesList[i], _ = data.Column(c)
	}
	for r := 0; r < rows; r++ {
		for i := range cols {
			args = append(args, seriesList[i].At(r))
		}
	}

	_, err = db.ExecContext(ctx, query, args...)
	return err
}

func colShortName(full string) string {
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[i+1:]
	}
	return full
}

func normalizeSQLValue(v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	default:
		return n
	}
}
