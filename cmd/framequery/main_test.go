package main

import (
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestPrintTableRendersHeaderAndRows(t *testing.T) {
	// color.NoColor avoids ANSI escapes from fatih/color leaking into the
	// captured output and breaking the tab-separated assertions below.
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tbl, err := memtable.New([]string{"id", "name"}, map[string]table.Series{
		"id":   memtable.NewSeries([]any{int64(1), int64(2)}),
		"name": memtable.NewSeries([]any{"alice", "bob"}),
	})
	require.NoError(t, err)

	out := captureStdout(t, func() { printTable(tbl) })
	assert.Equal(t, "id\tname\n1\talice\n2\tbob\n", out)
}

func TestPrintTableZeroColumnTablePrintsOneBlankLinePerRow(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tbl := memtable.Dual()
	out := captureStdout(t, func() { printTable(tbl) })
	// one blank line for the (empty) header, one for Dual's single row.
	assert.Equal(t, "\n\n", out)
}
