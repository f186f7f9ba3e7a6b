// Command framequery is a small CLI wrapper around the engine, mainly
// useful for ad-hoc queries over literal data and for inspecting plans with
// --explain.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/lzmch/framequery"
	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/internal/config"
	"github.com/lzmch/framequery/internal/logx"
	"github.com/lzmch/framequery/plan"
	"github.com/lzmch/framequery/table"
)

type cli struct {
	Query    string `arg:"" help:"SQL query to execute."`
	Explain  bool   `help:"Print the logical plan instead of executing."`
	Strict   bool   `help:"Enable strict-mode join evaluation."`
	Config   string `help:"Path to a YAML config file." type:"path"`
	LogLevel string `default:"info" help:"Log level (debug, info, warn, error)."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("framequery"),
		kong.Description("Embeddable SQL query engine CLI."),
	)

	cfg := config.Default()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		kctx.FatalIfErrorf(err)
		cfg = loaded
	}
	levelName := c.LogLevel
	if levelName == "info" && cfg.LogLevel != "" {
		levelName = cfg.LogLevel
	}
	level, err := logrus.ParseLevel(levelName)
	kctx.FatalIfErrorf(err)
	logx.SetLevel(level)

	strict := c.Strict || cfg.Strict

	if c.Explain {
		stmt, err := framequery.Parse(c.Query)
		kctx.FatalIfErrorf(err)
		sel, ok := stmt.(*ast.Select)
		if !ok {
			fmt.Fprintln(os.Stderr, color.RedString("explain requires a SELECT statement, got %T", stmt))
			os.Exit(1)
		}
		root, err := plan.Build(sel)
		kctx.FatalIfErrorf(err)
		fmt.Println(color.CyanString(root.String()))
		return
	}

	tables := map[string]table.Table{}
	var opts []framequery.Option
	if strict {
		opts = append(opts, framequery.Strict(true))
	}
	result, err := framequery.Execute(c.Query, tables, opts...)
	kctx.FatalIfErrorf(err)
	printTable(result)
}

func printTable(t table.Table) {
	cols := t.Columns()
	bold := color.New(color.Bold)
	for i, c := range cols {
		if i > 0 {
			fmt.Print("\t")
		}
		bold.Print(c)
	}
	fmt.Println()
	for r := 0; r < t.NumRows(); r++ {
		for i, c := range cols {
			if i > 0 {
				fmt.Print("\t")
			}
			col, _ := t.Column(c)
			fmt.Printf("%v", col.At(r))
		}
		fmt.Println()
	}
}
