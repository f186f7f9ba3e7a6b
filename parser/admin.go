package parser

import (
	"github.com/lzmch/framequery/ast"
	c "github.com/lzmch/framequery/combinator"
	"github.com/lzmch/framequery/token"
)

func quotedPath() c.Parser[token.Token] {
	return c.Transform(token.VerbatimKind(token.String), func(vals []any) []any {
		return []any{unquote(vals[0].(token.Token).Text)}
	})
}

// unquote strips the single pair of surrounding quote characters a string
// token carries (tokenizer preserves them verbatim in the literal text).
func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func copyOptions() c.Parser[token.Token] {
	one := c.Construct(func(fields map[string]any, _ []any) any {
		return [2]string{fields["k"].(string), fields["v"].(string)}
	},
		c.Keyword("k", bareName()), c.Ignore(op("=")), c.Keyword("v", c.Any(
			c.Transform(nameTok(), textOf),
			c.Transform(token.VerbatimKind(token.String), func(vals []any) []any {
				return []any{unquote(vals[0].(token.Token).Text)}
			}),
		)),
	)
	list := c.Transform(c.ListOf(op(","), one), func(vals []any) []any {
		items := vals[0].([]any)
		opts := map[string]string{}
		for _, it := range items {
			kv := it.([2]string)
			opts[kv[0]] = kv[1]
		}
		return []any{opts}
	})
	return c.Optional(c.Transform(
		c.Sequence(c.Ignore(kw("with")), c.Ignore(op("(")), list, c.Ignore(op(")"))),
		func(vals []any) []any { return vals },
	))
}

func copyFromStmt() c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, _ []any) any {
		opts := map[string]string{}
		if o, ok := fields["opts"]; ok && o != nil {
			opts = o.(map[string]string)
		}
		return &ast.CopyFrom{Table: fields["t"].(string), Path: fields["p"].(string), Options: opts}
	},
		c.Ignore(kw("copy")), c.Keyword("t", bareName()),
		c.Ignore(kw("from")), c.Keyword("p", quotedPath()),
		c.Keyword("opts", copyOptions()),
	)
}

func copyToStmt() c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, _ []any) any {
		opts := map[string]string{}
		if o, ok := fields["opts"]; ok && o != nil {
			opts = o.(map[string]string)
		}
		return &ast.CopyTo{Table: fields["t"].(string), Path: fields["p"].(string), Options: opts}
	},
		c.Ignore(kw("copy")), c.Keyword("t", bareName()),
		c.Ignore(kw("to")), c.Keyword("p", quotedPath()),
		c.Keyword("opts", copyOptions()),
	)
}

func dropTableStmt() c.Parser[token.Token] {
	names := c.Transform(c.ListOf(op(","), bareName()), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.(string)
		}
		return []any{out}
	})
	return c.Transform(
		c.Sequence(c.Ignore(kw("drop")), c.Ignore(kw("table")), names),
		func(vals []any) []any { return []any{&ast.DropTable{Tables: vals[0].([]string)}} },
	)
}

func createTableAsStmt() c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, _ []any) any {
		return &ast.CreateTableAs{Table: fields["t"].(string), Query: fields["q"].(*ast.Select)}
	},
		c.Ignore(kw("create")), c.Ignore(kw("table")), c.Keyword("t", bareName()),
		c.Ignore(kw("as")), c.Keyword("q", SelectStmt),
	)
}

// showStmt captures everything after SHOW verbatim, joined with single
// spaces, since the SHOW surface is host/dialect specific.
func showStmt() c.Parser[token.Token] {
	tail := c.Repeat(c.Pred("show_tail", func(token.Token) bool { return true }))
	return c.Transform(
		c.Sequence(c.Ignore(kw("show")), tail),
		func(vals []any) []any {
			s := ""
			for i, v := range vals {
				if i > 0 {
					s += " "
				}
				s += v.(token.Token).Text
			}
			return []any{&ast.Show{Tail: s}}
		},
	)
}

// Statement is the top-level dispatcher across every supported statement kind.
var Statement = c.Any(
	createTableAsStmt(),
	copyFromStmt(),
	copyToStmt(),
	dropTableStmt(),
	showStmt(),
	c.Transform(SelectStmt, func(vals []any) []any { return vals }),
)
