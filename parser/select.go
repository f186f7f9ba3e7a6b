package parser

import (
	"github.com/lzmch/framequery/ast"
	c "github.com/lzmch/framequery/combinator"
	"github.com/lzmch/framequery/token"
)

// SelectStmt is the recursive SELECT grammar. It ties its own knot via
// Define for CTE bodies and subqueries nested in FROM, and refers to Value
// for every scalar expression position.
var SelectStmt = c.Define(func(self c.Parser[token.Token]) c.Parser[token.Token] {
	return buildSelectGrammar(self)
})

func wildcardColumn() c.Parser[token.Token] {
	tableDotStar := c.Transform(c.Sequence(bareName(), c.Ignore(op(".")), c.Ignore(op("*"))), func(vals []any) []any {
		return []any{ast.Column{Value: ast.WildCard{Table: vals[0].(string)}}}
	})
	bareStar := c.Transform(op("*"), func([]any) []any {
		return []any{ast.Column{Value: ast.WildCard{}}}
	})
	return c.Any(tableDotStar, bareStar)
}

func valueColumn() c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, positional []any) any {
		return ast.Column{Value: positional[0].(ast.Value), Alias: aliasOrEmpty(fields, "alias")}
	},
		positionalValue(), c.Keyword("alias", optAlias()),
	)
}

// positionalValue wraps Value so its match is returned positionally (not
// tagged) inside a Construct alongside a keyword(alias=...) match.
func positionalValue() c.Parser[token.Token] {
	return Value
}

func columnList() c.Parser[token.Token] {
	return c.Transform(c.ListOf(op(","), c.Any(wildcardColumn(), valueColumn())), func(vals []any) []any {
		items := vals[0].([]any)
		cols := make([]ast.Column, len(items))
		for i, it := range items {
			cols[i] = it.(ast.Column)
		}
		return []any{cols}
	})
}

func tableRefExpr() c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, _ []any) any {
		n := fields["name"].(ast.Name)
		parts := n.Parts()
		ref := ast.TableRef{Name: parts[len(parts)-1], Alias: aliasOrEmpty(fields, "alias")}
		if len(parts) > 1 {
			ref.Schema = parts[len(parts)-2]
		}
		return ref
	},
		c.Keyword("name", qualifiedName()), c.Keyword("alias", optAlias()),
	)
}

func tableFunctionExpr() c.Parser[token.Token] {
	args := c.Optional(c.Transform(c.ListOf(op(","), Value), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]ast.Value, len(items))
		for i, it := range items {
			out[i] = it.(ast.Value)
		}
		return []any{out}
	}))
	return c.Construct(func(fields map[string]any, _ []any) any {
		var argv []ast.Value
		if a, ok := fields["args"]; ok && a != nil {
			argv = a.([]ast.Value)
		}
		return ast.TableFunction{Func: fields["f"].(string), Args: argv, Alias: aliasOrEmpty(fields, "alias")}
	},
		c.Keyword("f", bareName()), c.Ignore(op("(")),
		c.Keyword("args", args), c.Ignore(op(")")),
		c.Keyword("alias", optAlias()),
	)
}

func subQueryExpr(self c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, _ []any) any {
		return ast.SubQuery{Query: fields["q"].(*ast.Select), Alias: aliasOrEmpty(fields, "alias")}
	},
		c.Ignore(op("(")), c.Keyword("q", self), c.Ignore(op(")")),
		c.Keyword("alias", optAlias()),
	)
}

func lateralExpr(tableExpr c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Transform(
		c.Sequence(c.Ignore(kw("lateral")), tableExpr),
		func(vals []any) []any { return []any{ast.Lateral{Table: vals[0].(ast.TableExpr)}} },
	)
}

func baseTableExpr(self c.Parser[token.Token]) c.Parser[token.Token] {
	var te c.Parser[token.Token]
	te = c.Any(subQueryExpr(self), tableFunctionExpr(), tableRefExpr())
	return c.Any(lateralExpr(te), te)
}

func joinHow() c.Parser[token.Token] {
	return c.Transform(
		c.Any(
			c.Transform(c.Sequence(kw("inner"), kw("join")), func([]any) []any { return []any{ast.JoinInner} }),
			c.Transform(c.Sequence(kw("left"), c.Optional(kw("outer")), kw("join")), func([]any) []any { return []any{ast.JoinLeft} }),
			c.Transform(c.Sequence(kw("right"), c.Optional(kw("outer")), kw("join")), func([]any) []any { return []any{ast.JoinRight} }),
			c.Transform(c.Sequence(kw("full"), c.Optional(kw("outer")), kw("join")), func([]any) []any { return []any{ast.JoinOuter} }),
			c.Transform(kw("join"), func([]any) []any { return []any{ast.JoinInner} }),
		),
		func(vals []any) []any { return vals },
	)
}

// joinTail is one `<how> table ON predicate` suffix, built into a Join
// node whose Left is filled in later by buildJoins.
func joinTail(self c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, _ []any) any {
		return ast.Join{How: fields["how"].(ast.JoinHow), Right: fields["right"].(ast.TableExpr), On: fields["on"].(ast.Value)}
	},
		c.Keyword("how", joinHow()), c.Keyword("right", baseTableExpr(self)),
		c.Ignore(kw("on")), c.Keyword("on", self),
	)
}

// buildJoins folds (base, [join1, join2, ...]) into a left-nested Join
// chain: each subsequent join's Left is the result so far.
func buildJoins(base ast.TableExpr, joins []ast.Join) ast.TableExpr {
	result := base
	for _, j := range joins {
		j.Left = result
		result = j
	}
	return result
}

func fromItem(self c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Transform(
		c.Sequence(baseTableExpr(self), c.Repeat(joinTail(self))),
		func(vals []any) []any {
			base := vals[0].(ast.TableExpr)
			var joins []ast.Join
			for _, j := range vals[1:] {
				joins = append(joins, j.(ast.Join))
			}
			return []any{buildJoins(base, joins)}
		},
	)
}

func fromClause(self c.Parser[token.Token]) c.Parser[token.Token] {
	tables := c.Transform(c.ListOf(op(","), fromItem(self)), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]ast.TableExpr, len(items))
		for i, it := range items {
			out[i] = it.(ast.TableExpr)
		}
		return []any{&ast.FromClause{Tables: out}}
	})
	return c.Optional(c.Transform(c.Sequence(c.Ignore(kw("from")), tables), func(vals []any) []any { return vals }))
}

func groupByClause() c.Parser[token.Token] {
	list := c.Transform(c.ListOf(op(","), Value), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]ast.Value, len(items))
		for i, it := range items {
			out[i] = it.(ast.Value)
		}
		return []any{out}
	})
	return c.Optional(c.Transform(c.Sequence(c.Ignore(kw("group")), c.Ignore(kw("by")), list), func(vals []any) []any { return vals }))
}

func havingClause() c.Parser[token.Token] {
	return c.Optional(c.Transform(c.Sequence(c.Ignore(kw("having")), Value), func(vals []any) []any { return vals }))
}

func orderByItem(self c.Parser[token.Token]) c.Parser[token.Token] {
	dir := c.Optional(c.Transform(kw("asc", "desc"), textOf))
	return c.Construct(func(fields map[string]any, _ []any) any {
		order := ast.Asc
		if d, ok := fields["dir"]; ok && d != nil && d.(string) == "desc" {
			order = ast.Desc
		}
		return ast.OrderBy{Value: fields["v"].(ast.Value), Order: order}
	},
		c.Keyword("v", self), c.Keyword("dir", dir),
	)
}

func orderByList(self c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Transform(c.ListOf(op(","), orderByItem(self)), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]ast.OrderBy, len(items))
		for i, it := range items {
			out[i] = it.(ast.OrderBy)
		}
		return []any{out}
	})
}

func orderByClause() c.Parser[token.Token] {
	return c.Optional(c.Transform(
		c.Sequence(c.Ignore(kw("order")), c.Ignore(kw("by")), orderByList(Value)),
		func(vals []any) []any { return vals },
	))
}

func limitClause() c.Parser[token.Token] {
	return c.Optional(c.Transform(c.Sequence(c.Ignore(kw("limit")), Value), func(vals []any) []any { return vals }))
}

func offsetClause() c.Parser[token.Token] {
	return c.Optional(c.Transform(c.Sequence(c.Ignore(kw("offset")), Value), func(vals []any) []any { return vals }))
}

func cteClause(self c.Parser[token.Token]) c.Parser[token.Token] {
	one := c.Construct(func(fields map[string]any, _ []any) any {
		return ast.CTE{Name: fields["name"].(string), Query: fields["q"].(*ast.Select)}
	},
		c.Keyword("name", bareName()), c.Ignore(kw("as")), c.Ignore(op("(")),
		c.Keyword("q", self), c.Ignore(op(")")),
	)
	list := c.Transform(c.ListOf(op(","), one), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]ast.CTE, len(items))
		for i, it := range items {
			out[i] = it.(ast.CTE)
		}
		return []any{out}
	})
	return c.Optional(c.Transform(c.Sequence(c.Ignore(kw("with")), list), func(vals []any) []any { return vals }))
}

func buildSelectGrammar(self c.Parser[token.Token]) c.Parser[token.Token] {
	quantifier := c.Optional(c.Transform(kw("distinct", "all"), textOf))
	return c.Construct(func(fields map[string]any, _ []any) any {
		s := &ast.Select{
			Columns: fields["cols"].([]ast.Column),
		}
		if v, ok := fields["cte"]; ok && v != nil {
			s.CTE = v.([]ast.CTE)
		}
		if v, ok := fields["q"]; ok && v != nil {
			s.Quantifier = v.(string)
		}
		if v, ok := fields["from"]; ok && v != nil {
			s.From = v.(*ast.FromClause)
		}
		if v, ok := fields["where"]; ok && v != nil {
			s.Where = v.(ast.Value)
		}
		if v, ok := fields["group"]; ok && v != nil {
			s.GroupBy = v.([]ast.Value)
		}
		if v, ok := fields["having"]; ok && v != nil {
			s.Having = v.(ast.Value)
		}
		if v, ok := fields["order"]; ok && v != nil {
			s.OrderBy = v.([]ast.OrderBy)
		}
		if v, ok := fields["limit"]; ok && v != nil {
			s.Limit = v.(ast.Value)
		}
		if v, ok := fields["offset"]; ok && v != nil {
			s.Offset = v.(ast.Value)
		}
		return s
	},
		c.Keyword("cte", cteClause(self)),
		c.Ignore(kw("select")),
		c.Keyword("q", quantifier),
		c.Keyword("cols", columnList()),
		c.Keyword("from", fromClause(self)),
		c.Keyword("where", c.Optional(c.Transform(c.Sequence(c.Ignore(kw("where")), Value), func(vals []any) []any { return vals }))),
		c.Keyword("group", groupByClause()),
		c.Keyword("having", havingClause()),
		c.Keyword("order", orderByClause()),
		c.Keyword("limit", limitClause()),
		c.Keyword("offset", offsetClause()),
	)
}
