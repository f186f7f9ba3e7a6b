package parser

import (
	"github.com/lzmch/framequery/ast"
	c "github.com/lzmch/framequery/combinator"
	"github.com/lzmch/framequery/token"
)

// Value is the fully-reduced expression parser, tied into a recursive knot
// via Define: atoms that contain sub-expressions (parens, call arguments,
// CASE branches, CAST operands) refer back to Value itself.
var Value = c.Define(func(self c.Parser[token.Token]) c.Parser[token.Token] {
	return buildValueGrammar(self)
})

func buildValueGrammar(self c.Parser[token.Token]) c.Parser[token.Token] {
	valueList := c.Transform(c.ListOf(op(","), self), func(vals []any) []any {
		items := vals[0].([]any)
		args := make([]ast.Value, len(items))
		for i, it := range items {
			args[i] = it.(ast.Value)
		}
		if len(args) == 1 {
			return []any{args[0]}
		}
		return []any{ast.Call{Func: "__list__", Args: args}}
	})

	subqueryAtom := c.Transform(
		c.Sequence(c.Ignore(op("(")), SelectStmt, c.Ignore(op(")"))),
		func(vals []any) []any {
			return []any{ast.SubQuery{Query: vals[0].(*ast.Select)}}
		},
	)

	parenAtom := c.Transform(
		c.Sequence(c.Ignore(op("(")), valueList, c.Ignore(op(")"))),
		func(vals []any) []any { return vals },
	)

	// comparisonLevel is resolved below, once value10 is built, but
	// positionCall's sub/str operands must be parsed at that level (not the
	// full self): "IN" is both POSITION's own separator keyword and a level
	// 13 infix operator, so letting sub/str recurse through self would let
	// `position('a' in 'abc')` greedily swallow the separator as a BinaryOp
	// before positionCall ever looks for it. comparisonRef is a thunk so it
	// can be captured by functionCall before comparisonLevel exists; by the
	// time parsing actually runs (after this function returns) the
	// assignment below has already happened.
	var comparisonLevel c.Parser[token.Token]
	comparisonRef := func(in []token.Token) c.Result[token.Token] { return comparisonLevel(in) }

	atom := c.Any(
		subqueryAtom,
		parenAtom,
		caseExpr(self),
		castCall(self),
		functionCall(self, comparisonRef),
		nullLit(),
		integerLit(),
		stringLit(),
		boolLit(),
		nameValue(),
		floatLit(),
	)

	value2 := castPostfix(atom)
	value3 := unaryLevel(value2, "+", "-")
	value4 := binaryLevel(value3, "^")
	value5 := binaryLevel(value4, "*", "/", "%")
	value6 := binaryLevel(value5, "||")
	value7 := binaryLevel(value6, "+", "-", "&", "|")
	value8 := binaryLevel(value7, "#", "<<", ">>")
	value9 := unaryLevel(value8, "~")
	value10 := binaryLevel(value9, "=", "!=", ">", "<", ">=", "<=", "<>", "!>", "!<")
	comparisonLevel = value10
	value11 := unaryLevel(value10, "not")
	value12 := binaryLevel(value11, "and")
	value13 := binaryLevelOp(value12, orInLikeOp(value11))
	return value13
}

func buildBinaryTree(vals []any) ast.Value {
	if len(vals) == 1 {
		return vals[0].(ast.Value)
	}
	left := vals[0].(ast.Value)
	op := vals[1].(string)
	right := buildBinaryTree(vals[2:])
	return ast.BinaryOp{Op: op, Left: left, Right: right}
}

func binaryLevel(next c.Parser[token.Token], ops ...string) c.Parser[token.Token] {
	opP := c.Transform(wordOrOp(ops...), textOf)
	return binaryLevelOp(next, opP)
}

func binaryLevelOp(next, opP c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Transform(
		c.Sequence(next, c.Repeat(c.Sequence(opP, next))),
		func(vals []any) []any { return []any{buildBinaryTree(vals)} },
	)
}

// orInLikeOp recognizes OR, IN, LIKE and the compound NOT IN / NOT LIKE
// tokens for precedence level 13.
func orInLikeOp(rightOperand c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Any(
		c.Transform(c.Sequence(kw("not"), kw("in")), func([]any) []any { return []any{"not in"} }),
		c.Transform(c.Sequence(kw("not"), kw("like")), func([]any) []any { return []any{"not like"} }),
		c.Transform(wordOrOp("or", "in", "like"), textOf),
	)
}

func unaryLevel(next c.Parser[token.Token], ops ...string) c.Parser[token.Token] {
	opP := c.Transform(wordOrOp(ops...), textOf)
	return c.Transform(
		c.Sequence(c.Optional(opP), next),
		func(vals []any) []any {
			if len(vals) == 2 {
				return []any{ast.UnaryOp{Op: vals[0].(string), Arg: vals[1].(ast.Value)}}
			}
			return []any{vals[0]}
		},
	)
}

// castPostfix folds zero or more `:: type` suffixes left-associatively.
func castPostfix(atom c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Transform(
		c.Sequence(atom, c.Repeat(c.Sequence(c.Ignore(op("::")), typeName()))),
		func(vals []any) []any {
			v := vals[0].(ast.Value)
			for _, t := range vals[1:] {
				v = ast.Cast{Value: v, Type: t.(string)}
			}
			return []any{v}
		},
	)
}

func caseExpr(self c.Parser[token.Token]) c.Parser[token.Token] {
	arm := c.Construct(func(fields map[string]any, _ []any) any {
		return ast.Case{Condition: fields["cond"].(ast.Value), Result: fields["res"].(ast.Value)}
	},
		c.Ignore(kw("when")), c.Keyword("cond", self),
		c.Ignore(kw("then")), c.Keyword("res", self),
	)
	elsePart := c.Optional(c.Sequence(c.Ignore(kw("else")), self))
	return c.Construct(func(fields map[string]any, positional []any) any {
		cases := make([]ast.Case, len(positional))
		for i, p := range positional {
			cases[i] = p.(ast.Case)
		}
		var elseVal ast.Value
		if v, ok := fields["else"]; ok && v != nil {
			elseVal = v.(ast.Value)
		}
		return ast.CaseExpression{Cases: cases, Else: elseVal}
	},
		c.Ignore(kw("case")),
		c.Repeat(arm),
		c.Keyword("else", elsePart),
		c.Ignore(kw("end")),
	)
}

func castCall(self c.Parser[token.Token]) c.Parser[token.Token] {
	return c.Construct(func(fields map[string]any, _ []any) any {
		return ast.Cast{Value: fields["v"].(ast.Value), Type: fields["t"].(string)}
	},
		c.Ignore(kw("cast")), c.Ignore(op("(")),
		c.Keyword("v", self), c.Ignore(kw("as")), c.Keyword("t", typeName()),
		c.Ignore(op(")")),
	)
}

func functionCall(self, comparison c.Parser[token.Token]) c.Parser[token.Token] {
	base := c.Any(
		countStarCall(),
		setFunctionCall(self),
		trimCall(self),
		positionCall(comparison),
		genericCall(self),
	)
	return c.Transform(
		c.Sequence(base, c.Optional(overClause(self))),
		func(vals []any) []any {
			if len(vals) == 2 {
				win := vals[1].(windowSpec)
				return []any{ast.CallAnalyticsFunction{Call: vals[0].(ast.Value), PartitionBy: win.partitionBy, OrderByItems: win.orderBy}}
			}
			return []any{vals[0]}
		},
	)
}

func countStarCall() c.Parser[token.Token] {
	return c.Transform(
		c.Sequence(kw("count"), c.Ignore(op("(")), c.Ignore(op("*")), c.Ignore(op(")"))),
		func([]any) []any { return []any{ast.CallSetFunction{Func: "count", Args: nil}} },
	)
}

func setFunctionCall(self c.Parser[token.Token]) c.Parser[token.Token] {
	setFuncName := c.Pred("set_function_name", func(t token.Token) bool {
		return t.Kind == token.Keyword && token.SetFunctions[t.Text]
	})
	args := c.Transform(c.ListOf(op(","), self), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]ast.Value, len(items))
		for i, it := range items {
			out[i] = it.(ast.Value)
		}
		return []any{out}
	})
	return c.Construct(func(fields map[string]any, _ []any) any {
		q := ""
		if v, ok := fields["q"]; ok && v != nil {
			q = v.(string)
		}
		return ast.CallSetFunction{Func: fields["f"].(token.Token).Text, Quantifier: q, Args: fields["args"].([]ast.Value)}
	},
		c.Keyword("f", setFuncName), c.Ignore(op("(")),
		c.Keyword("q", c.Optional(c.Transform(kw("distinct", "all"), textOf))),
		c.Keyword("args", args),
		c.Ignore(op(")")),
	)
}

// trimCall parses the three TRIM forms: `TRIM(src)`, `TRIM([mode] FROM
// src)`, and `TRIM([mode] chars FROM src)`. The mode is folded into the
// Call's Func name (trim, trim_leading, trim_trailing) so it never collides
// with a user-supplied chars argument at evaluation time. The three forms
// are tried as distinct alternatives, innermost (chars present) first,
// rather than threading independently-optional fields through one sequence:
// `self` has no way to know to stop short of a bare src argument, so an
// unconditionally-optional chars field would greedily swallow it.
func trimCall(self c.Parser[token.Token]) c.Parser[token.Token] {
	mode := c.Optional(c.Transform(kw("both", "leading", "trailing"), textOf))
	funcNameOf := func(fields map[string]any) string {
		if m, ok := fields["mode"]; ok && m != nil {
			switch m.(string) {
			case "leading":
				return "trim_leading"
			case "trailing":
				return "trim_trailing"
			}
		}
		return "trim"
	}

	withChars := c.Construct(func(fields map[string]any, _ []any) any {
		return ast.Call{Func: funcNameOf(fields), Args: []ast.Value{fields["chars"].(ast.Value), fields["src"].(ast.Value)}}
	},
		c.Keyword("mode", mode), c.Keyword("chars", self),
		c.Ignore(kw("from")), c.Keyword("src", self),
	)
	fromOnly := c.Construct(func(fields map[string]any, _ []any) any {
		return ast.Call{Func: funcNameOf(fields), Args: []ast.Value{fields["src"].(ast.Value)}}
	},
		c.Keyword("mode", mode), c.Ignore(kw("from")), c.Keyword("src", self),
	)
	bareSrc := c.Construct(func(fields map[string]any, _ []any) any {
		return ast.Call{Func: funcNameOf(fields), Args: []ast.Value{fields["src"].(ast.Value)}}
	},
		c.Keyword("mode", mode), c.Keyword("src", self),
	)

	return c.Construct(func(_ map[string]any, positional []any) any {
		return positional[0].(ast.Value)
	},
		c.Ignore(kw("trim")), c.Ignore(op("(")),
		c.Any(withChars, fromOnly, bareSrc),
		c.Ignore(op(")")),
	)
}

// positionCall's operand is deliberately not the full recursive Value: IN is
// both its separator keyword and a level 13 infix operator, so a full-self
// operand would greedily consume the separator as a BinaryOp before this
// construct ever looks for it.
func positionCall(operand c.Parser[token.Token]) c.Parser[token.Token] {
	self := operand
	return c.Construct(func(fields map[string]any, _ []any) any {
		return ast.Call{Func: "position", Args: []ast.Value{fields["sub"].(ast.Value), fields["str"].(ast.Value)}}
	},
		c.Ignore(kw("position")), c.Ignore(op("(")),
		c.Keyword("sub", self), c.Ignore(kw("in")), c.Keyword("str", self),
		c.Ignore(op(")")),
	)
}

func genericCall(self c.Parser[token.Token]) c.Parser[token.Token] {
	args := c.Optional(c.Transform(c.ListOf(op(","), self), func(vals []any) []any {
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
		return ast.Call{Func: fields["f"].(string), Args: argv}
	},
		c.Keyword("f", bareName()), c.Ignore(op("(")),
		c.Keyword("args", args),
		c.Ignore(op(")")),
	)
}

type windowSpec struct {
	partitionBy []ast.Value
	orderBy     []ast.OrderBy
}

func overClause(self c.Parser[token.Token]) c.Parser[token.Token] {
	partList := c.Transform(c.ListOf(op(","), self), func(vals []any) []any {
		items := vals[0].([]any)
		out := make([]ast.Value, len(items))
		for i, it := range items {
			out[i] = it.(ast.Value)
		}
		return []any{out}
	})
	return c.Construct(func(fields map[string]any, _ []any) any {
		w := windowSpec{}
		if p, ok := fields["part"]; ok && p != nil {
			w.partitionBy = p.([]ast.Value)
		}
		if o, ok := fields["order"]; ok && o != nil {
			w.orderBy = o.([]ast.OrderBy)
		}
		return w
	},
		c.Ignore(kw("over")), c.Ignore(op("(")),
		c.Keyword("part", c.Optional(c.Sequence(c.Ignore(kw("partition")), c.Ignore(kw("by")), partList))),
		c.Keyword("order", c.Optional(c.Sequence(c.Ignore(kw("order")), c.Ignore(kw("by")), orderByList(self)))),
		c.Ignore(op(")")),
	)
}
