// Package parser builds the SQL grammar out of the combinator kernel and
// produces ast.Statement values from token streams.
package parser

import (
	"strings"

	"github.com/lzmch/framequery/ast"
	c "github.com/lzmch/framequery/combinator"
	"github.com/lzmch/framequery/token"
)

func kw(words ...string) c.Parser[token.Token] {
	return token.VerbatimKind(token.Keyword, words...)
}

func op(words ...string) c.Parser[token.Token] {
	return token.VerbatimKind(token.Operator, words...)
}

// wordOrOp matches any of words whether they tokenized as an operator or a
// keyword (e.g. "and" is a keyword, "+" is an operator).
func wordOrOp(words ...string) c.Parser[token.Token] {
	return c.Any(op(words...), kw(words...))
}

func textOf(vals []any) []any {
	return []any{vals[0].(token.Token).Text}
}

func nameTok() c.Parser[token.Token] {
	return token.VerbatimKind(token.Name)
}

// quotedIdent matches a double-quoted string token used in identifier
// position (the ANSI convention this dialect follows to let an identifier
// spell a reserved word: single quotes are always a string literal, double
// quotes in a name position are always an identifier).
func quotedIdent() c.Parser[token.Token] {
	return c.Pred("quoted_identifier", func(t token.Token) bool {
		return t.Kind == token.String && len(t.Text) > 0 && t.Text[0] == '"'
	})
}

// identPart matches one identifier-position token, bare or double-quoted,
// and emits its textual content.
func identPart() c.Parser[token.Token] {
	return c.Any(
		c.Transform(nameTok(), textOf),
		c.Transform(quotedIdent(), func(vals []any) []any {
			return []any{unquote(vals[0].(token.Token).Text)}
		}),
	)
}

// qualifiedName parses a dotted name of up to three parts into ast.Name.
func qualifiedName() c.Parser[token.Token] {
	more := c.Optional(c.Sequence(c.Ignore(op(".")), identPart()))
	return c.Transform(c.Sequence(identPart(), more, more), func(vals []any) []any {
		parts := make([]string, len(vals))
		for i, it := range vals {
			parts[i] = it.(string)
		}
		return []any{ast.Name{Qualified: strings.Join(parts, ".")}}
	})
}

// bareName parses a single unqualified name token, bare or double-quoted,
// as a plain string.
func bareName() c.Parser[token.Token] {
	return identPart()
}

// typeName parses a type name used by CAST/`::`. Only a Name token is
// accepted, so a reserved word (e.g. NULL) is never a type.
func typeName() c.Parser[token.Token] {
	return c.Transform(nameTok(), textOf)
}

func integerLit() c.Parser[token.Token] {
	return c.Transform(token.VerbatimKind(token.Integer), func(vals []any) []any {
		return []any{ast.Integer{Value: vals[0].(token.Token).Text}}
	})
}

func floatLit() c.Parser[token.Token] {
	return c.Transform(token.VerbatimKind(token.Float), func(vals []any) []any {
		return []any{ast.Float{Value: vals[0].(token.Token).Text}}
	})
}

// stringLit matches a single-quoted string literal. A double-quoted token
// is reserved for identifier position (see quotedIdent) and never a value.
func stringLit() c.Parser[token.Token] {
	return c.Transform(c.Pred("string_literal", func(t token.Token) bool {
		return t.Kind == token.String && len(t.Text) > 0 && t.Text[0] == '\''
	}), func(vals []any) []any {
		return []any{ast.String{Value: vals[0].(token.Token).Text}}
	})
}

func boolLit() c.Parser[token.Token] {
	return c.Transform(kw("true", "false"), func(vals []any) []any {
		return []any{ast.Bool{Value: vals[0].(token.Token).Text}}
	})
}

func nullLit() c.Parser[token.Token] {
	return c.Transform(kw("null"), func(vals []any) []any {
		return []any{ast.Null{}}
	})
}

func nameValue() c.Parser[token.Token] {
	return c.Transform(qualifiedName(), func(vals []any) []any { return vals })
}

// optAlias parses an optional `[AS] name` alias.
func optAlias() c.Parser[token.Token] {
	return c.Optional(c.Transform(
		c.Sequence(c.Ignore(c.Optional(kw("as"))), bareName()),
		func(vals []any) []any { return vals },
	))
}

func aliasOrEmpty(fields map[string]any, key string) string {
	if v, ok := fields[key]; ok && v != nil {
		return v.(string)
	}
	return ""
}
