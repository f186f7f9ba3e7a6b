package token

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lzmch/framequery/combinator"
)

// ErrTokenize is returned, wrapped with positional detail, when the
// tokenizer cannot make progress on the remaining input.
var ErrTokenize = fmt.Errorf("tokenize: unrecognized input")

type lexeme struct {
	kind Kind
	text string
}

func literalRule(kind Kind, p combinator.Parser[byte]) combinator.Parser[byte] {
	return combinator.Transform(p, func(vals []any) []any {
		return []any{lexeme{kind: kind, text: vals[0].(string)}}
	})
}

func keywordWords() []string {
	words := make([]string, 0, len(Keywords))
	for w := range Keywords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

var (
	ruleLineComment = combinator.Ignore(combinator.Regex("line_comment", `--[^\n]*`))
	ruleFloat       = literalRule(Float, combinator.Regex("float",
		`\d+\.\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?|\d+[eE][+-]?\d+`))
	ruleInteger  = literalRule(Integer, combinator.Regex("integer", `\d+`))
	ruleKeyword  = literalRule(Keyword, combinator.MapVerbatim("keyword", strings.ToLower, keywordWords()...))
	ruleOperator = literalRule(Operator, combinator.MapVerbatim("operator", strings.ToLower, Operators...))
	ruleName     = literalRule(Name, combinator.Regex("name", `[\p{L}_][\p{L}\p{N}_]*`))
	ruleSpace    = combinator.Ignore(combinator.Regex("whitespace", `\s+`))
	ruleString   = literalRule(String, combinator.Any(
		combinator.QuotedString("single_quoted", '\''),
		combinator.QuotedString("double_quoted", '"'),
	))

	tokenizerStep = combinator.Any(
		ruleLineComment,
		ruleFloat,
		ruleInteger,
		ruleKeyword,
		ruleOperator,
		ruleName,
		ruleSpace,
		ruleString,
	)
)

// Tokenize folds raw SQL text into a sequence of canonical tokens. Residual
// text that no rule consumes is a lexical error.
func Tokenize(src string) ([]Token, error) {
	in := []byte(src)
	pos := 0
	var out []Token
	for len(in) > 0 {
		r := tokenizerStep(in)
		if !r.Debug.Success {
			return nil, fmt.Errorf("%w at offset %d: %q", ErrTokenize, pos, previewBytes(in))
		}
		consumed := len(in) - len(r.Rest)
		if consumed == 0 {
			return nil, fmt.Errorf("%w at offset %d: no progress", ErrTokenize, pos)
		}
		if len(r.Matches) > 0 {
			lx := r.Matches[0].(lexeme)
			out = append(out, Token{Kind: lx.kind, Text: lx.text, Pos: pos})
		}
		pos += consumed
		in = r.Rest
	}
	return out, nil
}

func previewBytes(b []byte) string {
	const max = 24
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
