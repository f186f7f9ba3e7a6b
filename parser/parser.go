package parser

import (
	"fmt"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/internal/logx"
	"github.com/lzmch/framequery/token"
)

// ErrParse is returned, wrapped with the statement grammar's debug trace
// (the first alternative's failure, see combinator.Any), when no statement
// alternative consumes the full token stream.
var ErrParse = fmt.Errorf("parse error")

// Parse tokenizes sql and runs the statement grammar over the result,
// requiring the entire token stream to be consumed.
func Parse(sql string) (ast.Statement, error) {
	toks, err := token.Tokenize(sql)
	if err != nil {
		return nil, err
	}
	r := Statement(toks)
	logx.For("parser").WithField("where", r.Debug.Where).WithField("success", r.Debug.Success).
		Trace("statement grammar finished")
	if !r.Debug.Success {
		return nil, fmt.Errorf("%w: %s: %s", ErrParse, r.Debug.Where, r.Debug.Message)
	}
	if len(r.Rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected trailing input near %q", ErrParse, previewTokens(r.Rest))
	}
	if len(r.Matches) != 1 {
		return nil, fmt.Errorf("%w: statement grammar produced %d matches, want 1", ErrParse, len(r.Matches))
	}
	stmt, ok := r.Matches[0].(ast.Statement)
	if !ok {
		return nil, fmt.Errorf("%w: top-level match is not a statement", ErrParse)
	}
	return stmt, nil
}

func previewTokens(toks []token.Token) string {
	const max = 6
	s := ""
	for i, t := range toks {
		if i >= max {
			s += " ..."
			break
		}
		if i > 0 {
			s += " "
		}
		s += t.Text
	}
	return s
}
