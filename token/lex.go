package token

import "github.com/lzmch/framequery/combinator"

// VerbatimKind consumes one token of the given kind, and optionally equal
// (by text) to one of words when words is non-empty. Lives in this package
// rather than combinator so the generic kernel never has to import the
// concrete Token type it is instantiated over.
func VerbatimKind(kind Kind, words ...string) combinator.Parser[Token] {
	return combinator.Pred("verbatim_kind", func(t Token) bool {
		if t.Kind != kind {
			return false
		}
		if len(words) == 0 {
			return true
		}
		for _, w := range words {
			if t.Text == w {
				return true
			}
		}
		return false
	})
}
