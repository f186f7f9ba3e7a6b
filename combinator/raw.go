package combinator

import "regexp"

// Regex emits the matched text when pat matches a prefix of the remaining
// raw bytes. Used by the tokenizer for numbers and names.
func Regex(where, pat string) Parser[byte] {
	re := regexp.MustCompile(`\A(?:` + pat + `)`)
	return func(in []byte) Result[byte] {
		loc := re.FindIndex(in)
		if loc == nil || loc[0] != 0 {
			return fail(in, where, "pattern did not match")
		}
		text := string(in[:loc[1]])
		return ok([]any{text}, in[loc[1]:], where)
	}
}

// MapVerbatim matches one of words as a case-insensitive prefix of the raw
// bytes and emits fn applied to the matched text. A word that ends in an
// identifier character must also end a whole word (the following byte, if
// any, must not continue an identifier); other words, such as operators, may
// be followed by anything. Used by the tokenizer to recognize and lower-case
// keywords and operators.
func MapVerbatim(where string, fn func(string) string, words ...string) Parser[byte] {
	return func(in []byte) Result[byte] {
		for _, w := range words {
			if len(in) < len(w) {
				continue
			}
			if !equalFold(in[:len(w)], w) {
				continue
			}
			if len(in) > len(w) && isWordByte(w[len(w)-1]) && isWordByte(in[len(w)]) {
				continue
			}
			return ok([]any{fn(string(in[:len(w)]))}, in[len(w):], where)
		}
		return fail(in, where, "no keyword/operator matched")
	}
}

// QuotedString consumes a raw run delimited by quote on both ends,
// retaining the quotes in the emitted text. A doubled quote ("" or '')
// inside the run is treated as an escaped literal quote character.
func QuotedString(where string, quote byte) Parser[byte] {
	return func(in []byte) Result[byte] {
		if len(in) == 0 || in[0] != quote {
			return fail(in, where, "does not start with quote")
		}
		i := 1
		for i < len(in) {
			if in[i] == quote {
				if i+1 < len(in) && in[i+1] == quote {
					i += 2
					continue
				}
				return ok([]any{string(in[:i+1])}, in[i+1:], where)
			}
			i++
		}
		return fail(in, where, "unterminated quoted string")
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func equalFold(b []byte, w string) bool {
	if len(b) != len(w) {
		return false
	}
	for i := range b {
		bc, wc := b[i], w[i]
		if bc >= 'A' && bc <= 'Z' {
			bc += 'a' - 'A'
		}
		if wc >= 'A' && wc <= 'Z' {
			wc += 'a' - 'A'
		}
		if bc != wc {
			return false
		}
	}
	return true
}
