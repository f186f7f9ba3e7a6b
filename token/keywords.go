package token

// Keywords is the reserved-word set recognized by the tokenizer. Matching a
// keyword requires the next source character not be a letter, digit or
// underscore (full_word), so e.g. "selectable" tokenizes as a Name.
var Keywords = map[string]bool{
	"select": true, "distinct": true, "all": true, "from": true, "where": true,
	"group": true, "by": true, "having": true, "order": true, "limit": true,
	"offset": true, "with": true, "as": true, "asc": true, "desc": true,
	"join": true, "inner": true,
	"left": true, "right": true, "outer": true, "full": true, "on": true,
	"lateral": true, "case": true, "when": true, "then": true, "else": true,
	"end": true, "cast": true, "trim": true, "both": true, "leading": true,
	"trailing": true, "position": true, "in": true, "not": true, "and": true,
	"or": true, "like": true, "is": true, "null": true, "true": true,
	"false": true, "copy": true, "to": true, "drop": true, "table": true,
	"create": true, "show": true, "over": true, "partition": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"every": true, "any": true, "some": true, "stddev_pop": true,
	"stddev_samp": true, "var_samp": true, "var_pop": true, "collect": true,
	"fusion": true, "intersection": true, "first_value": true,
}

// SetFunctions is the set of identifiers recognized as set (aggregate)
// function names by the grammar's call_set_function production.
var SetFunctions = map[string]bool{
	"avg": true, "max": true, "min": true, "sum": true, "every": true,
	"any": true, "some": true, "count": true, "stddev_pop": true,
	"stddev_samp": true, "var_samp": true, "var_pop": true, "collect": true,
	"fusion": true, "intersection": true, "first_value": true,
}

// Operators lists multi-character operator tokens in longest-match-first
// order, followed by single-character operators.
var Operators = []string{
	"<<", ">>", "<=", ">=", "<>", "!=", "!>", "!<", "::", "||",
	"=", ">", "<", "+", "-", "*", "/", "%", "^", "&", "|", "#", "~",
	"(", ")", ",", ".",
}
