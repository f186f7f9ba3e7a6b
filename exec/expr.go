package exec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lzmch/framequery/ast"
	"github.com/lzmch/framequery/table"
	"github.com/lzmch/framequery/table/memtable"
)

// ErrUnknownColumn mirrors table.ErrUnknownColumn for names that fail to
// resolve against a frame (as opposed to a raw backend lookup).
var ErrUnknownColumn = fmt.Errorf("exec: unknown column")

// ErrAmbiguousColumn is returned when an unqualified name matches more than
// one column of a frame's table (typically after a join).
var ErrAmbiguousColumn = fmt.Errorf("exec: ambiguous column")

// resolveName maps a possibly-qualified AST name to the full "table_id.col"
// name present on fr.tbl.
func resolveName(n ast.Name, fr frame) (string, error) {
	parts := n.Parts()
	if len(parts) == 1 {
		col := parts[0]
		var found []string
		for _, c := range fr.tbl.Columns() {
			if colSuffix(c) == col {
				found = append(found, c)
			}
		}
		switch len(found) {
		case 0:
			return "", fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		case 1:
			return found[0], nil
		default:
			return "", fmt.Errorf("%w: %q", ErrAmbiguousColumn, col)
		}
	}
	aliasPart := parts[len(parts)-2]
	col := parts[len(parts)-1]
	tid, ok := fr.aliases[aliasPart]
	if !ok {
		tid = aliasPart
	}
	full := tid + "." + col
	if _, err := fr.tbl.Column(full); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, n.Qualified)
	}
	return full, nil
}

// evalSeries evaluates v over every row of fr.tbl, producing an aligned
// table.Series.
func (e *Evaluator) evalSeries(v ast.Value, fr frame) (table.Series, error) {
	n := fr.tbl.NumRows()
	vals := make([]any, n)
	for i := 0; i < n; i++ {
		val, err := e.evalScalar(v, fr, i)
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return memtable.NewSeries(vals), nil
}

// evalScalarConst evaluates v once, against row 0 of fr.tbl (or DUAL-style
// zero-row input), and requires an integer result, for LIMIT/OFFSET.
func (e *Evaluator) evalScalarConst(v ast.Value, fr frame) (int64, error) {
	val, err := e.evalScalar(v, fr, 0)
	if err != nil {
		return 0, err
	}
	d, ok := toNumber(val)
	if !ok {
		return 0, fmt.Errorf("exec: LIMIT/OFFSET value is not numeric: %v", val)
	}
	return d.IntPart(), nil
}

func (e *Evaluator) evalScalar(v ast.Value, fr frame, row int) (any, error) {
	switch n := v.(type) {
	case ast.Null:
		return nil, nil
	case ast.Integer:
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return nil, fmt.Errorf("exec: malformed integer literal %q: %w", n.Value, err)
		}
		return d, nil
	case ast.Float:
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return nil, fmt.Errorf("exec: malformed float literal %q: %w", n.Value, err)
		}
		return d, nil
	case ast.Bool:
		return strings.EqualFold(n.Value, "true"), nil
	case ast.String:
		return unquote(n.Value), nil
	case ast.Name:
		full, err := resolveName(n, fr)
		if err != nil {
			return nil, err
		}
		col, err := fr.tbl.Column(full)
		if err != nil {
			return nil, err
		}
		return col.At(row), nil
	case ast.WildCard:
		return nil, fmt.Errorf("%w: wildcard used in scalar position", ErrUnsupported)
	case ast.BinaryOp:
		return e.evalBinaryOp(n, fr, row)
	case ast.UnaryOp:
		a, err := e.evalScalar(n.Arg, fr, row)
		if err != nil {
			return nil, err
		}
		return applyUnaryOp(n.Op, a)
	case ast.Cast:
		a, err := e.evalScalar(n.Value, fr, row)
		if err != nil {
			return nil, err
		}
		return applyCast(a, n.Type)
	case ast.CaseExpression:
		for _, c := range n.Cases {
			cond, err := e.evalScalar(c.Condition, fr, row)
			if err != nil {
				return nil, err
			}
			if truthy(cond) {
				return e.evalScalar(c.Result, fr, row)
			}
		}
		if n.Else != nil {
			return e.evalScalar(n.Else, fr, row)
		}
		return nil, nil
	case ast.Call:
		return e.applyCall(n, fr, row)
	case ast.CallSetFunction:
		return nil, fmt.Errorf("%w: aggregate function used outside an aggregate context", ErrUnsupported)
	case ast.CallAnalyticsFunction:
		return nil, fmt.Errorf("%w: analytics OVER evaluation is not implemented", ErrUnsupported)
	case ast.SubQuery:
		return nil, fmt.Errorf("%w: scalar subquery evaluation is not implemented", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: expression %T", ErrUnsupported, v)
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func toNumber(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	default:
		return decimal.Decimal{}, false
	}
}

func (e *Evaluator) evalBinaryOp(n ast.BinaryOp, fr frame, row int) (any, error) {
	op := strings.ToLower(n.Op)
	if op == "and" {
		l, err := e.evalScalar(n.Left, fr, row)
		if err != nil {
			return nil, err
		}
		if !truthy(l) {
			return false, nil
		}
		r, err := e.evalScalar(n.Right, fr, row)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	}
	if op == "or" {
		l, err := e.evalScalar(n.Left, fr, row)
		if err != nil {
			return nil, err
		}
		if truthy(l) {
			return true, nil
		}
		r, err := e.evalScalar(n.Right, fr, row)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	}

	left, err := e.evalScalar(n.Left, fr, row)
	if err != nil {
		return nil, err
	}

	if op == "in" || op == "not in" {
		items, err := e.listValues(n.Right, fr, row)
		if err != nil {
			return nil, err
		}
		if left == nil {
			return nil, nil
		}
		found := false
		for _, it := range items {
			if valuesEqual(left, it) {
				found = true
				break
			}
		}
		if op == "not in" {
			return !found, nil
		}
		return found, nil
	}

	right, err := e.evalScalar(n.Right, fr, row)
	if err != nil {
		return nil, err
	}

	if op == "like" || op == "not like" {
		ls, lok := left.(string)
		rs, rok := right.(string)
		if !lok || !rok {
			return nil, fmt.Errorf("exec: LIKE requires string operands")
		}
		matched := likeMatch(ls, rs)
		if op == "not like" {
			return !matched, nil
		}
		return matched, nil
	}

	return applyBinaryOp(op, left, right)
}

// listValues evaluates the right-hand side of IN/NOT IN. The grammar
// collapses a single-element parenthesized list to that element's value
// directly, so a bare (non-__list__) value is treated as a one-item list.
func (e *Evaluator) listValues(v ast.Value, fr frame, row int) ([]any, error) {
	if call, ok := v.(ast.Call); ok && call.Func == "__list__" {
		out := make([]any, len(call.Args))
		for i, a := range call.Args {
			val, err := e.evalScalar(a, fr, row)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}
	val, err := e.evalScalar(v, fr, row)
	if err != nil {
		return nil, err
	}
	return []any{val}, nil
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ad, aok := toNumber(a)
	bd, bok := toNumber(b)
	if aok && bok {
		return ad.Equal(bd)
	}
	return a == b
}

func applyBinaryOp(op string, left, right any) (any, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	switch op {
	case "=":
		return valuesEqual(left, right), nil
	case "!=", "<>":
		return !valuesEqual(left, right), nil
	}

	if ld, lok := toNumber(left); lok {
		rd, rok := toNumber(right)
		if !rok {
			return nil, fmt.Errorf("exec: operator %q requires numeric operands", op)
		}
		switch op {
		case "+":
			return ld.Add(rd), nil
		case "-":
			return ld.Sub(rd), nil
		case "*":
			return ld.Mul(rd), nil
		case "/":
			if rd.IsZero() {
				return nil, fmt.Errorf("exec: division by zero")
			}
			return ld.Div(rd), nil
		case "%":
			if rd.IsZero() {
				return nil, fmt.Errorf("exec: modulo by zero")
			}
			return ld.Mod(rd), nil
		case "^":
			return ld.Pow(rd), nil
		case ">":
			return ld.GreaterThan(rd), nil
		case "<":
			return ld.LessThan(rd), nil
		case ">=", "!<":
			return ld.GreaterThanOrEqual(rd), nil
		case "<=", "!>":
			return ld.LessThanOrEqual(rd), nil
		case "&":
			return decimal.NewFromInt(ld.IntPart() & rd.IntPart()), nil
		case "|":
			return decimal.NewFromInt(ld.IntPart() | rd.IntPart()), nil
		case "#":
			return decimal.NewFromInt(ld.IntPart() ^ rd.IntPart()), nil
		case "<<":
			return decimal.NewFromInt(ld.IntPart() << uint(rd.IntPart())), nil
		case ">>":
			return decimal.NewFromInt(ld.IntPart() >> uint(rd.IntPart())), nil
		}
	}

	if op == "||" {
		return fmt.Sprintf("%v", left) + fmt.Sprintf("%v", right), nil
	}

	return nil, fmt.Errorf("exec: unsupported operator %q for operand types %T, %T", op, left, right)
}

func applyUnaryOp(op string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch strings.ToLower(op) {
	case "", "+":
		return v, nil
	case "-":
		d, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("exec: unary - requires a numeric operand")
		}
		return d.Neg(), nil
	case "not":
		return !truthy(v), nil
	case "~":
		d, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("exec: ~ requires a numeric operand")
		}
		return decimal.NewFromInt(^d.IntPart()), nil
	default:
		return nil, fmt.Errorf("exec: unsupported unary operator %q", op)
	}
}

func applyCast(v any, typ string) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch strings.ToLower(typ) {
	case "int", "integer", "bigint", "smallint":
		d, ok := toNumber(v)
		if !ok {
			s := fmt.Sprintf("%v", v)
			var err error
			d, err = decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("exec: cannot cast %v to %s", v, typ)
			}
		}
		return decimal.NewFromInt(d.IntPart()), nil
	case "float", "double", "real", "numeric", "decimal":
		d, ok := toNumber(v)
		if ok {
			return d, nil
		}
		s := fmt.Sprintf("%v", v)
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("exec: cannot cast %v to %s", v, typ)
		}
		return d, nil
	case "text", "varchar", "char", "string":
		return fmt.Sprintf("%v", v), nil
	case "bool", "boolean":
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return strings.EqualFold(fmt.Sprintf("%v", v), "true"), nil
	default:
		return v, nil
	}
}

func likeMatch(s, pattern string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func (e *Evaluator) applyCall(n ast.Call, fr frame, row int) (any, error) {
	switch strings.ToLower(n.Func) {
	case "trim", "trim_leading", "trim_trailing":
		if len(n.Args) == 0 {
			return nil, fmt.Errorf("exec: trim requires at least one argument")
		}
		src, err := e.evalScalar(n.Args[len(n.Args)-1], fr, row)
		if err != nil {
			return nil, err
		}
		s, ok := src.(string)
		if !ok {
			return nil, fmt.Errorf("exec: trim requires a string argument")
		}
		cut := " "
		if len(n.Args) == 2 {
			c, err := e.evalScalar(n.Args[0], fr, row)
			if err != nil {
				return nil, err
			}
			if cs, ok := c.(string); ok {
				cut = cs
			}
		}
		switch strings.ToLower(n.Func) {
		case "trim_leading":
			return strings.TrimLeft(s, cut), nil
		case "trim_trailing":
			return strings.TrimRight(s, cut), nil
		default:
			return strings.Trim(s, cut), nil
		}
	case "position":
		if len(n.Args) != 2 {
			return nil, fmt.Errorf("exec: position requires 2 arguments")
		}
		sub, err := e.evalScalar(n.Args[0], fr, row)
		if err != nil {
			return nil, err
		}
		str, err := e.evalScalar(n.Args[1], fr, row)
		if err != nil {
			return nil, err
		}
		subS, ok1 := sub.(string)
		strS, ok2 := str.(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("exec: position requires string arguments")
		}
		idx := strings.Index(strS, subS)
		return decimal.NewFromInt(int64(idx + 1)), nil
	case "upper":
		return e.stringArg(n, fr, row, strings.ToUpper)
	case "lower":
		return e.stringArg(n, fr, row, strings.ToLower)
	case "length", "char_length":
		s, err := e.stringArg(n, fr, row, func(s string) string { return s })
		if err != nil {
			return nil, err
		}
		return decimal.NewFromInt(int64(len(s.(string)))), nil
	case "__list__":
		return nil, fmt.Errorf("%w: list expression used outside IN", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: unknown function %q", ErrUnsupported, n.Func)
	}
}

func (e *Evaluator) stringArg(n ast.Call, fr frame, row int, fn func(string) string) (any, error) {
	if len(n.Args) != 1 {
		return nil, fmt.Errorf("exec: %s requires exactly one argument", n.Func)
	}
	v, err := e.evalScalar(n.Args[0], fr, row)
	if err != nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("exec: %s requires a string argument", n.Func)
	}
	return fn(s), nil
}
