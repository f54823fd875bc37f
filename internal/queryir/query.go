package queryir

import (
	"strings"
	"unicode"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
)

// ParseQuery parses query syntax.
//
// Terms separated by whitespace are combined with the default operator
// (AND, or OR after a "*DOR" pragma). "OR" between terms disjoins them,
// "+term" conjoins explicitly and "-term" excludes. Quoted phrases match
// literally. With native.AllowColumn, "col:value" compares a column:
//
//	col:value   equal          col:!value  not equal
//	col:@value  match          col:^value  prefix
//	col:<value  col:>value     col:<=value col:>=value
//
// Unqualified terms match the default column.
func ParseQuery(src string, flags native.ExprFlags) (Predicate, error) {
	p := &queryParser{src: []rune(src), flags: flags, defaultOp: native.OpAnd}
	return p.parse()
}

type queryParser struct {
	src       []rune
	pos       int
	flags     native.ExprFlags
	defaultOp native.Operator
}

func (p *queryParser) parse() (Predicate, error) {
	p.skipSpace()
	if p.flags.Has(native.AllowPragma) && p.hasPrefix("*D") {
		if err := p.pragma(); err != nil {
			return nil, err
		}
		p.skipSpace()
	}
	if p.eof() {
		return &All{}, nil
	}
	pred, err := p.or()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, syntaxErrorf(p.pos, "unexpected %q", p.src[p.pos])
	}
	return pred, nil
}

func (p *queryParser) pragma() error {
	start := p.pos
	p.pos += 2
	word := p.word()
	switch word {
	case "OR":
		p.defaultOp = native.OpOr
	case "AND":
		p.defaultOp = native.OpAnd
	default:
		return syntaxErrorf(start, "unknown default operator pragma %q", "*D"+word)
	}
	return nil
}

func (p *queryParser) or() (Predicate, error) {
	acc, err := p.and()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if !p.atKeyword("OR") {
			return acc, nil
		}
		p.pos += 2
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		acc = disjoin(acc, right)
	}
}

func (p *queryParser) and() (Predicate, error) {
	var acc Predicate
	for {
		p.skipSpace()
		if p.eof() || p.peek() == ')' || p.atKeyword("OR") {
			break
		}
		start := p.pos
		sign := p.peek()
		if sign == '-' || sign == '+' {
			p.pos++
			if p.eof() || unicode.IsSpace(p.peek()) {
				return nil, syntaxErrorf(start, "dangling %q", sign)
			}
		} else {
			sign = 0
		}
		operand, err := p.primary()
		if err != nil {
			return nil, err
		}
		switch {
		case acc == nil && sign == '-':
			if !p.flags.Has(native.AllowLeadingNot) {
				return nil, syntaxErrorf(start, "leading NOT is not allowed")
			}
			acc = &Not{Predicate: operand}
		case acc == nil:
			acc = operand
		case sign == '-':
			acc = &AndNot{Left: acc, Right: operand}
		case sign == '+' || p.defaultOp == native.OpAnd:
			acc = conjoin(acc, operand)
		default:
			acc = disjoin(acc, operand)
		}
	}
	if acc == nil {
		return nil, syntaxErrorf(p.pos, "missing operand")
	}
	return acc, nil
}

func (p *queryParser) primary() (Predicate, error) {
	switch p.peek() {
	case '(':
		open := p.pos
		p.pos++
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.eof() || p.peek() != ')' {
			return nil, syntaxErrorf(open, "unclosed parenthesis")
		}
		p.pos++
		return inner, nil
	case '"':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return &Compare{Op: native.OpMatch, Value: ir.IRString(s)}, nil
	}

	if p.flags.Has(native.AllowColumn) {
		if col, ok := p.qualifier(); ok {
			return p.qualified(col)
		}
	}
	start := p.pos
	word := p.word()
	if word == "" {
		return nil, syntaxErrorf(start, "unexpected %q", p.peek())
	}
	return &Compare{Op: native.OpMatch, Value: ir.IRString(word)}, nil
}

// qualifier consumes "name:" if present.
func (p *queryParser) qualifier() (string, bool) {
	i := p.pos
	for i < len(p.src) && isIdentRune(p.src[i]) {
		i++
	}
	if i == p.pos || i >= len(p.src) || p.src[i] != ':' {
		return "", false
	}
	col := string(p.src[p.pos:i])
	p.pos = i + 1
	return col, true
}

var qualifiedOps = []struct {
	token string
	op    native.Operator
}{
	{"<=", native.OpLessEqual},
	{">=", native.OpGreaterEqual},
	{"<", native.OpLess},
	{">", native.OpGreater},
	{"@", native.OpMatch},
	{"^", native.OpPrefix},
	{"!", native.OpNotEqual},
}

func (p *queryParser) qualified(col string) (Predicate, error) {
	op := native.OpEqual
	for _, q := range qualifiedOps {
		if p.hasPrefix(q.token) {
			op = q.op
			p.pos += len([]rune(q.token))
			break
		}
	}
	start := p.pos
	var value ir.IRValue
	if !p.eof() && p.peek() == '"' {
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		value = ir.IRString(s)
	} else {
		word := p.word()
		if word == "" {
			return nil, syntaxErrorf(start, "missing value for column %q", col)
		}
		if op == native.OpMatch || op == native.OpPrefix {
			value = ir.IRString(word)
		} else {
			value = literal(word)
		}
	}
	return &Compare{Column: col, Op: op, Value: value}, nil
}

// word reads up to whitespace or a parenthesis. A backslash escapes the
// next rune.
func (p *queryParser) word() string {
	var b strings.Builder
	for !p.eof() {
		r := p.peek()
		if unicode.IsSpace(r) || r == '(' || r == ')' {
			break
		}
		if r == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			r = p.peek()
		}
		b.WriteRune(r)
		p.pos++
	}
	return b.String()
}

func (p *queryParser) quoted() (string, error) {
	open := p.pos
	p.pos++
	var b strings.Builder
	for !p.eof() {
		r := p.peek()
		p.pos++
		switch r {
		case '"':
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", syntaxErrorf(open, "unterminated phrase")
			}
			r = p.peek()
			p.pos++
		}
		b.WriteRune(r)
	}
	return "", syntaxErrorf(open, "unterminated phrase")
}

func (p *queryParser) atKeyword(kw string) bool {
	if !p.hasPrefix(kw) {
		return false
	}
	end := p.pos + len(kw)
	return end == len(p.src) || unicode.IsSpace(p.src[end]) || p.src[end] == '(' || p.src[end] == ')'
}

func (p *queryParser) hasPrefix(s string) bool {
	rs := []rune(s)
	if p.pos+len(rs) > len(p.src) {
		return false
	}
	for i, r := range rs {
		if p.src[p.pos+i] != r {
			return false
		}
	}
	return true
}

func (p *queryParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

func (p *queryParser) peek() rune { return p.src[p.pos] }
func (p *queryParser) eof() bool  { return p.pos >= len(p.src) }

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
