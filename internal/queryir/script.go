package queryir

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
)

// ParseScript parses script syntax:
//
//	title @ "groonga" && (n_likes >= 10 || _key @^ "gr")
//	body @ "draft" &! title == "old"
//	!(n_likes < 3)
//	title = "renamed"              (requires native.AllowUpdate)
//
// Comparison operators are @ (match), @^ (prefix), ==, !=, <, <=, >, >=.
// Logical operators are && , || and &! (and not). Literals are double
// quoted strings, integers, true, false and null.
func ParseScript(src string, flags native.ExprFlags) (Predicate, error) {
	toks, err := lexScript(src)
	if err != nil {
		return nil, err
	}
	p := &scriptParser{toks: toks}
	if len(toks) == 1 {
		return &All{}, nil
	}
	if toks[0].kind == tokIdent && toks[1].kind == tokOp && toks[1].text == "=" {
		if !flags.Has(native.AllowUpdate) {
			return nil, fmt.Errorf("assignment to %q: %w", toks[0].text, ErrUpdateNotAllowed)
		}
		return p.assign()
	}
	pred, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxErrorf(t.pos, "unexpected %q", t.text)
	}
	return pred, nil
}

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokInt
	tokOp
)

type token struct {
	kind tokKind
	text string
	pos  int
}

// Longest operators first.
var scriptOps = []string{"@^", "==", "!=", "<=", ">=", "&&", "||", "&!", "@", "<", ">", "=", "!", "(", ")"}

func lexScript(src string) ([]token, error) {
	rs := []rune(src)
	var toks []token
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '"':
			start := i
			var b strings.Builder
			i++
			closed := false
			for i < len(rs) {
				c := rs[i]
				i++
				if c == '"' {
					closed = true
					break
				}
				if c == '\\' && i < len(rs) {
					c = rs[i]
					i++
				}
				b.WriteRune(c)
			}
			if !closed {
				return nil, syntaxErrorf(start, "unterminated string")
			}
			toks = append(toks, token{kind: tokString, text: b.String(), pos: start})
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			i++
			for i < len(rs) && unicode.IsDigit(rs[i]) {
				i++
			}
			if i < len(rs) && rs[i] == '.' {
				return nil, syntaxErrorf(start, "floats are not supported")
			}
			toks = append(toks, token{kind: tokInt, text: string(rs[start:i]), pos: start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && isIdentRune(rs[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		default:
			matched := false
			for _, op := range scriptOps {
				n := len([]rune(op))
				if i+n <= len(rs) && string(rs[i:i+n]) == op {
					toks = append(toks, token{kind: tokOp, text: op, pos: i})
					i += n
					matched = true
					break
				}
			}
			if !matched {
				return nil, syntaxErrorf(i, "unexpected %q", r)
			}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

type scriptParser struct {
	toks []token
	pos  int
}

func (p *scriptParser) peek() token { return p.toks[p.pos] }

func (p *scriptParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *scriptParser) acceptOp(op string) bool {
	if t := p.peek(); t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	return false
}

func (p *scriptParser) assign() (Predicate, error) {
	col := p.next()
	p.next() // =
	value, err := p.literal()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxErrorf(t.pos, "unexpected %q after assignment", t.text)
	}
	return &Assign{Column: col.text, Value: value}, nil
}

func (p *scriptParser) or() (Predicate, error) {
	acc, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.acceptOp("||") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		acc = disjoin(acc, right)
	}
	return acc, nil
}

func (p *scriptParser) and() (Predicate, error) {
	acc, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.acceptOp("&&"):
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			acc = conjoin(acc, right)
		case p.acceptOp("&!"):
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			acc = &AndNot{Left: acc, Right: right}
		default:
			return acc, nil
		}
	}
}

func (p *scriptParser) unary() (Predicate, error) {
	if p.acceptOp("!") {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Not{Predicate: inner}, nil
	}
	return p.primary()
}

var scriptCompareOps = map[string]native.Operator{
	"@":  native.OpMatch,
	"@^": native.OpPrefix,
	"==": native.OpEqual,
	"!=": native.OpNotEqual,
	"<":  native.OpLess,
	"<=": native.OpLessEqual,
	">":  native.OpGreater,
	">=": native.OpGreaterEqual,
}

func (p *scriptParser) primary() (Predicate, error) {
	t := p.next()
	switch {
	case t.kind == tokOp && t.text == "(":
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.acceptOp(")") {
			return nil, syntaxErrorf(t.pos, "unclosed parenthesis")
		}
		return inner, nil
	case t.kind == tokIdent:
		opTok := p.next()
		op, ok := scriptCompareOps[opTok.text]
		if opTok.kind != tokOp || !ok {
			if opTok.kind == tokOp && opTok.text == "=" {
				return nil, syntaxErrorf(opTok.pos, "assignment must be the whole expression")
			}
			return nil, syntaxErrorf(opTok.pos, "expected comparison operator after %q", t.text)
		}
		value, err := p.literal()
		if err != nil {
			return nil, err
		}
		return &Compare{Column: t.text, Op: op, Value: value}, nil
	case t.kind == tokEOF:
		return nil, syntaxErrorf(t.pos, "unexpected end of expression")
	default:
		return nil, syntaxErrorf(t.pos, "unexpected %q", t.text)
	}
}

func (p *scriptParser) literal() (ir.IRValue, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return ir.IRString(t.text), nil
	case tokInt:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, syntaxErrorf(t.pos, "integer out of range: %s", t.text)
		}
		return ir.IRInt(n), nil
	case tokIdent:
		switch t.text {
		case "true":
			return ir.IRBool(true), nil
		case "false":
			return ir.IRBool(false), nil
		case "null":
			return ir.IRNull{}, nil
		}
	case tokEOF:
		return nil, syntaxErrorf(t.pos, "missing literal")
	}
	return nil, syntaxErrorf(t.pos, "expected literal, got %q", t.text)
}
