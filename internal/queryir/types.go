package queryir

import (
	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
)

// Predicate is a node of a compiled expression.
type Predicate interface {
	predicateNode()
}

// All matches every record. An empty expression compiles to All.
type All struct{}

func (*All) predicateNode() {}

// Compare tests one column against a literal.
//
// Op is one of native.OpMatch, OpPrefix, OpEqual, OpNotEqual, OpLess,
// OpGreater, OpLessEqual, OpGreaterEqual.
type Compare struct {
	Column string // empty for the default column
	Op     native.Operator
	Value  ir.IRValue
}

func (*Compare) predicateNode() {}

// And matches records matching every operand. Empty And matches all.
type And struct {
	Predicates []Predicate
}

func (*And) predicateNode() {}

// Or matches records matching any operand. Empty Or matches nothing.
type Or struct {
	Predicates []Predicate
}

func (*Or) predicateNode() {}

// AndNot matches records matching Left but not Right.
type AndNot struct {
	Left  Predicate
	Right Predicate
}

func (*AndNot) predicateNode() {}

// Not matches records not matching Predicate. Only produced for a leading
// negation, which must be enabled explicitly.
type Not struct {
	Predicate Predicate
}

func (*Not) predicateNode() {}

// Assign sets Column to Value on every record of the table. It only
// appears as the root of a script expression compiled with updates allowed,
// and matches every record.
type Assign struct {
	Column string
	Value  ir.IRValue
}

func (*Assign) predicateNode() {}

// Keywords returns the literal strings searched for by MATCH, PREFIX and
// EQUAL comparisons, in order of appearance, without duplicates. Terms under
// a negation are skipped. They are what snippets highlight.
func Keywords(p Predicate) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch n := p.(type) {
		case *Compare:
			switch n.Op {
			case native.OpMatch, native.OpPrefix, native.OpEqual:
			default:
				return
			}
			s, ok := n.Value.(ir.IRString)
			if !ok || s == "" || seen[string(s)] {
				return
			}
			seen[string(s)] = true
			out = append(out, string(s))
		case *And:
			for _, c := range n.Predicates {
				walk(c)
			}
		case *Or:
			for _, c := range n.Predicates {
				walk(c)
			}
		case *AndNot:
			walk(n.Left)
		}
	}
	walk(p)
	return out
}

// Columns returns every column name referenced by p, including the empty
// name when the default column is used.
func Columns(p Predicate) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch n := p.(type) {
		case *Compare:
			add(n.Column)
		case *Assign:
			add(n.Column)
		case *And:
			for _, c := range n.Predicates {
				walk(c)
			}
		case *Or:
			for _, c := range n.Predicates {
				walk(c)
			}
		case *AndNot:
			walk(n.Left)
			walk(n.Right)
		case *Not:
			walk(n.Predicate)
		}
	}
	walk(p)
	return out
}
