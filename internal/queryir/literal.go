package queryir

import (
	"strconv"

	"github.com/roach88/grnbind/internal/ir"
)

// literal interprets an unquoted word: integers become IRInt, true/false
// become IRBool, anything else stays text.
func literal(word string) ir.IRValue {
	if n, err := strconv.ParseInt(word, 10, 64); err == nil {
		return ir.IRInt(n)
	}
	switch word {
	case "true":
		return ir.IRBool(true)
	case "false":
		return ir.IRBool(false)
	}
	return ir.IRString(word)
}

func conjoin(acc, p Predicate) Predicate {
	if a, ok := acc.(*And); ok {
		a.Predicates = append(a.Predicates, p)
		return a
	}
	return &And{Predicates: []Predicate{acc, p}}
}

func disjoin(acc, p Predicate) Predicate {
	if o, ok := acc.(*Or); ok {
		o.Predicates = append(o.Predicates, p)
		return o
	}
	return &Or{Predicates: []Predicate{acc, p}}
}
