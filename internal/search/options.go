package search

import (
	"fmt"
	"sort"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// Options configures Select and Compile. Start from DefaultOptions: the
// zero value disables every parser feature.
type Options struct {
	// Operator merges matches into the result. It must be one of OpOr,
	// OpAnd, OpAndNot or OpAdjust.
	Operator native.Operator
	// Result is the table matches merge into. Nil creates a new one.
	Result *binding.Object
	// Name labels the compiled expression.
	Name   string
	Syntax native.Syntax

	AllowPragma     bool // query syntax: "*D+" style pragmas
	AllowColumn     bool // query syntax: "column:value" qualifiers
	AllowUpdate     bool // script syntax: assignments
	AllowLeadingNot bool // query syntax: a leading "-term"
}

// DefaultOptions returns OR merging into a new result, query syntax, and
// every parser feature except leading negation.
func DefaultOptions() Options {
	return Options{
		Operator:    native.OpOr,
		Syntax:      native.SyntaxQuery,
		AllowPragma: true,
		AllowColumn: true,
		AllowUpdate: true,
	}
}

// Validate checks the option values.
func (o Options) Validate() error {
	if !o.Operator.IsMerge() {
		return fmt.Errorf("%w: operator %s cannot merge results", status.ErrArgument, o.Operator)
	}
	switch o.Syntax {
	case native.SyntaxQuery, native.SyntaxScript:
	default:
		return fmt.Errorf("%w: unknown syntax %d", status.ErrArgument, o.Syntax)
	}
	if o.Result != nil {
		if o.Result.Finalized() {
			return fmt.Errorf("%w: result %s is finalized", status.ErrClosed, o.Result)
		}
		if !o.Result.IsTable() {
			return fmt.Errorf("%w: result %s is not a table", status.ErrArgument, o.Result)
		}
	}
	return nil
}

func (o Options) exprFlags() native.ExprFlags {
	var f native.ExprFlags
	if o.AllowPragma {
		f |= native.AllowPragma
	}
	if o.AllowColumn {
		f |= native.AllowColumn
	}
	if o.AllowUpdate {
		f |= native.AllowUpdate
	}
	if o.AllowLeadingNot {
		f |= native.AllowLeadingNot
	}
	return f
}

// Option keys accepted by ParseOptions.
const (
	KeyOperator        = "operator"
	KeyResult          = "result"
	KeyName            = "name"
	KeySyntax          = "syntax"
	KeyAllowPragma     = "allow_pragma"
	KeyAllowColumn     = "allow_column"
	KeyAllowUpdate     = "allow_update"
	KeyAllowLeadingNot = "allow_leading_not"
)

// ParseOptions builds Options from a key/value map on top of the
// defaults. Operators and syntaxes may be given by value or by name
// ("and_not", "script"); results as a table object or a *Result. Unknown
// keys and mistyped values fail with status.ErrArgument.
func ParseOptions(m map[string]any) (Options, error) {
	opts := DefaultOptions()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := opts.set(k, m[k]); err != nil {
			return Options{}, err
		}
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (o *Options) set(key string, v any) error {
	switch key {
	case KeyOperator:
		switch op := v.(type) {
		case native.Operator:
			o.Operator = op
		case string:
			parsed, ok := native.ParseOperator(op)
			if !ok {
				return fmt.Errorf("%w: unknown operator %q", status.ErrArgument, op)
			}
			o.Operator = parsed
		default:
			return typeError(key, v)
		}
	case KeyResult:
		switch r := v.(type) {
		case *binding.Object:
			o.Result = r
		case *Result:
			o.Result = r.Table()
		case nil:
			o.Result = nil
		default:
			return typeError(key, v)
		}
	case KeyName:
		s, ok := v.(string)
		if !ok {
			return typeError(key, v)
		}
		o.Name = s
	case KeySyntax:
		switch s := v.(type) {
		case native.Syntax:
			o.Syntax = s
		case string:
			parsed, ok := native.ParseSyntax(s)
			if !ok {
				return fmt.Errorf("%w: unknown syntax %q", status.ErrArgument, s)
			}
			o.Syntax = parsed
		default:
			return typeError(key, v)
		}
	case KeyAllowPragma, KeyAllowColumn, KeyAllowUpdate, KeyAllowLeadingNot:
		b, ok := v.(bool)
		if !ok {
			return typeError(key, v)
		}
		switch key {
		case KeyAllowPragma:
			o.AllowPragma = b
		case KeyAllowColumn:
			o.AllowColumn = b
		case KeyAllowUpdate:
			o.AllowUpdate = b
		default:
			o.AllowLeadingNot = b
		}
	default:
		return fmt.Errorf("%w: unknown option %q", status.ErrArgument, key)
	}
	return nil
}

func typeError(key string, v any) error {
	return fmt.Errorf("%w: option %q: unexpected %T", status.ErrArgument, key, v)
}

type conditionKind uint8

const (
	condAll conditionKind = iota
	condQuery
	condExpr
)

// Condition is what Select matches: a query string, a compiled
// expression, or every record.
type Condition struct {
	kind  conditionKind
	query string
	expr  *Expression
}

// Query matches records against a query or script string, compiled with
// the select options.
func Query(q string) Condition { return Condition{kind: condQuery, query: q} }

// Expr matches records against a compiled expression. The syntax and
// parser flags of the select options are ignored.
func Expr(e *Expression) Condition { return Condition{kind: condExpr, expr: e} }

// All matches every record.
func All() Condition { return Condition{} }

func (c Condition) String() string {
	switch c.kind {
	case condQuery:
		return fmt.Sprintf("query %q", c.query)
	case condExpr:
		return fmt.Sprintf("expression %q", c.expr.Source())
	}
	return "all records"
}

// SelectArgs normalizes the loose call form
//
//	(query [, options])  (expression [, options])  ([options])
//
// where query is a string, expression an *Expression and options a
// map[string]any or an Options value. Any other shape fails with
// status.ErrArgument.
func SelectArgs(args ...any) (Condition, Options, error) {
	if len(args) > 2 {
		return Condition{}, Options{}, shapeError(args)
	}
	var first, second any
	if len(args) > 0 {
		first = args[0]
	}
	if len(args) > 1 {
		second = args[1]
	}

	cond := All()
	rawOpts := second
	switch c := first.(type) {
	case string:
		cond = Query(c)
	case *Expression:
		if c == nil {
			return Condition{}, Options{}, shapeError(args)
		}
		cond = Expr(c)
	default:
		if !isNil(second) {
			return Condition{}, Options{}, shapeError(args)
		}
		rawOpts = first
	}

	switch o := rawOpts.(type) {
	case nil:
		return cond, DefaultOptions(), nil
	case map[string]any:
		opts, err := ParseOptions(o)
		return cond, opts, err
	case Options:
		return cond, o, o.Validate()
	case *Options:
		if o == nil {
			return cond, DefaultOptions(), nil
		}
		return cond, *o, o.Validate()
	}
	return Condition{}, Options{}, shapeError(args)
}

func isNil(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return x == nil
	case *Options:
		return x == nil
	}
	return false
}

func shapeError(args []any) error {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = fmt.Sprintf("%T", a)
	}
	return fmt.Errorf("%w: should be (query, options), (expression, options) or (options): got %v",
		status.ErrArgument, types)
}
