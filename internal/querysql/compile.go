package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/queryir"
)

// ErrUnknownColumn is returned by resolvers for names the table lacks.
var ErrUnknownColumn = errors.New("unknown column")

// NormalizeFunc is the SQL function both sides of a text comparison are
// passed through. The store registers it on every connection.
const NormalizeFunc = "grn_normalize"

// Column describes how a column is read in SQL.
type Column struct {
	// Expr is the SQL expression yielding the stored value, e.g. "t.c12" or
	// "grn_decode(t.c12, 'zstd')".
	Expr string
	// Vector columns hold a JSON array; comparisons test each element.
	Vector bool
	// Weighted vector elements are [value, weight] pairs.
	Weighted bool
	// Param converts a literal to the value bound for this column. Nil uses
	// the literal as is.
	Param func(ir.IRValue) (any, error)
}

// Resolver maps column names in a predicate to their SQL shape. The empty
// name is the default column.
type Resolver interface {
	Column(name string) (Column, error)
}

// SQLCompiler compiles predicates to parameterized SQLite.
//
// Values are never interpolated; every literal becomes a ? parameter.
type SQLCompiler struct {
	Resolver Resolver
}

// NewSQLCompiler creates a compiler resolving columns with r.
func NewSQLCompiler(r Resolver) *SQLCompiler {
	return &SQLCompiler{Resolver: r}
}

// CompileSelect returns a query listing the ids of records of table
// matching p, in id order. table is a trusted identifier and is aliased t.
func (c *SQLCompiler) CompileSelect(table string, p queryir.Predicate) (string, []any, error) {
	where, params, err := c.CompileWhere(p)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT t._id FROM %s AS t WHERE %s ORDER BY t._id ASC", table, where), params, nil
}

// CompileWhere compiles p to a boolean SQL expression. NULL column values
// never match a comparison, and negations treat them as non-matching.
func (c *SQLCompiler) CompileWhere(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1", nil, nil
	}
	switch pred := p.(type) {
	case *queryir.All, *queryir.Assign:
		return "1", nil, nil
	case *queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.And:
		if len(pred.Predicates) == 0 {
			return "1", nil, nil
		}
		return c.compileJunction(pred.Predicates, " AND ")
	case *queryir.Or:
		if len(pred.Predicates) == 0 {
			return "0", nil, nil
		}
		return c.compileJunction(pred.Predicates, " OR ")
	case *queryir.AndNot:
		left, lp, err := c.CompileWhere(pred.Left)
		if err != nil {
			return "", nil, err
		}
		right, rp, err := c.CompileWhere(pred.Right)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("(%s AND NOT COALESCE(%s, 0))", left, right), append(lp, rp...), nil
	case *queryir.Not:
		inner, params, err := c.CompileWhere(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("NOT COALESCE(%s, 0)", inner), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep string) (string, []any, error) {
	parts := make([]string, 0, len(preds))
	var params []any
	for _, p := range preds {
		sql, ps, err := c.CompileWhere(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

func (c *SQLCompiler) compileCompare(cmp *queryir.Compare) (string, []any, error) {
	col, err := c.Resolver.Column(cmp.Column)
	if err != nil {
		return "", nil, err
	}
	var param any
	if cmp.Op == native.OpMatch || cmp.Op == native.OpPrefix {
		param = ir.Text(cmp.Value)
	} else if col.Param != nil {
		if param, err = col.Param(cmp.Value); err != nil {
			return "", nil, fmt.Errorf("column %q: %w", cmp.Column, err)
		}
	} else if param, err = irValueToParam(cmp.Value); err != nil {
		return "", nil, fmt.Errorf("column %q: %w", cmp.Column, err)
	}

	operand := col.Expr
	if col.Vector {
		operand = "j.value"
		if col.Weighted {
			operand = "json_extract(j.value, '$[0]')"
		}
	}
	test, err := comparison(cmp.Op, operand)
	if err != nil {
		return "", nil, err
	}
	if col.Vector {
		test = fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) AS j WHERE %s)", col.Expr, test)
	}
	return test, []any{param}, nil
}

func comparison(op native.Operator, operand string) (string, error) {
	switch op {
	case native.OpMatch:
		return fmt.Sprintf("instr(%[1]s(%[2]s), %[1]s(?)) > 0", NormalizeFunc, operand), nil
	case native.OpPrefix:
		return fmt.Sprintf("instr(%[1]s(%[2]s), %[1]s(?)) = 1", NormalizeFunc, operand), nil
	case native.OpEqual:
		return operand + " = ?", nil
	case native.OpNotEqual:
		return operand + " IS NOT ?", nil
	case native.OpLess:
		return operand + " < ?", nil
	case native.OpLessEqual:
		return operand + " <= ?", nil
	case native.OpGreater:
		return operand + " > ?", nil
	case native.OpGreaterEqual:
		return operand + " >= ?", nil
	default:
		return "", fmt.Errorf("operator %s cannot compare a column", op)
	}
}

// irValueToParam converts a scalar literal to a driver value.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case nil, ir.IRNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}
