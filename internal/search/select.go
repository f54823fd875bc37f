package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/metrics"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// Result is a result table together with the expression that filled it.
type Result struct {
	table *binding.Object
	expr  *Expression
}

// Table returns the result table. Its keys are records of the searched
// table.
func (r *Result) Table() *binding.Object { return r.table }

// Expression returns the expression used by the select that produced r.
func (r *Result) Expression() *Expression { return r.expr }

// Records returns the result records. Each key is the key of the matched
// record, or its id for unkeyed tables.
func (r *Result) Records() ([]native.Record, error) {
	return r.table.Records()
}

// Keys returns the result keys in insertion order.
func (r *Result) Keys() ([]ir.IRValue, error) {
	recs, err := r.table.Records()
	if err != nil {
		return nil, err
	}
	keys := make([]ir.IRValue, len(recs))
	for i, rec := range recs {
		keys[i] = rec.Key
	}
	return keys, nil
}

// Len returns the number of result records.
func (r *Result) Len() (int, error) {
	recs, err := r.table.Records()
	return len(recs), err
}

// Drop releases the result table, deleting it if it is temporary.
func (r *Result) Drop() error {
	return r.table.Unlink()
}

// Select matches cond against the table of target and merges the matches
// into the result table. A nil opts means DefaultOptions.
//
// On failure no result is returned, and a result table created by this
// call is dropped.
func Select(target *binding.Object, cond Condition, opts *Options) (*Result, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	table, def, err := resolveTarget(target)
	if err != nil {
		return nil, err
	}
	ctx := table.Context()

	res, err := run(ctx, table, def, cond, o)
	outcome := metrics.SelectOK
	if err != nil {
		outcome = metrics.SelectError
	}
	ctx.Metrics().Select(o.Operator.String(), outcome)
	if err != nil {
		ctx.Logger().Debug("select failed", "target", target.String(), "condition", cond.String(), "operator", o.Operator.String(), "err", err)
		return nil, err
	}
	if logger := ctx.Logger(); logger.Enabled(context.Background(), slog.LevelDebug) {
		n, _ := res.Len()
		logger.Debug("selected", "target", target.String(), "condition", cond.String(), "operator", o.Operator.String(), "records", n)
	}
	return res, nil
}

func run(ctx *binding.Context, table *binding.Object, def native.Handle, cond Condition, o Options) (*Result, error) {
	var expr *Expression
	switch cond.kind {
	case condExpr:
		if cond.expr == nil {
			return nil, fmt.Errorf("%w: nil expression", status.ErrArgument)
		}
		if err := cond.expr.usable(); err != nil {
			return nil, err
		}
		if cond.expr.table.Handle() != table.Handle() {
			return nil, fmt.Errorf("%w: expression is bound to %s, not %s", status.ErrArgument, cond.expr.table, table)
		}
		expr = cond.expr
	default:
		var err error
		expr, err = compile(table, def, cond.query, o)
		if err != nil {
			return nil, err
		}
	}

	result := o.Result
	created := false
	if result == nil {
		h, code := ctx.Engine().CreateTable(native.TableSpec{
			Type:       native.TypeTableHashKey,
			KeyTable:   table.Handle(),
			WithSubrec: true,
		})
		if err := ctx.Check(code, table.Name()); err != nil {
			discard(expr, cond)
			return nil, err
		}
		obj, err := ctx.Bind(h)
		if err != nil {
			ctx.Engine().Unlink(h)
			discard(expr, cond)
			return nil, err
		}
		result, created = obj, true
	}

	code := ctx.Engine().TableSelect(table.Handle(), expr.handle, result.Handle(), o.Operator)
	if err := ctx.Check(code, table.Name()); err != nil {
		if created {
			result.Unlink()
		}
		discard(expr, cond)
		return nil, err
	}
	return &Result{table: result, expr: expr}, nil
}

// discard closes an expression compiled by a failed select.
func discard(expr *Expression, cond Condition) {
	if cond.kind != condExpr {
		expr.Close()
	}
}
