package search

import (
	"fmt"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// Expression is a compiled predicate bound to one table.
type Expression struct {
	ctx    *binding.Context
	handle native.Handle
	table  *binding.Object
	name   string
	source string
	syntax native.Syntax
	closed bool
}

// Handle returns the engine handle of the expression.
func (e *Expression) Handle() native.Handle { return e.handle }

// Table returns the table the expression is bound to.
func (e *Expression) Table() *binding.Object { return e.table }

// Name returns the label given at compile time.
func (e *Expression) Name() string { return e.name }

// Source returns the query or script text.
func (e *Expression) Source() string { return e.source }

// Syntax returns the grammar the source was parsed with.
func (e *Expression) Syntax() native.Syntax { return e.syntax }

// Compile parses query against the table owning target, with target as
// the default column for unqualified terms. target may also be a table, in
// which case terms must be qualified.
func Compile(target *binding.Object, query string, opts Options) (*Expression, error) {
	table, def, err := resolveTarget(target)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return compile(table, def, query, opts)
}

func compile(table *binding.Object, def native.Handle, query string, opts Options) (*Expression, error) {
	ctx := table.Context()
	h, code := ctx.Engine().CompileExpr(native.ExprRequest{
		Table:         table.Handle(),
		DefaultColumn: def,
		Name:          opts.Name,
		Source:        query,
		Syntax:        opts.Syntax,
		Flags:         opts.exprFlags(),
	})
	if err := ctx.Check(code, query); err != nil {
		return nil, err
	}
	return &Expression{
		ctx:    ctx,
		handle: h,
		table:  table,
		name:   opts.Name,
		source: query,
		syntax: opts.Syntax,
	}, nil
}

// resolveTarget returns the table to search and the default column.
func resolveTarget(target *binding.Object) (*binding.Object, native.Handle, error) {
	if target == nil {
		return nil, 0, fmt.Errorf("%w: nil search target", status.ErrArgument)
	}
	if target.IsTable() {
		if target.Finalized() {
			return nil, 0, fmt.Errorf("%w: %s is finalized", status.ErrClosed, target)
		}
		return target, native.NilHandle, nil
	}
	if target.IsIndex() {
		return nil, 0, fmt.Errorf("%w: cannot search index column %s", status.ErrArgument, target)
	}
	table, err := target.Table()
	if err != nil {
		return nil, 0, err
	}
	return table, target.Handle(), nil
}

// Keywords returns the terms the expression matches against text, for
// highlighting.
func (e *Expression) Keywords() ([]string, error) {
	if err := e.usable(); err != nil {
		return nil, err
	}
	kws, code := e.ctx.Engine().ExprKeywords(e.handle)
	if err := e.ctx.Check(code, e.source); err != nil {
		return nil, err
	}
	return kws, nil
}

// Close releases the expression. It is idempotent.
func (e *Expression) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.ctx.Closed() {
		return nil
	}
	return e.ctx.Check(e.ctx.Engine().Unlink(e.handle), e.source)
}

func (e *Expression) usable() error {
	if e.closed || e.ctx.Closed() {
		return fmt.Errorf("%w: expression %q", status.ErrClosed, e.source)
	}
	return nil
}
