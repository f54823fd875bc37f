package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/queryir"
	"github.com/roach88/grnbind/internal/querysql"
	"github.com/roach88/grnbind/internal/status"
)

// CompileExpr parses req.Source against req.Table and returns a
// session-local expression handle.
func (s *Session) CompileExpr(req native.ExprRequest) (native.Handle, status.Code) {
	if code := s.checkOpen("compile_expr"); code != status.Success {
		return native.NilHandle, code
	}
	db := s.store.db
	t, err := loadTable(db, req.Table)
	if err != nil {
		return native.NilHandle, s.fail(codeOf(err), "compile_expr", err)
	}
	if err := s.checkDefaultColumn(db, t, req.DefaultColumn); err != nil {
		return native.NilHandle, s.fail(codeOf(err), "compile_expr", err)
	}

	var pred queryir.Predicate
	switch req.Syntax {
	case native.SyntaxQuery:
		pred, err = queryir.ParseQuery(req.Source, req.Flags)
	case native.SyntaxScript:
		pred, err = queryir.ParseScript(req.Source, req.Flags)
	default:
		return native.NilHandle, s.invalid("compile_expr", "unknown syntax %d", req.Syntax)
	}
	if err != nil {
		var se *queryir.SyntaxError
		switch {
		case errors.As(err, &se):
			return native.NilHandle, s.fail(status.CodeSyntaxError, "compile_expr", err)
		case errors.Is(err, queryir.ErrUpdateNotAllowed):
			return native.NilHandle, s.fail(status.CodeUpdateNotAllowed, "compile_expr", err)
		}
		return native.NilHandle, s.fail(status.CodeInvalidArgument, "compile_expr", err)
	}

	r := &columnResolver{q: db, session: s, table: t, def: req.DefaultColumn}
	for _, name := range queryir.Columns(pred) {
		if _, err := r.Column(name); err != nil {
			return native.NilHandle, s.fail(codeOf(err), "compile_expr", err)
		}
	}
	if a, ok := pred.(*queryir.Assign); ok {
		if c, err := findColumn(db, t, a.Column); err != nil || c == nil {
			return native.NilHandle, s.invalid("compile_expr", "cannot assign to %q", a.Column)
		}
	}

	h := s.allocLocal()
	s.exprs[h] = &expr{
		table:    t.id,
		column:   req.DefaultColumn,
		name:     req.Name,
		pred:     pred,
		keywords: queryir.Keywords(pred),
	}
	return h, status.Success
}

func (s *Session) checkDefaultColumn(q queryer, t *object, h native.Handle) error {
	if h == native.NilHandle {
		return nil
	}
	if a, ok := s.accessors[h]; ok {
		if a.table != t.id {
			return failf(status.CodeInvalidArgument, "default column belongs to another table")
		}
		return nil
	}
	c, err := loadDataColumn(q, h)
	if err != nil {
		return err
	}
	if c.domain != t.id {
		return failf(status.CodeInvalidArgument, "default column %s belongs to another table", c.name)
	}
	return nil
}

// ExprKeywords returns the terms expr searches for.
func (s *Session) ExprKeywords(h native.Handle) ([]string, status.Code) {
	if code := s.checkOpen("expr_keywords"); code != status.Success {
		return nil, code
	}
	e, ok := s.exprs[h]
	if !ok {
		return nil, s.invalid("expr_keywords", "unknown expression %d", h)
	}
	return append([]string(nil), e.keywords...), status.Success
}

// TableSelect evaluates expr over table and merges the matching records
// into result, a table keyed by table:
//
//	OR       adds matches not yet present with score 1
//	AND      keeps only present matches, adding 1 to their score
//	AND_NOT  removes present matches
//	ADJUST   adds 1 to the score of present matches
//
// Assignments are applied to every record first. The merge runs in one
// transaction.
func (s *Session) TableSelect(table, exprHandle, result native.Handle, op native.Operator) status.Code {
	if code := s.checkOpen("table_select"); code != status.Success {
		return code
	}
	e, ok := s.exprs[exprHandle]
	if !ok {
		return s.invalid("table_select", "unknown expression %d", exprHandle)
	}
	if !op.IsMerge() {
		return s.invalid("table_select", "%s cannot merge results", op)
	}
	var added, removed uint64
	err := s.inTx(func(tx *sql.Tx) error {
		t, err := loadTable(tx, table)
		if err != nil {
			return err
		}
		if e.table != t.id {
			return failf(status.CodeInvalidArgument, "expression is bound to another table")
		}
		res, err := loadTable(tx, result)
		if err != nil {
			return err
		}
		if res.domain != t.id {
			return failf(status.CodeInvalidArgument, "result table is not keyed by %s", t.name)
		}
		if a, ok := e.pred.(*queryir.Assign); ok {
			if err := assign(tx, t, a); err != nil {
				return err
			}
		}

		r := &columnResolver{q: tx, session: s, table: t, def: e.column}
		query, params, err := querysql.NewSQLCompiler(r).CompileSelect(t.dataTable(), e.pred)
		if err != nil {
			if codeOf(err) == status.CodeUnknownError {
				return failf(status.CodeInvalidArgument, "%v", err)
			}
			return err
		}
		matched, err := idSet(tx, query, params...)
		if err != nil {
			return err
		}
		present, err := idSet(tx, fmt.Sprintf(`SELECT _key FROM %s`, res.dataTable()))
		if err != nil {
			return err
		}

		resTable := res.dataTable()
		switch op {
		case native.OpOr:
			add := roaring.AndNot(matched, present)
			added = add.GetCardinality()
			return execEach(tx, fmt.Sprintf(`INSERT INTO %s (_key, _score) VALUES (?, 1)`, resTable), add)
		case native.OpAnd:
			drop := roaring.AndNot(present, matched)
			removed = drop.GetCardinality()
			if err := execEach(tx, fmt.Sprintf(`DELETE FROM %s WHERE _key = ?`, resTable), drop); err != nil {
				return err
			}
			return execEach(tx, fmt.Sprintf(`UPDATE %s SET _score = _score + 1 WHERE _key = ?`, resTable),
				roaring.And(present, matched))
		case native.OpAndNot:
			drop := roaring.And(present, matched)
			removed = drop.GetCardinality()
			return execEach(tx, fmt.Sprintf(`DELETE FROM %s WHERE _key = ?`, resTable), drop)
		case native.OpAdjust:
			return execEach(tx, fmt.Sprintf(`UPDATE %s SET _score = _score + 1 WHERE _key = ?`, resTable),
				roaring.And(present, matched))
		}
		return nil
	})
	if err != nil {
		return s.fail(codeOf(err), "table_select", err)
	}
	s.store.logger.Debug("table selected", "session", s.id, "table", table, "operator", op.String(),
		"added", added, "removed", removed)
	return status.Success
}

func assign(tx *sql.Tx, t *object, a *queryir.Assign) error {
	c, err := findColumn(tx, t, a.Column)
	if err != nil {
		return err
	}
	if c == nil {
		return failf(status.CodeInvalidArgument, "unknown column %q", a.Column)
	}
	var p any
	if c.vector() {
		p, err = encodeVector(tx, c.vt, c.weighted(), a.Value)
	} else {
		p, err = encodeElement(tx, c.vt, a.Value, true)
	}
	if err != nil {
		return err
	}
	if codec := codecName(c.flags); codec != "" && p != nil {
		if p, err = compress(codec, []byte(p.(string))); err != nil {
			return err
		}
	}
	_, err = tx.Exec(fmt.Sprintf(`UPDATE %s SET %s = ?`, t.dataTable(), c.sqlName()), p)
	return err
}

func idSet(q queryer, query string, args ...any) (*roaring.Bitmap, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := roaring.New()
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set.Add(id)
	}
	return set, rows.Err()
}

func execEach(tx *sql.Tx, query string, ids *roaring.Bitmap) error {
	if ids.IsEmpty() {
		return nil
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	it := ids.Iterator()
	for it.HasNext() {
		if _, err := stmt.Exec(it.Next()); err != nil {
			return err
		}
	}
	return nil
}

// findColumn returns the data column of t with local name, or nil.
func findColumn(q queryer, t *object, local string) (*dataColumn, error) {
	var id native.Handle
	err := q.QueryRow(`SELECT id FROM grn_objects WHERE domain = ? AND local_name = ? AND type IN (?, ?)`,
		t.id, local, native.TypeColumnFixSize, native.TypeColumnVarSize).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loadDataColumn(q, id)
}

// columnResolver maps expression column names to SQL over alias t.
type columnResolver struct {
	q       queryer
	session *Session
	table   *object
	def     native.Handle
}

var _ querysql.Resolver = (*columnResolver)(nil)

func (r *columnResolver) Column(name string) (querysql.Column, error) {
	if name == "" {
		if r.def == native.NilHandle {
			return querysql.Column{}, unknownColumn("no default column")
		}
		if a, ok := r.session.accessors[r.def]; ok {
			return r.pseudo(a.pseudo)
		}
		c, err := loadDataColumn(r.q, r.def)
		if err != nil {
			return querysql.Column{}, err
		}
		return r.data(c), nil
	}
	if pseudoColumns[name] {
		return r.pseudo(name)
	}
	c, err := findColumn(r.q, r.table, name)
	if err != nil {
		return querysql.Column{}, err
	}
	if c == nil {
		return querysql.Column{}, unknownColumn("%s has no column %q", r.table.name, name)
	}
	return r.data(c), nil
}

func unknownColumn(format string, args ...any) error {
	return &engineError{
		code: status.CodeInvalidArgument,
		msg:  fmt.Errorf("%w: %s", querysql.ErrUnknownColumn, fmt.Sprintf(format, args...)).Error(),
	}
}

func (r *columnResolver) pseudo(name string) (querysql.Column, error) {
	switch name {
	case "_id", "_score":
		return querysql.Column{Expr: "t." + name}, nil
	}
	if !r.table.typ.IsKeyed() {
		return querysql.Column{}, unknownColumn("%s has no keys", r.table.name)
	}
	t := r.table
	return querysql.Column{
		Expr: "t._key",
		Param: func(v ir.IRValue) (any, error) {
			return encodeKey(r.q, t, textFor(builtinKind(t.domain), v), false)
		},
	}, nil
}

func (r *columnResolver) data(c *dataColumn) querysql.Column {
	expr := "t." + c.sqlName()
	if codec := codecName(c.flags); codec != "" {
		expr = fmt.Sprintf("%s(%s, '%s')", decodeFunc, expr, codec)
	}
	vt := c.vt
	return querysql.Column{
		Expr:     expr,
		Vector:   c.vector(),
		Weighted: c.weighted(),
		Param: func(v ir.IRValue) (any, error) {
			v = textFor(vt.builtin.kind, v)
			if vt.ref != nil && !vt.ref.typ.IsKeyed() {
				x, ok := v.(ir.IRInt)
				if !ok {
					return nil, failf(status.CodeInvalidArgument, "records of %s are referenced by id", vt.ref.name)
				}
				return int64(x), nil
			}
			return encodeElement(r.q, vt, v, false)
		},
	}
}

func builtinKind(h native.Handle) valueKind {
	if b, ok := builtinByID(h); ok {
		return b.kind
	}
	return kindInt
}

// textFor lets integer and bool literals compare against text values.
func textFor(kind valueKind, v ir.IRValue) ir.IRValue {
	if kind != kindText {
		return v
	}
	switch v.(type) {
	case ir.IRInt, ir.IRBool:
		return ir.IRString(ir.Text(v))
	}
	return v
}
