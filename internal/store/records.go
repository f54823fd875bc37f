package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// AddRecord adds a record, or finds the existing record with key.
func (s *Session) AddRecord(table native.Handle, key ir.IRValue) (native.ID, status.Code) {
	if code := s.checkOpen("add_record"); code != status.Success {
		return native.IDNil, code
	}
	var id native.ID
	err := s.inTx(func(tx *sql.Tx) error {
		t, err := loadTable(tx, table)
		if err != nil {
			return err
		}
		if t.typ.IsKeyed() {
			id, err = recordFor(tx, t, key, true)
			if err == nil && id == native.IDNil {
				err = failf(status.CodeInvalidArgument, "referenced key of %v not found", key)
			}
			return err
		}
		if !ir.IsNull(key) {
			return failf(status.CodeInvalidArgument, "%s has no keys", t.name)
		}
		res, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s DEFAULT VALUES`, t.dataTable()))
		if err != nil {
			return err
		}
		last, err := res.LastInsertId()
		id = native.ID(last)
		return err
	})
	if err != nil {
		return native.IDNil, s.fail(codeOf(err), "add_record", err)
	}
	return id, status.Success
}

// dataColumn is a data column with its owning table and value shape.
type dataColumn struct {
	*object
	table *object
	vt    valueType
}

func loadDataColumn(q queryer, h native.Handle) (*dataColumn, error) {
	o, err := loadObject(q, h)
	if err != nil {
		return nil, err
	}
	if o.typ != native.TypeColumnFixSize && o.typ != native.TypeColumnVarSize {
		return nil, failf(status.CodeInvalidArgument, "object %d is not a data column", h)
	}
	t, err := loadTable(q, o.domain)
	if err != nil {
		return nil, err
	}
	vt, err := resolveValueType(q, o.rng)
	if err != nil {
		return nil, err
	}
	return &dataColumn{object: o, table: t, vt: vt}, nil
}

func (c *dataColumn) sqlName() string { return columnSQLName(c.id) }

func (c *dataColumn) vector() bool { return c.flags.Type() == native.ColumnVector }

func (c *dataColumn) weighted() bool { return c.flags.Has(native.WithWeight) }

func requireRecord(q queryer, t *object, id native.ID) error {
	var n int
	if err := q.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE _id = ?`, t.dataTable()), id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return failf(status.CodeInvalidArgument, "record %d does not exist", id)
	}
	return nil
}

// SetValue stores value in record id of column.
func (s *Session) SetValue(column native.Handle, id native.ID, value ir.IRValue) status.Code {
	if code := s.checkOpen("set_value"); code != status.Success {
		return code
	}
	if _, ok := s.accessors[column]; ok {
		return s.invalid("set_value", "pseudo columns are read only")
	}
	err := s.inTx(func(tx *sql.Tx) error {
		c, err := loadDataColumn(tx, column)
		if err != nil {
			return err
		}
		if err := requireRecord(tx, c.table, id); err != nil {
			return err
		}
		var p any
		if c.vector() {
			p, err = encodeVector(tx, c.vt, c.weighted(), value)
		} else {
			p, err = encodeElement(tx, c.vt, value, true)
		}
		if err != nil {
			return err
		}
		if codec := codecName(c.flags); codec != "" && p != nil {
			if p, err = compress(codec, []byte(p.(string))); err != nil {
				return err
			}
		}
		_, err = tx.Exec(fmt.Sprintf(`UPDATE %s SET %s = ? WHERE _id = ?`, c.table.dataTable(), c.sqlName()), p, id)
		return err
	})
	if err != nil {
		return s.fail(codeOf(err), "set_value", err)
	}
	return status.Success
}

// GetValue reads record id of column. Pseudo-column accessors are
// supported.
func (s *Session) GetValue(column native.Handle, id native.ID) (ir.IRValue, status.Code) {
	if code := s.checkOpen("get_value"); code != status.Success {
		return nil, code
	}
	var v ir.IRValue
	var err error
	if a, ok := s.accessors[column]; ok {
		v, err = s.pseudoValue(a, id)
	} else {
		v, err = s.columnValue(column, id)
	}
	if err != nil {
		return nil, s.fail(codeOf(err), "get_value", err)
	}
	return v, status.Success
}

func (s *Session) pseudoValue(a accessor, id native.ID) (ir.IRValue, error) {
	db := s.store.db
	t, err := loadTable(db, a.table)
	if err != nil {
		return nil, err
	}
	var key any
	var score int64
	err = db.QueryRow(fmt.Sprintf(`SELECT _key, _score FROM %s WHERE _id = ?`, t.dataTable()), id).Scan(&key, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failf(status.CodeInvalidArgument, "record %d does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	switch a.pseudo {
	case "_id":
		return ir.IRInt(id), nil
	case "_score":
		return ir.IRInt(score), nil
	}
	return decodeKey(db, t, key)
}

func (s *Session) columnValue(column native.Handle, id native.ID) (ir.IRValue, error) {
	db := s.store.db
	c, err := loadDataColumn(db, column)
	if err != nil {
		return nil, err
	}
	var raw any
	err = db.QueryRow(fmt.Sprintf(`SELECT %s FROM %s WHERE _id = ?`, c.sqlName(), c.table.dataTable()), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failf(status.CodeInvalidArgument, "record %d does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	if codec := codecName(c.flags); codec != "" {
		blob, ok := raw.([]byte)
		if !ok {
			return ir.IRNull{}, nil
		}
		text, err := decompress(codec, blob)
		if err != nil {
			return nil, err
		}
		raw = string(text)
	}
	if c.vector() {
		return decodeVector(db, c.vt, c.weighted(), raw)
	}
	return decodeElement(db, c.vt, raw)
}

// Records lists the records of table in id order.
func (s *Session) Records(table native.Handle) ([]native.Record, status.Code) {
	if code := s.checkOpen("records"); code != status.Success {
		return nil, code
	}
	db := s.store.db
	out, err := func() ([]native.Record, error) {
		t, err := loadTable(db, table)
		if err != nil {
			return nil, err
		}
		rows, err := db.Query(fmt.Sprintf(`SELECT _id, _key, _score FROM %s ORDER BY _id`, t.dataTable()))
		if err != nil {
			return nil, err
		}
		type row struct {
			id    native.ID
			key   any
			score int64
		}
		var raw []row
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.id, &r.key, &r.score); err != nil {
				rows.Close()
				return nil, err
			}
			raw = append(raw, r)
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
		// Keys are decoded after the cursor is closed: decoding may query.
		out := make([]native.Record, 0, len(raw))
		for _, r := range raw {
			rec := native.Record{ID: r.id, Score: r.score}
			if t.typ.IsKeyed() {
				if rec.Key, err = decodeKey(db, t, r.key); err != nil {
					return nil, err
				}
			}
			out = append(out, rec)
		}
		return out, nil
	}()
	if err != nil {
		return nil, s.fail(codeOf(err), "records", err)
	}
	return out, status.Success
}

// Truncate clears a data column, or removes every record of a table.
// Truncating an index column has nothing to clear.
func (s *Session) Truncate(h native.Handle) status.Code {
	if code := s.checkOpen("truncate"); code != status.Success {
		return code
	}
	err := s.inTx(func(tx *sql.Tx) error {
		o, err := loadObject(tx, h)
		if err != nil {
			return err
		}
		switch {
		case o.typ.IsTable():
			_, err = tx.Exec(fmt.Sprintf(`DELETE FROM %s`, o.dataTable()))
			return err
		case o.typ == native.TypeColumnIndex:
			return nil
		case o.typ.IsColumn():
			_, err = tx.Exec(fmt.Sprintf(`UPDATE %s SET %s = NULL`, dataTableName(o.domain), columnSQLName(o.id)))
			return err
		}
		return failf(status.CodeInvalidArgument, "object %d cannot be truncated", h)
	})
	if err != nil {
		return s.fail(codeOf(err), "truncate", err)
	}
	return status.Success
}

// OpenBuffer allocates a value buffer. Record-id vectors need a table
// range.
func (s *Session) OpenBuffer(kind native.BufferKind, rangeType native.Handle) (native.BufferHandle, status.Code) {
	if code := s.checkOpen("open_buffer"); code != status.Success {
		return 0, code
	}
	switch kind {
	case native.BufferBulk, native.BufferVector, native.BufferUVector:
	default:
		return 0, s.invalid("open_buffer", "unknown buffer kind %d", kind)
	}
	typ, err := typeOf(s.store.db, rangeType)
	if err != nil {
		return 0, s.fail(codeOf(err), "open_buffer", err)
	}
	if kind == native.BufferUVector && !typ.IsTable() {
		return 0, s.invalid("open_buffer", "record id vectors need a table range, got %s", typ)
	}
	s.nextBuffer++
	s.buffers[s.nextBuffer] = kind
	return s.nextBuffer, status.Success
}

// CloseBuffer frees a buffer.
func (s *Session) CloseBuffer(buf native.BufferHandle) status.Code {
	if code := s.checkOpen("close_buffer"); code != status.Success {
		return code
	}
	if _, ok := s.buffers[buf]; !ok {
		return s.invalid("close_buffer", "unknown buffer %d", buf)
	}
	delete(s.buffers, buf)
	return status.Success
}
