package store

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// object is one catalog row.
type object struct {
	id         native.Handle
	name       string // full name, empty for temporary tables
	local      string
	typ        native.ObjectType
	flags      native.ColumnFlags
	domain     native.Handle
	rng        native.Handle
	tokenizer  string
	normalizer string
	subrec     bool
	temporary  bool
	owner      string
}

const objectColumns = `id, COALESCE(name, ''), local_name, type, flags, domain, range,
	tokenizer, normalizer, subrec, temporary, owner`

func (o *object) dataTable() string { return dataTableName(o.id) }

func dataTableName(id native.Handle) string { return fmt.Sprintf("grn_t%d", id) }

func columnSQLName(id native.Handle) string { return fmt.Sprintf("c%d", id) }

type scanner interface {
	Scan(dest ...any) error
}

func scanObject(row scanner) (*object, error) {
	var o object
	if err := row.Scan(&o.id, &o.name, &o.local, &o.typ, &o.flags, &o.domain, &o.rng,
		&o.tokenizer, &o.normalizer, &o.subrec, &o.temporary, &o.owner); err != nil {
		return nil, err
	}
	return &o, nil
}

// loadObject fails with InvalidArgument for unknown handles.
func loadObject(q queryer, h native.Handle) (*object, error) {
	o, err := scanObject(q.QueryRow(`SELECT `+objectColumns+` FROM grn_objects WHERE id = ?`, h))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, failf(status.CodeInvalidArgument, "unknown object %d", h)
	}
	return o, err
}

// loadByName returns nil when no object has the full name.
func loadByName(q queryer, name string) (*object, error) {
	o, err := scanObject(q.QueryRow(`SELECT `+objectColumns+` FROM grn_objects WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func loadTable(q queryer, h native.Handle) (*object, error) {
	o, err := loadObject(q, h)
	if err != nil {
		return nil, err
	}
	if !o.typ.IsTable() {
		return nil, failf(status.CodeInvalidArgument, "object %d is not a table", h)
	}
	return o, nil
}

func loadChildren(q queryer, table native.Handle) ([]*object, error) {
	rows, err := q.Query(`SELECT `+objectColumns+` FROM grn_objects WHERE domain = ? AND type IN (?, ?, ?) ORDER BY id`,
		table, native.TypeColumnFixSize, native.TypeColumnVarSize, native.TypeColumnIndex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func nextObjectID(q queryer) (native.Handle, error) {
	var max sql.NullInt64
	if err := q.QueryRow(`SELECT MAX(id) FROM grn_objects`).Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid || max.Int64 < firstObjectID {
		return firstObjectID, nil
	}
	return native.Handle(max.Int64 + 1), nil
}

var validName = regexp.MustCompile(`^[A-Za-z0-9#@-][A-Za-z0-9_#@-]*$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return failf(status.CodeInvalidArgument, "invalid name %q", name)
	}
	return nil
}

// typeHandle resolves a builtin type or table name.
func typeHandle(q queryer, name string) (native.Handle, error) {
	if b, ok := builtinByName(name); ok {
		return b.id, nil
	}
	if unsupportedTypes[name] {
		return 0, failf(status.CodeInvalidArgument, "type %s is not supported", name)
	}
	o, err := loadByName(q, name)
	if err != nil {
		return 0, err
	}
	if o == nil || !o.typ.IsTable() {
		return 0, failf(status.CodeInvalidArgument, "unknown type %q", name)
	}
	return o.id, nil
}

func typeOf(q queryer, h native.Handle) (native.ObjectType, error) {
	if h == native.NilHandle {
		return native.TypeVoid, nil
	}
	if _, ok := builtinByID(h); ok {
		return native.TypeBuiltin, nil
	}
	o, err := loadObject(q, h)
	if err != nil {
		return native.TypeVoid, err
	}
	return o.typ, nil
}

var pseudoColumns = map[string]bool{"_id": true, "_key": true, "_score": true}

// Lookup resolves a full name. Unknown names yield NilHandle and Success.
func (s *Session) Lookup(name string) (native.Handle, status.Code) {
	if code := s.checkOpen("lookup"); code != status.Success {
		return native.NilHandle, code
	}
	if b, ok := builtinByName(name); ok {
		return b.id, status.Success
	}
	db := s.store.db
	if tableName, col, dotted := strings.Cut(name, "."); dotted && strings.HasPrefix(col, "_") {
		if !pseudoColumns[col] {
			return native.NilHandle, status.Success
		}
		t, err := loadByName(db, tableName)
		if err != nil {
			return native.NilHandle, s.fail(codeOf(err), "lookup", err)
		}
		if t == nil || !t.typ.IsTable() {
			return native.NilHandle, status.Success
		}
		if col == "_key" && !t.typ.IsKeyed() {
			return native.NilHandle, s.invalid("lookup", "table %s has no keys", tableName)
		}
		h := s.allocLocal()
		s.accessors[h] = accessor{table: t.id, pseudo: col}
		return h, status.Success
	}
	o, err := loadByName(db, name)
	if err != nil {
		return native.NilHandle, s.fail(codeOf(err), "lookup", err)
	}
	if o == nil {
		return native.NilHandle, status.Success
	}
	return o.id, status.Success
}

// Header describes h.
func (s *Session) Header(h native.Handle) (native.Header, status.Code) {
	if code := s.checkOpen("header"); code != status.Success {
		return native.Header{}, code
	}
	db := s.store.db
	if _, ok := builtinByID(h); ok {
		return native.Header{Type: native.TypeBuiltin}, status.Success
	}
	if a, ok := s.accessors[h]; ok {
		rng, err := s.accessorRange(db, a)
		if err != nil {
			return native.Header{}, s.fail(codeOf(err), "header", err)
		}
		rt, err := typeOf(db, rng)
		if err != nil {
			return native.Header{}, s.fail(codeOf(err), "header", err)
		}
		return native.Header{Type: native.TypeAccessor, Domain: a.table, Range: rng, RangeType: rt}, status.Success
	}
	if e, ok := s.exprs[h]; ok {
		return native.Header{Type: native.TypeExpr, Domain: e.table, Temporary: true}, status.Success
	}
	o, err := loadObject(db, h)
	if err != nil {
		return native.Header{}, s.fail(codeOf(err), "header", err)
	}
	rt, err := typeOf(db, o.rng)
	if err != nil {
		return native.Header{}, s.fail(codeOf(err), "header", err)
	}
	return native.Header{
		Type:      o.typ,
		Flags:     o.flags,
		Domain:    o.domain,
		Range:     o.rng,
		RangeType: rt,
		Temporary: o.temporary,
	}, status.Success
}

func (s *Session) accessorRange(q queryer, a accessor) (native.Handle, error) {
	switch a.pseudo {
	case "_id":
		return typeUInt32, nil
	case "_score":
		return typeInt32, nil
	}
	t, err := loadTable(q, a.table)
	if err != nil {
		return 0, err
	}
	return t.domain, nil
}

// Name returns the full name of h; anonymous objects have none.
func (s *Session) Name(h native.Handle) (string, status.Code) {
	if code := s.checkOpen("name"); code != status.Success {
		return "", code
	}
	if b, ok := builtinByID(h); ok {
		return b.name, status.Success
	}
	if _, ok := s.accessors[h]; ok {
		return "", status.Success
	}
	if _, ok := s.exprs[h]; ok {
		return "", status.Success
	}
	o, err := loadObject(s.store.db, h)
	if err != nil {
		return "", s.fail(codeOf(err), "name", err)
	}
	return o.name, status.Success
}

// ColumnName returns the local name of a column or accessor.
func (s *Session) ColumnName(h native.Handle) (string, status.Code) {
	if code := s.checkOpen("column_name"); code != status.Success {
		return "", code
	}
	if a, ok := s.accessors[h]; ok {
		return a.pseudo, status.Success
	}
	o, err := loadObject(s.store.db, h)
	if err != nil {
		return "", s.fail(codeOf(err), "column_name", err)
	}
	if !o.typ.IsColumn() {
		return "", s.invalid("column_name", "%s is not a column", o.name)
	}
	return o.local, status.Success
}

// ColumnTable returns the table owning a column or accessor.
func (s *Session) ColumnTable(h native.Handle) (native.Handle, status.Code) {
	if code := s.checkOpen("column_table"); code != status.Success {
		return native.NilHandle, code
	}
	if a, ok := s.accessors[h]; ok {
		return a.table, status.Success
	}
	o, err := loadObject(s.store.db, h)
	if err != nil {
		return native.NilHandle, s.fail(codeOf(err), "column_table", err)
	}
	if !o.typ.IsColumn() {
		return native.NilHandle, s.invalid("column_table", "%s is not a column", o.name)
	}
	return o.domain, status.Success
}

// Rename gives a table or column a new local name. A sibling already using
// the name fails with FileExists and changes nothing.
func (s *Session) Rename(h native.Handle, local string) status.Code {
	if code := s.checkOpen("rename"); code != status.Success {
		return code
	}
	err := s.inTx(func(tx *sql.Tx) error {
		if err := checkName(local); err != nil {
			return err
		}
		o, err := loadObject(tx, h)
		if err != nil {
			return err
		}
		if o.temporary {
			return failf(status.CodeInvalidArgument, "temporary objects have no name")
		}
		full := local
		if o.typ.IsColumn() {
			t, err := loadTable(tx, o.domain)
			if err != nil {
				return err
			}
			full = t.name + "." + local
		}
		if full == o.name {
			return nil
		}
		existing, err := loadByName(tx, full)
		if err != nil {
			return err
		}
		if existing != nil {
			return failf(status.CodeFileExists, "%s already exists", full)
		}
		if _, err := tx.Exec(`UPDATE grn_objects SET name = ?, local_name = ? WHERE id = ?`, full, local, h); err != nil {
			return err
		}
		if o.typ.IsTable() {
			_, err := tx.Exec(`UPDATE grn_objects SET name = ? || '.' || local_name WHERE domain = ? AND type IN (?, ?, ?)`,
				full, h, native.TypeColumnFixSize, native.TypeColumnVarSize, native.TypeColumnIndex)
			return err
		}
		return nil
	})
	if err != nil {
		return s.fail(codeOf(err), "rename", err)
	}
	return status.Success
}

// Remove deletes a persistent table or column. Objects still referenced by
// other tables cannot be removed.
func (s *Session) Remove(h native.Handle) status.Code {
	if code := s.checkOpen("remove"); code != status.Success {
		return code
	}
	err := s.inTx(func(tx *sql.Tx) error {
		o, err := loadObject(tx, h)
		if err != nil {
			return err
		}
		switch {
		case o.typ.IsTable():
			var refs int
			err := tx.QueryRow(`SELECT COUNT(*) FROM grn_objects
				WHERE (range = ? AND domain != ?) OR (domain = ? AND type IN (?, ?, ?, ?))`,
				h, h, h, native.TypeTableHashKey, native.TypeTablePatKey, native.TypeTableDatKey, native.TypeTableNoKey).Scan(&refs)
			if err != nil {
				return err
			}
			if refs > 0 {
				return failf(status.CodeOperationNotPermitted, "%s is still referenced", o.name)
			}
			return dropTableTx(tx, o.id)
		case o.typ == native.TypeColumnIndex:
			return dropIndexTx(tx, o.id)
		case o.typ.IsColumn():
			var refs int
			if err := tx.QueryRow(`SELECT COUNT(*) FROM grn_index_sources WHERE source_id = ?`, h).Scan(&refs); err != nil {
				return err
			}
			if refs > 0 {
				return failf(status.CodeOperationNotPermitted, "%s is indexed", o.name)
			}
			if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s DROP COLUMN %s`, dataTableName(o.domain), columnSQLName(o.id))); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM grn_locks WHERE object_id = ?`, h); err != nil {
				return err
			}
			_, err := tx.Exec(`DELETE FROM grn_objects WHERE id = ?`, h)
			return err
		}
		return failf(status.CodeInvalidArgument, "object %d cannot be removed", h)
	})
	if err != nil {
		return s.fail(codeOf(err), "remove", err)
	}
	return status.Success
}

// Unlink releases this session's reference to h. Temporary tables are
// dropped, session-local objects are forgotten, persistent objects are
// left alone.
func (s *Session) Unlink(h native.Handle) status.Code {
	if code := s.checkOpen("unlink"); code != status.Success {
		return code
	}
	if _, ok := s.accessors[h]; ok {
		delete(s.accessors, h)
		return status.Success
	}
	if _, ok := s.exprs[h]; ok {
		delete(s.exprs, h)
		return status.Success
	}
	if _, ok := builtinByID(h); ok {
		return status.Success
	}
	o, err := loadObject(s.store.db, h)
	if err != nil {
		return s.fail(codeOf(err), "unlink", err)
	}
	if o.temporary && o.typ.IsTable() {
		if err := s.dropTable(h); err != nil {
			return s.fail(codeOf(err), "unlink", err)
		}
	}
	return status.Success
}

func (s *Session) dropTable(id native.Handle) error {
	return s.inTx(func(tx *sql.Tx) error { return dropTableTx(tx, id) })
}

func dropTableTx(tx *sql.Tx, id native.Handle) error {
	children, err := loadChildren(tx, id)
	if err != nil {
		return err
	}
	for _, c := range children {
		if c.typ == native.TypeColumnIndex {
			if err := dropIndexTx(tx, c.id); err != nil {
				return err
			}
		}
	}
	stmts := []struct {
		sql  string
		args []any
	}{
		{fmt.Sprintf(`DROP TABLE IF EXISTS %s`, dataTableName(id)), nil},
		{`DELETE FROM grn_locks WHERE object_id IN (SELECT id FROM grn_objects WHERE domain = ?) OR object_id = ?`, []any{id, id}},
		{`DELETE FROM grn_objects WHERE domain = ? AND type IN (?, ?)`, []any{id, native.TypeColumnFixSize, native.TypeColumnVarSize}},
		{`DELETE FROM grn_objects WHERE id = ?`, []any{id}},
	}
	for _, st := range stmts {
		if _, err := tx.Exec(st.sql, st.args...); err != nil {
			return err
		}
	}
	return nil
}

func dropIndexTx(tx *sql.Tx, id native.Handle) error {
	for _, q := range []string{
		`DELETE FROM grn_index_sources WHERE index_id = ?`,
		`DELETE FROM grn_locks WHERE object_id = ?`,
		`DELETE FROM grn_objects WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
	}
	return nil
}
