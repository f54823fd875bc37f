package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// CreateTable creates a table. An empty name creates a temporary table
// owned by this session.
func (s *Session) CreateTable(spec native.TableSpec) (native.Handle, status.Code) {
	if code := s.checkOpen("create_table"); code != status.Success {
		return native.NilHandle, code
	}
	var id native.Handle
	err := s.inTx(func(tx *sql.Tx) error {
		if !spec.Type.IsTable() {
			return failf(status.CodeInvalidArgument, "%s is not a table type", spec.Type)
		}
		domain, err := keyDomain(tx, spec)
		if err != nil {
			return err
		}
		if spec.Type == native.TypeTableNoKey && (spec.Tokenizer != "" || spec.Normalizer != "") {
			return failf(status.CodeInvalidArgument, "array tables take no tokenizer or normalizer")
		}
		if spec.Tokenizer != "" && !knownTokenizers[spec.Tokenizer] {
			return failf(status.CodeInvalidArgument, "unknown tokenizer %q", spec.Tokenizer)
		}
		if spec.Normalizer != "" && !knownNormalizers[spec.Normalizer] {
			return failf(status.CodeInvalidArgument, "unknown normalizer %q", spec.Normalizer)
		}

		temporary := spec.Name == ""
		var name any
		owner := ""
		if temporary {
			owner = s.id
		} else {
			if err := checkName(spec.Name); err != nil {
				return err
			}
			existing, err := loadByName(tx, spec.Name)
			if err != nil {
				return err
			}
			if existing != nil {
				return failf(status.CodeFileExists, "%s already exists", spec.Name)
			}
			name = spec.Name
		}

		if id, err = nextObjectID(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO grn_objects
			(id, name, local_name, type, domain, tokenizer, normalizer, subrec, temporary, owner)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, name, spec.Name, spec.Type, domain, spec.Tokenizer, spec.Normalizer,
			spec.WithSubrec, temporary, owner); err != nil {
			return err
		}

		keyAffinity := "TEXT"
		if domain != native.NilHandle {
			if b, ok := builtinByID(domain); !ok || b.kind != kindText {
				keyAffinity = "INTEGER"
			}
		}
		table := dataTableName(id)
		if _, err := tx.Exec(fmt.Sprintf(`CREATE TABLE %s (
			_id    INTEGER PRIMARY KEY AUTOINCREMENT,
			_key   %s,
			_score INTEGER NOT NULL DEFAULT 0
		)`, table, keyAffinity)); err != nil {
			return err
		}
		if spec.Type.IsKeyed() {
			if _, err := tx.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX %s_key ON %s(_key)`, table, table)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return native.NilHandle, s.fail(codeOf(err), "create_table", err)
	}
	s.store.logger.Debug("table created", "session", s.id, "name", spec.Name, "id", id, "type", spec.Type.String())
	return id, status.Success
}

func keyDomain(q queryer, spec native.TableSpec) (native.Handle, error) {
	if !spec.Type.IsKeyed() {
		if spec.KeyType != "" || spec.KeyTable != native.NilHandle {
			return 0, failf(status.CodeInvalidArgument, "array tables have no key type")
		}
		return native.NilHandle, nil
	}
	if spec.KeyTable != native.NilHandle {
		if _, err := loadTable(q, spec.KeyTable); err != nil {
			return 0, err
		}
		return spec.KeyTable, nil
	}
	if spec.KeyType == "" {
		return 0, failf(status.CodeInvalidArgument, "%s tables need a key type", spec.Type)
	}
	domain, err := typeHandle(q, spec.KeyType)
	if err != nil {
		return 0, err
	}
	if b, ok := builtinByID(domain); ok && b.kind == kindBool {
		return 0, failf(status.CodeInvalidArgument, "Bool cannot be a key type")
	}
	return domain, nil
}

// CreateColumn adds a scalar or vector data column to table.
func (s *Session) CreateColumn(table native.Handle, spec native.ColumnSpec) (native.Handle, status.Code) {
	if code := s.checkOpen("create_column"); code != status.Success {
		return native.NilHandle, code
	}
	var id native.Handle
	err := s.inTx(func(tx *sql.Tx) error {
		t, err := loadTable(tx, table)
		if err != nil {
			return err
		}
		if err := checkName(spec.Name); err != nil {
			return err
		}
		if err := checkColumnFlags(spec.Flags); err != nil {
			return err
		}
		rng, err := typeHandle(tx, spec.ValueType)
		if err != nil {
			return err
		}
		b, builtin := builtinByID(rng)
		if codecName(spec.Flags) != "" && (!builtin || b.kind != kindText) {
			return failf(status.CodeInvalidArgument, "only text columns can be compressed")
		}
		name, err := childName(tx, t, spec.Name)
		if err != nil {
			return err
		}

		typ := native.TypeColumnVarSize
		if spec.Flags.Type() == native.ColumnScalar && codecName(spec.Flags) == "" && (!builtin || b.fixed) {
			typ = native.TypeColumnFixSize
		}
		if id, err = nextObjectID(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO grn_objects (id, name, local_name, type, flags, domain, range)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, id, name, spec.Name, typ, spec.Flags, t.id, rng); err != nil {
			return err
		}
		vt, err := resolveValueType(tx, rng)
		if err != nil {
			return err
		}
		_, err = tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`,
			t.dataTable(), columnSQLName(id), columnAffinity(spec.Flags, vt)))
		return err
	})
	if err != nil {
		return native.NilHandle, s.fail(codeOf(err), "create_column", err)
	}
	return id, status.Success
}

func checkColumnFlags(flags native.ColumnFlags) error {
	switch flags.Type() {
	case native.ColumnScalar, native.ColumnVector:
	case native.ColumnIndex:
		return failf(status.CodeInvalidArgument, "index columns are created on a lexicon")
	default:
		return failf(status.CodeInvalidArgument, "unknown column type %d", flags.Type())
	}
	if flags.Has(native.WithSection) || flags.Has(native.WithPosition) {
		return failf(status.CodeInvalidArgument, "section and position apply to index columns")
	}
	if flags.Has(native.WithWeight) && flags.Type() != native.ColumnVector {
		return failf(status.CodeInvalidArgument, "only vector columns carry weights")
	}
	if flags.Has(native.WeightFloat32) && !flags.Has(native.WithWeight) {
		return failf(status.CodeInvalidArgument, "float32 weights need a weighted column")
	}
	codecs := 0
	for _, c := range []native.ColumnFlags{native.CompressZlib, native.CompressLZ4, native.CompressZstd} {
		if flags.Has(c) {
			codecs++
		}
	}
	if codecs > 1 {
		return failf(status.CodeInvalidArgument, "at most one compression codec")
	}
	if codecs == 1 && flags.Type() != native.ColumnScalar {
		return failf(status.CodeInvalidArgument, "only scalar columns can be compressed")
	}
	return nil
}

func columnAffinity(flags native.ColumnFlags, vt valueType) string {
	switch {
	case flags.Type() == native.ColumnVector:
		return "TEXT"
	case codecName(flags) != "":
		return "BLOB"
	case vt.builtin.kind == kindText:
		return "TEXT"
	}
	return "INTEGER"
}

// childName returns the full name for a new column of t, or nil for
// columns of temporary tables. Local names are unique per table.
func childName(q queryer, t *object, local string) (any, error) {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM grn_objects WHERE domain = ? AND local_name = ? AND type IN (?, ?, ?)`,
		t.id, local, native.TypeColumnFixSize, native.TypeColumnVarSize, native.TypeColumnIndex).Scan(&n); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, failf(status.CodeFileExists, "column %s already exists", local)
	}
	if t.temporary {
		return nil, nil
	}
	return t.name + "." + local, nil
}

// CreateIndexColumn adds an index column to lexicon over spec.Sources of
// spec.SourceTable.
func (s *Session) CreateIndexColumn(lexicon native.Handle, spec native.IndexSpec) (native.Handle, status.Code) {
	if code := s.checkOpen("create_index_column"); code != status.Success {
		return native.NilHandle, code
	}
	var id native.Handle
	err := s.inTx(func(tx *sql.Tx) error {
		lex, err := loadTable(tx, lexicon)
		if err != nil {
			return err
		}
		if !lex.typ.IsKeyed() {
			return failf(status.CodeInvalidArgument, "lexicon %s must be a keyed table", lex.name)
		}
		if err := checkName(spec.Name); err != nil {
			return err
		}
		src, err := loadByName(tx, spec.SourceTable)
		if err != nil {
			return err
		}
		if src == nil || !src.typ.IsTable() {
			return failf(status.CodeInvalidArgument, "unknown source table %q", spec.SourceTable)
		}
		if len(spec.Sources) == 0 {
			return failf(status.CodeInvalidArgument, "index %s has no sources", spec.Name)
		}
		if len(spec.Sources) > 1 && !spec.Flags.Has(native.WithSection) {
			return failf(status.CodeInvalidArgument, "multi-source index %s needs sections", spec.Name)
		}
		sources := make([]native.Handle, 0, len(spec.Sources))
		for _, col := range spec.Sources {
			h, err := indexSource(tx, src, col)
			if err != nil {
				return err
			}
			sources = append(sources, h)
		}
		name, err := childName(tx, lex, spec.Name)
		if err != nil {
			return err
		}

		flags := spec.Flags&^native.ColumnTypeMask | native.ColumnIndex
		if id, err = nextObjectID(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO grn_objects (id, name, local_name, type, flags, domain, range)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, id, name, spec.Name, native.TypeColumnIndex, flags, lex.id, src.id); err != nil {
			return err
		}
		for i, h := range sources {
			if _, err := tx.Exec(`INSERT INTO grn_index_sources (index_id, position, source_id) VALUES (?, ?, ?)`,
				id, i+1, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return native.NilHandle, s.fail(codeOf(err), "create_index_column", err)
	}
	return id, status.Success
}

// indexSource resolves one source column; "_key" stands for the table.
func indexSource(q queryer, src *object, col string) (native.Handle, error) {
	if col == "_key" {
		if !src.typ.IsKeyed() {
			return 0, failf(status.CodeInvalidArgument, "%s has no keys to index", src.name)
		}
		return src.id, nil
	}
	o, err := loadByName(q, src.name+"."+col)
	if err != nil {
		return 0, err
	}
	if o == nil || o.typ == native.TypeColumnIndex {
		return 0, failf(status.CodeInvalidArgument, "unknown source column %s.%s", src.name, col)
	}
	return o.id, nil
}
