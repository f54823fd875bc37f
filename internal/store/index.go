package store

import (
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// IndexData lists the index columns covering column that can serve op.
// Sections are 1-based for multi-source indexes and 0 otherwise. A zero op
// accepts every index.
func (s *Session) IndexData(column native.Handle, op native.Operator) ([]native.IndexDatum, status.Code) {
	if code := s.checkOpen("index_data"); code != status.Success {
		return nil, code
	}
	db := s.store.db
	source := column
	if a, ok := s.accessors[column]; ok {
		if a.pseudo != "_key" {
			return nil, status.Success
		}
		source = a.table
	} else {
		o, err := loadObject(db, column)
		if err != nil {
			return nil, s.fail(codeOf(err), "index_data", err)
		}
		if o.typ == native.TypeColumnIndex {
			return []native.IndexDatum{{Index: o.id}}, status.Success
		}
		if !o.typ.IsColumn() && !o.typ.IsKeyed() {
			return nil, s.invalid("index_data", "%s cannot be indexed", o.name)
		}
	}

	type hit struct {
		index    native.Handle
		position uint32
		sources  int
	}
	rows, err := db.Query(`SELECT s.index_id, s.position,
			(SELECT COUNT(*) FROM grn_index_sources x WHERE x.index_id = s.index_id)
		FROM grn_index_sources s WHERE s.source_id = ? ORDER BY s.index_id, s.position`, source)
	if err != nil {
		return nil, s.fail(codeOf(err), "index_data", err)
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.index, &h.position, &h.sources); err != nil {
			rows.Close()
			return nil, s.fail(codeOf(err), "index_data", err)
		}
		hits = append(hits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, s.fail(codeOf(err), "index_data", err)
	}

	var out []native.IndexDatum
	for _, h := range hits {
		idx, err := loadObject(db, h.index)
		if err != nil {
			return nil, s.fail(codeOf(err), "index_data", err)
		}
		lexicon, err := loadTable(db, idx.domain)
		if err != nil {
			return nil, s.fail(codeOf(err), "index_data", err)
		}
		if !indexServes(lexicon, op) {
			continue
		}
		d := native.IndexDatum{Index: h.index}
		if h.sources > 1 {
			d.Section = h.position
		}
		out = append(out, d)
	}
	return out, status.Success
}

// indexServes reports whether an index on lexicon can evaluate op.
func indexServes(lexicon *object, op native.Operator) bool {
	switch op {
	case 0, native.OpEqual:
		return true
	case native.OpMatch:
		return lexicon.tokenizer != ""
	case native.OpPrefix, native.OpLess, native.OpGreater, native.OpLessEqual, native.OpGreaterEqual:
		return lexicon.typ == native.TypeTablePatKey || lexicon.typ == native.TypeTableDatKey
	}
	return false
}
