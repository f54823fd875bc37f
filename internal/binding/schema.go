package binding

import (
	"fmt"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// ApplySchema creates the tables, columns and indexes of specs that do not
// exist yet and returns the full names of what it created.
//
// Tables are created first, ordered so that a table used as another
// table's key type precedes it. Data columns follow, then index columns,
// so every index source exists when its index is created. Existing
// objects are left as they are.
func (c *Context) ApplySchema(specs []ir.TableSpec) ([]string, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	ordered, err := orderTables(specs)
	if err != nil {
		return nil, err
	}

	var created []string
	tables := make(map[string]native.Handle, len(ordered))
	for _, spec := range ordered {
		h, made, err := c.ensureTable(spec)
		if err != nil {
			return created, err
		}
		tables[spec.Name] = h
		if made {
			created = append(created, spec.Name)
		}
	}
	for _, spec := range ordered {
		for _, col := range spec.Columns {
			name := spec.Name + "." + col.Name
			made, err := c.ensure(name, func() (native.Handle, status.Code) {
				return c.engine.CreateColumn(tables[spec.Name], columnSpec(col))
			})
			if err != nil {
				return created, err
			}
			if made {
				created = append(created, name)
			}
		}
	}
	for _, spec := range ordered {
		for _, ix := range spec.Indexes {
			name := spec.Name + "." + ix.Name
			made, err := c.ensure(name, func() (native.Handle, status.Code) {
				return c.engine.CreateIndexColumn(tables[spec.Name], indexSpec(ix))
			})
			if err != nil {
				return created, err
			}
			if made {
				created = append(created, name)
			}
		}
	}
	c.logger.Info("applied schema", "tables", len(specs), "created", len(created))
	return created, nil
}

func (c *Context) ensureTable(spec ir.TableSpec) (native.Handle, bool, error) {
	h, code := c.engine.Lookup(spec.Name)
	if err := c.Check(code, spec.Name); err != nil {
		return 0, false, err
	}
	if h != native.NilHandle {
		return h, false, nil
	}
	typ, ok := native.ParseTableType(spec.Type)
	if !ok {
		return 0, false, fmt.Errorf("%w: table %s: unknown type %q", status.ErrArgument, spec.Name, spec.Type)
	}
	h, code = c.engine.CreateTable(native.TableSpec{
		Name:       spec.Name,
		Type:       typ,
		KeyType:    spec.KeyType,
		Tokenizer:  spec.DefaultTokenizer,
		Normalizer: spec.Normalizer,
	})
	if err := c.Check(code, spec.Name); err != nil {
		return 0, false, err
	}
	c.logger.Debug("created table", "name", spec.Name, "type", typ.String())
	return h, true, nil
}

func (c *Context) ensure(name string, create func() (native.Handle, status.Code)) (bool, error) {
	h, code := c.engine.Lookup(name)
	if err := c.Check(code, name); err != nil {
		return false, err
	}
	if h != native.NilHandle {
		return false, nil
	}
	if _, code := create(); code != status.Success {
		return false, c.Check(code, name)
	}
	c.logger.Debug("created column", "name", name)
	return true, nil
}

func columnSpec(col ir.ColumnSpec) native.ColumnSpec {
	flags := native.ColumnScalar
	if col.Kind == ir.KindVector {
		flags = native.ColumnVector
	}
	if col.WithWeight {
		flags |= native.WithWeight
	}
	if col.WeightFloat32 {
		flags |= native.WeightFloat32
	}
	switch col.Compress {
	case ir.CompressZlib:
		flags |= native.CompressZlib
	case ir.CompressLZ4:
		flags |= native.CompressLZ4
	case ir.CompressZstd:
		flags |= native.CompressZstd
	}
	return native.ColumnSpec{Name: col.Name, Flags: flags, ValueType: col.Type}
}

func indexSpec(ix ir.IndexSpec) native.IndexSpec {
	flags := native.ColumnIndex
	if ix.WithPosition {
		flags |= native.WithPosition
	}
	if ix.WithSection {
		flags |= native.WithSection
	}
	return native.IndexSpec{
		Name:        ix.Name,
		Flags:       flags,
		SourceTable: ix.SourceTable,
		Sources:     ix.Sources,
	}
}

// orderTables sorts specs so key-type dependencies come first, keeping
// the input order otherwise. A key-type cycle is an argument error.
func orderTables(specs []ir.TableSpec) ([]ir.TableSpec, error) {
	byName := make(map[string]int, len(specs))
	for i, s := range specs {
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: table %s declared twice", status.ErrArgument, s.Name)
		}
		byName[s.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(specs))
	out := make([]ir.TableSpec, 0, len(specs))
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: key type cycle through table %s", status.ErrArgument, specs[i].Name)
		}
		state[i] = visiting
		if j, ok := byName[specs[i].KeyType]; ok && j != i {
			if err := visit(j); err != nil {
				return err
			}
		}
		state[i] = done
		out = append(out, specs[i])
		return nil
	}
	for i := range specs {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
