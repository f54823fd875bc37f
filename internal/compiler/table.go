package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/grnbind/internal/ir"
)

// CompileString compiles CUE source and returns its tables.
func CompileString(src, filename string) ([]ir.TableSpec, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileSchema(v)
}

// CompileSchema compiles every table under the "table" field of v, in
// declaration order.
func CompileSchema(v cue.Value) ([]ir.TableSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &CompileError{Field: "table", Message: "no tables declared", Pos: v.Pos()}
	}
	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var specs []ir.TableSpec
	for iter.Next() {
		spec, err := CompileTable(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileTable parses a CUE value into a TableSpec. The value is the table
// struct itself; its label is the table name:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`table: Items: {type: "hash", key_type: "ShortText"}`)
//	spec, err := CompileTable(v.LookupPath(cue.ParsePath("table.Items")))
func CompileTable(v cue.Value) (*ir.TableSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.TableSpec{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	typ, ok, err := optionalString(v, "type")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{Field: "type", Message: "table type is required", Pos: v.Pos()}
	}
	spec.Type = typ

	if spec.KeyType, _, err = optionalString(v, "key_type"); err != nil {
		return nil, err
	}
	if spec.DefaultTokenizer, _, err = optionalString(v, "default_tokenizer"); err != nil {
		return nil, err
	}
	if spec.Normalizer, _, err = optionalString(v, "normalizer"); err != nil {
		return nil, err
	}

	if spec.Columns, err = parseColumns(v); err != nil {
		return nil, err
	}
	if spec.Indexes, err = parseIndexes(v); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseColumns extracts the data columns of a table.
func parseColumns(v cue.Value) ([]ir.ColumnSpec, error) {
	colsVal := v.LookupPath(cue.ParsePath("column"))
	if !colsVal.Exists() {
		return nil, nil
	}
	iter, err := colsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cols []ir.ColumnSpec
	for iter.Next() {
		name := iter.Label()
		cv := iter.Value()
		col := ir.ColumnSpec{Name: name, Kind: ir.KindScalar}

		typ, ok, err := optionalString(cv, "type")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &CompileError{
				Field:   fmt.Sprintf("column.%s.type", name),
				Message: "column type is required",
				Pos:     cv.Pos(),
			}
		}
		col.Type = typ

		if kind, ok, err := optionalString(cv, "kind"); err != nil {
			return nil, err
		} else if ok {
			col.Kind = kind
		}
		if col.WithWeight, err = optionalBool(cv, "with_weight"); err != nil {
			return nil, err
		}
		if col.WeightFloat32, err = optionalBool(cv, "weight_float32"); err != nil {
			return nil, err
		}
		if col.Compress, _, err = optionalString(cv, "compress"); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// parseIndexes extracts the index columns declared on a lexicon.
func parseIndexes(v cue.Value) ([]ir.IndexSpec, error) {
	idxVal := v.LookupPath(cue.ParsePath("index"))
	if !idxVal.Exists() {
		return nil, nil
	}
	iter, err := idxVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var indexes []ir.IndexSpec
	for iter.Next() {
		name := iter.Label()
		iv := iter.Value()
		ix := ir.IndexSpec{Name: name}

		src, ok, err := optionalString(iv, "source_table")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &CompileError{
				Field:   fmt.Sprintf("index.%s.source_table", name),
				Message: "index source table is required",
				Pos:     iv.Pos(),
			}
		}
		ix.SourceTable = src

		sourcesVal := iv.LookupPath(cue.ParsePath("sources"))
		if sourcesVal.Exists() {
			list, err := sourcesVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for list.Next() {
				s, err := list.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				ix.Sources = append(ix.Sources, s)
			}
		}
		if ix.WithPosition, err = optionalBool(iv, "with_position"); err != nil {
			return nil, err
		}
		if ix.WithSection, err = optionalBool(iv, "with_section"); err != nil {
			return nil, err
		}
		indexes = append(indexes, ix)
	}
	return indexes, nil
}

func optionalString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
