package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/ir"
)

func validItems() ir.TableSpec {
	return ir.TableSpec{
		Name:    "Items",
		Type:    "hash",
		KeyType: "ShortText",
		Columns: []ir.ColumnSpec{
			{Name: "title", Type: "ShortText", Kind: ir.KindScalar},
			{Name: "labels", Type: "ShortText", Kind: ir.KindVector, WithWeight: true, WeightFloat32: true},
		},
	}
}

func validTerms() ir.TableSpec {
	return ir.TableSpec{
		Name:             "Terms",
		Type:             "patricia",
		KeyType:          "ShortText",
		DefaultTokenizer: "TokenBigram",
		Normalizer:       "NormalizerAuto",
		Indexes: []ir.IndexSpec{
			{Name: "items_title", SourceTable: "Items", Sources: []string{"title"}, WithPosition: true},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

// =============================================================================
// Table Validation Tests
// =============================================================================

func TestValidateTableValid(t *testing.T) {
	spec := validItems()
	assert.Empty(t, Validate(&spec))
	assert.Empty(t, Validate(spec), "value and pointer forms should agree")
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
	assert.Contains(t, errs[0].Message, "int")
}

func TestValidateNames(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"Items", true},
		{"items-2", true},
		{"", false},
		{"_private", false},
		{"has space", false},
		{"dotted.name", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validItems()
			spec.Name = tt.name
			errs := Validate(&spec)
			if tt.ok {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, []string{ErrInvalidName}, codes(errs))
		})
	}
}

func TestValidateTableType(t *testing.T) {
	spec := validItems()
	spec.Type = "btree"
	errs := Validate(&spec)
	assert.Equal(t, []string{ErrInvalidTableType}, codes(errs))
	assert.Equal(t, "type", errs[0].Field)
}

func TestValidateKeyType(t *testing.T) {
	t.Run("keyed table without key", func(t *testing.T) {
		spec := validItems()
		spec.KeyType = ""
		assert.Equal(t, []string{ErrInvalidKeyType}, codes(Validate(&spec)))
	})
	t.Run("array with key", func(t *testing.T) {
		spec := ir.TableSpec{Name: "Log", Type: "array", KeyType: "ShortText"}
		assert.Equal(t, []string{ErrInvalidKeyType}, codes(Validate(&spec)))
	})
	t.Run("bool key", func(t *testing.T) {
		spec := validItems()
		spec.KeyType = "Bool"
		assert.Equal(t, []string{ErrInvalidKeyType}, codes(Validate(&spec)))
	})
	t.Run("float key", func(t *testing.T) {
		spec := validItems()
		spec.KeyType = "Float"
		assert.Equal(t, []string{ErrFloatTypeForbidden}, codes(Validate(&spec)))
	})
	t.Run("array without key", func(t *testing.T) {
		spec := ir.TableSpec{Name: "Log", Type: "no_key"}
		assert.Empty(t, Validate(&spec))
	})
}

func TestValidateLexiconSettings(t *testing.T) {
	spec := validTerms()
	spec.DefaultTokenizer = "TokenMecab"
	spec.Normalizer = "NormalizerMySQL"
	assert.Equal(t, []string{ErrUnknownTokenizer, ErrUnknownNormalizer}, codes(Validate(&spec)))

	arr := ir.TableSpec{Name: "Log", Type: "array", Normalizer: "NormalizerAuto"}
	assert.Equal(t, []string{ErrTokenizerNeedsKeys}, codes(Validate(&arr)))
}

// =============================================================================
// Column Validation Tests
// =============================================================================

func TestValidateColumnRejectsFloat(t *testing.T) {
	for _, typ := range []string{"Float", "Float32", "float64", "number"} {
		t.Run(typ, func(t *testing.T) {
			spec := validItems()
			spec.Columns[0].Type = typ
			errs := Validate(&spec)
			require.Len(t, errs, 1)
			assert.Equal(t, ErrFloatTypeForbidden, errs[0].Code)
			assert.Equal(t, "columns[0].type", errs[0].Field)
		})
	}
}

func TestValidateColumnMissingType(t *testing.T) {
	spec := validItems()
	spec.Columns[0].Type = ""
	assert.Equal(t, []string{ErrInvalidFieldType}, codes(Validate(&spec)))
}

func TestValidateColumnDuplicate(t *testing.T) {
	spec := validItems()
	spec.Columns = append(spec.Columns, ir.ColumnSpec{Name: "title", Type: "Text", Kind: ir.KindScalar})
	errs := Validate(&spec)
	assert.Equal(t, []string{ErrDuplicateName}, codes(errs))
	assert.Equal(t, "columns[2].name", errs[0].Field)
}

func TestValidateColumnKind(t *testing.T) {
	spec := validItems()
	spec.Columns[0].Kind = "matrix"
	assert.Equal(t, []string{ErrInvalidColumnKind}, codes(Validate(&spec)))
}

func TestValidateColumnWeights(t *testing.T) {
	spec := validItems()
	spec.Columns[0].WithWeight = true
	assert.Equal(t, []string{ErrInvalidWeight}, codes(Validate(&spec)), "scalar with weight")

	spec = validItems()
	spec.Columns[1].WithWeight = false
	assert.Equal(t, []string{ErrInvalidWeight}, codes(Validate(&spec)), "float32 without weight")
}

func TestValidateColumnCompression(t *testing.T) {
	tests := []struct {
		name string
		col  ir.ColumnSpec
		ok   bool
	}{
		{"zlib text", ir.ColumnSpec{Name: "body", Type: "Text", Kind: ir.KindScalar, Compress: ir.CompressZlib}, true},
		{"lz4 long text", ir.ColumnSpec{Name: "body", Type: "LongText", Kind: ir.KindScalar, Compress: ir.CompressLZ4}, true},
		{"zstd int", ir.ColumnSpec{Name: "body", Type: "Int32", Kind: ir.KindScalar, Compress: ir.CompressZstd}, false},
		{"vector", ir.ColumnSpec{Name: "body", Type: "Text", Kind: ir.KindVector, Compress: ir.CompressZlib}, false},
		{"unknown codec", ir.ColumnSpec{Name: "body", Type: "Text", Kind: ir.KindScalar, Compress: "brotli"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validItems()
			spec.Columns = append(spec.Columns, tt.col)
			errs := Validate(&spec)
			if tt.ok {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, []string{ErrInvalidCompression}, codes(errs))
		})
	}
}

// =============================================================================
// Index Validation Tests
// =============================================================================

func TestValidateIndexRules(t *testing.T) {
	t.Run("array lexicon", func(t *testing.T) {
		spec := validTerms()
		spec.Type = "array"
		spec.KeyType = ""
		spec.DefaultTokenizer = ""
		spec.Normalizer = ""
		assert.Equal(t, []string{ErrUnkeyedLexicon}, codes(Validate(&spec)))
	})
	t.Run("no sources", func(t *testing.T) {
		spec := validTerms()
		spec.Indexes[0].Sources = nil
		assert.Equal(t, []string{ErrIndexNoSources}, codes(Validate(&spec)))
	})
	t.Run("multiple sources need section", func(t *testing.T) {
		spec := validTerms()
		spec.Indexes[0].Sources = []string{"title", "body"}
		assert.Equal(t, []string{ErrIndexNeedsSection}, codes(Validate(&spec)))

		spec.Indexes[0].WithSection = true
		assert.Empty(t, Validate(&spec))
	})
	t.Run("duplicate source", func(t *testing.T) {
		spec := validTerms()
		spec.Indexes[0].Sources = []string{"title", "title"}
		spec.Indexes[0].WithSection = true
		assert.Equal(t, []string{ErrDuplicateSource}, codes(Validate(&spec)))
	})
	t.Run("missing source table", func(t *testing.T) {
		spec := validTerms()
		spec.Indexes[0].SourceTable = ""
		assert.Equal(t, []string{ErrUndefinedTable}, codes(Validate(&spec)))
	})
	t.Run("index name clashes with column", func(t *testing.T) {
		spec := validTerms()
		spec.Columns = []ir.ColumnSpec{{Name: "items_title", Type: "ShortText", Kind: ir.KindScalar}}
		assert.Equal(t, []string{ErrDuplicateName}, codes(Validate(&spec)))
	})
}

// =============================================================================
// Schema Validation Tests
// =============================================================================

func TestValidateSchemaValid(t *testing.T) {
	specs := []ir.TableSpec{validTerms(), validItems(), {
		Name:    "Tags",
		Type:    "hash",
		KeyType: "Items",
		Columns: []ir.ColumnSpec{{Name: "owner", Type: "Items", Kind: ir.KindScalar}},
	}}
	assert.Empty(t, Validate(specs))
}

func TestValidateSchemaPrefixesFields(t *testing.T) {
	items := validItems()
	items.Columns[0].Type = "Float"
	errs := Validate([]ir.TableSpec{validTerms(), items})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrFloatTypeForbidden, errs[0].Code)
	assert.Equal(t, "tables[Items].columns[0].type", errs[0].Field)
}

func TestValidateSchemaUndefinedTables(t *testing.T) {
	items := validItems()
	items.KeyType = "Missing"
	items.Columns = append(items.Columns, ir.ColumnSpec{Name: "owner", Type: "Users", Kind: ir.KindScalar})
	terms := validTerms()
	terms.Indexes = append(terms.Indexes, ir.IndexSpec{Name: "users_name", SourceTable: "Users", Sources: []string{"name"}})

	errs := Validate([]ir.TableSpec{terms, items})
	assert.ElementsMatch(t, []string{ErrUndefinedTable, ErrUndefinedTable, ErrUndefinedTable}, codes(errs))
}

func TestValidateSchemaUndefinedSource(t *testing.T) {
	terms := validTerms()
	terms.Indexes[0].Sources = []string{"summary"}
	errs := Validate([]ir.TableSpec{terms, validItems()})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUndefinedSource, errs[0].Code)
	assert.Equal(t, "tables[Terms].indexes[0].sources[0]", errs[0].Field)
}

func TestValidateSchemaKeySource(t *testing.T) {
	terms := validTerms()
	terms.Indexes[0].Sources = []string{"_key"}
	assert.Empty(t, Validate([]ir.TableSpec{terms, validItems()}))

	log := ir.TableSpec{Name: "Log", Type: "array"}
	terms.Indexes[0].SourceTable = "Log"
	errs := Validate([]ir.TableSpec{terms, validItems(), log})
	assert.Equal(t, []string{ErrUndefinedSource}, codes(errs))
}

func TestValidateSchemaDuplicateTable(t *testing.T) {
	errs := Validate([]ir.TableSpec{validItems(), validItems()})
	assert.Equal(t, []string{ErrDuplicateName}, codes(errs))
}

func TestValidateSchemaKeyTypeCycle(t *testing.T) {
	specs := []ir.TableSpec{
		{Name: "A", Type: "hash", KeyType: "B"},
		{Name: "B", Type: "hash", KeyType: "A"},
	}
	errs := Validate(specs)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrKeyTypeCycle, errs[0].Code)
	assert.Contains(t, errs[0].Message, "->")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := ir.TableSpec{
		Name: "",
		Type: "btree",
		Columns: []ir.ColumnSpec{
			{Name: "a", Type: "Float", Kind: ir.KindScalar},
			{Name: "b", Type: "Text", Kind: "matrix"},
		},
	}
	errs := Validate(&spec)
	assert.Equal(t, []string{ErrInvalidName, ErrInvalidTableType, ErrFloatTypeForbidden, ErrInvalidColumnKind}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "name", Message: "name is required", Code: ErrInvalidName}
	assert.Equal(t, "[E101] name: name is required", err.Error())

	err.Line = 7
	assert.Equal(t, "[E101] line 7: name: name is required", err.Error())
}
