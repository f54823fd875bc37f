package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/ir"
)

const itemsSchema = `
table: Terms: {
	type:              "patricia"
	key_type:          "ShortText"
	default_tokenizer: "TokenBigram"
	normalizer:        "NormalizerAuto"
	index: items_title: {
		source_table:  "Items"
		sources:       ["title"]
		with_position: true
	}
}
table: Items: {
	type:     "hash"
	key_type: "ShortText"
	column: {
		title: type: "ShortText"
		price: type: "UInt32"
		tags: {type: "ShortText", kind: "vector", with_weight: true}
		body: {type: "Text", compress: "zstd"}
	}
}
`

func TestCompileSchemaBasic(t *testing.T) {
	specs, err := CompileString(itemsSchema, "items.cue")
	require.NoError(t, err)
	require.Len(t, specs, 2)

	terms := specs[0]
	assert.Equal(t, "Terms", terms.Name)
	assert.Equal(t, "patricia", terms.Type)
	assert.Equal(t, "ShortText", terms.KeyType)
	assert.Equal(t, "TokenBigram", terms.DefaultTokenizer)
	assert.Equal(t, "NormalizerAuto", terms.Normalizer)
	assert.Empty(t, terms.Columns)
	require.Len(t, terms.Indexes, 1)
	assert.Equal(t, ir.IndexSpec{
		Name:         "items_title",
		SourceTable:  "Items",
		Sources:      []string{"title"},
		WithPosition: true,
	}, terms.Indexes[0])

	items := specs[1]
	assert.Equal(t, "Items", items.Name)
	require.Len(t, items.Columns, 4)
	assert.Equal(t, ir.ColumnSpec{Name: "title", Type: "ShortText", Kind: ir.KindScalar}, items.Columns[0])
	assert.Equal(t, ir.ColumnSpec{Name: "price", Type: "UInt32", Kind: ir.KindScalar}, items.Columns[1])
	assert.Equal(t, ir.ColumnSpec{Name: "tags", Type: "ShortText", Kind: ir.KindVector, WithWeight: true}, items.Columns[2])
	assert.Equal(t, ir.ColumnSpec{Name: "body", Type: "Text", Kind: ir.KindScalar, Compress: ir.CompressZstd}, items.Columns[3])

	assert.Empty(t, Validate(specs), "compiled schema should validate")
}

func TestCompileTableDirect(t *testing.T) {
	v := cuecontext.New().CompileString(`table: Users: {type: "array"}`)
	spec, err := CompileTable(v.LookupPath(cue.ParsePath("table.Users")))
	require.NoError(t, err)
	assert.Equal(t, "Users", spec.Name)
	assert.Equal(t, "array", spec.Type)
	assert.Empty(t, spec.KeyType)
}

func TestCompileTableMissingType(t *testing.T) {
	_, err := CompileString(`table: Users: {key_type: "ShortText"}`, "users.cue")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "type", ce.Field)
	assert.Contains(t, err.Error(), "table type is required")
}

func TestCompileColumnMissingType(t *testing.T) {
	_, err := CompileString(`table: Users: {type: "array", column: name: kind: "scalar"}`, "users.cue")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "column.name.type", ce.Field)
}

func TestCompileIndexMissingSourceTable(t *testing.T) {
	_, err := CompileString(`table: Terms: {type: "hash", key_type: "ShortText", index: ix: sources: ["title"]}`, "terms.cue")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "index.ix.source_table", ce.Field)
}

func TestCompileNoTables(t *testing.T) {
	_, err := CompileString(`other: 1`, "empty.cue")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "table", ce.Field)
}

func TestCompileWrongFieldType(t *testing.T) {
	_, err := CompileString(`table: Users: {type: 42}`, "users.cue")
	require.Error(t, err)
}

func TestCompileSyntaxErrorCarriesPosition(t *testing.T) {
	_, err := CompileString("table: Users: {type: \n", "broken.cue")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "type", Message: "table type is required"}
	assert.Equal(t, "type: table type is required", err.Error())
}
