package ir

import "slices"

// Column kinds.
const (
	KindScalar = "scalar"
	KindVector = "vector"
)

// Compression codecs accepted by ColumnSpec.Compress.
const (
	CompressNone = ""
	CompressZlib = "zlib"
	CompressLZ4  = "lz4"
	CompressZstd = "zstd"
)

// TableSpec is a compiled table definition.
type TableSpec struct {
	Name             string       `json:"name"`
	Type             string       `json:"type"`               // hash, patricia, double_array, array
	KeyType          string       `json:"key_type,omitempty"` // builtin type or table name
	DefaultTokenizer string       `json:"default_tokenizer,omitempty"`
	Normalizer       string       `json:"normalizer,omitempty"`
	Columns          []ColumnSpec `json:"columns"`
	Indexes          []IndexSpec  `json:"indexes"`
}

// ColumnSpec is a data column definition.
type ColumnSpec struct {
	Name          string `json:"name"`
	Type          string `json:"type"` // builtin type or table name
	Kind          string `json:"kind"` // scalar or vector
	WithWeight    bool   `json:"with_weight,omitempty"`
	WeightFloat32 bool   `json:"weight_float32,omitempty"`
	Compress      string `json:"compress,omitempty"`
}

// IndexSpec is an index column definition. The table declaring it is the
// lexicon.
type IndexSpec struct {
	Name         string   `json:"name"`
	SourceTable  string   `json:"source_table"`
	Sources      []string `json:"sources"`
	WithPosition bool     `json:"with_position,omitempty"`
	WithSection  bool     `json:"with_section,omitempty"`
}

// Column returns the column named name, if declared.
func (t *TableSpec) Column(name string) (ColumnSpec, bool) {
	i := slices.IndexFunc(t.Columns, func(c ColumnSpec) bool { return c.Name == name })
	if i < 0 {
		return ColumnSpec{}, false
	}
	return t.Columns[i], true
}

// Dependencies returns the other tables t refers to: its key type, the
// value types of its columns and the sources of its indexes. Builtin type
// names are included; callers filter them.
func (t *TableSpec) Dependencies() []string {
	var deps []string
	add := func(name string) {
		if name != "" && name != t.Name && !slices.Contains(deps, name) {
			deps = append(deps, name)
		}
	}
	add(t.KeyType)
	for _, c := range t.Columns {
		add(c.Type)
	}
	for _, ix := range t.Indexes {
		add(ix.SourceTable)
	}
	return deps
}

func (t *TableSpec) irObject() IRObject {
	cols := make(IRObject, len(t.Columns))
	for _, c := range t.Columns {
		cols[c.Name] = IRObject{
			"type":           IRString(c.Type),
			"kind":           IRString(c.Kind),
			"with_weight":    IRBool(c.WithWeight),
			"weight_float32": IRBool(c.WeightFloat32),
			"compress":       IRString(c.Compress),
		}
	}
	idx := make(IRObject, len(t.Indexes))
	for _, ix := range t.Indexes {
		sources := make(IRArray, len(ix.Sources))
		for i, s := range ix.Sources {
			sources[i] = IRString(s)
		}
		idx[ix.Name] = IRObject{
			"source_table":  IRString(ix.SourceTable),
			"sources":       sources,
			"with_position": IRBool(ix.WithPosition),
			"with_section":  IRBool(ix.WithSection),
		}
	}
	return IRObject{
		"type":              IRString(t.Type),
		"key_type":          IRString(t.KeyType),
		"default_tokenizer": IRString(t.DefaultTokenizer),
		"normalizer":        IRString(t.Normalizer),
		"columns":           cols,
		"indexes":           idx,
	}
}
