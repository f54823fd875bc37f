package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
)

// Validation error codes (E100-E119)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Table errors (E101-E109)
	ErrInvalidName        = "E101" // empty, reserved or malformed name
	ErrInvalidTableType   = "E102" // unknown table type
	ErrInvalidKeyType     = "E103" // key type missing, forbidden or unusable
	ErrInvalidFieldType   = "E104" // unknown column type
	ErrDuplicateName      = "E105" // duplicate table, column or index name
	ErrFloatTypeForbidden = "E106" // float types not allowed
	ErrInvalidColumnKind  = "E107" // kind is neither scalar nor vector
	ErrInvalidWeight      = "E108" // weights on scalars, float32 without weights
	ErrInvalidCompression = "E109" // unknown codec or codec on a non-text scalar

	// Schema and index errors (E110-E119)
	ErrUndefinedTable     = "E110" // reference to a table not in the schema
	ErrUnkeyedLexicon     = "E111" // index declared on an array table
	ErrIndexNoSources     = "E112" // index without sources
	ErrIndexNeedsSection  = "E113" // multi-source index without with_section
	ErrUndefinedSource    = "E114" // index source column not declared
	ErrKeyTypeCycle       = "E115" // tables keyed by each other
	ErrUnknownTokenizer   = "E116" // tokenizer not provided by the engine
	ErrUnknownNormalizer  = "E117" // normalizer not provided by the engine
	ErrTokenizerNeedsKeys = "E118" // tokenizer or normalizer on an array table
	ErrDuplicateSource    = "E119" // index lists a source twice
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules and returns every
// error found. A single table is checked on its own; a slice of tables is
// also checked for cross-table references, index sources and key-type
// cycles.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.TableSpec:
		return validateTable(spec)
	case ir.TableSpec:
		return validateTable(&spec)
	case []ir.TableSpec:
		return validateSchema(spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

var builtinTypes = map[string]bool{
	"Bool": true, "Time": true,
	"Int8": true, "UInt8": true, "Int16": true, "UInt16": true,
	"Int32": true, "UInt32": true, "Int64": true, "UInt64": true,
	"ShortText": true, "Text": true, "LongText": true,
}

var textTypes = map[string]bool{"ShortText": true, "Text": true, "LongText": true}

var knownTokenizers = map[string]bool{
	"TokenBigram": true, "TokenUnigram": true, "TokenTrigram": true, "TokenDelimit": true,
}

var knownNormalizers = map[string]bool{"NormalizerAuto": true, "NormalizerNFKC": true}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9#@-][A-Za-z0-9_#@-]*$`)

func isArray(typ string) bool { return typ == "array" || typ == "no_key" }

// isFloatType checks if a type string represents a float type.
func isFloatType(t string) bool {
	switch strings.ToLower(t) {
	case "float", "float32", "float64", "double", "number":
		return true
	}
	return false
}

func checkName(name, field string) []ValidationError {
	switch {
	case name == "":
		return []ValidationError{{Field: field, Message: "name is required", Code: ErrInvalidName}}
	case strings.HasPrefix(name, "_"):
		return []ValidationError{{Field: field, Message: fmt.Sprintf("name %q is reserved", name), Code: ErrInvalidName}}
	case !namePattern.MatchString(name):
		return []ValidationError{{Field: field, Message: fmt.Sprintf("name %q has invalid characters", name), Code: ErrInvalidName}}
	}
	return nil
}

// validateTable checks one table without looking at other tables. Type
// names that are not builtins are assumed to be tables.
func validateTable(spec *ir.TableSpec) []ValidationError {
	errs := checkName(spec.Name, "name")

	// E102: table type
	_, knownType := native.ParseTableType(spec.Type)
	if !knownType {
		errs = append(errs, ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("invalid table type %q, must be hash, patricia, double_array or array", spec.Type),
			Code:    ErrInvalidTableType,
		})
	}

	// E103: key types belong to keyed tables
	switch {
	case isArray(spec.Type) && spec.KeyType != "":
		errs = append(errs, ValidationError{Field: "key_type", Message: "array tables have no key type", Code: ErrInvalidKeyType})
	case !isArray(spec.Type) && knownType && spec.KeyType == "":
		errs = append(errs, ValidationError{Field: "key_type", Message: fmt.Sprintf("%s tables need a key type", spec.Type), Code: ErrInvalidKeyType})
	case spec.KeyType == "Bool":
		errs = append(errs, ValidationError{Field: "key_type", Message: "Bool cannot be a key type", Code: ErrInvalidKeyType})
	case isFloatType(spec.KeyType):
		errs = append(errs, ValidationError{Field: "key_type", Message: "float key types are forbidden", Code: ErrFloatTypeForbidden})
	}

	// E116-E118: lexicon settings
	if spec.DefaultTokenizer != "" && !knownTokenizers[spec.DefaultTokenizer] {
		errs = append(errs, ValidationError{Field: "default_tokenizer", Message: fmt.Sprintf("unknown tokenizer %q", spec.DefaultTokenizer), Code: ErrUnknownTokenizer})
	}
	if spec.Normalizer != "" && !knownNormalizers[spec.Normalizer] {
		errs = append(errs, ValidationError{Field: "normalizer", Message: fmt.Sprintf("unknown normalizer %q", spec.Normalizer), Code: ErrUnknownNormalizer})
	}
	if isArray(spec.Type) && (spec.DefaultTokenizer != "" || spec.Normalizer != "") {
		errs = append(errs, ValidationError{Field: "default_tokenizer", Message: "array tables cannot tokenize or normalize keys", Code: ErrTokenizerNeedsKeys})
	}

	names := make(map[string]bool)
	for i, col := range spec.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		errs = append(errs, checkName(col.Name, field+".name")...)
		if names[col.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate column name: %q", col.Name), Code: ErrDuplicateName})
		}
		names[col.Name] = true
		errs = append(errs, validateColumn(col, field)...)
	}

	for i, ix := range spec.Indexes {
		field := fmt.Sprintf("indexes[%d]", i)
		errs = append(errs, checkName(ix.Name, field+".name")...)
		if names[ix.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate column name: %q", ix.Name), Code: ErrDuplicateName})
		}
		names[ix.Name] = true

		if isArray(spec.Type) {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("index %q needs a keyed lexicon", ix.Name), Code: ErrUnkeyedLexicon})
		}
		if ix.SourceTable == "" {
			errs = append(errs, ValidationError{Field: field + ".source_table", Message: "source table is required", Code: ErrUndefinedTable})
		}
		if len(ix.Sources) == 0 {
			errs = append(errs, ValidationError{Field: field + ".sources", Message: fmt.Sprintf("index %q has no sources", ix.Name), Code: ErrIndexNoSources})
		}
		if len(ix.Sources) > 1 && !ix.WithSection {
			errs = append(errs, ValidationError{Field: field + ".with_section", Message: fmt.Sprintf("index %q has %d sources and needs with_section", ix.Name, len(ix.Sources)), Code: ErrIndexNeedsSection})
		}
		for j, s := range ix.Sources {
			if slices.Index(ix.Sources, s) != j {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.sources[%d]", field, j), Message: fmt.Sprintf("source %q listed twice", s), Code: ErrDuplicateSource})
			}
		}
	}
	return errs
}

func validateColumn(col ir.ColumnSpec, field string) []ValidationError {
	var errs []ValidationError
	switch {
	case isFloatType(col.Type):
		errs = append(errs, ValidationError{Field: field + ".type", Message: fmt.Sprintf("float type forbidden for column %q, use an integer type", col.Name), Code: ErrFloatTypeForbidden})
	case col.Type == "":
		errs = append(errs, ValidationError{Field: field + ".type", Message: fmt.Sprintf("column %q has no type", col.Name), Code: ErrInvalidFieldType})
	}

	vector := col.Kind == ir.KindVector
	if col.Kind != ir.KindScalar && !vector {
		errs = append(errs, ValidationError{Field: field + ".kind", Message: fmt.Sprintf("invalid kind %q, must be scalar or vector", col.Kind), Code: ErrInvalidColumnKind})
	}
	if col.WithWeight && !vector {
		errs = append(errs, ValidationError{Field: field + ".with_weight", Message: "only vector columns carry weights", Code: ErrInvalidWeight})
	}
	if col.WeightFloat32 && !col.WithWeight {
		errs = append(errs, ValidationError{Field: field + ".weight_float32", Message: "float32 weights need with_weight", Code: ErrInvalidWeight})
	}

	switch col.Compress {
	case ir.CompressNone:
	case ir.CompressZlib, ir.CompressLZ4, ir.CompressZstd:
		if vector || !textTypes[col.Type] {
			errs = append(errs, ValidationError{Field: field + ".compress", Message: "only scalar text columns can be compressed", Code: ErrInvalidCompression})
		}
	default:
		errs = append(errs, ValidationError{Field: field + ".compress", Message: fmt.Sprintf("unknown codec %q", col.Compress), Code: ErrInvalidCompression})
	}
	return errs
}

// validateSchema checks every table and the references between them.
func validateSchema(specs []ir.TableSpec) []ValidationError {
	var errs []ValidationError
	tables := make(map[string]*ir.TableSpec, len(specs))
	for i := range specs {
		spec := &specs[i]
		prefix := fmt.Sprintf("tables[%s]", spec.Name)
		for _, e := range validateTable(spec) {
			e.Field = prefix + "." + e.Field
			errs = append(errs, e)
		}
		if _, dup := tables[spec.Name]; dup {
			errs = append(errs, ValidationError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate table name: %q", spec.Name), Code: ErrDuplicateName})
			continue
		}
		tables[spec.Name] = spec
	}

	isType := func(name string) bool {
		_, table := tables[name]
		return builtinTypes[name] || table
	}
	for i := range specs {
		spec := &specs[i]
		prefix := fmt.Sprintf("tables[%s]", spec.Name)
		if spec.KeyType != "" && !isFloatType(spec.KeyType) && !isType(spec.KeyType) {
			errs = append(errs, ValidationError{Field: prefix + ".key_type", Message: fmt.Sprintf("undefined key type %q", spec.KeyType), Code: ErrUndefinedTable})
		}
		for j, col := range spec.Columns {
			if col.Type != "" && !isFloatType(col.Type) && !isType(col.Type) {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.columns[%d].type", prefix, j), Message: fmt.Sprintf("undefined type %q for column %q", col.Type, col.Name), Code: ErrUndefinedTable})
			}
		}
		for j, ix := range spec.Indexes {
			field := fmt.Sprintf("%s.indexes[%d]", prefix, j)
			src, ok := tables[ix.SourceTable]
			if !ok {
				if ix.SourceTable != "" {
					errs = append(errs, ValidationError{Field: field + ".source_table", Message: fmt.Sprintf("undefined source table %q", ix.SourceTable), Code: ErrUndefinedTable})
				}
				continue
			}
			for k, s := range ix.Sources {
				if s == "_key" {
					if isArray(src.Type) {
						errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.sources[%d]", field, k), Message: fmt.Sprintf("table %q has no keys", src.Name), Code: ErrUndefinedSource})
					}
					continue
				}
				if _, ok := src.Column(s); !ok {
					errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.sources[%d]", field, k), Message: fmt.Sprintf("table %q has no column %q", src.Name, s), Code: ErrUndefinedSource})
				}
			}
		}
	}

	for _, cycle := range KeyTypeCycles(specs) {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("tables[%s].key_type", cycle[0]),
			Message: fmt.Sprintf("key type cycle: %s", strings.Join(cycle, " -> ")),
			Code:    ErrKeyTypeCycle,
		})
	}
	return errs
}
