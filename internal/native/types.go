package native

import "github.com/roach88/grnbind/internal/ir"

// Handle identifies an engine-owned object (table, column, accessor, type,
// expression). The zero Handle is nil. Handles are owned by the engine; the
// binding only ever asks the engine to unlink or remove them.
type Handle uint32

// NilHandle is the nil object.
const NilHandle Handle = 0

// ID identifies a record within a table.
type ID uint32

// IDNil is the nil record. Lock operations interpret it as "all records".
const IDNil ID = 0

// BufferHandle identifies a value buffer opened with Engine.OpenBuffer.
type BufferHandle uint32

// ObjectType is the engine-level type of an object.
type ObjectType uint8

const (
	TypeVoid ObjectType = iota
	TypeBuiltin
	TypeTableHashKey
	TypeTablePatKey
	TypeTableDatKey
	TypeTableNoKey
	TypeColumnFixSize
	TypeColumnVarSize
	TypeColumnIndex
	TypeAccessor
	TypeExpr
)

var objectTypeNames = map[ObjectType]string{
	TypeVoid:          "void",
	TypeBuiltin:       "type",
	TypeTableHashKey:  "hash",
	TypeTablePatKey:   "patricia",
	TypeTableDatKey:   "double_array",
	TypeTableNoKey:    "array",
	TypeColumnFixSize: "fix_size_column",
	TypeColumnVarSize: "var_size_column",
	TypeColumnIndex:   "index_column",
	TypeAccessor:      "accessor",
	TypeExpr:          "expression",
}

func (t ObjectType) String() string {
	if s, ok := objectTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// IsTable reports whether t is one of the table types.
func (t ObjectType) IsTable() bool {
	switch t {
	case TypeTableHashKey, TypeTablePatKey, TypeTableDatKey, TypeTableNoKey:
		return true
	}
	return false
}

// IsColumn reports whether t is one of the column types.
func (t ObjectType) IsColumn() bool {
	switch t {
	case TypeColumnFixSize, TypeColumnVarSize, TypeColumnIndex:
		return true
	}
	return false
}

// IsKeyed reports whether records of a table of type t carry keys.
func (t ObjectType) IsKeyed() bool {
	switch t {
	case TypeTableHashKey, TypeTablePatKey, TypeTableDatKey:
		return true
	}
	return false
}

// ParseTableType maps a schema table type name to an ObjectType.
func ParseTableType(s string) (ObjectType, bool) {
	switch s {
	case "hash", "hash_key":
		return TypeTableHashKey, true
	case "patricia", "pat_key":
		return TypeTablePatKey, true
	case "double_array", "dat_key":
		return TypeTableDatKey, true
	case "array", "no_key":
		return TypeTableNoKey, true
	}
	return TypeVoid, false
}

// ColumnFlags are the per-column flags stored by the engine.
type ColumnFlags uint32

const (
	ColumnScalar ColumnFlags = 0x00
	ColumnVector ColumnFlags = 0x01
	ColumnIndex  ColumnFlags = 0x02

	// ColumnTypeMask selects the scalar/vector/index part of the flags.
	ColumnTypeMask ColumnFlags = 0x07

	WithSection   ColumnFlags = 0x80
	WithWeight    ColumnFlags = 0x100
	WithPosition  ColumnFlags = 0x200
	WeightFloat32 ColumnFlags = 0x400

	CompressZlib ColumnFlags = 0x1000
	CompressLZ4  ColumnFlags = 0x2000
	CompressZstd ColumnFlags = 0x4000

	CompressMask ColumnFlags = CompressZlib | CompressLZ4 | CompressZstd
)

// Type returns the scalar/vector/index part of f.
func (f ColumnFlags) Type() ColumnFlags {
	return f & ColumnTypeMask
}

// Has reports whether every bit of flag is set in f.
func (f ColumnFlags) Has(flag ColumnFlags) bool {
	return f&flag == flag
}

// Header is the engine's description of an object.
type Header struct {
	Type   ObjectType
	Flags  ColumnFlags // columns only
	Domain Handle      // owning table for columns, key type for tables
	Range  Handle      // value type for columns and accessors

	// RangeType is the object type of Range, so callers can classify a
	// column without a second lookup.
	RangeType ObjectType

	// Temporary objects have no name and are dropped when unlinked.
	Temporary bool
}

// BufferKind is the representation of a value buffer.
type BufferKind uint8

const (
	// BufferBulk holds one scalar value.
	BufferBulk BufferKind = iota + 1
	// BufferVector holds a sequence of arbitrary values.
	BufferVector
	// BufferUVector holds a sequence of record ids.
	BufferUVector
)

func (k BufferKind) String() string {
	switch k {
	case BufferBulk:
		return "bulk"
	case BufferVector:
		return "vector"
	case BufferUVector:
		return "uvector"
	}
	return "invalid"
}

// Operator is the engine's operator enumeration. Select uses the merge
// operators (Or, And, AndNot, Adjust); FindIndexes uses the comparison ones.
type Operator uint8

const (
	OpOr Operator = iota + 1
	OpAnd
	OpAndNot
	OpAdjust
	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpMatch
	OpPrefix
)

var operatorNames = map[Operator]string{
	OpOr:           "or",
	OpAnd:          "and",
	OpAndNot:       "and_not",
	OpAdjust:       "adjust",
	OpEqual:        "equal",
	OpNotEqual:     "not_equal",
	OpLess:         "less",
	OpGreater:      "greater",
	OpLessEqual:    "less_equal",
	OpGreaterEqual: "greater_equal",
	OpMatch:        "match",
	OpPrefix:       "prefix",
}

func (op Operator) String() string {
	if s, ok := operatorNames[op]; ok {
		return s
	}
	return "invalid"
}

// IsMerge reports whether op is one of the result-merge operators.
func (op Operator) IsMerge() bool {
	switch op {
	case OpOr, OpAnd, OpAndNot, OpAdjust:
		return true
	}
	return false
}

// ParseOperator maps an operator name ("or", "AND_NOT", "&!", ...) to an Operator.
func ParseOperator(s string) (Operator, bool) {
	switch s {
	case "or", "OR", "||":
		return OpOr, true
	case "and", "AND", "&&":
		return OpAnd, true
	case "and_not", "AND_NOT", "&!":
		return OpAndNot, true
	case "adjust", "ADJUST":
		return OpAdjust, true
	case "equal", "EQUAL", "==":
		return OpEqual, true
	case "not_equal", "NOT_EQUAL", "!=":
		return OpNotEqual, true
	case "less", "LESS", "<":
		return OpLess, true
	case "greater", "GREATER", ">":
		return OpGreater, true
	case "less_equal", "LESS_EQUAL", "<=":
		return OpLessEqual, true
	case "greater_equal", "GREATER_EQUAL", ">=":
		return OpGreaterEqual, true
	case "match", "MATCH", "@":
		return OpMatch, true
	case "prefix", "PREFIX", "@^":
		return OpPrefix, true
	}
	return 0, false
}

// Syntax selects the expression grammar.
type Syntax uint8

const (
	SyntaxQuery Syntax = iota + 1
	SyntaxScript
)

func (s Syntax) String() string {
	switch s {
	case SyntaxQuery:
		return "query"
	case SyntaxScript:
		return "script"
	}
	return "invalid"
}

// ParseSyntax maps "query" or "script" to a Syntax.
func ParseSyntax(s string) (Syntax, bool) {
	switch s {
	case "query":
		return SyntaxQuery, true
	case "script":
		return SyntaxScript, true
	}
	return 0, false
}

// ExprFlags control expression parsing.
type ExprFlags uint8

const (
	AllowPragma ExprFlags = 1 << iota
	AllowColumn
	AllowUpdate
	AllowLeadingNot
)

// Has reports whether every bit of flag is set in f.
func (f ExprFlags) Has(flag ExprFlags) bool {
	return f&flag == flag
}

// ExprRequest asks the engine to compile an expression.
type ExprRequest struct {
	Table         Handle // table the expression is bound to
	DefaultColumn Handle // column unqualified terms match against; nil for none
	Name          string // label, may be empty
	Source        string // query or script text; empty matches all records
	Syntax        Syntax
	Flags         ExprFlags
}

// IndexDatum identifies one index over a column.
type IndexDatum struct {
	Index   Handle
	Section uint32
}

// Record is one row of a table as reported by Engine.Records.
type Record struct {
	ID    ID
	Key   ir.IRValue // nil for unkeyed tables
	Score int64
}

// TableSpec requests a new table.
type TableSpec struct {
	Name       string // empty creates a temporary table
	Type       ObjectType
	KeyType    string // builtin type or table name; empty for arrays
	KeyTable   Handle // keys reference this table; overrides KeyType
	WithSubrec bool
	Tokenizer  string
	Normalizer string
}

// ColumnSpec requests a new data column.
type ColumnSpec struct {
	Name      string
	Flags     ColumnFlags
	ValueType string // builtin type or table name
}

// IndexSpec requests a new index column on a lexicon table.
type IndexSpec struct {
	Name        string
	Flags       ColumnFlags
	SourceTable string
	Sources     []string // column names of SourceTable; "_key" indexes keys
}
