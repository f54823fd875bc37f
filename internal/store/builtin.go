package store

import (
	"math"

	"github.com/roach88/grnbind/internal/native"
)

// valueKind is how a builtin type is stored.
type valueKind uint8

const (
	kindBool valueKind = iota + 1
	kindInt
	kindText
)

type builtinType struct {
	id       native.Handle
	name     string
	kind     valueKind
	min, max int64 // integer range
	maxLen   int   // text byte length, 0 for unlimited
	fixed    bool  // fix-size column storage
}

// Builtin types occupy handles 1..len(builtinTypes).
var builtinTypes = []builtinType{
	{id: 1, name: "Bool", kind: kindBool, fixed: true},
	{id: 2, name: "Int8", kind: kindInt, min: math.MinInt8, max: math.MaxInt8, fixed: true},
	{id: 3, name: "UInt8", kind: kindInt, min: 0, max: math.MaxUint8, fixed: true},
	{id: 4, name: "Int16", kind: kindInt, min: math.MinInt16, max: math.MaxInt16, fixed: true},
	{id: 5, name: "UInt16", kind: kindInt, min: 0, max: math.MaxUint16, fixed: true},
	{id: 6, name: "Int32", kind: kindInt, min: math.MinInt32, max: math.MaxInt32, fixed: true},
	{id: 7, name: "UInt32", kind: kindInt, min: 0, max: math.MaxUint32, fixed: true},
	{id: 8, name: "Int64", kind: kindInt, min: math.MinInt64, max: math.MaxInt64, fixed: true},
	// UInt64 values above MaxInt64 are not representable as ir.IRInt.
	{id: 9, name: "UInt64", kind: kindInt, min: 0, max: math.MaxInt64, fixed: true},
	{id: 10, name: "Time", kind: kindInt, min: math.MinInt64, max: math.MaxInt64, fixed: true},
	{id: 11, name: "ShortText", kind: kindText, maxLen: 4095},
	{id: 12, name: "Text", kind: kindText, maxLen: 65535},
	{id: 13, name: "LongText", kind: kindText},
}

const (
	typeUInt32 native.Handle = 7
	typeInt32  native.Handle = 6
)

// firstObjectID is the first id handed to catalog objects.
const firstObjectID = 256

// sessionHandleBase is the first handle of session-local objects
// (accessors, expressions). They never reach the catalog.
const sessionHandleBase native.Handle = 1 << 30

func builtinByID(h native.Handle) (builtinType, bool) {
	if h >= 1 && int(h) <= len(builtinTypes) {
		return builtinTypes[h-1], true
	}
	return builtinType{}, false
}

func builtinByName(name string) (builtinType, bool) {
	for _, b := range builtinTypes {
		if b.name == name {
			return b, true
		}
	}
	return builtinType{}, false
}

// Floating point types exist in the engine but cannot be carried by ir.
var unsupportedTypes = map[string]bool{"Float": true, "Float32": true}

var knownTokenizers = map[string]bool{
	"TokenBigram":  true,
	"TokenUnigram": true,
	"TokenTrigram": true,
	"TokenDelimit": true,
}

var knownNormalizers = map[string]bool{
	"NormalizerAuto": true,
	"NormalizerNFKC": true,
}
