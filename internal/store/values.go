package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// valueType is the storage shape of a column range. Reference columns
// store the referenced key, or the record id when the referenced table
// has no keys.
type valueType struct {
	builtin builtinType
	ref     *object
}

func resolveValueType(q queryer, rng native.Handle) (valueType, error) {
	if b, ok := builtinByID(rng); ok {
		return valueType{builtin: b}, nil
	}
	t, err := loadTable(q, rng)
	if err != nil {
		return valueType{}, err
	}
	if b, ok := builtinByID(t.domain); ok {
		return valueType{builtin: b, ref: t}, nil
	}
	uint32Type, _ := builtinByID(typeUInt32)
	return valueType{builtin: uint32Type, ref: t}, nil
}

// encodeScalar converts v to the driver value stored for b. Null encodes
// as SQL NULL.
func encodeScalar(b builtinType, v ir.IRValue) (any, error) {
	if ir.IsNull(v) {
		return nil, nil
	}
	switch b.kind {
	case kindBool:
		x, ok := v.(ir.IRBool)
		if !ok {
			return nil, failf(status.CodeInvalidArgument, "%s wants a bool, got %T", b.name, v)
		}
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case kindInt:
		x, ok := v.(ir.IRInt)
		if !ok {
			return nil, failf(status.CodeInvalidArgument, "%s wants an integer, got %T", b.name, v)
		}
		if int64(x) < b.min || int64(x) > b.max {
			return nil, failf(status.CodeInvalidArgument, "%d is out of range for %s", x, b.name)
		}
		return int64(x), nil
	case kindText:
		x, ok := v.(ir.IRString)
		if !ok {
			return nil, failf(status.CodeInvalidArgument, "%s wants a string, got %T", b.name, v)
		}
		if b.maxLen > 0 && len(x) > b.maxLen {
			return nil, failf(status.CodeInvalidArgument, "value is longer than %d bytes for %s", b.maxLen, b.name)
		}
		return string(x), nil
	}
	return nil, failf(status.CodeInvalidArgument, "unknown type %s", b.name)
}

func decodeScalar(b builtinType, raw any) ir.IRValue {
	switch x := raw.(type) {
	case nil:
		return ir.IRNull{}
	case int64:
		if b.kind == kindBool {
			return ir.IRBool(x != 0)
		}
		return ir.IRInt(x)
	case string:
		return ir.IRString(x)
	case []byte:
		return ir.IRString(x)
	}
	return ir.IRNull{}
}

// encodeKey converts key to the _key value stored in t. Tables keyed by
// another table store that table's record id.
func encodeKey(q queryer, t *object, key ir.IRValue, add bool) (any, error) {
	if ir.IsNull(key) {
		return nil, failf(status.CodeInvalidArgument, "a key is required for %s", t.name)
	}
	if b, ok := builtinByID(t.domain); ok {
		return encodeScalar(b, key)
	}
	ref, err := loadTable(q, t.domain)
	if err != nil {
		return nil, err
	}
	id, err := recordFor(q, ref, key, add)
	if err != nil {
		return nil, err
	}
	if id == native.IDNil {
		return nil, nil
	}
	return int64(id), nil
}

// recordFor finds the record of t identified by key: a key for keyed
// tables, a record id otherwise. With add, missing keys are inserted.
// A missing record yields IDNil.
func recordFor(q queryer, t *object, key ir.IRValue, add bool) (native.ID, error) {
	if !t.typ.IsKeyed() {
		x, ok := key.(ir.IRInt)
		if !ok {
			return native.IDNil, failf(status.CodeInvalidArgument, "records of %s are referenced by id", t.name)
		}
		var id native.ID
		err := q.QueryRow(fmt.Sprintf(`SELECT _id FROM %s WHERE _id = ?`, t.dataTable()), int64(x)).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return native.IDNil, failf(status.CodeInvalidArgument, "%s has no record %d", t.name, x)
		}
		return id, err
	}
	p, err := encodeKey(q, t, key, add)
	if err != nil || p == nil {
		return native.IDNil, err
	}
	if add {
		if _, err := q.Exec(fmt.Sprintf(`INSERT INTO %s (_key) VALUES (?) ON CONFLICT(_key) DO NOTHING`, t.dataTable()), p); err != nil {
			return native.IDNil, err
		}
	}
	var id native.ID
	err = q.QueryRow(fmt.Sprintf(`SELECT _id FROM %s WHERE _key = ?`, t.dataTable()), p).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return native.IDNil, nil
	}
	return id, err
}

// decodeKey converts a stored _key of t back to the caller's key.
func decodeKey(q queryer, t *object, raw any) (ir.IRValue, error) {
	if b, ok := builtinByID(t.domain); ok {
		return decodeScalar(b, raw), nil
	}
	id, ok := raw.(int64)
	if !ok {
		return ir.IRNull{}, nil
	}
	ref, err := loadTable(q, t.domain)
	if err != nil {
		return nil, err
	}
	return keyOf(q, ref, native.ID(id))
}

// keyOf returns the key of record id, or its id for unkeyed tables.
func keyOf(q queryer, t *object, id native.ID) (ir.IRValue, error) {
	if !t.typ.IsKeyed() {
		return ir.IRInt(id), nil
	}
	var raw any
	err := q.QueryRow(fmt.Sprintf(`SELECT _key FROM %s WHERE _id = ?`, t.dataTable()), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.IRNull{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeKey(q, t, raw)
}

// encodeElement converts one value of vt. References are resolved, and
// with add, inserted.
func encodeElement(q queryer, vt valueType, v ir.IRValue, add bool) (any, error) {
	if vt.ref == nil {
		return encodeScalar(vt.builtin, v)
	}
	if ir.IsNull(v) {
		return nil, nil
	}
	if !vt.ref.typ.IsKeyed() {
		id, err := recordFor(q, vt.ref, v, false)
		if err != nil {
			return nil, err
		}
		return int64(id), nil
	}
	p, err := encodeKey(q, vt.ref, v, add)
	if err != nil {
		return nil, err
	}
	if add {
		if _, err := recordFor(q, vt.ref, v, true); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func decodeElement(q queryer, vt valueType, raw any) (ir.IRValue, error) {
	if vt.ref != nil && vt.ref.typ.IsKeyed() {
		if raw == nil {
			return ir.IRNull{}, nil
		}
		return decodeKey(q, vt.ref, raw)
	}
	return decodeScalar(vt.builtin, raw), nil
}

// encodeVector stores a vector as canonical JSON. Weighted elements are
// [value, weight] pairs; a bare value gets weight 0.
func encodeVector(q queryer, vt valueType, weighted bool, v ir.IRValue) (any, error) {
	if ir.IsNull(v) {
		return nil, nil
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, failf(status.CodeInvalidArgument, "vector columns want an array, got %T", v)
	}
	out := make([]any, 0, len(arr))
	for i, elem := range arr {
		var weight ir.IRValue = ir.IRInt(0)
		if pair, isPair := elem.(ir.IRArray); isPair {
			if !weighted || len(pair) != 2 {
				return nil, failf(status.CodeInvalidArgument, "element %d: nested arrays are weighted pairs", i)
			}
			elem, weight = pair[0], pair[1]
		}
		p, err := encodeElement(q, vt, elem, true)
		if err != nil {
			return nil, err
		}
		if !weighted {
			out = append(out, p)
			continue
		}
		w, ok := weight.(ir.IRInt)
		if !ok {
			return nil, failf(status.CodeInvalidArgument, "element %d: weight must be an integer", i)
		}
		out = append(out, []any{p, int64(w)})
	}
	b, err := ir.MarshalCanonical(out)
	if err != nil {
		return nil, failf(status.CodeInvalidArgument, "encode vector: %v", err)
	}
	return string(b), nil
}

func decodeVector(q queryer, vt valueType, weighted bool, raw any) (ir.IRValue, error) {
	var text string
	switch x := raw.(type) {
	case nil:
		return ir.IRNull{}, nil
	case string:
		text = x
	case []byte:
		text = string(x)
	default:
		return nil, failf(status.CodeInvalidFormat, "vector stored as %T", raw)
	}
	v, err := ir.UnmarshalIRValue([]byte(text))
	if err != nil {
		return nil, failf(status.CodeInvalidFormat, "decode vector: %v", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, failf(status.CodeInvalidFormat, "vector is not an array")
	}
	out := make(ir.IRArray, 0, len(arr))
	for _, elem := range arr {
		var weight ir.IRValue
		if weighted {
			pair, ok := elem.(ir.IRArray)
			if !ok || len(pair) != 2 {
				return nil, failf(status.CodeInvalidFormat, "weighted element is not a pair")
			}
			elem, weight = pair[0], pair[1]
		}
		d, err := decodeElement(q, vt, storedRaw(elem))
		if err != nil {
			return nil, err
		}
		if weighted {
			out = append(out, ir.IRArray{d, weight})
		} else {
			out = append(out, d)
		}
	}
	return out, nil
}

// storedRaw turns a decoded JSON element back into the driver value it
// was encoded from.
func storedRaw(v ir.IRValue) any {
	switch x := v.(type) {
	case ir.IRInt:
		return int64(x)
	case ir.IRString:
		return string(x)
	case ir.IRBool:
		if x {
			return int64(1)
		}
		return int64(0)
	}
	return nil
}
