package querysql

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/queryir"
)

type mapResolver map[string]Column

func (m mapResolver) Column(name string) (Column, error) {
	c, ok := m[name]
	if !ok {
		return Column{}, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
	}
	return c, nil
}

var testColumns = mapResolver{
	"":      {Expr: "t.c1"},
	"title": {Expr: "t.c1"},
	"n":     {Expr: "t.c2"},
	"tags":  {Expr: "t.c3", Vector: true},
	"terms": {Expr: "t.c4", Vector: true, Weighted: true},
	"body":  {Expr: "grn_decode(t.c5, 'zstd')"},
	"done": {Expr: "t.c6", Param: func(v ir.IRValue) (any, error) {
		return fmt.Sprintf("coerced:%v", v), nil
	}},
}

func compileWhere(t *testing.T, p queryir.Predicate) (string, []any) {
	t.Helper()
	sql, params, err := NewSQLCompiler(testColumns).CompileWhere(p)
	require.NoError(t, err)
	return sql, params
}

func TestCompileSelect(t *testing.T) {
	c := NewSQLCompiler(testColumns)
	sql, params, err := c.CompileSelect("grn_t256", &queryir.Compare{Op: native.OpMatch, Value: ir.IRString("groonga")})
	require.NoError(t, err)

	assert.Equal(t, "SELECT t._id FROM grn_t256 AS t WHERE instr(grn_normalize(t.c1), grn_normalize(?)) > 0 ORDER BY t._id ASC", sql)
	assert.Equal(t, []any{"groonga"}, params)
}

func TestCompileComparisons(t *testing.T) {
	tests := []struct {
		op   native.Operator
		want string
	}{
		{native.OpPrefix, "instr(grn_normalize(t.c2), grn_normalize(?)) = 1"},
		{native.OpEqual, "t.c2 = ?"},
		{native.OpNotEqual, "t.c2 IS NOT ?"},
		{native.OpLess, "t.c2 < ?"},
		{native.OpLessEqual, "t.c2 <= ?"},
		{native.OpGreater, "t.c2 > ?"},
		{native.OpGreaterEqual, "t.c2 >= ?"},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			sql, _ := compileWhere(t, &queryir.Compare{Column: "n", Op: tt.op, Value: ir.IRInt(3)})
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestCompileValuesAreParameterized(t *testing.T) {
	sql, params := compileWhere(t, &queryir.Compare{Column: "title", Op: native.OpEqual, Value: ir.IRString("x'); DROP TABLE t; --")})

	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"x'); DROP TABLE t; --"}, params)
}

func TestCompileMatchUsesLiteralText(t *testing.T) {
	_, params := compileWhere(t, &queryir.Compare{Column: "n", Op: native.OpMatch, Value: ir.IRInt(42)})
	assert.Equal(t, []any{"42"}, params)
}

func TestCompileVectorColumns(t *testing.T) {
	sql, _ := compileWhere(t, &queryir.Compare{Column: "tags", Op: native.OpEqual, Value: ir.IRString("go")})
	assert.Equal(t, "EXISTS (SELECT 1 FROM json_each(t.c3) AS j WHERE j.value = ?)", sql)

	sql, _ = compileWhere(t, &queryir.Compare{Column: "terms", Op: native.OpMatch, Value: ir.IRString("go")})
	assert.Equal(t, "EXISTS (SELECT 1 FROM json_each(t.c4) AS j WHERE instr(grn_normalize(json_extract(j.value, '$[0]')), grn_normalize(?)) > 0)", sql)
}

func TestCompileColumnParam(t *testing.T) {
	_, params := compileWhere(t, &queryir.Compare{Column: "done", Op: native.OpEqual, Value: ir.IRBool(true)})
	assert.Equal(t, []any{"coerced:true"}, params)

	_, params = compileWhere(t, &queryir.Compare{Column: "n", Op: native.OpEqual, Value: ir.IRBool(true)})
	assert.Equal(t, []any{int64(1)}, params)
}

func TestCompileLogical(t *testing.T) {
	a := &queryir.Compare{Column: "title", Op: native.OpMatch, Value: ir.IRString("a")}
	b := &queryir.Compare{Column: "n", Op: native.OpEqual, Value: ir.IRInt(1)}
	match := "instr(grn_normalize(t.c1), grn_normalize(?)) > 0"

	sql, params := compileWhere(t, &queryir.And{Predicates: []queryir.Predicate{a, b}})
	assert.Equal(t, "("+match+" AND t.c2 = ?)", sql)
	assert.Equal(t, []any{"a", int64(1)}, params)

	sql, _ = compileWhere(t, &queryir.Or{Predicates: []queryir.Predicate{a, b}})
	assert.Equal(t, "("+match+" OR t.c2 = ?)", sql)

	sql, params = compileWhere(t, &queryir.AndNot{Left: a, Right: b})
	assert.Equal(t, "("+match+" AND NOT COALESCE(t.c2 = ?, 0))", sql)
	assert.Equal(t, []any{"a", int64(1)}, params)

	sql, _ = compileWhere(t, &queryir.Not{Predicate: b})
	assert.Equal(t, "NOT COALESCE(t.c2 = ?, 0)", sql)
}

func TestCompileTrivial(t *testing.T) {
	for _, p := range []queryir.Predicate{nil, &queryir.All{}, &queryir.And{}, &queryir.Assign{Column: "n", Value: ir.IRInt(1)}} {
		sql, params := compileWhere(t, p)
		assert.Equal(t, "1", sql)
		assert.Empty(t, params)
	}
	sql, _ := compileWhere(t, &queryir.Or{})
	assert.Equal(t, "0", sql)
}

func TestCompileUnknownColumn(t *testing.T) {
	_, _, err := NewSQLCompiler(testColumns).CompileWhere(&queryir.Compare{Column: "missing", Op: native.OpEqual, Value: ir.IRInt(1)})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestCompileRejectsMergeOperators(t *testing.T) {
	_, _, err := NewSQLCompiler(testColumns).CompileWhere(&queryir.Compare{Column: "n", Op: native.OpOr, Value: ir.IRInt(1)})
	assert.Error(t, err)
}

func TestCompileRejectsCompositeLiterals(t *testing.T) {
	_, _, err := NewSQLCompiler(testColumns).CompileWhere(&queryir.Compare{Column: "n", Op: native.OpEqual, Value: ir.IRArray{}})
	assert.Error(t, err)
}
