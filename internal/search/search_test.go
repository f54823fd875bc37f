package search_test

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/metrics"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/search"
	"github.com/roach88/grnbind/internal/status"
	"github.com/roach88/grnbind/internal/testutil"
)

func lookup(t *testing.T, ctx *binding.Context, name string) *binding.Object {
	t.Helper()
	obj, err := ctx.Lookup(name)
	require.NoError(t, err)
	return obj
}

// scores maps result keys to scores.
func scores(t *testing.T, res *search.Result) map[string]int64 {
	t.Helper()
	recs, err := res.Records()
	require.NoError(t, err)
	out := make(map[string]int64, len(recs))
	for _, r := range recs {
		out[ir.Text(r.Key)] = r.Score
	}
	return out
}

func withOperator(op native.Operator, result *search.Result) *search.Options {
	opts := search.DefaultOptions()
	opts.Operator = op
	if result != nil {
		opts.Result = result.Table()
	}
	return &opts
}

func TestSelect_SingleRecord(t *testing.T) {
	ctx := testutil.OpenContext(t, testutil.OpenSession(t))
	_, err := ctx.ApplySchema(testutil.ItemsSchema())
	require.NoError(t, err)
	items := lookup(t, ctx, "Items")
	_, err = items.Insert(ir.IRObject{"_key": ir.IRString("a"), "title": ir.IRString("groonga tutorial")})
	require.NoError(t, err)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.Query("groonga"), nil)
	require.NoError(t, err)
	keys, err := res.Keys()
	require.NoError(t, err)
	assert.Equal(t, []ir.IRValue{ir.IRString("a")}, keys)
	require.NotNil(t, res.Expression())
	assert.Equal(t, "groonga", res.Expression().Source())
	assert.Same(t, items, res.Expression().Table())

	table := res.Table()
	assert.True(t, table.IsTemporary())
	assert.Equal(t, native.TypeTableHashKey, table.Header().Type)
	assert.Equal(t, items.Handle(), table.Header().Domain)

	empty, err := search.Select(title, search.Query("nonexistent"), nil)
	require.NoError(t, err)
	n, err := empty.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotNil(t, empty.Expression())
	assert.Equal(t, table.Header().Type, empty.Table().Header().Type)
	assert.Equal(t, table.Header().Domain, empty.Table().Header().Domain)
	assert.NotEqual(t, table.Handle(), empty.Table().Handle())
}

func TestSelect_OrIsIdempotent(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.Query("groonga"), nil)
	require.NoError(t, err)
	first := scores(t, res)
	assert.Equal(t, map[string]int64{"a": 1, "b": 1}, first)

	again, err := search.Select(title, search.Query("groonga"), withOperator(native.OpOr, res))
	require.NoError(t, err)
	assert.Same(t, res.Table(), again.Table())
	assert.Equal(t, first, scores(t, again))
}

func TestSelect_OrAddsOnlyNewMatches(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.Query("tutorial"), nil)
	require.NoError(t, err)
	res, err = search.Select(title, search.Query("roonga"), withOperator(native.OpOr, res))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "b": 1, "c": 1}, scores(t, res))
}

func TestSelect_And(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.All(), nil)
	require.NoError(t, err)
	res, err = search.Select(title, search.Query("groonga"), withOperator(native.OpAnd, res))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 2, "b": 2}, scores(t, res))
}

func TestSelect_AndNotLeavesOtherScores(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.All(), nil)
	require.NoError(t, err)
	res, err = search.Select(title, search.Query("groonga"), withOperator(native.OpAdjust, res))
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"a": 2, "b": 2, "c": 1}, scores(t, res))

	res, err = search.Select(title, search.Query("tutorial"), withOperator(native.OpAndNot, res))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"b": 2, "c": 1}, scores(t, res))
}

func TestSelect_AdjustNeverChangesMembership(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.Query("tutorial"), nil)
	require.NoError(t, err)
	res, err = search.Select(title, search.Query("roonga"), withOperator(native.OpAdjust, res))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 2}, scores(t, res))
}

func TestSelect_Expression(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	opts := search.DefaultOptions()
	opts.Name = "cheap"
	opts.Syntax = native.SyntaxScript
	expr, err := search.Compile(title, "price < 20", opts)
	require.NoError(t, err)
	assert.Equal(t, "cheap", expr.Name())
	assert.Equal(t, native.SyntaxScript, expr.Syntax())

	// Syntax and parser flags are ignored for compiled expressions.
	query := search.DefaultOptions()
	query.AllowColumn = false
	res, err := search.Select(title, search.Expr(expr), &query)
	require.NoError(t, err)
	assert.Same(t, expr, res.Expression())
	assert.Equal(t, map[string]int64{"a": 1, "c": 1}, scores(t, res))
}

func TestSelect_ExpressionOfAnotherTable(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")
	tags := lookup(t, ctx, "Tags")

	expr, err := search.Compile(tags, "", search.DefaultOptions())
	require.NoError(t, err)
	_, err = search.Select(title, search.Expr(expr), nil)
	require.ErrorIs(t, err, status.ErrArgument)
}

func TestSelect_ScriptSyntax(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	opts := search.DefaultOptions()
	opts.Syntax = native.SyntaxScript
	res, err := search.Select(title, search.Query(`price >= 10 && title @ "groonga"`), &opts)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "b": 1}, scores(t, res))
}

func TestSelect_ParserFlags(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	_, err := search.Select(title, search.Query("-tutorial"), nil)
	require.ErrorIs(t, err, status.KindSyntaxError, "leading not is off by default")

	opts := search.DefaultOptions()
	opts.AllowLeadingNot = true
	res, err := search.Select(title, search.Query("-tutorial"), &opts)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"b": 1, "c": 1}, scores(t, res))

	res, err = search.Select(title, search.Query("price:5"), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"c": 1}, scores(t, res))

	script := search.DefaultOptions()
	script.Syntax = native.SyntaxScript
	script.AllowUpdate = false
	_, err = search.Select(title, search.Query("price = 1"), &script)
	require.ErrorIs(t, err, status.KindUpdateNotAllowed)
}

func TestSelect_TableTarget(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	items := lookup(t, ctx, "Items")

	res, err := search.Select(items, search.Query("price:>=10"), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "b": 1}, scores(t, res))

	_, err = search.Select(items, search.Query("groonga"), nil)
	require.ErrorIs(t, err, status.KindInvalidArgument, "unqualified terms need a column")
}

func TestSelect_FailureLeavesNoResult(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")
	before := ctx.Registry().Len()

	res, err := search.Select(title, search.Query(`"groonga`), nil)
	require.ErrorIs(t, err, status.KindSyntaxError)
	assert.Nil(t, res)
	assert.Equal(t, before, ctx.Registry().Len())

	tags := lookup(t, ctx, "Tags")
	opts := search.DefaultOptions()
	opts.Result = tags
	res, err = search.Select(title, search.Query("groonga"), &opts)
	require.ErrorIs(t, err, status.KindInvalidArgument, "result must be keyed by Items")
	assert.Nil(t, res)
}

func TestSelect_InvalidOptions(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")
	index := lookup(t, ctx, "Terms.items_title")

	opts := search.DefaultOptions()
	opts.Operator = native.OpMatch
	_, err := search.Select(title, search.All(), &opts)
	require.ErrorIs(t, err, status.ErrArgument)

	zero := search.Options{}
	_, err = search.Select(title, search.All(), &zero)
	require.ErrorIs(t, err, status.ErrArgument)

	opts = search.DefaultOptions()
	opts.Result = title
	_, err = search.Select(title, search.All(), &opts)
	require.ErrorIs(t, err, status.ErrArgument)

	_, err = search.Select(index, search.All(), nil)
	require.ErrorIs(t, err, status.ErrArgument)

	_, err = search.Select(nil, search.All(), nil)
	require.ErrorIs(t, err, status.ErrArgument)
}

func TestResult_Drop(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.Query("groonga"), nil)
	require.NoError(t, err)
	h := res.Table().Handle()
	require.NoError(t, res.Drop())
	assert.True(t, res.Table().Finalized())

	_, err = ctx.Bind(h)
	require.Error(t, err, "dropped temporary tables are gone")
}

func TestExpression_KeywordsAndClose(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	expr, err := search.Compile(title, `groonga "full text" -mysql`, search.DefaultOptions())
	require.NoError(t, err)
	kws, err := expr.Keywords()
	require.NoError(t, err)
	assert.Equal(t, []string{"groonga", "full text"}, kws)

	require.NoError(t, expr.Close())
	require.NoError(t, expr.Close())
	_, err = expr.Keywords()
	require.ErrorIs(t, err, status.ErrClosed)

	_, err = search.Select(title, search.Expr(expr), nil)
	require.ErrorIs(t, err, status.ErrClosed)
}

func TestExpression_Snippet(t *testing.T) {
	ctx := testutil.ItemsContext(t)
	title := lookup(t, ctx, "Items.title")

	res, err := search.Select(title, search.Query("groonga"), nil)
	require.NoError(t, err)
	got, err := res.Expression().Snippet("Groonga is fast. groonga is embeddable.", "<b>", "</b>")
	require.NoError(t, err)
	assert.Equal(t, []string{"<b>Groonga</b> is fast. <b>groonga</b> is embeddable."}, got)

	none, err := res.Expression().Snippet("mroonga", "[", "]")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSelect_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)
	ctx := testutil.ItemsContext(t, binding.WithMetrics(rec))
	title := lookup(t, ctx, "Items.title")

	_, err = search.Select(title, search.Query("groonga"), nil)
	require.NoError(t, err)
	_, err = search.Select(title, search.Query(`"groonga`), nil)
	require.Error(t, err)

	expected := `
# HELP grnbind_select_total Select calls by merge operator and outcome.
# TYPE grnbind_select_total counter
grnbind_select_total{operator="or",outcome="error"} 1
grnbind_select_total{operator="or",outcome="ok"} 1
`
	require.NoError(t, promtest.GatherAndCompare(reg, bytes.NewBufferString(expected), "grnbind_select_total"))
}
