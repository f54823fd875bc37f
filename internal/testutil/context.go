package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
)

// OpenContext wraps sess in a binding context closed when the test ends.
func OpenContext(t testing.TB, sess native.Engine, opts ...binding.Option) *binding.Context {
	t.Helper()
	ctx := binding.NewContext(sess, opts...)
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

// ItemsSchema declares the fixture schema used across packages:
//
//	Tags   hash of ShortText
//	Items  hash of ShortText with title, price, labels (ShortText vector)
//	       and tags (Tags vector)
//	Terms  patricia lexicon with a bigram index over Items.title
func ItemsSchema() []ir.TableSpec {
	return []ir.TableSpec{
		{
			Name:             "Terms",
			Type:             "patricia",
			KeyType:          "ShortText",
			DefaultTokenizer: "TokenBigram",
			Normalizer:       "NormalizerAuto",
			Indexes: []ir.IndexSpec{
				{Name: "items_title", SourceTable: "Items", Sources: []string{"title"}, WithPosition: true},
			},
		},
		{Name: "Tags", Type: "hash", KeyType: "ShortText"},
		{
			Name:    "Items",
			Type:    "hash",
			KeyType: "ShortText",
			Columns: []ir.ColumnSpec{
				{Name: "title", Type: "ShortText", Kind: ir.KindScalar},
				{Name: "price", Type: "UInt32", Kind: ir.KindScalar},
				{Name: "labels", Type: "ShortText", Kind: ir.KindVector},
				{Name: "tags", Type: "Tags", Kind: ir.KindVector},
			},
		},
	}
}

// ItemRecords are the fixture records of Items, in insertion order.
func ItemRecords() []ir.IRObject {
	return []ir.IRObject{
		{"_key": ir.IRString("a"), "title": ir.IRString("groonga tutorial"), "price": ir.IRInt(10), "labels": ir.IRArray{ir.IRString("search")}},
		{"_key": ir.IRString("b"), "title": ir.IRString("Groonga Guide"), "price": ir.IRInt(25), "labels": ir.IRArray{ir.IRString("search"), ir.IRString("guide")}},
		{"_key": ir.IRString("c"), "title": ir.IRString("mroonga"), "price": ir.IRInt(5)},
	}
}

// ItemsContext opens a fresh session with ItemsSchema applied and
// ItemRecords inserted.
func ItemsContext(t testing.TB, opts ...binding.Option) *binding.Context {
	t.Helper()
	ctx := OpenContext(t, OpenSession(t), opts...)
	_, err := ctx.ApplySchema(ItemsSchema())
	require.NoError(t, err)
	items, err := ctx.Lookup("Items")
	require.NoError(t, err)
	for _, rec := range ItemRecords() {
		_, err := items.Insert(rec)
		require.NoError(t, err)
	}
	return ctx
}
