package store_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
	"github.com/roach88/grnbind/internal/store"
	"github.com/roach88/grnbind/internal/testutil"
)

// requireCode fails the test unless code is want, reporting the session's
// last error on mismatch.
func requireCode(t *testing.T, sess *store.Session, want, code status.Code, msgAndArgs ...any) {
	t.Helper()
	if code != want {
		require.Failf(t, "unexpected status",
			"want %q, got %q (last error: %v) %v", want.Text(), code.Text(), sess.LastError(), msgAndArgs)
	}
}

func createTable(t *testing.T, sess *store.Session, spec native.TableSpec) native.Handle {
	t.Helper()
	h, code := sess.CreateTable(spec)
	requireCode(t, sess, status.Success, code)
	return h
}

func createColumn(t *testing.T, sess *store.Session, table native.Handle, name string, flags native.ColumnFlags, valueType string) native.Handle {
	t.Helper()
	h, code := sess.CreateColumn(table, native.ColumnSpec{Name: name, Flags: flags, ValueType: valueType})
	requireCode(t, sess, status.Success, code)
	return h
}

func addRecord(t *testing.T, sess *store.Session, table native.Handle, key ir.IRValue) native.ID {
	t.Helper()
	id, code := sess.AddRecord(table, key)
	requireCode(t, sess, status.Success, code)
	return id
}

func setValue(t *testing.T, sess *store.Session, column native.Handle, id native.ID, v ir.IRValue) {
	t.Helper()
	requireCode(t, sess, status.Success, sess.SetValue(column, id, v))
}

func getValue(t *testing.T, sess *store.Session, column native.Handle, id native.ID) ir.IRValue {
	t.Helper()
	v, code := sess.GetValue(column, id)
	requireCode(t, sess, status.Success, code)
	return v
}

func itemsTable(t *testing.T, sess *store.Session) (items, title native.Handle) {
	t.Helper()
	items = createTable(t, sess, native.TableSpec{Name: "Items", Type: native.TypeTableHashKey, KeyType: "ShortText"})
	title = createColumn(t, sess, items, "title", native.ColumnScalar, "ShortText")
	return items, title
}

func TestOpen_ReopensExistingCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grn.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	sess := s.NewSession()
	items, _ := itemsTable(t, sess)
	require.Equal(t, status.Success, sess.Close())
	require.NoError(t, s.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()
	sess = s.NewSession()
	defer sess.Close()

	h, code := sess.Lookup("Items")
	requireCode(t, sess, status.Success, code)
	assert.Equal(t, items, h)
	assert.Equal(t, path, s.Path())
}

func TestStore_Meta(t *testing.T) {
	s := testutil.OpenStore(t)

	v, err := s.Meta("schema_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMeta("schema_hash", "abc"))
	require.NoError(t, s.SetMeta("schema_hash", "def"))
	v, err = s.Meta("schema_hash")
	require.NoError(t, err)
	assert.Equal(t, "def", v)
}

func TestLookup(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, title := itemsTable(t, sess)

	tests := []struct {
		name string
		want native.Handle
	}{
		{"Items", items},
		{"Items.title", title},
		{"Missing", native.NilHandle},
		{"Items.missing", native.NilHandle},
		{"Items._nonsense", native.NilHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, code := sess.Lookup(tt.name)
			requireCode(t, sess, status.Success, code)
			assert.Equal(t, tt.want, h)
		})
	}

	shortText, code := sess.Lookup("ShortText")
	requireCode(t, sess, status.Success, code)
	hdr, code := sess.Header(shortText)
	requireCode(t, sess, status.Success, code)
	assert.Equal(t, native.TypeBuiltin, hdr.Type)
	name, _ := sess.Name(shortText)
	assert.Equal(t, "ShortText", name)
}

func TestLookup_PseudoColumnAccessor(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, _ := itemsTable(t, sess)

	key, code := sess.Lookup("Items._key")
	requireCode(t, sess, status.Success, code)
	require.NotEqual(t, native.NilHandle, key)

	hdr, code := sess.Header(key)
	requireCode(t, sess, status.Success, code)
	assert.Equal(t, native.TypeAccessor, hdr.Type)
	assert.Equal(t, items, hdr.Domain)
	assert.Equal(t, native.TypeBuiltin, hdr.RangeType)

	name, _ := sess.Name(key)
	assert.Empty(t, name)
	local, _ := sess.ColumnName(key)
	assert.Equal(t, "_key", local)
	table, _ := sess.ColumnTable(key)
	assert.Equal(t, items, table)

	// Each lookup yields a fresh accessor.
	again, _ := sess.Lookup("Items._key")
	assert.NotEqual(t, key, again)

	id := addRecord(t, sess, items, ir.IRString("a"))
	assert.Equal(t, ir.IRString("a"), getValue(t, sess, key, id))

	idAccessor, _ := sess.Lookup("Items._id")
	assert.Equal(t, ir.IRInt(id), getValue(t, sess, idAccessor, id))

	requireCode(t, sess, status.CodeInvalidArgument, sess.SetValue(key, id, ir.IRString("b")))
	requireCode(t, sess, status.Success, sess.Unlink(key))
	_, code = sess.Header(key)
	requireCode(t, sess, status.CodeInvalidArgument, code)
}

func TestLookup_KeyOfArrayTableIsInvalid(t *testing.T) {
	sess := testutil.OpenSession(t)
	createTable(t, sess, native.TableSpec{Name: "Logs", Type: native.TypeTableNoKey})

	_, code := sess.Lookup("Logs._key")
	requireCode(t, sess, status.CodeInvalidArgument, code)
}

func TestHeader_Columns(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, title := itemsTable(t, sess)
	price := createColumn(t, sess, items, "price", native.ColumnScalar, "UInt32")
	tags := createColumn(t, sess, items, "tags", native.ColumnVector|native.WithWeight, "ShortText")
	body := createColumn(t, sess, items, "body", native.ColumnScalar|native.CompressZstd, "Text")

	tests := []struct {
		name  string
		h     native.Handle
		typ   native.ObjectType
		flags native.ColumnFlags
	}{
		{"text", title, native.TypeColumnVarSize, native.ColumnScalar},
		{"integer", price, native.TypeColumnFixSize, native.ColumnScalar},
		{"weighted vector", tags, native.TypeColumnVarSize, native.ColumnVector | native.WithWeight},
		{"compressed", body, native.TypeColumnVarSize, native.CompressZstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr, code := sess.Header(tt.h)
			requireCode(t, sess, status.Success, code)
			assert.Equal(t, tt.typ, hdr.Type)
			assert.Equal(t, tt.flags, hdr.Flags)
			assert.Equal(t, items, hdr.Domain)
			assert.Equal(t, native.TypeBuiltin, hdr.RangeType)
			assert.False(t, hdr.Temporary)
		})
	}

	hdr, code := sess.Header(items)
	requireCode(t, sess, status.Success, code)
	assert.Equal(t, native.TypeTableHashKey, hdr.Type)

	name, _ := sess.Name(title)
	assert.Equal(t, "Items.title", name)
	local, _ := sess.ColumnName(title)
	assert.Equal(t, "title", local)
	owner, _ := sess.ColumnTable(title)
	assert.Equal(t, items, owner)

	_, code = sess.ColumnName(items)
	requireCode(t, sess, status.CodeInvalidArgument, code)
}

func TestCreateTable_Validation(t *testing.T) {
	sess := testutil.OpenSession(t)
	itemsTable(t, sess)

	tests := []struct {
		name string
		spec native.TableSpec
		want status.Code
	}{
		{"duplicate", native.TableSpec{Name: "Items", Type: native.TypeTableHashKey, KeyType: "ShortText"}, status.CodeFileExists},
		{"not a table type", native.TableSpec{Name: "X", Type: native.TypeColumnIndex}, status.CodeInvalidArgument},
		{"keyed without key type", native.TableSpec{Name: "X", Type: native.TypeTablePatKey}, status.CodeInvalidArgument},
		{"array with key type", native.TableSpec{Name: "X", Type: native.TypeTableNoKey, KeyType: "ShortText"}, status.CodeInvalidArgument},
		{"float key", native.TableSpec{Name: "X", Type: native.TypeTableHashKey, KeyType: "Float"}, status.CodeInvalidArgument},
		{"bool key", native.TableSpec{Name: "X", Type: native.TypeTableHashKey, KeyType: "Bool"}, status.CodeInvalidArgument},
		{"unknown tokenizer", native.TableSpec{Name: "X", Type: native.TypeTablePatKey, KeyType: "ShortText", Tokenizer: "TokenNope"}, status.CodeInvalidArgument},
		{"unknown normalizer", native.TableSpec{Name: "X", Type: native.TypeTablePatKey, KeyType: "ShortText", Normalizer: "NormalizerNope"}, status.CodeInvalidArgument},
		{"bad name", native.TableSpec{Name: "_hidden", Type: native.TypeTableNoKey}, status.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, code := sess.CreateTable(tt.spec)
			requireCode(t, sess, tt.want, code)
			assert.Equal(t, native.NilHandle, h)
		})
	}
}

func TestCreateColumn_Validation(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, _ := itemsTable(t, sess)

	tests := []struct {
		name string
		spec native.ColumnSpec
		want status.Code
	}{
		{"duplicate", native.ColumnSpec{Name: "title", ValueType: "Text"}, status.CodeFileExists},
		{"unknown type", native.ColumnSpec{Name: "x", ValueType: "Nope"}, status.CodeInvalidArgument},
		{"float type", native.ColumnSpec{Name: "x", ValueType: "Float"}, status.CodeInvalidArgument},
		{"index flag", native.ColumnSpec{Name: "x", Flags: native.ColumnIndex, ValueType: "Items"}, status.CodeInvalidArgument},
		{"weighted scalar", native.ColumnSpec{Name: "x", Flags: native.WithWeight, ValueType: "Text"}, status.CodeInvalidArgument},
		{"float32 without weight", native.ColumnSpec{Name: "x", Flags: native.ColumnVector | native.WeightFloat32, ValueType: "Text"}, status.CodeInvalidArgument},
		{"two codecs", native.ColumnSpec{Name: "x", Flags: native.CompressZlib | native.CompressLZ4, ValueType: "Text"}, status.CodeInvalidArgument},
		{"compressed vector", native.ColumnSpec{Name: "x", Flags: native.ColumnVector | native.CompressZstd, ValueType: "Text"}, status.CodeInvalidArgument},
		{"compressed integer", native.ColumnSpec{Name: "x", Flags: native.CompressZstd, ValueType: "Int32"}, status.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := sess.CreateColumn(items, tt.spec)
			requireCode(t, sess, tt.want, code)
		})
	}
}

func TestAddRecord(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, _ := itemsTable(t, sess)

	a := addRecord(t, sess, items, ir.IRString("a"))
	b := addRecord(t, sess, items, ir.IRString("b"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, addRecord(t, sess, items, ir.IRString("a")), "existing key returns existing record")

	_, code := sess.AddRecord(items, nil)
	requireCode(t, sess, status.CodeInvalidArgument, code)
	_, code = sess.AddRecord(items, ir.IRInt(1))
	requireCode(t, sess, status.CodeInvalidArgument, code)

	logs := createTable(t, sess, native.TableSpec{Name: "Logs", Type: native.TypeTableNoKey})
	first := addRecord(t, sess, logs, nil)
	second := addRecord(t, sess, logs, nil)
	assert.Equal(t, first+1, second)
	_, code = sess.AddRecord(logs, ir.IRString("k"))
	requireCode(t, sess, status.CodeInvalidArgument, code)

	recs, code := sess.Records(items)
	requireCode(t, sess, status.Success, code)
	require.Len(t, recs, 2)
	assert.Equal(t, ir.IRString("a"), recs[0].Key)
	assert.Equal(t, ir.IRString("b"), recs[1].Key)

	recs, _ = sess.Records(logs)
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].Key)
}

func TestValues_Scalars(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, title := itemsTable(t, sess)
	price := createColumn(t, sess, items, "price", native.ColumnScalar, "UInt8")
	stock := createColumn(t, sess, items, "in_stock", native.ColumnScalar, "Bool")
	id := addRecord(t, sess, items, ir.IRString("a"))

	assert.Equal(t, ir.IRNull{}, getValue(t, sess, title, id), "unset values read as null")

	setValue(t, sess, title, id, ir.IRString("hello"))
	setValue(t, sess, price, id, ir.IRInt(255))
	setValue(t, sess, stock, id, ir.IRBool(true))
	assert.Equal(t, ir.IRString("hello"), getValue(t, sess, title, id))
	assert.Equal(t, ir.IRInt(255), getValue(t, sess, price, id))
	assert.Equal(t, ir.IRBool(true), getValue(t, sess, stock, id))

	requireCode(t, sess, status.CodeInvalidArgument, sess.SetValue(price, id, ir.IRInt(256)))
	requireCode(t, sess, status.CodeInvalidArgument, sess.SetValue(price, id, ir.IRInt(-1)))
	requireCode(t, sess, status.CodeInvalidArgument, sess.SetValue(price, id, ir.IRString("1")))
	requireCode(t, sess, status.CodeInvalidArgument, sess.SetValue(title, id, ir.IRString(strings.Repeat("x", 4096))))
	requireCode(t, sess, status.CodeInvalidArgument, sess.SetValue(title, 999, ir.IRString("x")))
	assert.Equal(t, ir.IRInt(255), getValue(t, sess, price, id), "failed writes leave the value alone")

	setValue(t, sess, title, id, ir.IRNull{})
	assert.Equal(t, ir.IRNull{}, getValue(t, sess, title, id))
}

func TestValues_Vectors(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, _ := itemsTable(t, sess)
	tags := createColumn(t, sess, items, "tags", native.ColumnVector, "ShortText")
	weighted := createColumn(t, sess, items, "terms", native.ColumnVector|native.WithWeight, "ShortText")
	id := addRecord(t, sess, items, ir.IRString("a"))

	setValue(t, sess, tags, id, ir.IRArray{ir.IRString("x"), ir.IRString("y")})
	assert.Equal(t, ir.IRArray{ir.IRString("x"), ir.IRString("y")}, getValue(t, sess, tags, id))

	setValue(t, sess, weighted, id, ir.IRArray{
		ir.IRArray{ir.IRString("x"), ir.IRInt(3)},
		ir.IRString("y"),
	})
	assert.Equal(t, ir.IRArray{
		ir.IRArray{ir.IRString("x"), ir.IRInt(3)},
		ir.IRArray{ir.IRString("y"), ir.IRInt(0)},
	}, getValue(t, sess, weighted, id))

	requireCode(t, sess, status.CodeInvalidArgument, sess.SetValue(tags, id, ir.IRString("x")))
	requireCode(t, sess, status.CodeInvalidArgument,
		sess.SetValue(tags, id, ir.IRArray{ir.IRArray{ir.IRString("x"), ir.IRInt(1)}}))
}

func TestValues_References(t *testing.T) {
	sess := testutil.OpenSession(t)
	categories := createTable(t, sess, native.TableSpec{Name: "Categories", Type: native.TypeTableHashKey, KeyType: "ShortText"})
	items, _ := itemsTable(t, sess)
	category := createColumn(t, sess, items, "category", native.ColumnScalar, "Categories")
	related := createColumn(t, sess, items, "related", native.ColumnVector, "Items")
	id := addRecord(t, sess, items, ir.IRString("a"))

	hdr, _ := sess.Header(category)
	assert.Equal(t, categories, hdr.Range)
	assert.Equal(t, native.TypeTableHashKey, hdr.RangeType)
	assert.Equal(t, native.TypeColumnFixSize, hdr.Type)

	setValue(t, sess, category, id, ir.IRString("books"))
	assert.Equal(t, ir.IRString("books"), getValue(t, sess, category, id))

	recs, _ := sess.Records(categories)
	require.Len(t, recs, 1, "referenced keys are added")
	assert.Equal(t, ir.IRString("books"), recs[0].Key)

	setValue(t, sess, related, id, ir.IRArray{ir.IRString("b"), ir.IRString("a")})
	assert.Equal(t, ir.IRArray{ir.IRString("b"), ir.IRString("a")}, getValue(t, sess, related, id))
	recs, _ = sess.Records(items)
	assert.Len(t, recs, 2)
}

func TestValues_Compressed(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, _ := itemsTable(t, sess)
	id := addRecord(t, sess, items, ir.IRString("a"))
	text := ir.IRString(strings.Repeat("groonga is a full text search engine. ", 200))

	for _, codec := range []struct {
		name string
		flag native.ColumnFlags
	}{
		{"zlib", native.CompressZlib},
		{"lz4", native.CompressLZ4},
		{"zstd", native.CompressZstd},
	} {
		t.Run(codec.name, func(t *testing.T) {
			col := createColumn(t, sess, items, "body_"+codec.name, codec.flag, "LongText")
			assert.Equal(t, ir.IRNull{}, getValue(t, sess, col, id))
			setValue(t, sess, col, id, text)
			assert.Equal(t, text, getValue(t, sess, col, id))
		})
	}
}

func TestTruncate(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, title := itemsTable(t, sess)
	id := addRecord(t, sess, items, ir.IRString("a"))
	setValue(t, sess, title, id, ir.IRString("x"))

	requireCode(t, sess, status.Success, sess.Truncate(title))
	assert.Equal(t, ir.IRNull{}, getValue(t, sess, title, id))

	requireCode(t, sess, status.Success, sess.Truncate(items))
	recs, _ := sess.Records(items)
	assert.Empty(t, recs)
}

func TestRename(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, title := itemsTable(t, sess)
	price := createColumn(t, sess, items, "price", native.ColumnScalar, "UInt32")

	requireCode(t, sess, status.Success, sess.Rename(title, "headline"))
	name, _ := sess.Name(title)
	assert.Equal(t, "Items.headline", name)
	local, _ := sess.ColumnName(title)
	assert.Equal(t, "headline", local)

	requireCode(t, sess, status.CodeFileExists, sess.Rename(price, "headline"))
	name, _ = sess.Name(price)
	assert.Equal(t, "Items.price", name, "a failed rename changes nothing")

	requireCode(t, sess, status.Success, sess.Rename(price, "price"), "renaming to the current name")
	requireCode(t, sess, status.CodeInvalidArgument, sess.Rename(price, "bad name"))

	requireCode(t, sess, status.Success, sess.Rename(items, "Products"))
	name, _ = sess.Name(title)
	assert.Equal(t, "Products.headline", name, "columns follow their table")
	h, _ := sess.Lookup("Items")
	assert.Equal(t, native.NilHandle, h)
	h, _ = sess.Lookup("Products.headline")
	assert.Equal(t, title, h)

	createTable(t, sess, native.TableSpec{Name: "Other", Type: native.TypeTableNoKey})
	requireCode(t, sess, status.CodeFileExists, sess.Rename(items, "Other"))
}

func TestRemove(t *testing.T) {
	sess := testutil.OpenSession(t)
	categories := createTable(t, sess, native.TableSpec{Name: "Categories", Type: native.TypeTableHashKey, KeyType: "ShortText"})
	items, title := itemsTable(t, sess)
	createColumn(t, sess, items, "category", native.ColumnScalar, "Categories")

	requireCode(t, sess, status.CodeOperationNotPermitted, sess.Remove(categories))

	requireCode(t, sess, status.Success, sess.Remove(title))
	_, code := sess.Header(title)
	requireCode(t, sess, status.CodeInvalidArgument, code)
	requireCode(t, sess, status.CodeInvalidArgument, sess.Rename(title, "again"))
	h, _ := sess.Lookup("Items.title")
	assert.Equal(t, native.NilHandle, h)

	requireCode(t, sess, status.Success, sess.Remove(items))
	requireCode(t, sess, status.Success, sess.Remove(categories))
	h, _ = sess.Lookup("Items")
	assert.Equal(t, native.NilHandle, h)
}

func TestRemove_IndexedColumnIsProtected(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, _ := itemsTable(t, sess)
	terms := createTable(t, sess, native.TableSpec{Name: "Terms", Type: native.TypeTablePatKey, KeyType: "ShortText", Tokenizer: "TokenBigram"})
	index, code := sess.CreateIndexColumn(terms, native.IndexSpec{Name: "title_index", SourceTable: "Items", Sources: []string{"title"}})
	requireCode(t, sess, status.Success, code)

	title, _ := sess.Lookup("Items.title")
	requireCode(t, sess, status.CodeOperationNotPermitted, sess.Remove(title))
	requireCode(t, sess, status.CodeOperationNotPermitted, sess.Remove(items))

	requireCode(t, sess, status.Success, sess.Remove(index))
	requireCode(t, sess, status.Success, sess.Remove(title))
}

func TestTemporaryTables(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := s.NewSession()
	other := s.NewSession()
	defer other.Close()
	items, _ := itemsTable(t, owner)

	tmp := createTable(t, owner, native.TableSpec{Type: native.TypeTableHashKey, KeyTable: items, WithSubrec: true})
	hdr, code := owner.Header(tmp)
	requireCode(t, owner, status.Success, code)
	assert.True(t, hdr.Temporary)
	assert.Equal(t, items, hdr.Domain)
	name, _ := owner.Name(tmp)
	assert.Empty(t, name)
	requireCode(t, owner, status.CodeInvalidArgument, owner.Rename(tmp, "Named"))

	// Unlinking a persistent table leaves it in place.
	requireCode(t, owner, status.Success, owner.Unlink(items))
	_, code = owner.Header(items)
	requireCode(t, owner, status.Success, code)

	requireCode(t, owner, status.Success, owner.Close())
	assert.True(t, owner.Closed())
	_, code = other.Header(tmp)
	requireCode(t, other, status.CodeInvalidArgument, code)
	_, code = other.Header(items)
	requireCode(t, other, status.Success, code)

	_, code = owner.Lookup("Items")
	assert.Equal(t, status.CodeInvalidArgument, code, "closed sessions reject calls")
	assert.Equal(t, status.Success, owner.Close(), "close is idempotent")
}

func TestUnlink_TemporaryTable(t *testing.T) {
	sess := testutil.OpenSession(t)
	tmp := createTable(t, sess, native.TableSpec{Type: native.TypeTableNoKey})
	requireCode(t, sess, status.Success, sess.Unlink(tmp))
	_, code := sess.Header(tmp)
	requireCode(t, sess, status.CodeInvalidArgument, code)
}

func TestBuffers(t *testing.T) {
	sess := testutil.OpenSession(t)
	items, _ := itemsTable(t, sess)
	shortText, _ := sess.Lookup("ShortText")

	bulk, code := sess.OpenBuffer(native.BufferBulk, shortText)
	requireCode(t, sess, status.Success, code)
	uvec, code := sess.OpenBuffer(native.BufferUVector, items)
	requireCode(t, sess, status.Success, code)
	assert.NotEqual(t, bulk, uvec)

	_, code = sess.OpenBuffer(native.BufferUVector, shortText)
	requireCode(t, sess, status.CodeInvalidArgument, code)
	_, code = sess.OpenBuffer(native.BufferKind(99), shortText)
	requireCode(t, sess, status.CodeInvalidArgument, code)

	requireCode(t, sess, status.Success, sess.CloseBuffer(bulk))
	requireCode(t, sess, status.CodeInvalidArgument, sess.CloseBuffer(bulk))
}
