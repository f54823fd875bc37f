package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/status"
)

func TestOpen_Pragmas(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "p.db"))
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RejectsNewerFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestCodecs_RoundTrip(t *testing.T) {
	data := []byte(strings.Repeat("compressible text ", 100))
	for _, codec := range []string{ir.CompressZlib, ir.CompressLZ4, ir.CompressZstd} {
		t.Run(codec, func(t *testing.T) {
			blob, err := compress(codec, data)
			require.NoError(t, err)
			assert.Less(t, len(blob), len(data))

			out, err := decompress(codec, blob)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCodecs_CorruptBlob(t *testing.T) {
	tests := []struct {
		codec string
		want  status.Code
	}{
		{ir.CompressZlib, status.CodeZLibError},
		{ir.CompressLZ4, status.CodeLZ4Error},
		{ir.CompressZstd, status.CodeZstdError},
	}
	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			_, err := decompress(tt.codec, []byte("definitely not compressed"))
			require.Error(t, err)
			assert.Equal(t, tt.want, codeOf(err))
		})
	}
}

func TestSQLDecode_ReportsCodec(t *testing.T) {
	_, err := sqlDecode([]byte("garbage"), ir.CompressZstd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), decodeFunc+" "+ir.CompressZstd)

	v, err := sqlDecode(nil, ir.CompressZstd)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want status.Code
	}{
		{"nil", nil, status.Success},
		{"engine", failf(status.CodeFileExists, "x exists"), status.CodeFileExists},
		{"wrapped engine", fmt.Errorf("op: %w", failf(status.CodeSyntaxError, "bad")), status.CodeSyntaxError},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, status.CodeResourceBusy},
		{"full", sqlite3.Error{Code: sqlite3.ErrFull}, status.CodeNoSpaceLeftOnDevice},
		{"corrupt", sqlite3.Error{Code: sqlite3.ErrCorrupt}, status.CodeFileCorrupt},
		{"readonly", sqlite3.Error{Code: sqlite3.ErrReadonly}, status.CodeReadOnlyFileSystem},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, status.CodeInvalidArgument},
		{"plain", errors.New("boom"), status.CodeUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codeOf(tt.err))
		})
	}
}

func TestCodeFromMessage(t *testing.T) {
	assert.Equal(t, status.CodeLZ4Error, codeFromMessage("grn_decode lz4: lz4: bad magic number"))
	assert.Equal(t, status.CodeUnknownError, codeFromMessage("no such table"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Groonga", "groonga"},
		{"Ｇｒｏｏｎｇａ", "groonga"}, // fullwidth
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestSQLNormalize(t *testing.T) {
	assert.Equal(t, "abc", sqlNormalize("ABC"))
	assert.Equal(t, "abc", sqlNormalize([]byte("ABC")))
	assert.Equal(t, "42", sqlNormalize(int64(42)))
	assert.Nil(t, sqlNormalize([]byte(nil)))
}
