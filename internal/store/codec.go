package store

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/mattn/go-sqlite3"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/querysql"
	"github.com/roach88/grnbind/internal/status"
)

const decodeFunc = "grn_decode"

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// codecError carries the status a codec failure maps to.
type codecError struct {
	code  status.Code
	codec string
	err   error
}

func (e *codecError) Error() string {
	return fmt.Sprintf("%s %s: %v", decodeFunc, e.codec, e.err)
}

func (e *codecError) Unwrap() error { return e.err }

// codecName returns the codec selected by flags, or "" for none.
func codecName(flags native.ColumnFlags) string {
	switch {
	case flags.Has(native.CompressZlib):
		return ir.CompressZlib
	case flags.Has(native.CompressLZ4):
		return ir.CompressLZ4
	case flags.Has(native.CompressZstd):
		return ir.CompressZstd
	}
	return ir.CompressNone
}

func compress(codec string, data []byte) ([]byte, error) {
	switch codec {
	case ir.CompressZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case ir.CompressZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, &codecError{status.CodeZLibError, codec, err}
		}
		if err := w.Close(); err != nil {
			return nil, &codecError{status.CodeZLibError, codec, err}
		}
		return buf.Bytes(), nil
	case ir.CompressLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, &codecError{status.CodeLZ4Error, codec, err}
		}
		if err := w.Close(); err != nil {
			return nil, &codecError{status.CodeLZ4Error, codec, err}
		}
		return buf.Bytes(), nil
	}
	return data, nil
}

func decompress(codec string, blob []byte) ([]byte, error) {
	switch codec {
	case ir.CompressZstd:
		out, err := zstdDecoder.DecodeAll(blob, nil)
		if err != nil {
			return nil, &codecError{status.CodeZstdError, codec, err}
		}
		return out, nil
	case ir.CompressZlib:
		r, err := zlib.NewReader(bytes.NewReader(blob))
		if err != nil {
			return nil, &codecError{status.CodeZLibError, codec, err}
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, &codecError{status.CodeZLibError, codec, err}
		}
		return out, nil
	case ir.CompressLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(blob)))
		if err != nil {
			return nil, &codecError{status.CodeLZ4Error, codec, err}
		}
		return out, nil
	}
	return blob, nil
}

// Normalize folds s the way text matching compares it: NFKC, then full
// case folding.
func Normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func registerFunctions(conn *sqlite3.SQLiteConn) error {
	if err := conn.RegisterFunc(querysql.NormalizeFunc, sqlNormalize, true); err != nil {
		return fmt.Errorf("register %s: %w", querysql.NormalizeFunc, err)
	}
	if err := conn.RegisterFunc(decodeFunc, sqlDecode, true); err != nil {
		return fmt.Errorf("register %s: %w", decodeFunc, err)
	}
	return nil
}

// sqlNormalize receives NULL as a nil []byte.
func sqlNormalize(v any) any {
	switch x := v.(type) {
	case string:
		return Normalize(x)
	case []byte:
		if x == nil {
			return nil
		}
		return Normalize(string(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return nil
}

func sqlDecode(v any, codec string) (any, error) {
	blob, ok := v.([]byte)
	if !ok || blob == nil {
		return nil, nil
	}
	out, err := decompress(codec, blob)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}
