package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/status"
)

// engineError is a failure decided by the engine itself rather than by
// SQLite, e.g. a name collision.
type engineError struct {
	code status.Code
	msg  string
}

func (e *engineError) Error() string { return e.msg }

func failf(code status.Code, format string, args ...any) error {
	return &engineError{code: code, msg: fmt.Sprintf(format, args...)}
}

// codeOf maps a storage error onto the nearest engine status.
func codeOf(err error) status.Code {
	if err == nil {
		return status.Success
	}
	var ee *engineError
	if errors.As(err, &ee) {
		return ee.code
	}
	var ce *codecError
	if errors.As(err, &ce) {
		return ce.code
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return status.CodeResourceBusy
		case sqlite3.ErrPerm, sqlite3.ErrAuth:
			return status.CodePermissionDenied
		case sqlite3.ErrReadonly:
			return status.CodeReadOnlyFileSystem
		case sqlite3.ErrInterrupt:
			return status.CodeInterruptedFunctionCall
		case sqlite3.ErrIoErr:
			return status.CodeInputOutputError
		case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
			return status.CodeFileCorrupt
		case sqlite3.ErrFull:
			return status.CodeNoSpaceLeftOnDevice
		case sqlite3.ErrCantOpen:
			return status.CodeNoSuchFileOrDirectory
		case sqlite3.ErrTooBig:
			return status.CodeFileTooLarge
		case sqlite3.ErrNomem:
			return status.CodeNoMemoryAvailable
		case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrRange:
			return status.CodeInvalidArgument
		case sqlite3.ErrFormat:
			return status.CodeInvalidFormat
		case sqlite3.ErrError:
			// Errors raised by registered functions arrive as plain
			// SQLITE_ERROR carrying the Go error text.
			return codeFromMessage(se.Error())
		}
	}
	return status.CodeUnknownError
}

func codeFromMessage(msg string) status.Code {
	for codec, code := range map[string]status.Code{
		ir.CompressZstd: status.CodeZstdError,
		ir.CompressZlib: status.CodeZLibError,
		ir.CompressLZ4:  status.CodeLZ4Error,
	} {
		if strings.Contains(msg, decodeFunc+" "+codec) {
			return code
		}
	}
	return status.CodeUnknownError
}
