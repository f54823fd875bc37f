package native

import (
	"time"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/status"
)

// Engine is one engine context. Every method reports its outcome as a
// status.Code; status.Success means the out values are valid.
type Engine interface {
	// Lookup resolves a full object name ("Items", "Items.title",
	// "Items._key") to a handle. Dotted paths ending in a pseudo column
	// resolve to a fresh anonymous accessor.
	Lookup(name string) (Handle, status.Code)
	Header(h Handle) (Header, status.Code)
	// Name returns the full name of h. Anonymous objects have an empty name.
	Name(h Handle) (string, status.Code)
	// ColumnName returns the local (unqualified) name of a column or accessor.
	ColumnName(h Handle) (string, status.Code)
	// ColumnTable returns the table a column or accessor belongs to.
	ColumnTable(h Handle) (Handle, status.Code)
	Rename(h Handle, local string) status.Code
	Remove(h Handle) status.Code
	// Unlink releases the engine's reference to h. Temporary objects are
	// dropped; persistent ones are unaffected.
	Unlink(h Handle) status.Code

	CreateTable(spec TableSpec) (Handle, status.Code)
	CreateColumn(table Handle, spec ColumnSpec) (Handle, status.Code)
	CreateIndexColumn(lexicon Handle, spec IndexSpec) (Handle, status.Code)

	// AddRecord adds a record to table, or returns the existing record with
	// the same key. key must be nil for unkeyed tables.
	AddRecord(table Handle, key ir.IRValue) (ID, status.Code)
	SetValue(column Handle, id ID, value ir.IRValue) status.Code
	GetValue(column Handle, id ID) (ir.IRValue, status.Code)
	Records(table Handle) ([]Record, status.Code)
	// Truncate removes every value of a column, or every record of a table.
	Truncate(h Handle) status.Code

	OpenBuffer(kind BufferKind, rangeType Handle) (BufferHandle, status.Code)
	CloseBuffer(buf BufferHandle) status.Code

	// Lock obtains the engine-level lock on h for this context, polling
	// until timeout elapses. A zero timeout tries exactly once.
	Lock(h Handle, id ID, timeout time.Duration) status.Code
	Unlock(h Handle, id ID) status.Code
	ClearLock(h Handle) status.Code
	IsLocked(h Handle) (bool, status.Code)

	CompileExpr(req ExprRequest) (Handle, status.Code)
	ExprKeywords(expr Handle) ([]string, status.Code)
	// TableSelect evaluates expr over table and merges the matches into
	// result according to op.
	TableSelect(table, expr, result Handle, op Operator) status.Code

	// IndexData lists the indexes over column usable with op. A zero op
	// accepts every index.
	IndexData(column Handle, op Operator) ([]IndexDatum, status.Code)

	SessionID() string
	Close() status.Code
	Closed() bool
}
