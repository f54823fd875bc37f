package binding

import (
	"fmt"
	"runtime"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// Object is the managed proxy of one engine handle: a table, a column or
// an accessor.
type Object struct {
	ctx    *Context
	handle native.Handle
	name   string // full name, empty for anonymous objects
	local  string // column name without the table prefix
	header native.Header
	kind   native.BufferKind
	buffer native.BufferHandle

	cleanup runtime.Cleanup
}

// Index is one index usable for a column: the index column and the
// section of the column within it (0 for single-source indexes).
type Index struct {
	Column  *Object
	Section uint32
}

// Handle returns the native handle.
func (o *Object) Handle() native.Handle { return o.handle }

// Context returns the context o is bound to.
func (o *Object) Context() *Context { return o.ctx }

// Name returns the full name. Anonymous accessors have an empty name.
func (o *Object) Name() string { return o.name }

// LocalName returns the name without the table prefix. For tables it is
// the full name.
func (o *Object) LocalName() string { return o.local }

// Header returns the header read at bind time.
func (o *Object) Header() native.Header { return o.header }

// BufferKind returns the value buffer representation.
func (o *Object) BufferKind() native.BufferKind { return o.kind }

// Buffer returns the value buffer, or zero once finalized.
func (o *Object) Buffer() native.BufferHandle { return o.buffer }

// Finalized reports whether Finalize has run.
func (o *Object) Finalized() bool { return o.buffer == 0 }

func (o *Object) String() string {
	if o.name == "" {
		return fmt.Sprintf("#<%s %s>", o.header.Type, o.local)
	}
	return fmt.Sprintf("#<%s %s>", o.header.Type, o.name)
}

// subject is the name used to prefix engine errors.
func (o *Object) subject() string {
	if o.name != "" {
		return o.name
	}
	return o.local
}

// Finalize unregisters o and releases its buffer. It is idempotent. When
// the context is already closed only the host-side state is cleared.
func (o *Object) Finalize() error {
	o.ctx.registry.Unregister(o.handle, o)
	if o.buffer == 0 {
		return nil
	}
	buf := o.buffer
	o.buffer = 0
	o.cleanup.Stop()
	o.ctx.metrics.Finalize()
	o.ctx.logger.Debug("finalized object", "handle", uint32(o.handle), "name", o.name)
	if o.ctx.closed || o.ctx.engine.Closed() {
		return nil
	}
	if err := o.ctx.Check(o.ctx.engine.CloseBuffer(buf), o.subject()); err != nil {
		return err
	}
	if o.header.Type == native.TypeAccessor {
		return o.ctx.Check(o.ctx.engine.Unlink(o.handle), o.subject())
	}
	return nil
}

func (o *Object) usable() error {
	if o.buffer == 0 {
		return fmt.Errorf("%w: %s is finalized", status.ErrClosed, o)
	}
	return o.ctx.checkOpen()
}

// Rename gives o a new local name. On failure the cached name is kept.
// Renaming a table refreshes the names of its bound columns.
func (o *Object) Rename(local string) error {
	if err := o.usable(); err != nil {
		return err
	}
	if err := o.ctx.Check(o.ctx.engine.Rename(o.handle, local), o.subject()); err != nil {
		return err
	}
	if o.header.Type.IsTable() {
		o.name, o.local = local, local
		o.ctx.registry.each(func(child *Object) {
			if child == o || child.header.Domain != o.handle || !child.header.Type.IsColumn() {
				return
			}
			if name, code := o.ctx.engine.Name(child.handle); code == status.Success {
				child.name = name
			}
		})
		return nil
	}
	o.local = local
	if o.name != "" {
		if table, code := o.ctx.engine.ColumnTable(o.handle); code == status.Success {
			if tname, code := o.ctx.engine.Name(table); code == status.Success {
				o.name = tname + "." + local
			}
		}
	}
	return nil
}

// Remove deletes the object from the database and finalizes o.
func (o *Object) Remove() error {
	if err := o.usable(); err != nil {
		return err
	}
	if err := o.ctx.Check(o.ctx.engine.Remove(o.handle), o.subject()); err != nil {
		return err
	}
	o.forget()
	return nil
}

// forget finalizes o after the engine dropped or released its handle.
func (o *Object) forget() {
	o.ctx.registry.Unregister(o.handle, o)
	buf := o.buffer
	o.buffer = 0
	o.cleanup.Stop()
	o.ctx.metrics.Finalize()
	if err := o.ctx.Check(o.ctx.engine.CloseBuffer(buf), o.subject()); err != nil {
		o.ctx.logger.Warn("releasing buffer failed", "name", o.subject(), "err", err)
	}
}

// Unlink releases the engine's reference to o and finalizes it.
// Temporary tables are dropped; persistent objects are unaffected.
func (o *Object) Unlink() error {
	if err := o.usable(); err != nil {
		return err
	}
	if err := o.ctx.Check(o.ctx.engine.Unlink(o.handle), o.subject()); err != nil {
		return err
	}
	o.forget()
	return nil
}

// Truncate removes every value of a column, or every record of a table.
func (o *Object) Truncate() error {
	if err := o.usable(); err != nil {
		return err
	}
	return o.ctx.Check(o.ctx.engine.Truncate(o.handle), o.subject())
}

// Table returns the table a column or accessor belongs to.
func (o *Object) Table() (*Object, error) {
	if err := o.usable(); err != nil {
		return nil, err
	}
	if !o.header.Type.IsColumn() && o.header.Type != native.TypeAccessor {
		return nil, fmt.Errorf("%w: %s is not a column", status.ErrArgument, o)
	}
	h, code := o.ctx.engine.ColumnTable(o.handle)
	if err := o.ctx.Check(code, o.subject()); err != nil {
		return nil, err
	}
	return o.ctx.Bind(h)
}

// Column binds the column name of table o.
func (o *Object) Column(name string) (*Object, error) {
	if err := o.usable(); err != nil {
		return nil, err
	}
	if !o.header.Type.IsTable() {
		return nil, fmt.Errorf("%w: %s is not a table", status.ErrArgument, o)
	}
	return o.ctx.Lookup(o.name + "." + name)
}

// Classification predicates, computed from the bind-time header.

func (o *Object) IsTable() bool    { return o.header.Type.IsTable() }
func (o *Object) IsColumn() bool   { return o.header.Type.IsColumn() }
func (o *Object) IsAccessor() bool { return o.header.Type == native.TypeAccessor }
func (o *Object) IsIndex() bool    { return o.header.Type == native.TypeColumnIndex }
func (o *Object) IsTemporary() bool {
	return o.header.Temporary
}

// IsDataColumn reports whether o stores values, as opposed to an index.
func (o *Object) IsDataColumn() bool {
	return o.header.Type == native.TypeColumnFixSize || o.header.Type == native.TypeColumnVarSize
}

func (o *Object) IsVector() bool {
	return o.IsDataColumn() && o.header.Flags.Type() == native.ColumnVector
}

func (o *Object) IsScalar() bool {
	return o.IsDataColumn() && o.header.Flags.Type() == native.ColumnScalar
}

// HasWeight reports whether the column carries weights: weighted vectors,
// or weighted postings for indexes.
func (o *Object) HasWeight() bool {
	return o.IsColumn() && o.header.Flags.Has(native.WithWeight)
}

func (o *Object) IsWeightVector() bool { return o.IsVector() && o.HasWeight() }

func (o *Object) UsesFloat32Weight() bool {
	return o.HasWeight() && o.header.Flags.Has(native.WeightFloat32)
}

// IsReference reports whether values of o are records of another table.
func (o *Object) IsReference() bool {
	return (o.IsDataColumn() || o.IsAccessor()) && o.header.RangeType.IsTable()
}

// FindIndexes lists the indexes usable to evaluate op over o. A zero op
// lists every index.
func (o *Object) FindIndexes(op native.Operator) ([]Index, error) {
	if err := o.usable(); err != nil {
		return nil, err
	}
	data, code := o.ctx.engine.IndexData(o.handle, op)
	if err := o.ctx.Check(code, o.subject()); err != nil {
		return nil, err
	}
	out := make([]Index, 0, len(data))
	for _, d := range data {
		col, err := o.ctx.Bind(d.Index)
		if err != nil {
			return nil, err
		}
		out = append(out, Index{Column: col, Section: d.Section})
	}
	return out, nil
}

// Records returns the records of table o in id order.
func (o *Object) Records() ([]native.Record, error) {
	if err := o.usable(); err != nil {
		return nil, err
	}
	recs, code := o.ctx.engine.Records(o.handle)
	if err := o.ctx.Check(code, o.subject()); err != nil {
		return nil, err
	}
	return recs, nil
}

// AddRecord adds a record to table o, or returns the id of the existing
// record with the same key. key is nil for unkeyed tables.
func (o *Object) AddRecord(key ir.IRValue) (native.ID, error) {
	if err := o.usable(); err != nil {
		return 0, err
	}
	id, code := o.ctx.engine.AddRecord(o.handle, key)
	if err := o.ctx.Check(code, o.subject()); err != nil {
		return 0, err
	}
	return id, nil
}

// Insert adds a record from values. The "_key" entry, if any, is the
// record key; every other entry names a column of o.
func (o *Object) Insert(values ir.IRObject) (native.ID, error) {
	var key ir.IRValue
	if k, ok := values["_key"]; ok {
		key = k
	}
	id, err := o.AddRecord(key)
	if err != nil {
		return 0, err
	}
	for _, name := range values.SortedKeys() {
		if name == "_key" {
			continue
		}
		h, code := o.ctx.engine.Lookup(o.name + "." + name)
		if err := o.ctx.Check(code, o.name+"."+name); err != nil {
			return id, err
		}
		if h == native.NilHandle {
			return id, fmt.Errorf("%w: %s.%s", ErrNotFound, o.name, name)
		}
		if err := o.ctx.Check(o.ctx.engine.SetValue(h, id, values[name]), o.name+"."+name); err != nil {
			return id, err
		}
	}
	return id, nil
}

// SetValue stores value for record id of column o.
func (o *Object) SetValue(id native.ID, value ir.IRValue) error {
	if err := o.usable(); err != nil {
		return err
	}
	return o.ctx.Check(o.ctx.engine.SetValue(o.handle, id, value), o.subject())
}

// Value reads the value of record id through column or accessor o.
func (o *Object) Value(id native.ID) (ir.IRValue, error) {
	if err := o.usable(); err != nil {
		return nil, err
	}
	v, code := o.ctx.engine.GetValue(o.handle, id)
	if err := o.ctx.Check(code, o.subject()); err != nil {
		return nil, err
	}
	return v, nil
}
