package binding

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/roach88/grnbind/internal/metrics"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// ErrNotFound reports that a name resolves to no object.
var ErrNotFound = errors.New("object not found")

// Context is one engine session together with the proxies bound to it.
//
// A Context is single-threaded: operations on it and on its objects must
// not run concurrently.
type Context struct {
	engine   native.Engine
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Recorder
	closed   bool

	// orphans is filled by runtime cleanups, which run on their own
	// goroutine; the engine calls happen in reclaim.
	orphanMu sync.Mutex
	orphans  []orphan
}

// orphan is what a proxy collected without Finalize left in the engine.
type orphan struct {
	handle   native.Handle
	buffer   native.BufferHandle
	accessor bool
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. A nil recorder records nothing.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Context) {
		c.metrics = r
	}
}

// NewContext wraps an engine session. The Context takes ownership of
// engine and closes it in Close.
func NewContext(engine native.Engine, opts ...Option) *Context {
	c := &Context{
		engine:   engine,
		registry: NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the underlying engine session.
func (c *Context) Engine() native.Engine { return c.engine }

// Logger returns the context logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Metrics returns the metrics recorder, possibly nil.
func (c *Context) Metrics() *metrics.Recorder { return c.metrics }

// Registry returns the proxy registry.
func (c *Context) Registry() *Registry { return c.registry }

// Closed reports whether Close has run.
func (c *Context) Closed() bool { return c.closed }

// Check translates an engine status code, counting failures by kind.
func (c *Context) Check(code status.Code, subject string) error {
	err := status.Check(code, subject)
	if err == nil {
		return nil
	}
	if k, ok := status.KindOf(err); ok {
		c.metrics.EngineError(k.String())
	} else {
		c.metrics.EngineError("invalid_code")
	}
	return err
}

func (c *Context) checkOpen() error {
	if c.closed || c.engine.Closed() {
		return fmt.Errorf("%w: context", status.ErrClosed)
	}
	return nil
}

// Bind returns the proxy of h, binding it if needed. A handle that is
// already bound yields the existing proxy.
func (c *Context) Bind(h native.Handle) (*Object, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if h == native.NilHandle {
		return nil, fmt.Errorf("%w: nil handle", status.ErrBindFailure)
	}
	c.reclaim()
	if obj := c.registry.Lookup(h); obj != nil {
		return obj, nil
	}

	header, code := c.engine.Header(h)
	if err := c.Check(code, ""); err != nil {
		return nil, fmt.Errorf("%w: header of %d: %w", status.ErrBindFailure, h, err)
	}
	name, code := c.engine.Name(h)
	if err := c.Check(code, ""); err != nil {
		return nil, fmt.Errorf("%w: name of %d: %w", status.ErrBindFailure, h, err)
	}
	local := name
	if header.Type.IsColumn() || header.Type == native.TypeAccessor {
		local, code = c.engine.ColumnName(h)
		if err := c.Check(code, name); err != nil {
			return nil, fmt.Errorf("%w: local name of %d: %w", status.ErrBindFailure, h, err)
		}
	}

	kind := classify(header)
	var rangeType native.Handle
	if kind == native.BufferUVector {
		rangeType = header.Range
	}
	buf, code := c.engine.OpenBuffer(kind, rangeType)
	if err := c.Check(code, name); err != nil {
		return nil, fmt.Errorf("%w: %s buffer for %d: %w", status.ErrBindFailure, kind, h, err)
	}

	obj := &Object{
		ctx:    c,
		handle: h,
		name:   name,
		local:  local,
		header: header,
		kind:   kind,
		buffer: buf,
	}
	if err := c.registry.Register(h, obj); err != nil {
		if cerr := c.Check(c.engine.CloseBuffer(buf), name); cerr != nil {
			c.logger.Warn("releasing buffer of unbound object failed", "handle", uint32(h), "err", cerr)
		}
		return nil, err
	}
	obj.cleanup = runtime.AddCleanup(obj, c.orphaned, orphan{
		handle:   h,
		buffer:   buf,
		accessor: header.Type == native.TypeAccessor,
	})
	c.metrics.Bind()
	c.logger.Debug("bound object", "handle", uint32(h), "name", name, "type", header.Type.String(), "buffer", kind.String())
	return obj, nil
}

// Lookup resolves a full name ("Items", "Items.title", "Items._key") and
// binds the result. Unknown names fail with ErrNotFound.
func (c *Context) Lookup(name string) (*Object, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	h, code := c.engine.Lookup(name)
	if err := c.Check(code, name); err != nil {
		return nil, err
	}
	if h == native.NilHandle {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	obj, err := c.Bind(h)
	if err != nil {
		c.dropAccessor(h)
		return nil, err
	}
	return obj, nil
}

// dropAccessor unlinks h when it is an accessor that no proxy owns. Lookup
// of a pseudo column creates a fresh accessor, which nothing else frees
// when binding it fails.
func (c *Context) dropAccessor(h native.Handle) {
	if c.registry.Lookup(h) != nil {
		return
	}
	header, code := c.engine.Header(h)
	if code != status.Success || header.Type != native.TypeAccessor {
		return
	}
	if err := c.Check(c.engine.Unlink(h), ""); err != nil {
		c.logger.Warn("unlinking unbound accessor failed", "handle", uint32(h), "err", err)
	}
}

// orphaned queues the resources of a collected proxy. It runs as a
// runtime cleanup and must not touch the engine.
func (c *Context) orphaned(o orphan) {
	c.orphanMu.Lock()
	c.orphans = append(c.orphans, o)
	c.orphanMu.Unlock()
}

// reclaim releases what collected proxies left behind: the value buffer,
// and the accessor unless a new proxy has bound the same handle since.
func (c *Context) reclaim() {
	c.orphanMu.Lock()
	pending := c.orphans
	c.orphans = nil
	c.orphanMu.Unlock()

	for _, o := range pending {
		if err := c.Check(c.engine.CloseBuffer(o.buffer), ""); err != nil {
			c.logger.Warn("releasing buffer of collected object failed", "handle", uint32(o.handle), "err", err)
		}
		if o.accessor && c.registry.Lookup(o.handle) == nil {
			if err := c.Check(c.engine.Unlink(o.handle), ""); err != nil {
				c.logger.Warn("unlinking collected accessor failed", "handle", uint32(o.handle), "err", err)
			}
		}
		c.metrics.Reclaimed()
		c.logger.Debug("reclaimed collected object", "handle", uint32(o.handle))
	}
}

// Close finalizes every proxy still bound, releases what collected
// proxies left behind, then closes the engine session. Close is
// idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	if !c.engine.Closed() {
		c.reclaim()
	}
	drained := c.registry.DrainAll()
	for _, obj := range drained {
		if err := obj.Finalize(); err != nil {
			c.logger.Warn("finalize at teardown failed", "name", obj.name, "err", err)
		}
	}
	if len(drained) > 0 {
		c.metrics.TeardownFinalized(len(drained))
		c.logger.Info("finalized objects at teardown", "count", len(drained))
	}
	c.closed = true
	return c.Check(c.engine.Close(), "close")
}

// classify picks the buffer representation for an object header.
func classify(h native.Header) native.BufferKind {
	if h.Type.IsColumn() && h.Flags.Type() == native.ColumnVector {
		if h.RangeType.IsTable() {
			return native.BufferUVector
		}
		return native.BufferVector
	}
	return native.BufferBulk
}
