package lock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/metrics"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// Clock measures lock waits.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager acquires and releases locks through one binding context.
type Manager struct {
	ctx            *binding.Context
	clock          Clock
	defaultTimeout time.Duration

	mu          sync.Mutex
	lastRelease error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used to measure waits.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithDefaultTimeout sets the timeout used when Acquire gets none. The
// default is zero: a single attempt.
func WithDefaultTimeout(d time.Duration) Option {
	return func(m *Manager) { m.defaultTimeout = d }
}

// NewManager creates a manager over ctx.
func NewManager(ctx *binding.Context, opts ...Option) *Manager {
	m := &Manager{ctx: ctx, clock: realClock{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type acquireConfig struct {
	timeout time.Duration
	record  native.ID
}

// AcquireOption configures one acquisition.
type AcquireOption func(*acquireConfig)

// WithTimeout bounds how long the engine polls for the lock. Zero tries
// once.
func WithTimeout(d time.Duration) AcquireOption {
	return func(c *acquireConfig) {
		c.timeout = d
	}
}

// WithRecord scopes the lock to one record. The engine locks whole
// objects today, so the id is carried to the engine but has no effect.
func WithRecord(id native.ID) AcquireOption {
	return func(c *acquireConfig) { c.record = id }
}

// Token is a granted lock.
type Token struct {
	m        *Manager
	obj      *binding.Object
	record   native.ID
	timeout  time.Duration
	released bool
}

// Object returns the locked object.
func (t *Token) Object() *binding.Object { return t.obj }

// Record returns the record id the lock was requested for; native.IDNil
// means all records.
func (t *Token) Record() native.ID { return t.record }

// Timeout returns the timeout the lock was acquired with.
func (t *Token) Timeout() time.Duration { return t.timeout }

// Released reports whether Release has run.
func (t *Token) Released() bool { return t.released }

// Release unlocks. Only the first call reaches the engine.
func (t *Token) Release() error {
	if t.released {
		return nil
	}
	t.released = true
	ctx := t.m.ctx
	if ctx.Closed() {
		return fmt.Errorf("%w: release %s", status.ErrClosed, t.obj)
	}
	if err := ctx.Check(ctx.Engine().Unlock(t.obj.Handle(), t.record), t.obj.Name()); err != nil {
		return err
	}
	ctx.Logger().Debug("released lock", "name", t.obj.Name(), "record", uint32(t.record))
	return nil
}

func usable(ctx *binding.Context, obj *binding.Object) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object", status.ErrArgument)
	}
	if ctx.Closed() {
		return fmt.Errorf("%w: context", status.ErrClosed)
	}
	if obj.Finalized() {
		return fmt.Errorf("%w: %s is finalized", status.ErrClosed, obj)
	}
	return nil
}

// Acquire locks obj, waiting up to the timeout.
func (m *Manager) Acquire(obj *binding.Object, opts ...AcquireOption) (*Token, error) {
	if err := usable(m.ctx, obj); err != nil {
		return nil, err
	}
	cfg := acquireConfig{timeout: m.defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout < 0 {
		return nil, fmt.Errorf("%w: negative lock timeout %s", status.ErrArgument, cfg.timeout)
	}

	start := m.clock.Now()
	code := m.ctx.Engine().Lock(obj.Handle(), cfg.record, cfg.timeout)
	wait := m.clock.Now().Sub(start)
	if err := m.ctx.Check(code, obj.Name()); err != nil {
		result := metrics.LockError
		if errors.Is(err, status.KindResourceDeadlockAvoided) {
			result = metrics.LockTimeout
		}
		m.ctx.Metrics().LockAcquire(result, wait)
		m.ctx.Logger().Debug("lock not granted", "name", obj.Name(), "timeout", cfg.timeout, "wait", wait, "err", err)
		return nil, err
	}
	m.ctx.Metrics().LockAcquire(metrics.LockAcquired, wait)
	m.ctx.Logger().Debug("acquired lock", "name", obj.Name(), "timeout", cfg.timeout, "wait", wait)
	return &Token{m: m, obj: obj, record: cfg.record, timeout: cfg.timeout}, nil
}

// WithLock runs fn while holding the lock on obj. The lock is released
// exactly once on every exit path, including a panic in fn. A failed
// release is recorded, not returned.
func (m *Manager) WithLock(obj *binding.Object, fn func() error, opts ...AcquireOption) error {
	tok, err := m.Acquire(obj, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tok.Release(); rerr != nil {
			m.recordReleaseFailure(tok, rerr)
		}
	}()
	return fn()
}

func (m *Manager) recordReleaseFailure(tok *Token, err error) {
	m.mu.Lock()
	m.lastRelease = err
	m.mu.Unlock()
	m.ctx.Metrics().LockReleaseFailure()
	m.ctx.Logger().Warn("lock release failed", "name", tok.obj.Name(), "err", err)
}

// LastReleaseError returns the most recent release failure swallowed by
// WithLock, or nil.
func (m *Manager) LastReleaseError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRelease
}

// IsLocked reports whether any session holds the lock on obj.
func (m *Manager) IsLocked(obj *binding.Object) (bool, error) {
	if err := usable(m.ctx, obj); err != nil {
		return false, err
	}
	locked, code := m.ctx.Engine().IsLocked(obj.Handle())
	if err := m.ctx.Check(code, obj.Name()); err != nil {
		return false, err
	}
	return locked, nil
}

// ClearLock removes the lock on obj whoever holds it.
func (m *Manager) ClearLock(obj *binding.Object) error {
	if err := usable(m.ctx, obj); err != nil {
		return err
	}
	return m.ctx.Check(m.ctx.Engine().ClearLock(obj.Handle()), obj.Name())
}

// Unlock releases a lock this session holds on obj without a token, as
// when the lock was taken by an earlier session with the same owner id.
// A lock held by another session is left alone.
func (m *Manager) Unlock(obj *binding.Object) error {
	if err := usable(m.ctx, obj); err != nil {
		return err
	}
	if err := m.ctx.Check(m.ctx.Engine().Unlock(obj.Handle(), native.IDNil), obj.Name()); err != nil {
		return err
	}
	m.ctx.Logger().Debug("released lock", "name", obj.Name())
	return nil
}
