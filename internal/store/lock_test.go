package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
	"github.com/roach88/grnbind/internal/store"
	"github.com/roach88/grnbind/internal/testutil"
)

func lockFixture(t *testing.T) (clock *testutil.ManualClock, a, b *store.Session, items native.Handle) {
	t.Helper()
	clock = testutil.NewManualClock()
	s := testutil.OpenStore(t, store.WithClock(clock), store.WithPollInterval(time.Millisecond))
	a = s.NewSession()
	b = s.NewSession()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	items, _ = itemsTable(t, a)
	return clock, a, b, items
}

func isLocked(t *testing.T, sess *store.Session, h native.Handle) bool {
	t.Helper()
	locked, code := sess.IsLocked(h)
	requireCode(t, sess, status.Success, code)
	return locked
}

func TestLock_AcquireAndRelease(t *testing.T) {
	_, a, b, items := lockFixture(t)

	assert.False(t, isLocked(t, a, items))
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))
	assert.True(t, isLocked(t, a, items))
	assert.True(t, isLocked(t, b, items), "lock state is shared by every session")

	requireCode(t, a, status.Success, a.Unlock(items, native.IDNil))
	assert.False(t, isLocked(t, b, items))
}

func TestLock_ZeroTimeoutTriesOnce(t *testing.T) {
	clock, a, b, items := lockFixture(t)
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))

	requireCode(t, b, status.CodeResourceDeadlockAvoided, b.Lock(items, native.IDNil, 0))
	assert.Empty(t, clock.Sleeps())
}

func TestLock_PollsUntilTimeout(t *testing.T) {
	clock, a, b, items := lockFixture(t)
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))

	requireCode(t, b, status.CodeResourceDeadlockAvoided, b.Lock(items, native.IDNil, 10*time.Millisecond))
	assert.Equal(t, 10*time.Millisecond, clock.Elapsed())
	assert.Len(t, clock.Sleeps(), 10)
	for _, d := range clock.Sleeps() {
		assert.Equal(t, time.Millisecond, d)
	}
}

func TestLock_LastPollIsShortened(t *testing.T) {
	clock := testutil.NewManualClock()
	s := testutil.OpenStore(t, store.WithClock(clock), store.WithPollInterval(4*time.Millisecond))
	a, b := s.NewSession(), s.NewSession()
	defer a.Close()
	defer b.Close()
	items, _ := itemsTable(t, a)
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))

	requireCode(t, b, status.CodeResourceDeadlockAvoided, b.Lock(items, native.IDNil, 10*time.Millisecond))
	assert.Equal(t, []time.Duration{4 * time.Millisecond, 4 * time.Millisecond, 2 * time.Millisecond}, clock.Sleeps())
}

func TestLock_NotReentrant(t *testing.T) {
	_, a, _, items := lockFixture(t)
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))
	requireCode(t, a, status.CodeResourceDeadlockAvoided, a.Lock(items, native.IDNil, 0))
}

func TestUnlock_OnlyReleasesOwnLock(t *testing.T) {
	_, a, b, items := lockFixture(t)
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))

	requireCode(t, b, status.Success, b.Unlock(items, native.IDNil))
	assert.True(t, isLocked(t, a, items))

	requireCode(t, a, status.Success, a.Unlock(items, native.IDNil))
	requireCode(t, b, status.Success, b.Lock(items, native.IDNil, 0))
}

func TestClearLock_ReleasesAnyOwner(t *testing.T) {
	_, a, b, items := lockFixture(t)
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))

	requireCode(t, b, status.Success, b.ClearLock(items))
	assert.False(t, isLocked(t, a, items))
	requireCode(t, b, status.Success, b.Lock(items, native.IDNil, 0))
}

func TestLock_RecordIDDoesNotNarrow(t *testing.T) {
	_, a, b, items := lockFixture(t)
	requireCode(t, a, status.Success, a.Lock(items, 1, 0))
	requireCode(t, b, status.CodeResourceDeadlockAvoided, b.Lock(items, 2, 0))
}

func TestLock_LocksAreIndependentPerObject(t *testing.T) {
	_, a, b, items := lockFixture(t)
	title, _ := a.Lookup("Items.title")
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))
	requireCode(t, b, status.Success, b.Lock(title, native.IDNil, 0))
	assert.True(t, isLocked(t, a, title))
}

func TestLock_Invalid(t *testing.T) {
	_, a, _, items := lockFixture(t)

	requireCode(t, a, status.CodeInvalidArgument, a.Lock(items, native.IDNil, -time.Second))
	requireCode(t, a, status.CodeInvalidArgument, a.Lock(9999, native.IDNil, 0))
	requireCode(t, a, status.CodeInvalidArgument, a.ClearLock(9999))
	_, code := a.IsLocked(9999)
	requireCode(t, a, status.CodeInvalidArgument, code)
}

func TestLock_OutlivesClosedSession(t *testing.T) {
	_, a, b, items := lockFixture(t)
	requireCode(t, a, status.Success, a.Lock(items, native.IDNil, 0))
	requireCode(t, a, status.Success, a.Close())

	assert.True(t, isLocked(t, b, items))
	requireCode(t, b, status.Success, b.ClearLock(items))
	assert.False(t, isLocked(t, b, items))
}
