// Package lock takes engine-level locks on bound objects.
//
// Engine locks coordinate sessions, possibly in different processes, that
// mutate the same object. They are not in-process mutexes. A lock that
// cannot be granted within its timeout fails with
// status.KindResourceDeadlockAvoided; the engine does the waiting.
//
// Prefer WithLock, which releases on every exit path:
//
//	m := lock.NewManager(ctx)
//	err := m.WithLock(items, func() error {
//	    _, err := items.Insert(rec)
//	    return err
//	}, lock.WithTimeout(time.Second))
//
// A release that fails after the protected function ran is logged,
// counted and kept as LastReleaseError, but never returned: it must not
// hide the function's own result.
package lock
