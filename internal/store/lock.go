package store

import (
	"time"

	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// Lock takes the lock on h for this session. It polls every poll interval
// until timeout has elapsed and then gives up with
// ResourceDeadlockAvoided. Locks are not reentrant: a second Lock by the
// holder waits like anyone else. The record id is recorded but does not
// narrow the lock.
func (s *Session) Lock(h native.Handle, id native.ID, timeout time.Duration) status.Code {
	if code := s.checkOpen("lock"); code != status.Success {
		return code
	}
	if timeout < 0 {
		return s.invalid("lock", "negative timeout %s", timeout)
	}
	if _, err := loadObject(s.store.db, h); err != nil {
		return s.fail(codeOf(err), "lock", err)
	}
	clock := s.store.clock
	deadline := clock.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		res, err := s.store.db.Exec(`INSERT OR IGNORE INTO grn_locks (object_id, owner, record_id) VALUES (?, ?, ?)`,
			h, s.id, id)
		if err != nil {
			return s.fail(codeOf(err), "lock", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return s.fail(codeOf(err), "lock", err)
		} else if n == 1 {
			return status.Success
		}
		if !clock.Now().Before(deadline) {
			s.store.logger.Debug("lock timed out", "session", s.id, "object", h, "attempts", attempt, "timeout", timeout)
			return s.fail(status.CodeResourceDeadlockAvoided, "lock", nil)
		}
		wait := s.store.pollInterval
		if left := deadline.Sub(clock.Now()); left < wait {
			wait = left
		}
		clock.Sleep(wait)
	}
}

// Unlock releases this session's lock on h. Locks held by other sessions
// are left alone.
func (s *Session) Unlock(h native.Handle, id native.ID) status.Code {
	if code := s.checkOpen("unlock"); code != status.Success {
		return code
	}
	if _, err := loadObject(s.store.db, h); err != nil {
		return s.fail(codeOf(err), "unlock", err)
	}
	if _, err := s.store.db.Exec(`DELETE FROM grn_locks WHERE object_id = ? AND owner = ?`, h, s.id); err != nil {
		return s.fail(codeOf(err), "unlock", err)
	}
	return status.Success
}

// ClearLock releases the lock on h whoever holds it.
func (s *Session) ClearLock(h native.Handle) status.Code {
	if code := s.checkOpen("clear_lock"); code != status.Success {
		return code
	}
	if _, err := loadObject(s.store.db, h); err != nil {
		return s.fail(codeOf(err), "clear_lock", err)
	}
	if _, err := s.store.db.Exec(`DELETE FROM grn_locks WHERE object_id = ?`, h); err != nil {
		return s.fail(codeOf(err), "clear_lock", err)
	}
	return status.Success
}

// IsLocked reports whether any session holds the lock on h.
func (s *Session) IsLocked(h native.Handle) (bool, status.Code) {
	if code := s.checkOpen("is_locked"); code != status.Success {
		return false, code
	}
	if _, err := loadObject(s.store.db, h); err != nil {
		return false, s.fail(codeOf(err), "is_locked", err)
	}
	var locked bool
	if err := s.store.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM grn_locks WHERE object_id = ?)`, h).Scan(&locked); err != nil {
		return false, s.fail(codeOf(err), "is_locked", err)
	}
	return locked, status.Success
}
