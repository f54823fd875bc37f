package testutil

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/grnbind/internal/store"
)

// SequentialIDs generates session ids "session-1", "session-2", ...
//
// Deterministic ids make lock owners and golden traces reproducible.
//
// Thread-safety: Generate is safe for concurrent use.
type SequentialIDs struct {
	mu   sync.Mutex
	next int
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("session-%d", g.next)
}

// OpenStore opens a store in a fresh temporary directory. It is closed when
// the test ends. Sessions get sequential ids unless opts override them.
func OpenStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()
	opts = append([]store.Option{store.WithSessionIDs(&SequentialIDs{})}, opts...)
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// OpenSession opens a store and one session on it.
func OpenSession(t testing.TB, opts ...store.Option) *store.Session {
	t.Helper()
	sess := OpenStore(t, opts...).NewSession()
	t.Cleanup(func() { sess.Close() })
	return sess
}
