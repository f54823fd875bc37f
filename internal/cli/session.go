package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/lock"
	"github.com/roach88/grnbind/internal/store"
)

// ownerID makes every session of a store use one fixed id, so a lock taken
// by one invocation can be released by a later one.
type ownerID string

func (o ownerID) Generate() string { return string(o) }

// engineSession is one engine context on the configured database.
type engineSession struct {
	store *store.Store
	ctx   *binding.Context
	locks *lock.Manager
}

// Close closes the context, then the store.
func (s *engineSession) Close() error {
	ctxErr := s.ctx.Close()
	if err := s.store.Close(); err != nil {
		return err
	}
	return ctxErr
}

// open opens the configured database and binds a context to a new
// session. owner, when non-empty, is the session id used as lock owner.
func (o *RootOptions) open(cmd *cobra.Command, owner string) (*engineSession, error) {
	if err := o.resolve(cmd); err != nil {
		return nil, err
	}
	storeOpts := []store.Option{
		store.WithPollInterval(o.cfg.Lock.PollInterval.Std()),
		store.WithLogger(o.logger),
	}
	if owner != "" {
		storeOpts = append(storeOpts, store.WithSessionIDs(ownerID(owner)))
	}
	st, err := store.Open(o.cfg.Database, storeOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening database "+o.cfg.Database, err)
	}
	ctx := binding.NewContext(st.NewSession(),
		binding.WithLogger(o.logger),
		binding.WithMetrics(o.recorder),
	)
	locks := lock.NewManager(ctx, lock.WithDefaultTimeout(o.cfg.Lock.Timeout.Std()))
	return &engineSession{store: st, ctx: ctx, locks: locks}, nil
}
