package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/grnbind/internal/lock"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// LockOptions holds flags shared by the lock commands.
type LockOptions struct {
	*RootOptions
	Owner   string
	Timeout time.Duration
	Record  uint32
}

// LockResult reports the lock state of an object after a lock command.
type LockResult struct {
	Name    string `json:"name"`
	Locked  bool   `json:"locked"`
	Owner   string `json:"owner,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

func addOwnerFlag(cmd *cobra.Command, opts *LockOptions) {
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "lock owner id (default: a new id per invocation)")
}

// NewLockCommand creates the lock command.
func NewLockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lock <name>",
		Short: "Lock a table or column",
		Long: `Take the engine lock on an object and keep it after the command exits.
The engine polls until --timeout elapses; zero tries once. The owner id is
printed so a later "grnbind unlock --owner <id>" can release the lock.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLock(opts, args[0], cmd)
		},
	}

	addOwnerFlag(cmd, opts)
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", -1, "how long to wait for the lock (default from config)")
	cmd.Flags().Uint32Var(&opts.Record, "record", 0, "record id to scope the lock to (0: all records)")

	return cmd
}

// NewUnlockCommand creates the unlock command.
func NewUnlockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unlock <name>",
		Short: "Release a lock taken with the same owner id",
		Long: `Release the lock on an object if the given owner holds it. A lock held by
another owner is left in place; use clear-lock to remove it regardless.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd); err != nil {
				return err
			}
			if opts.Owner == "" {
				return opts.formatter(cmd).Fail("unlock", fmt.Errorf("%w: --owner is required", status.ErrArgument))
			}
			return runLockOp(opts, args[0], cmd, func(s *engineSession, name string) error {
				obj, err := s.ctx.Lookup(name)
				if err != nil {
					return err
				}
				return s.locks.Unlock(obj)
			})
		},
	}

	addOwnerFlag(cmd, opts)

	return cmd
}

// NewClearLockCommand creates the clear-lock command.
func NewClearLockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LockOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:           "clear-lock <name>",
		Short:         "Remove the lock on an object whoever holds it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLockOp(opts, args[0], cmd, func(s *engineSession, name string) error {
				obj, err := s.ctx.Lookup(name)
				if err != nil {
					return err
				}
				return s.locks.ClearLock(obj)
			})
		},
	}
}

// NewLockedCommand creates the locked command.
func NewLockedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LockOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:           "locked <name>",
		Short:         "Report whether an object is locked",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLockOp(opts, args[0], cmd, nil)
		},
	}
}

func runLock(opts *LockOptions, name string, cmd *cobra.Command) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	sess, err := opts.open(cmd, opts.Owner)
	if err != nil {
		return err
	}
	defer sess.Close()

	obj, err := sess.ctx.Lookup(name)
	if err != nil {
		return formatter.Fail("looking up "+name, err)
	}

	var acquire []lock.AcquireOption
	if opts.Timeout >= 0 {
		acquire = append(acquire, lock.WithTimeout(opts.Timeout))
	}
	if opts.Record != 0 {
		acquire = append(acquire, lock.WithRecord(native.ID(opts.Record)))
	}
	tok, err := sess.locks.Acquire(obj, acquire...)
	if err != nil {
		return formatter.Fail("locking "+name, err)
	}
	formatter.VerboseLog("Acquired lock on %s", name)

	// The token is dropped unreleased: the lock outlives this session.
	return outputLock(formatter, LockResult{
		Name:    displayName(obj),
		Locked:  true,
		Owner:   sess.ctx.Engine().SessionID(),
		Timeout: tok.Timeout().String(),
	})
}

// runLockOp runs op, if any, then reports the lock state of name.
func runLockOp(opts *LockOptions, name string, cmd *cobra.Command, op func(*engineSession, string) error) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	sess, err := opts.open(cmd, opts.Owner)
	if err != nil {
		return err
	}
	defer sess.Close()

	if op != nil {
		if err := op(sess, name); err != nil {
			return formatter.Fail(cmd.Name()+" "+name, err)
		}
	}
	obj, err := sess.ctx.Lookup(name)
	if err != nil {
		return formatter.Fail("looking up "+name, err)
	}
	locked, err := sess.locks.IsLocked(obj)
	if err != nil {
		return formatter.Fail("lock state of "+name, err)
	}
	return outputLock(formatter, LockResult{Name: displayName(obj), Locked: locked})
}

func outputLock(formatter *OutputFormatter, res LockResult) error {
	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	state := "unlocked"
	if res.Locked {
		state = "locked"
	}
	fmt.Fprintf(formatter.Writer, "%s: %s\n", res.Name, state)
	if res.Owner != "" {
		fmt.Fprintf(formatter.Writer, "  owner %s\n", res.Owner)
	}
	return nil
}
