package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/queryir"
	"github.com/roach88/grnbind/internal/status"
)

// Session is one engine context over a Store. It implements native.Engine.
//
// A Session is not safe for concurrent use.
type Session struct {
	store   *Store
	id      string
	closed  bool
	lastErr error

	nextLocal native.Handle
	accessors map[native.Handle]accessor
	exprs     map[native.Handle]*expr

	nextBuffer native.BufferHandle
	buffers    map[native.BufferHandle]native.BufferKind
}

var _ native.Engine = (*Session)(nil)

// accessor is an anonymous pseudo-column view ("Items._key").
type accessor struct {
	table  native.Handle
	pseudo string
}

// expr is a compiled expression.
type expr struct {
	table    native.Handle
	column   native.Handle
	name     string
	pred     queryir.Predicate
	keywords []string
}

// queryer is satisfied by *sql.DB and *sql.Tx. Statements inside a
// transaction must go through the transaction: the store has one connection.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewSession opens an engine context.
func (s *Store) NewSession() *Session {
	sess := &Session{
		store:     s,
		id:        s.ids.Generate(),
		nextLocal: sessionHandleBase,
		accessors: make(map[native.Handle]accessor),
		exprs:     make(map[native.Handle]*expr),
		buffers:   make(map[native.BufferHandle]native.BufferKind),
	}
	s.logger.Debug("session opened", "session", sess.id)
	return sess
}

// SessionID returns the id recorded as owner of this session's locks.
func (s *Session) SessionID() string { return s.id }

// Closed reports whether Close has run.
func (s *Session) Closed() bool { return s.closed }

// LastError returns the underlying error of the most recent failure, for
// diagnostics. Status codes are the contract; this is detail.
func (s *Session) LastError() error { return s.lastErr }

// Close drops this session's temporary tables and forgets its local
// objects. Locks held by the session stay until unlocked or cleared, as
// engine locks outlive a crashed context.
func (s *Session) Close() status.Code {
	if s.closed {
		return status.Success
	}
	rows, err := s.store.db.Query(`SELECT id FROM grn_objects WHERE temporary = 1 AND owner = ?`, s.id)
	if err != nil {
		return s.fail(codeOf(err), "close", err)
	}
	ids, err := scanHandles(rows)
	if err != nil {
		return s.fail(codeOf(err), "close", err)
	}
	for _, id := range ids {
		if err := s.dropTable(id); err != nil {
			return s.fail(codeOf(err), "close", err)
		}
	}
	s.closed = true
	s.accessors = nil
	s.exprs = nil
	s.buffers = nil
	s.store.logger.Debug("session closed", "session", s.id, "temporary_tables", len(ids))
	return status.Success
}

// fail records err and returns code.
func (s *Session) fail(code status.Code, op string, err error) status.Code {
	if err == nil {
		err = errors.New(code.Text())
	}
	s.lastErr = fmt.Errorf("%s: %w", op, err)
	s.store.logger.Debug("engine call failed", "session", s.id, "op", op, "code", int32(code), "err", err)
	return code
}

// invalid records a message and returns InvalidArgument.
func (s *Session) invalid(op, format string, args ...any) status.Code {
	return s.fail(status.CodeInvalidArgument, op, fmt.Errorf(format, args...))
}

func (s *Session) checkOpen(op string) status.Code {
	if s.closed {
		return s.invalid(op, "session is closed")
	}
	return status.Success
}

func (s *Session) allocLocal() native.Handle {
	h := s.nextLocal
	s.nextLocal++
	return h
}

func scanHandles(rows *sql.Rows) ([]native.Handle, error) {
	defer rows.Close()
	var out []native.Handle
	for rows.Next() {
		var id native.Handle
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// inTx runs fn in a transaction on the store's connection.
func (s *Session) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.store.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
