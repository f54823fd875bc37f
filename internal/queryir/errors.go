package queryir

import (
	"errors"
	"fmt"
)

// ErrUpdateNotAllowed is returned for an assignment parsed while updates are
// disabled.
var ErrUpdateNotAllowed = errors.New("update not allowed")

// SyntaxError reports where and why an expression failed to parse.
type SyntaxError struct {
	Pos     int // rune offset into the source
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Message)
}

func syntaxErrorf(pos int, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
