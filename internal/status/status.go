package status

import (
	"errors"
	"fmt"
)

// Code is a raw status code returned by the engine's native API.
type Code int32

// Kind is a leaf of the error taxonomy. Every non-success Code maps to exactly
// one Kind and no two codes share a Kind.
//
// Kind implements error so it can be used as a sentinel target:
//
//	if errors.Is(err, status.KindResourceDeadlockAvoided) { ... }
type Kind uint8

// Group is the conceptual family a Kind belongs to.
type Group uint8

const (
	GroupData Group = iota + 1
	GroupSystem
	GroupNetwork
	GroupFormat
	GroupCompression
	GroupQuery
	GroupConcurrency
	GroupSubsystem
)

var groupNames = map[Group]string{
	GroupData:        "data",
	GroupSystem:      "system",
	GroupNetwork:     "network",
	GroupFormat:      "format",
	GroupCompression: "compression",
	GroupQuery:       "query",
	GroupConcurrency: "concurrency",
	GroupSubsystem:   "subsystem",
}

func (g Group) String() string {
	if name, ok := groupNames[g]; ok {
		return name
	}
	return fmt.Sprintf("group(%d)", uint8(g))
}

type kindInfo struct {
	code  Code
	name  string
	text  string
	group Group
}

// byCode is the reverse index of kinds, built once at init.
var byCode = func() map[Code]Kind {
	m := make(map[Code]Kind, kindCount)
	for k := Kind(1); int(k) <= kindCount; k++ {
		info := kinds[k]
		if _, dup := m[info.code]; dup {
			panic(fmt.Sprintf("status: code %d mapped twice", info.code))
		}
		m[info.code] = k
	}
	return m
}()

// Host-side errors that do not originate from an engine status code.
var (
	// ErrInternal marks an internal-consistency fault, e.g. an unmapped status code.
	ErrInternal = errors.New("internal consistency fault")

	// ErrArgument reports an invalid call shape or option.
	ErrArgument = errors.New("invalid argument")

	// ErrBindFailure reports that a native handle could not be bound to a proxy.
	ErrBindFailure = errors.New("bind failure")

	// ErrConsistency reports a registry conflict: one handle, two live proxies.
	ErrConsistency = errors.New("consistency violation")

	// ErrClosed reports use of a finalized proxy or a closed context.
	ErrClosed = errors.New("closed")
)

// Kinds returns every taxonomy leaf in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(1); int(k) <= kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a declared taxonomy leaf.
func (k Kind) Valid() bool {
	return k > 0 && int(k) <= kindCount
}

// Code returns the status code k was translated from.
func (k Kind) Code() Code {
	if !k.Valid() {
		return CodeUnknownError
	}
	return kinds[k].code
}

// Text returns the engine's status text for k, e.g. "resource deadlock avoided".
func (k Kind) Text() string {
	if !k.Valid() {
		return fmt.Sprintf("invalid kind %d", uint8(k))
	}
	return kinds[k].text
}

// Group returns the family of k.
func (k Kind) Group() Group {
	if !k.Valid() {
		return 0
	}
	return kinds[k].group
}

// String returns the Go-style name of k, e.g. "ResourceDeadlockAvoided".
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kinds[k].name
}

// Error implements error.
func (k Kind) Error() string {
	return k.Text()
}

// Text returns the status text for c. Success and unmapped codes get
// synthesized texts.
func (c Code) Text() string {
	if c == Success {
		return "success"
	}
	if k, ok := byCode[c]; ok {
		return kinds[k].text
	}
	return fmt.Sprintf("invalid return code: %d", int32(c))
}

// InvalidCodeError is returned when a status code has no taxonomy leaf.
// It wraps ErrInternal: the taxonomy is expected to be exhaustive for the
// targeted engine version, so reaching this is a bug, not a runtime condition.
type InvalidCodeError struct {
	Code Code
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid return code: %d", int32(e.Code))
}

func (e *InvalidCodeError) Unwrap() error { return ErrInternal }

// Translate maps a non-success status code to its taxonomy leaf.
//
// Translate is pure and deterministic. Success has no leaf and, like any
// unmapped code, yields an *InvalidCodeError.
func Translate(code Code) (Kind, error) {
	k, ok := byCode[code]
	if !ok {
		return 0, &InvalidCodeError{Code: code}
	}
	return k, nil
}

// Error is a failed engine status translated into the taxonomy.
type Error struct {
	Kind    Kind
	Subject string // inspected object the failure relates to, may be empty
	Message string // engine status text
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s", e.Subject, e.Message)
	}
	return e.Message
}

// Is matches a Kind target, so errors.Is(err, KindSyntaxError) works through
// any amount of wrapping.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Check returns nil if code denotes success and the translated error
// otherwise. subject, when non-empty, prefixes the message.
func Check(code Code, subject string) error {
	if code == Success {
		return nil
	}
	k, err := Translate(code)
	if err != nil {
		return err
	}
	return &Error{Kind: k, Subject: subject, Message: k.Text()}
}

// KindOf extracts the taxonomy leaf from err, if any.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return 0, false
}

// CodeOf returns the status code carried by err: Success for nil, the
// translated code for taxonomy errors, and CodeUnknownError otherwise.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	if k, ok := KindOf(err); ok {
		return k.Code()
	}
	var ic *InvalidCodeError
	if errors.As(err, &ic) {
		return ic.Code
	}
	return CodeUnknownError
}
