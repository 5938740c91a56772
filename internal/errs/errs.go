// Package errs classifies the five error kinds spec.md §7 names so call
// sites and tests can distinguish them with errors.As/errors.Is rather than
// string matching.
package errs

import "fmt"

// Kind is one of the five error categories of spec.md §7.
type Kind int

const (
	KindConfiguration Kind = iota
	KindProtocol
	KindTransientIO
	KindTimeout
	KindLogicInvariant
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindProtocol:
		return "protocol"
	case KindTransientIO:
		return "transient_io"
	case KindTimeout:
		return "timeout"
	case KindLogicInvariant:
		return "logic_invariant"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a classification. Configuration and
// Timeout kinds are fatal at startup; Protocol errors are logged and
// ignored at read sites; TransientIO is treated as cancellation unless a
// hard-failure flag elsewhere propagates it; LogicInvariant indicates a
// programmer error and should generally crash with diagnostic (spec.md §7).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Configuration(op string, err error) *Error  { return New(KindConfiguration, op, err) }
func Protocol(op string, err error) *Error       { return New(KindProtocol, op, err) }
func TransientIO(op string, err error) *Error    { return New(KindTransientIO, op, err) }
func Timeout(op string, err error) *Error        { return New(KindTimeout, op, err) }
func LogicInvariant(op string, err error) *Error { return New(KindLogicInvariant, op, err) }
