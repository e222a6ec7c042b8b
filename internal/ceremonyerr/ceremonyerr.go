// Package ceremonyerr gives every rejection the coordinator, participant,
// or verifier can produce a stable kind, so callers can branch on category
// (a malformed wire message vs. a failed transform vs. a timeout) without
// string-matching. Pattern grounded on
// _examples/tokenized-pkg/txbuilder/errors.go's coded error type, reworked
// to use github.com/pkg/errors for the wrapped-cause chain the rest of this
// module relies on.
package ceremonyerr

import "github.com/pkg/errors"

// Kind classifies a ceremony error for the caller's branching logic.
type Kind int

const (
	// BadWire marks a malformed or non-canonical wire encoding.
	BadWire Kind = iota
	// BadCommitment marks a participant commitment that doesn't match its
	// later-revealed public key.
	BadCommitment
	// BadNizk marks a proof of knowledge that failed verification.
	BadNizk
	// BadTransform marks a stage transform that failed verify_transform.
	BadTransform
	// Timeout marks a participant that didn't respond in time.
	Timeout
	// Fatal marks an error in the ceremony's own bookkeeping, not
	// attributable to any participant.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case BadWire:
		return "bad wire encoding"
	case BadCommitment:
		return "commitment mismatch"
	case BadNizk:
		return "invalid proof of knowledge"
	case BadTransform:
		return "invalid stage transform"
	case Timeout:
		return "participant timeout"
	case Fatal:
		return "fatal ceremony error"
	default:
		return "unknown error kind"
	}
}

// Error is a ceremony error tagged with a Kind and wrapping its cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error from a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Err: errors.New(message)}
}

// Wrap attaches kind to an existing error, preserving its cause chain.
func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, message)}
}

// Is reports whether err is a *Error of the given kind, unwrapping through
// any wrapping layers pkg/errors or the standard library added.
func Is(err error, kind Kind) bool {
	var ce *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ce = e
			break
		}
		err = errors.Unwrap(err)
	}
	return ce != nil && ce.Kind == kind
}
