// Package apperr defines the error kinds shared by the exchange, messaging,
// notification and moderation services.
package apperr

import "errors"

// Kind classifies a failure. A Kind is itself an error so callers can match
// with errors.Is(err, apperr.Conflict).
type Kind string

const (
	// InvalidArgument signals malformed input detected before touching the store.
	InvalidArgument Kind = "invalid_argument"
	// NotFound signals an unknown identifier.
	NotFound Kind = "not_found"
	// Forbidden signals the actor is not allowed to perform the operation.
	Forbidden Kind = "forbidden"
	// InvalidState signals the operation is not valid in the current lifecycle state.
	InvalidState Kind = "invalid_state"
	// Conflict signals a duplicate or a lost race on a contended record.
	Conflict Kind = "conflict"
	// Unavailable signals a transient store or timeout failure. It is the only
	// retryable kind.
	Unavailable Kind = "unavailable"
)

func (k Kind) Error() string { return string(k) }

// Retryable reports whether a request failing with this kind may be retried unmodified.
func (k Kind) Retryable() bool { return k == Unavailable }

// Error carries a kind, the package that raised it, a user-facing message and
// an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e != nil && e.Kind == k
}

// E builds a kinded error without a cause. Packages use it for their sentinels.
func E(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds a kinded error around cause.
func Wrap(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// KindOf returns the first kind found in err's chain, or "" when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// Message returns the user-facing message of the outermost kinded error in err's
// chain, without the cause text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// AsUnavailable classifies err as Unavailable unless it already carries a kind.
func AsUnavailable(op, msg string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return Wrap(Unavailable, op, msg, err)
}
