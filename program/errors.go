package program

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
type Kind string

const (
	KindConfiguration    Kind = "Configuration"
	KindNotFound         Kind = "NotFound"
	KindIdentityMismatch Kind = "IdentityMismatch"
	KindDecryption       Kind = "Decryption"
	KindParse            Kind = "Parse"
	KindInternal         Kind = "Internal"
)

// Error is the structured error returned by resolvers, loaders and the
// credential manager.
//
// Op names the operation that failed (e.g. "load_program"). Message is
// intended for humans; do not match on it. Use errors.As to extract *Error.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError returns a structured error without a cause.
func NewError(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// WrapError returns a structured error wrapping cause. A nil cause yields
// the same result as NewError.
func WrapError(kind Kind, op, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, op, msg)
	}
	return &Error{Kind: kind, Op: op, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
