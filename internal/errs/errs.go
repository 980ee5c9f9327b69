// Package errs defines the error kinds returned by the weather and reschedule core.
// Callers switch on the Kind; the HTTP layer maps kinds to status codes.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindInternal          Kind = "internal"
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindInvalidArgument   Kind = "invalid_argument"
	KindProvider          Kind = "provider"
	KindExpired           Kind = "expired"
	KindInvalidTransition Kind = "invalid_transition"
	KindTransaction       Kind = "transaction"
)

// Error is a failure with a kind, the operation that produced it and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Kinded is implemented by error types outside this package that carry a kind.
type Kinded interface {
	ErrorKind() Kind
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are KindInternal; a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func NotFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func InvalidArgument(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func InvalidTransition(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Expired(op, format string, args ...any) error {
	return &Error{Kind: KindExpired, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Transaction wraps a failed atomic write.
func Transaction(op string, err error) error {
	return &Error{Kind: KindTransaction, Op: op, Msg: "transaction failed", Err: err}
}

// Wrap classifies err under kind unless it already carries a kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindInternal {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
