// Package mooseerr defines the error taxonomy shared by every package in
// the engine. Errors are plain values: a Kind tag plus whatever
// detail fields that kind needs, wrapped with fmt.Errorf("...: %w", ...)
// as they propagate so callers can still errors.Is/errors.As down to the
// Kind while getting a readable chain.
package mooseerr

import (
	"errors"
	"fmt"
)

// Kind tags one of the engine's closed error categories. It carries no data
// itself; the *Error struct below carries the per-occurrence detail.
type Kind string

const (
	ParseError        Kind = "ParseError"
	TypeMismatch      Kind = "TypeMismatch"
	UnknownOperator   Kind = "UnknownOperator"
	UnknownType       Kind = "UnknownType"
	MissingInput      Kind = "MissingInput"
	DanglingReference Kind = "DanglingReference"
	CycleDetected     Kind = "CycleDetected"
	KernelNotFound    Kind = "KernelNotFound"
	KeyNotFound       Kind = "KeyNotFound"
	StorageFailure    Kind = "StorageFailure"
	NetworkingFailure Kind = "NetworkingFailure"
	UpstreamFailed    Kind = "UpstreamFailed"
	Cancelled         Kind = "Cancelled"
	Internal          Kind = "Internal"
)

// Error is the concrete error type every package in this module returns.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds a Kind-tagged error with a formatted message.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a Kind-tagged error that chains an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: cause}
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Wrapped
	}
	return false
}

// KindOf extracts the Kind of err, or Internal if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
