// Package kdexerr provides the closed tagged-variant error type used across
// kdex. Callers dispatch on Kind rather than matching error strings.
package kdexerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so callers can switch on it instead of matching
// strings. The set is closed and mirrors the error taxonomy in spec.md §7.
type Kind string

const (
	PathNotFound         Kind = "PathNotFound"
	NotADirectory        Kind = "NotADirectory"
	RepoNotFound         Kind = "RepoNotFound"
	StoreBusy            Kind = "StoreBusy"
	StoreCorrupt         Kind = "StoreCorrupt"
	MigrationFailed      Kind = "MigrationFailed"
	FileTooLarge         Kind = "FileTooLarge"
	DecodeFailed         Kind = "DecodeFailed"
	PermissionDenied     Kind = "PermissionDenied"
	WatcherLimitExceeded Kind = "WatcherLimitExceeded"
	AuthRequired         Kind = "AuthRequired"
	CloneFailed          Kind = "CloneFailed"
	FetchDiverged        Kind = "FetchDiverged"
	ModeUnavailable      Kind = "ModeUnavailable"
	Cancelled            Kind = "Cancelled"
	EmptyQuery           Kind = "EmptyQuery"
	RegexTooLarge        Kind = "RegexTooLarge"
	Internal             Kind = "Internal"
)

// retryableKinds are kinds whose operation may succeed if retried.
var retryableKinds = map[Kind]bool{
	StoreBusy: true,
}

// Error is kdex's structured error type. It carries enough context for a
// caller to decide exit code, retry behavior, and a remediation message.
type Error struct {
	Kind       Kind
	Message    string
	Path       string // offending path, if any
	Cause      error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is enables errors.Is(err, &Error{Kind: X}) to match solely on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Retryable reports whether the operation that produced this error is
// expected to succeed on retry (e.g. a transient store lock).
func (e *Error) Retryable() bool {
	return retryableKinds[e.Kind]
}

// New creates an Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind wrapping a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithPath attaches the offending path and returns the error for chaining.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithSuggestion attaches a remediation hint and returns the error for chaining.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, otherwise
// returns Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// ExitCode maps a Kind to the process exit code conventions in spec.md §6:
// 0 success, 1 runtime error, 2 usage error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case EmptyQuery, RegexTooLarge, NotADirectory, PathNotFound:
		return 2
	default:
		return 1
	}
}
