// Package fault classifies domain errors into the kinds the transport layer
// knows how to report.
package fault

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrState      = errors.New("invalid state")
)

// Error attaches a kind to a concrete error. errors.Is matches both the kind
// and the wrapped error.
type Error struct {
	kind error
	err  error
}

func (e *Error) Error() string { return e.err.Error() }

func (e *Error) Unwrap() []error { return []error{e.kind, e.err} }

// Kind returns one of the package sentinels.
func (e *Error) Kind() error { return e.kind }

func New(kind error, msg string) error {
	return &Error{kind: kind, err: errors.New(msg)}
}

func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, err: err}
}

func Validation(msg string) error { return New(ErrValidation, msg) }
func Permission(msg string) error { return New(ErrPermission, msg) }
func NotFound(msg string) error   { return New(ErrNotFound, msg) }
func Conflict(msg string) error   { return New(ErrConflict, msg) }
func State(msg string) error      { return New(ErrState, msg) }

// KindOf reports the kind of err, or nil when err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrPermission, ErrNotFound, ErrConflict, ErrState} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
