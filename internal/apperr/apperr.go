// Package apperr defines the error kinds surfaced by the processing core.
package apperr

import "errors"

// Kind classifies where a failure happened.
type Kind string

const (
	KindTranscription Kind = "transcription"
	KindAnalysis      Kind = "analysis"
	KindSynthesis     Kind = "synthesis"
	KindValidation    Kind = "validation"
	KindNormalization Kind = "normalization"
)

// Error is a stage-specific failure. Msg is the human readable part,
// Err the underlying cause (may be nil).
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	prefix := string(e.Kind) + " failed"
	if e.Kind == KindValidation {
		prefix = "invalid input"
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return prefix + ": " + e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return prefix + ": " + e.Msg
	case e.Err != nil:
		return prefix + ": " + e.Err.Error()
	}
	return prefix
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind without an underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a kind to err. A nil err returns nil and an err that
// already carries a kind is returned unchanged.
func Wrap(kind Kind, err error) error {
	if err == nil || KindOf(err) != "" {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
