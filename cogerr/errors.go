// Package cogerr defines the closed error taxonomy shared by every layer
// of the COG reader: byte source, TIFF parser, COG model, decoder and
// extractor all raise *Error with one of the Kinds below rather than ad
// hoc error values.
package cogerr

import (
	"errors"
	"fmt"
)

// Kind is a closed set of error categories. New top-level kinds are not
// added casually; a new failure mode is folded into the nearest existing
// Kind with detail carried in Err/Op instead.
type Kind int

const (
	// Unknown is never raised directly; it is the zero value.
	Unknown Kind = iota
	TransportError
	OutOfRange
	Truncated
	MalformedTiff
	UnsupportedBigTiff
	UnsupportedCompression
	DecodeError
	ProjectionError
	AuthError
)

func (k Kind) String() string {
	switch k {
	case TransportError:
		return "TransportError"
	case OutOfRange:
		return "OutOfRange"
	case Truncated:
		return "Truncated"
	case MalformedTiff:
		return "MalformedTiff"
	case UnsupportedBigTiff:
		return "UnsupportedBigTiff"
	case UnsupportedCompression:
		return "UnsupportedCompression"
	case DecodeError:
		return "DecodeError"
	case ProjectionError:
		return "ProjectionError"
	case AuthError:
		return "AuthError"
	default:
		return "Unknown"
	}
}

// Error carries a Kind plus enough provenance (operation, URL, byte
// offset) to let a caller report where in the pipeline a failure
// occurred.
type Error struct {
	Kind   Kind
	Op     string
	URL    string
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s += " " + e.Op
	}
	if e.URL != "" {
		s += " url=" + e.URL
	}
	if e.Offset != 0 {
		s += fmt.Sprintf(" offset=%d", e.Offset)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, letting
// callers write cogerr.Is(err, cogerr.OutOfRange) style checks via the
// kindSentinel wrapper below. It is also used directly when target
// is another *Error sharing the same Kind.
func (e *Error) Is(target error) bool {
	var ke *kindSentinel
	if errors.As(target, &ke) {
		return e.Kind == ke.kind
	}
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// kindSentinel lets cogerr.Is(err, cogerr.TransportError) work without
// requiring callers to build an *Error by hand.
type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return k.kind.String() }

// Is reports whether err's Kind matches kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, &kindSentinel{kind: kind})
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) WithURL(url string) *Error {
	e.URL = url
	return e
}

func (e *Error) WithOffset(off int64) *Error {
	e.Offset = off
	return e
}
