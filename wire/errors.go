package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Codec errors. All of them surface unchanged at the top-level entry points;
// nothing inside the codec retries or swallows. After any error the stream
// position is unspecified.
var (
	// ErrEOF means the stream held no further value: the clean end between
	// values, not a truncation.
	ErrEOF = errors.New("no more values in stream")

	// ErrUnexpectedEOF means the stream ended in the middle of a value.
	ErrUnexpectedEOF = errors.New("unexpected EOF while reading value")

	// ErrUnexpectedWireType means the prefix encoded a wire type the
	// descriptor does not accept at this position, or an unknown
	// constructor tag.
	ErrUnexpectedWireType = errors.New("unexpected wire type")

	// ErrUndefinedDefault means a default value was requested for a type
	// that has none.
	ErrUndefinedDefault = errors.New("type has no default value")

	// ErrVarintTooLong means a varint ran past the 64-bit fast path.
	ErrVarintTooLong = errors.New("varint too long for uint64")
)

// ParseError reports bytes that were well-formed on the wire but
// semantically invalid for the descriptor, e.g. a promotion attempted on a
// descriptor without subtypes.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

// RenderError reports a value that cannot be rendered under the descriptor.
type RenderError struct {
	Msg string
}

func (e *RenderError) Error() string {
	return "render error: " + e.Msg
}

// FieldError carries the path of message fields and constructors leading to
// an encoding or decoding failure.
type FieldError struct {
	FieldPath []string // e.g. ["person", "emails", "2"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("error at %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// wrapWithField wraps an error with a path segment, merging nested
// FieldErrors into a single path.
func wrapWithField(err error, fieldName string) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FieldError); ok {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}
	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}
