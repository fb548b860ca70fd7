package ber

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedHeader       = errors.New("ber: malformed header")
	ErrTruncatedContent      = errors.New("ber: truncated content")
	ErrIntegerTooLarge       = errors.New("ber: integer too large")
	ErrInvalidType           = errors.New("ber: unexpected tag")
	ErrInvalidSequenceType   = errors.New("ber: invalid attribute type")
	ErrMissingLength         = errors.New("ber: missing attribute version")
	ErrMissingOctet          = errors.New("ber: missing octet string")
	ErrUnsupportedStringType = errors.New("ber: unsupported string type")
)

// DecodeError records where a decode step failed. Err is always one of the
// package sentinels; Cause holds the lower-level failure when a step maps it
// onto a different sentinel (for example a malformed INTEGER inside an
// attribute surfacing as ErrInvalidSequenceType).
type DecodeError struct {
	Op     string
	Offset int
	Err    error
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s at offset %d: %v", e.Err, e.Op, e.Offset, e.Cause)
	}
	return fmt.Sprintf("%v: %s at offset %d", e.Err, e.Op, e.Offset)
}

func (e *DecodeError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func decodeErr(op string, offset int, err error) error {
	return &DecodeError{Op: op, Offset: offset, Err: err}
}

func wrapErr(op string, offset int, err, cause error) error {
	return &DecodeError{Op: op, Offset: offset, Err: err, Cause: cause}
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidType, "invalid_type"},
	{ErrInvalidSequenceType, "invalid_sequence_type"},
	{ErrMissingLength, "missing_length"},
	{ErrMissingOctet, "missing_octet"},
	{ErrUnsupportedStringType, "unsupported_string_type"},
	{ErrIntegerTooLarge, "integer_too_large"},
	{ErrTruncatedContent, "truncated_content"},
	{ErrMalformedHeader, "malformed_header"},
}

// ErrorKind returns a stable label for the outermost sentinel wrapped by err,
// or "" when err carries none of this package's sentinels.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var de *DecodeError
	if errors.As(err, &de) {
		for _, k := range errorKinds {
			if de.Err == k.err {
				return k.kind
			}
		}
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}
