package compare

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal comparison failure. The calling layer maps
// kinds to transport-level signals; the core never retries.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindDecode            Kind = "decode_error"
	KindDimensionMismatch Kind = "dimension_mismatch"
	KindResize            Kind = "resize_error"
	KindPayloadTooLarge   Kind = "payload_too_large"
	KindEncode            Kind = "encode_error"
	KindInternal          Kind = "internal_error"
)

// Error is a tagged comparison failure. Message always names the specific
// condition and, where applicable, the offending image (base or actual).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the failure kind from an error chain. Untagged errors
// report KindInternal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}
