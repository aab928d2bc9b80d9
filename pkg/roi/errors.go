package roi

import "errors"

// Errors returned by the decoder. Every error produced by this package wraps
// one of these, so callers can classify failures with errors.Is.
var (
	// ErrTruncatedData is returned when a read runs past the end of the buffer.
	ErrTruncatedData = errors.New("truncated data")
	// ErrInvalidSignature is returned when the buffer does not start with "Iout".
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrUnsupportedShape covers unknown type codes and unimplemented subtypes.
	ErrUnsupportedShape = errors.New("unsupported shape")
	// ErrCorruptOffset marks an extended-header offset outside the buffer.
	ErrCorruptOffset = errors.New("corrupt offset")
	// ErrDuplicateEntry is reported by the aggregator when two entries map to
	// the same collection key.
	ErrDuplicateEntry = errors.New("duplicate entry")
)
