package tcodec

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind categorizes the errors the core engine can return.
type Kind int

const (
	// KindPreconditionFailure marks programmer/configuration errors: an
	// uninitialized reference, a dimension mismatch, or an invalid config.
	KindPreconditionFailure Kind = iota + 1
	// KindCodecFailure marks a data-driven failure reported by the codec
	// backend, or a mismatch between a decoded stream and its metadata.
	KindCodecFailure
	// KindMalformedRecord marks a container that failed length, range, or
	// field validation during parsing.
	KindMalformedRecord
	// KindBufferTooSmall marks a caller-provided output buffer that was
	// too small to hold the result.
	KindBufferTooSmall
)

func (k Kind) String() string {
	switch k {
	case KindPreconditionFailure:
		return "PreconditionFailure"
	case KindCodecFailure:
		return "CodecFailure"
	case KindMalformedRecord:
		return "MalformedRecord"
	case KindBufferTooSmall:
		return "BufferTooSmall"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type returned by every fallible operation in this
// package. Instance is the emitting FrameEncoder/FrameDecoder's ID, or the
// zero UUID for package-level and configuration errors.
type Error struct {
	Kind     Kind
	Message  string
	Instance uuid.UUID
}

func (e *Error) Error() string {
	if e.Instance == uuid.Nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Instance, e.Message)
}

// newErr builds an *Error carrying the given instance ID.
func newErr(instance uuid.UUID, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Instance: instance}
}

// IsError reports whether err is (or wraps) an *Error and returns it.
func IsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Sentinel package-level errors for equality checks that do not need a
// message or instance ID.
var (
	ErrUninitializedReference = &Error{Kind: KindPreconditionFailure, Message: "reference state not initialized"}
	ErrDimensionMismatch      = &Error{Kind: KindPreconditionFailure, Message: "frame dimensions do not match reference state"}
)
