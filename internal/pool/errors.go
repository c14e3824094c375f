package pool

import "errors"

// Kind classifies the errors the pool manager and stream view can return.
type Kind string

const (
	// KindInvalidConfiguration marks a Config that failed validation.
	KindInvalidConfiguration Kind = "invalid_configuration"
	// KindNullInput marks a required argument that was nil.
	KindNullInput Kind = "null_input"
	// KindOutOfRange marks a numeric argument outside its valid domain.
	KindOutOfRange Kind = "out_of_range"
	// KindArgumentBounds marks an offset/count pair that overruns a buffer.
	KindArgumentBounds Kind = "argument_bounds"
	// KindWrongSizedBuffer marks a buffer returned to the pool whose length
	// does not match any size class the pool manages.
	KindWrongSizedBuffer Kind = "wrong_sized_buffer"
	// KindInvalidOrigin marks an unrecognized io.Seek origin.
	KindInvalidOrigin Kind = "invalid_origin"
	// KindSeekBeforeBegin marks a seek that would land before offset zero.
	KindSeekBeforeBegin Kind = "seek_before_begin"
	// KindStreamOverflow marks a length/position that would exceed what a
	// single stream can address.
	KindStreamOverflow Kind = "stream_overflow"
	// KindCapacityExceeded marks growth past MaximumStreamCapacity.
	KindCapacityExceeded Kind = "capacity_exceeded"
	// KindDisposed marks an operation attempted on a disposed StreamView.
	KindDisposed Kind = "disposed"
	// KindDoubleDispose marks a second call to Dispose on the same stream.
	KindDoubleDispose Kind = "double_dispose"
)

// Error is the error type returned by every exported pool and stream
// operation. Callers distinguish cases with errors.Is against the Err*
// sentinels below, or by inspecting Kind directly.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, pool.ErrDisposed) works regardless of message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinel errors for errors.Is comparisons. Only Kind is significant for
// matching; Message and Cause on the sentinel itself are never inspected.
var (
	ErrInvalidConfiguration = newErr(KindInvalidConfiguration, "invalid configuration")
	ErrNullInput            = newErr(KindNullInput, "null input")
	ErrOutOfRange           = newErr(KindOutOfRange, "argument out of range")
	ErrArgumentBounds       = newErr(KindArgumentBounds, "offset/count exceeds buffer bounds")
	ErrWrongSizedBuffer     = newErr(KindWrongSizedBuffer, "buffer does not match a pooled size class")
	ErrInvalidOrigin        = newErr(KindInvalidOrigin, "invalid seek origin")
	ErrSeekBeforeBegin      = newErr(KindSeekBeforeBegin, "seek before beginning of stream")
	ErrStreamOverflow       = newErr(KindStreamOverflow, "stream length overflow")
	ErrCapacityExceeded     = newErr(KindCapacityExceeded, "capacity exceeded")
	ErrDisposed             = newErr(KindDisposed, "stream view is disposed")
	ErrDoubleDispose        = newErr(KindDoubleDispose, "stream view already disposed")
)

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
