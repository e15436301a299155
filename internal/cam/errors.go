package cam

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps one of them.
var (
	ErrOffset          = errors.New("offset error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidArgument = errors.New("invalid argument")
)

// camError pairs a category with a message. errors.Is matches the category
// and, for offset failures, the underlying geom error.
type camError struct {
	kind  error
	msg   string
	cause error
}

func (e *camError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.kind, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *camError) Is(target error) bool {
	return target == e.kind
}

func (e *camError) Unwrap() error {
	return e.cause
}

// InvalidInput reports a runtime data violation such as an empty toolpath.
func InvalidInput(msg string) error {
	return &camError{kind: ErrInvalidInput, msg: msg}
}

// InvalidArgument reports a construction-time constraint violation.
func InvalidArgument(msg string) error {
	return &camError{kind: ErrInvalidArgument, msg: msg}
}

// OffsetFailed wraps a polygon offset failure.
func OffsetFailed(err error) error {
	return &camError{kind: ErrOffset, cause: err}
}
