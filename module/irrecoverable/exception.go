package irrecoverable

import (
	"errors"
	"fmt"
)

// exception represents an unexpected error. An unexpected error is any error returned
// by a function, other than the error specifically documented as expected in that
// function's interface. Exceptions indicate that the node's state is corrupted and
// it must not continue processing blocks.
type exception struct {
	err error
}

func (e exception) Error() string {
	return e.err.Error()
}

func (e exception) Unwrap() error {
	return e.err
}

// NewException wraps the input error as an exception, stripping any sentinel error
// information from the error chain as seen by errors.Is.
func NewException(err error) error {
	return exception{err: err}
}

// NewExceptionf is NewException with the ability to format a message.
func NewExceptionf(msg string, args ...any) error {
	return NewException(fmt.Errorf(msg, args...))
}

// IsException returns true if err, or any error in its chain, is an exception.
func IsException(err error) bool {
	var e exception
	return errors.As(err, &e)
}
