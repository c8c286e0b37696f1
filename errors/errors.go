package errors

import (
	stderrors "errors"
	"fmt"
	"syscall"

	"github.com/hashicorp/go-multierror"
)

// DriverError is a wrapper around system errno codes, with a customizable error message.
type DriverError interface {
	error
	Errno() Errno
	Unwrap() error
	// WithMessage returns a copy of the error with `message` appended to the
	// existing text. The errno is preserved.
	WithMessage(message string) DriverError
	// Wrap returns a copy of the error that also matches `err` under errors.Is
	// and errors.As.
	Wrap(err error) DriverError
}

type driverError struct {
	errno         Errno
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e driverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return StrError(e.errno)
}

func (e driverError) Errno() Errno {
	return e.errno
}

func (e driverError) Unwrap() error {
	return e.originalError
}

// Is reports whether `target` is a DriverError with the same errno, so that
// errors.Is(err, ErrNotFound) holds for every ENOENT no matter its message.
// Host errno values and the io/fs sentinels (fs.ErrNotExist and friends) match
// too.
func (e driverError) Is(target error) bool {
	switch other := target.(type) {
	case DriverError:
		return other.Errno() == e.errno
	case syscall.Errno:
		return e.errno.Syscall() == other
	default:
		return e.errno.Syscall().Is(target)
	}
}

func (e driverError) WithMessage(message string) DriverError {
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e.originalError,
	}
}

func (e driverError) Wrap(err error) DriverError {
	if err == nil {
		return e
	}
	return driverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e.originalError, err),
	}
}

// New creates a new [DriverError] with a default message derived from the
// system's error code.
func New(errnoCode Errno) DriverError {
	return driverError{
		errno:   errnoCode,
		message: StrError(errnoCode),
	}
}

func NewFromError(errnoCode Errno, originalError error) DriverError {
	return New(errnoCode).Wrap(originalError)
}

// NewWithMessage creates a new DriverError from a system error code with a
// custom message.
func NewWithMessage(errnoCode Errno, message string) DriverError {
	return driverError{
		errno:   errnoCode,
		message: fmt.Sprintf("%s: %s", StrError(errnoCode), message),
	}
}

// ErrnoOf extracts the errno from anywhere in err's chain. Errors that didn't
// come from this package report EIO.
func ErrnoOf(err error) Errno {
	if err == nil {
		return EOK
	}
	var drvErr DriverError
	if stderrors.As(err, &drvErr) {
		return drvErr.Errno()
	}
	return EIO
}

// FromHostError converts an error from the operating system, such as the
// [*fs.PathError] returned by os.Open, into a DriverError with the matching
// errno. Errors that don't carry an errno become EIO. `err` is wrapped so it
// still matches under errors.Is and errors.As.
func FromHostError(err error) DriverError {
	var hostCode syscall.Errno
	if stderrors.As(err, &hostCode) {
		return New(ErrnoFromSyscall(hostCode)).Wrap(err)
	}
	return ErrIOFailed.Wrap(err)
}
