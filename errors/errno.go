// This is a compatibility shim for POSIX-defined errno codes across platforms.
// The syscall package doesn't define all the values we need on all systems,
// particularly things like EUCLEAN.

package errors

import (
	"fmt"
	"syscall"
)

type Errno int

const (
	EOK Errno = iota
	EPERM
	ENOENT
	EIO
	EBADF
	EACCES
	EBUSY
	EEXIST
	ENOTDIR
	EISDIR
	EINVAL
	EFBIG
	ENOSPC
	EROFS
	EDOM
	ERANGE
	ENAMETOOLONG
	ENOSYS
	ENOTEMPTY
	ELOOP
	ENOTSUP
	EALREADY
	EUCLEAN
	EMEDIUMTYPE
)

// The error kinds a FAT12 volume can produce. Each one is a distinct errno so
// that callers can match on them with errors.Is regardless of the message.
var (
	ErrInvalidFormat      = New(EUCLEAN)
	ErrIOFailed           = New(EIO)
	ErrOutOfRange         = New(ERANGE)
	ErrNotFound           = New(ENOENT)
	ErrNotADirectory      = New(ENOTDIR)
	ErrIsADirectory       = New(EISDIR)
	ErrInvalidArgument    = New(EINVAL)
	ErrReadOnlyFileSystem = New(EROFS)
	ErrNotPermitted       = New(EPERM)
	ErrPermissionDenied   = New(EACCES)
	ErrNotSupported       = New(ENOTSUP)
	ErrAlreadyInProgress  = New(EALREADY)
	ErrBusy               = New(EBUSY)
	ErrWrongMediumType    = New(EMEDIUMTYPE)
	ErrBadFileDescriptor  = New(EBADF)
)

var errorMessagesByCode = map[Errno]string{
	EPERM:        "Operation not permitted",
	ENOENT:       "No such file or directory",
	EIO:          "Input/output error",
	EBADF:        "Bad file descriptor",
	EACCES:       "Permission denied",
	EBUSY:        "Device or resource busy",
	EEXIST:       "File exists",
	ENOTDIR:      "Not a directory",
	EISDIR:       "Is a directory",
	EINVAL:       "Invalid argument",
	EFBIG:        "File too large",
	ENOSPC:       "No space left on device",
	EROFS:        "Read-only file system",
	EDOM:         "Numerical argument out of domain",
	ERANGE:       "Numerical result out of range",
	ENAMETOOLONG: "File name too long",
	ENOSYS:       "Function not implemented",
	ENOTEMPTY:    "Directory not empty",
	ELOOP:        "Too many levels of symbolic links",
	ENOTSUP:      "Operation not supported",
	EALREADY:     "Operation already in progress",
	EUCLEAN:      "Structure needs cleaning",
	EMEDIUMTYPE:  "Wrong medium type",
}

func StrError(code Errno) string {
	message, ok := errorMessagesByCode[code]
	if ok {
		return message
	}
	return fmt.Sprintf("error %d not recognized.", int(code))
}

// Syscall converts the code to the host's errno value, for handing back to a
// kernel-facing layer such as FUSE. Codes the host doesn't define everywhere
// (EUCLEAN, EMEDIUMTYPE) degrade to EIO.
func (code Errno) Syscall() syscall.Errno {
	switch code {
	case EOK:
		return 0
	case EPERM:
		return syscall.EPERM
	case ENOENT:
		return syscall.ENOENT
	case EBADF:
		return syscall.EBADF
	case EACCES:
		return syscall.EACCES
	case EBUSY:
		return syscall.EBUSY
	case EEXIST:
		return syscall.EEXIST
	case ENOTDIR:
		return syscall.ENOTDIR
	case EISDIR:
		return syscall.EISDIR
	case EINVAL:
		return syscall.EINVAL
	case EFBIG:
		return syscall.EFBIG
	case ENOSPC:
		return syscall.ENOSPC
	case EROFS:
		return syscall.EROFS
	case EDOM:
		return syscall.EDOM
	case ERANGE:
		return syscall.ERANGE
	case ENAMETOOLONG:
		return syscall.ENAMETOOLONG
	case ENOSYS:
		return syscall.ENOSYS
	case ENOTEMPTY:
		return syscall.ENOTEMPTY
	case ELOOP:
		return syscall.ELOOP
	case ENOTSUP:
		return syscall.ENOTSUP
	case EALREADY:
		return syscall.EALREADY
	default:
		return syscall.EIO
	}
}

// ErrnoFromSyscall is the reverse of [Errno.Syscall]. Host codes with no
// equivalent here become EIO.
func ErrnoFromSyscall(hostCode syscall.Errno) Errno {
	for code := EPERM; code <= EMEDIUMTYPE; code++ {
		if code.Syscall() == hostCode {
			return code
		}
	}
	return EIO
}
