package fskernel

import (
	"errors"
	"io/fs"
	"syscall"
)

// classifyOSError maps a backing-filesystem error onto the kernel callback
// taxonomy, matching the original's practice of passing e.errno straight
// through instead of collapsing every failure to a generic one. Falls back
// to Internal for anything it doesn't recognize.
func classifyOSError(err error) Code {
	if err == nil {
		return OK
	}
	// syscall.Errno reports ENOTEMPTY as fs.ErrExist, so it is checked first.
	if errors.Is(err, syscall.ENOTEMPTY) {
		return NotEmpty
	}
	if errors.Is(err, fs.ErrNotExist) {
		return NotFound
	}
	if errors.Is(err, fs.ErrExist) {
		return Exists
	}
	if errors.Is(err, fs.ErrPermission) {
		return NoPermission
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOTEMPTY:
			return NotEmpty
		case syscall.ENOTDIR:
			return NotDirectory
		case syscall.EISDIR:
			return NotDirectory
		case syscall.EEXIST:
			return Exists
		case syscall.ENOENT:
			return NotFound
		case syscall.EACCES, syscall.EPERM:
			return NoPermission
		case syscall.EROFS:
			return ReadOnly
		case syscall.EINVAL:
			return InvalidInput
		}
	}
	return Internal
}

// osError wraps err as a kernel callback Error, classifying its Code from
// the underlying syscall/fs sentinel rather than always using Internal.
func osError(err error) *Error {
	return newError(classifyOSError(err), err.Error())
}
