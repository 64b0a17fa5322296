//go:build !windows

package layers

import (
	"golang.org/x/sys/unix"
)

// listXattrNames returns the extended attribute names set on path.
func listXattrNames(path string) ([]string, error) {
	size, err := unix.Llistxattr(path, nil)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := unix.Llistxattr(path, buf)
	if err != nil {
		return nil, err
	}
	return splitXattrNames(buf[:n]), nil
}

// getXattr returns the raw value of the named extended attribute on path.
func getXattr(path, name string) ([]byte, error) {
	size, err := unix.Lgetxattr(path, name, nil)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := unix.Lgetxattr(path, name, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// isXattrMissing reports whether err indicates the attribute simply isn't
// set on this file, as opposed to a real I/O failure. ENODATA is Linux's
// errno for "no such attribute", the primary POSIX target alongside the
// Windows stub in xattr_windows.go.
func isXattrMissing(err error) bool {
	return err == unix.ENODATA
}

// splitXattrNames splits the NUL-separated name list Llistxattr returns.
func splitXattrNames(buf []byte) []string {
	var names []string
	start := 0
	for i, b := range buf {
		if b == 0 {
			if i > start {
				names = append(names, string(buf[start:i]))
			}
			start = i + 1
		}
	}
	return names
}
