//go:build !windows

package scan

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

func extractTimestamps(metadata *unix.Stat_t) (mtime, ctime, atime Timestamp) {
	mtime = Timestamp{Seconds: int64(metadata.Mtim.Sec), Nanoseconds: int64(metadata.Mtim.Nsec)}
	ctime = Timestamp{Seconds: int64(metadata.Ctim.Sec), Nanoseconds: int64(metadata.Ctim.Nsec)}
	atime = Timestamp{Seconds: int64(metadata.Atim.Sec), Nanoseconds: int64(metadata.Atim.Nsec)}
	return
}

// statFile stats path (without following a terminal symlink) and returns the
// information required to populate a FileRecord. isSymlink is reported based
// on the entry's own mode bits, not the mode of whatever it may point to.
func statFile(path string) (size int64, mode ModeBits, mtime, ctime, atime Timestamp, err error) {
	var raw unix.Stat_t
	if err = unix.Lstat(path, &raw); err != nil {
		return
	}
	size = raw.Size
	mtime, ctime, atime = extractTimestamps(&raw)
	mode = ModeBits{
		Permissions: os.FileMode(raw.Mode) & os.ModePerm,
		IsDir:       raw.Mode&unix.S_IFMT == unix.S_IFDIR,
		IsSymlink:   raw.Mode&unix.S_IFMT == unix.S_IFLNK,
	}
	return
}

// extension returns the lowercased, dot-stripped extension of name, or "".
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
