//go:build windows

package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mutagen-io/extstat"
)

// statFile stats path on Windows, where ctime in the POSIX sense doesn't
// exist; extstat's creation time is used as the closest available analog,
// following the same per-platform substitution the project's scanner makes
// everywhere else a POSIX concept has no exact Windows equivalent.
func statFile(path string) (size int64, mode ModeBits, mtime, ctime, atime Timestamp, err error) {
	info, statErr := os.Lstat(path)
	if statErr != nil {
		err = statErr
		return
	}
	size = info.Size()
	mode = ModeBits{
		Permissions: info.Mode() & os.ModePerm,
		IsDir:       info.IsDir(),
		IsSymlink:   info.Mode()&os.ModeSymlink != 0,
	}
	mtime = Timestamp{Seconds: info.ModTime().Unix(), Nanoseconds: int64(info.ModTime().Nanosecond())}
	atime = mtime
	ctime = mtime

	ext, extErr := extstat.New(path)
	if extErr == nil {
		atime = Timestamp{Seconds: ext.AccessTime.Unix(), Nanoseconds: int64(ext.AccessTime.Nanosecond())}
		ctime = Timestamp{Seconds: ext.CreationTime.Unix(), Nanoseconds: int64(ext.CreationTime.Nanosecond())}
	}
	return
}

func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
