//go:build !linux

package fskernel

import "os"

// statAttributes is the non-Linux fallback: it derives what os.Lstat
// exposes and substitutes the modification time for change and access
// time, the same per-platform substitution scan's non-POSIX stat path
// makes when a host doesn't expose one of the three POSIX timestamps.
func statAttributes(backing string) (Attributes, error) {
	info, err := os.Lstat(backing)
	if err != nil {
		return Attributes{}, err
	}
	mtime := info.ModTime()
	return Attributes{
		Mode:              uint32(info.Mode().Perm()),
		IsDir:             info.IsDir(),
		IsSymlink:         info.Mode()&os.ModeSymlink != 0,
		NLink:             1,
		Size:              info.Size(),
		ModTimeSeconds:    mtime.Unix(),
		ModTimeNanos:      int64(mtime.Nanosecond()),
		ChangeTimeSeconds: mtime.Unix(),
		ChangeTimeNanos:   int64(mtime.Nanosecond()),
		AccessTimeSeconds: mtime.Unix(),
		AccessTimeNanos:   int64(mtime.Nanosecond()),
		UID:               0,
		GID:               0,
	}, nil
}

// statFilesystem is the non-Linux fallback: without a portable statvfs,
// only the name length limit is reported with any confidence.
func statFilesystem(string) (FilesystemStats, error) {
	return FilesystemStats{
		BlockSize:     4096,
		MaxNameLength: 255,
	}, nil
}
