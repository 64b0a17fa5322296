//go:build linux

package fskernel

import (
	"golang.org/x/sys/unix"
)

// statAttributes stats backing (without following a terminal symlink) and
// fills an Attributes record with the three POSIX timestamps, link count,
// and ownership.
func statAttributes(backing string) (Attributes, error) {
	var raw unix.Stat_t
	if err := unix.Lstat(backing, &raw); err != nil {
		return Attributes{}, err
	}
	mode := raw.Mode
	return Attributes{
		Mode:              uint32(mode),
		IsDir:             mode&unix.S_IFMT == unix.S_IFDIR,
		IsSymlink:         mode&unix.S_IFMT == unix.S_IFLNK,
		NLink:             uint32(raw.Nlink),
		Size:              raw.Size,
		ModTimeSeconds:    int64(raw.Mtim.Sec),
		ModTimeNanos:      int64(raw.Mtim.Nsec),
		ChangeTimeSeconds: int64(raw.Ctim.Sec),
		ChangeTimeNanos:   int64(raw.Ctim.Nsec),
		AccessTimeSeconds: int64(raw.Atim.Sec),
		AccessTimeNanos:   int64(raw.Atim.Nsec),
		UID:               raw.Uid,
		GID:               raw.Gid,
	}, nil
}

// statFilesystem queries the statvfs-equivalent for the filesystem backing
// root, used by "stat-filesystem".
func statFilesystem(root string) (FilesystemStats, error) {
	var raw unix.Statfs_t
	if err := unix.Statfs(root, &raw); err != nil {
		return FilesystemStats{}, err
	}
	return FilesystemStats{
		BlockSize:       uint32(raw.Bsize),
		TotalBlocks:     raw.Blocks,
		FreeBlocks:      raw.Bfree,
		AvailableBlocks: raw.Bavail,
		TotalFiles:      raw.Files,
		FreeFiles:       raw.Ffree,
		MaxNameLength:   uint32(raw.Namelen),
	}, nil
}
