// Package scan walks configured source trees and produces immutable
// FileRecord snapshots. It is the sole producer of file metadata in
// shadowfs: virtual layers (pkg/shadowfs/layers) build their indexes from a
// FileRecord slice, and the rule engine's attribute conditions are
// evaluated against values derived from a FileRecord.
package scan

import "os"

// Timestamp is a seconds+nanoseconds pair, matching the precision most
// platforms expose for file times without forcing a dependency on
// time.Time's monotonic-reading semantics (which shouldn't leak into
// persisted or compared metadata).
type Timestamp struct {
	Seconds     int64
	Nanoseconds int64
}

// ModeBits mirrors the subset of os.FileMode information that classifiers,
// rules, and the kernel callback handler need, independent of the host
// platform's raw mode representation.
type ModeBits struct {
	Permissions os.FileMode // permission bits only (os.ModePerm masked)
	IsDir       bool
	IsSymlink   bool
}

// FileRecord is an immutable description of one regular file discovered by
// a scan. Records are never mutated after creation; a new scan produces an
// entirely new slice, and layers rebuild their indexes against the new
// slice rather than patch their old one.
type FileRecord struct {
	// Name is the file's base name (e.g. "report.pdf").
	Name string
	// RelativePath is the file's path below its owning source root, using
	// '/' separators regardless of host platform.
	RelativePath string
	// AbsolutePath is the absolute backing path on the host filesystem.
	AbsolutePath string
	// SourceRoot is the absolute path of the source root that produced this
	// record, used to determine read-only/priority policy.
	SourceRoot string
	// Extension is the lowercased extension without the leading dot, or ""
	// for an extensionless name.
	Extension string
	// Size is the file's size in bytes.
	Size int64
	// ModificationTime, ChangeTime, and AccessTime are the three POSIX-style
	// timestamps spec.md's data model requires.
	ModificationTime Timestamp
	ChangeTime       Timestamp
	AccessTime       Timestamp
	// Mode carries permission bits and the directory/symlink flags.
	Mode ModeBits
}
