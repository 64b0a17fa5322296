package scan

import "os"

// targetIsDir reports whether the symlink at path resolves to a directory.
// A broken link or a permission error is treated as "not a directory" so
// that the caller falls through to recording it as a file-like entry.
func targetIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
