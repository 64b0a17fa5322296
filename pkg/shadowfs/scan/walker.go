package scan

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
)

// Scan walks every source tree in sources and returns the flat sequence of
// FileRecords produced. Sources are walked in the order given; files that
// cannot be stat'd (permission, race with a concurrent delete) are silently
// skipped rather than aborting the whole scan, per spec. Symbolic links are
// never followed into child directories — this falls out of using
// filepath.WalkDir, which reads directory entries without resolving
// symlinks and so never descends through one.
func Scan(sources []Entry, logger *logging.Logger) ([]FileRecord, error) {
	var records []FileRecord

	for _, source := range sources {
		root := filepath.Clean(source.Root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// The entry vanished or is unreadable mid-walk; skip it
				// rather than fail the whole scan.
				logger.Debug("skipping unreadable entry %s: %v", path, err)
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				// Determine whether the link's target is itself a
				// directory; only file-like targets are recorded.
				if targetIsDir(path) {
					return nil
				}
			}

			relative, relErr := filepath.Rel(root, path)
			if relErr != nil {
				logger.Debug("skipping entry outside its root %s: %v", path, relErr)
				return nil
			}

			size, mode, mtime, ctime, atime, statErr := statFile(path)
			if statErr != nil {
				logger.Debug("skipping entry that failed to stat %s: %v", path, statErr)
				return nil
			}
			if mode.IsDir {
				return nil
			}

			records = append(records, FileRecord{
				Name:             d.Name(),
				RelativePath:     filepath.ToSlash(relative),
				AbsolutePath:     path,
				SourceRoot:       root,
				Extension:        extension(d.Name()),
				Size:             size,
				ModificationTime: mtime,
				ChangeTime:       ctime,
				AccessTime:       atime,
				Mode:             mode,
			})
			return nil
		})
		if err != nil {
			logger.Warn("scan of source %s terminated early: %v", root, err)
		}
	}

	// Stable, deterministic ordering makes consecutive scans over unchanged
	// trees produce identical slices (spec.md invariant 3), independent of
	// directory-entry ordering guarantees on any given platform.
	sort.Slice(records, func(i, j int) bool {
		if records[i].SourceRoot != records[j].SourceRoot {
			return records[i].SourceRoot < records[j].SourceRoot
		}
		return records[i].RelativePath < records[j].RelativePath
	})

	return records, nil
}
