// Package layers implements the virtual organizational layers (C5) and the
// layer manager that owns them (C6): per-layer index construction, path
// resolution, and directory listing over a snapshot of scanned files.
package layers

import "github.com/andronics/shadowfs/pkg/shadowfs/scan"

// Layer is the common contract every layer variant satisfies (spec.md
// §4.5). Implementations are expected to be safe for concurrent Resolve/List
// calls, including while BuildIndex runs: Manager.RebuildIndexes calls
// BuildIndex without holding the manager's lock, so each built-in layer
// swaps in its new index under its own lock.
type Layer interface {
	// Name returns the layer's unique name.
	Name() string
	// BuildIndex consumes a file snapshot and (re)populates the layer's
	// internal index. It is idempotent: a later call fully replaces any
	// prior index.
	BuildIndex(files []scan.FileRecord)
	// Resolve maps a layer-relative sub-path (the segment(s) after the
	// layer name) to a backing path.
	Resolve(subPath string) (string, bool)
	// List enumerates the names at subPath's level of the layer's virtual
	// tree. An empty subPath returns the top level. Results are sorted
	// lexicographically ascending.
	List(subPath string) []string
}

// splitPath splits a layer-relative sub-path into its '/'-separated
// components, dropping empty leading/trailing segments so that "",  "/",
// "a/", and "a" all behave consistently.
func splitPath(subPath string) []string {
	if subPath == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i <= len(subPath); i++ {
		if i == len(subPath) || subPath[i] == '/' {
			if i > start {
				parts = append(parts, subPath[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
