package scan

// Entry describes one configured source tree. Its lifetime is the process:
// sources are added once at wiring time and not removed at runtime in this
// core (layer manager's AddSource only grows the list).
type Entry struct {
	// Root is the absolute path of the source tree.
	Root string
	// Priority orders sources when the same virtual path could resolve
	// against more than one; lower priority values win.
	Priority int
	// ReadOnly marks this specific source as non-writable even if the
	// filesystem as a whole is writable.
	ReadOnly bool
}
