// Package transform implements the C7 transform variants (template,
// compress, decompress, encrypt, decrypt, convert) and the C8 pipeline that
// chains them over a file's bytes on read.
package transform

import "context"

// Meta carries the subset of a file's attributes transforms are allowed to
// condition on, without pulling in the scan package's full FileRecord.
type Meta struct {
	Size             int64
	ModTimeSeconds   int64
	Extension        string
}

// Transform is one bytes-to-bytes rewrite step (spec.md §4.7): it advertises
// whether it applies to a given path/meta pair and, if so, rewrites bytes.
// A failed Apply is reported to the pipeline, never raised to its caller.
type Transform interface {
	// Name identifies the transform within a pipeline's fingerprint.
	Name() string
	// Enabled reports whether the pipeline should apply this transform at
	// all; disabled transforms are skipped without consulting Supports.
	Enabled() bool
	// Supports reports whether this transform applies to path/meta. The
	// zero-value default is "always supports"; built-in transforms
	// restrict by pattern.
	Supports(path string, meta Meta) bool
	// Apply rewrites input, returning the transformed bytes.
	Apply(ctx context.Context, input []byte, path string, meta Meta) ([]byte, error)
}
