package transform

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
)

// CompressTransform gzips its input. Grounded as the stdlib-only "compress"
// variant named by spec.md §4.7/§6; no third-party codec in the example
// corpus covers gzip specifically, and the standard library's is the one
// every Go program reaches for.
type CompressTransform struct {
	base
	level int
}

// NewCompressTransform constructs a compress transform matching globPattern
// ("" matches every path) at the given gzip compression level (use
// gzip.DefaultCompression for 0).
func NewCompressTransform(name string, enabled bool, globPattern string, level int) (*CompressTransform, error) {
	b, err := newBase(name, enabled, globPattern)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return &CompressTransform{base: b, level: level}, nil
}

func (c *CompressTransform) Apply(_ context.Context, input []byte, _ string, _ Meta) ([]byte, error) {
	var out bytes.Buffer
	w, err := gzip.NewWriterLevel(&out, c.level)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", c.name, err)
	}
	if _, err := w.Write(input); err != nil {
		return nil, fmt.Errorf("compress %s: write: %w", c.name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress %s: close: %w", c.name, err)
	}
	return out.Bytes(), nil
}

// DecompressTransform reverses CompressTransform.
type DecompressTransform struct {
	base
}

// NewDecompressTransform constructs a decompress transform matching
// globPattern ("" matches every path).
func NewDecompressTransform(name string, enabled bool, globPattern string) (*DecompressTransform, error) {
	b, err := newBase(name, enabled, globPattern)
	if err != nil {
		return nil, err
	}
	return &DecompressTransform{base: b}, nil
}

func (d *DecompressTransform) Apply(_ context.Context, input []byte, _ string, _ Meta) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", d.name, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: read: %w", d.name, err)
	}
	return out, nil
}
