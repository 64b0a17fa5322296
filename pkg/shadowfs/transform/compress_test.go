package transform

import (
	"bytes"
	"context"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	c, err := NewCompressTransform("gz", true, "", 0)
	if err != nil {
		t.Fatalf("NewCompressTransform: %v", err)
	}
	d, err := NewDecompressTransform("gunzip", true, "")
	if err != nil {
		t.Fatalf("NewDecompressTransform: %v", err)
	}

	input := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly")
	compressed, err := c.Apply(context.Background(), input, "/f.txt", Meta{})
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if bytes.Equal(compressed, input) {
		t.Fatalf("expected compressed output to differ from input")
	}

	decompressed, err := d.Apply(context.Background(), compressed, "/f.txt", Meta{})
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(decompressed, input) {
		t.Fatalf("expected round trip to recover original input, got %q", decompressed)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	d, _ := NewDecompressTransform("gunzip", true, "")
	if _, err := d.Apply(context.Background(), []byte("not gzip"), "/f.txt", Meta{}); err == nil {
		t.Fatalf("expected an error decompressing non-gzip input")
	}
}
