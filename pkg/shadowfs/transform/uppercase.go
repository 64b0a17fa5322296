package transform

import (
	"bytes"
	"context"
)

// UppercaseTransform uppercases its input bytes verbatim. It exists mostly
// as the simplest possible built-in, useful for exercising the pipeline
// without pulling in a codec.
type UppercaseTransform struct {
	base
}

// NewUppercaseTransform constructs an uppercase transform matching
// globPattern ("" matches every path).
func NewUppercaseTransform(name string, enabled bool, globPattern string) (*UppercaseTransform, error) {
	b, err := newBase(name, enabled, globPattern)
	if err != nil {
		return nil, err
	}
	return &UppercaseTransform{base: b}, nil
}

func (u *UppercaseTransform) Apply(_ context.Context, input []byte, _ string, _ Meta) ([]byte, error) {
	return bytes.ToUpper(input), nil
}
