package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names one of the structured document formats ConvertTransform can
// read or write.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func unmarshalAs(f Format, data []byte, out interface{}) error {
	switch f {
	case FormatJSON:
		return json.Unmarshal(data, out)
	case FormatYAML:
		return yaml.Unmarshal(data, out)
	case FormatTOML:
		return toml.Unmarshal(data, out)
	default:
		return fmt.Errorf("convert: unknown source format %q", f)
	}
}

func marshalAs(f Format, in interface{}) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(in, "", "  ")
	case FormatYAML:
		return yaml.Marshal(in)
	case FormatTOML:
		return toml.Marshal(in)
	default:
		return nil, fmt.Errorf("convert: unknown target format %q", f)
	}
}

// ConvertTransform parses its input as From and re-serializes it as To,
// covering the "convert" variant named by spec.md §4.7/§6. Grounded on the
// pack's document-format stack: gopkg.in/yaml.v3 and
// github.com/pelletier/go-toml/v2 (both already load the configuration
// record), plus the standard library's encoding/json for the third corner.
type ConvertTransform struct {
	base
	From, To Format
}

// NewConvertTransform constructs a convert transform matching globPattern
// ("" matches every path).
func NewConvertTransform(name string, enabled bool, globPattern string, from, to Format) (*ConvertTransform, error) {
	b, err := newBase(name, enabled, globPattern)
	if err != nil {
		return nil, err
	}
	return &ConvertTransform{base: b, From: from, To: to}, nil
}

func (c *ConvertTransform) Apply(_ context.Context, input []byte, _ string, _ Meta) ([]byte, error) {
	var doc interface{}
	if err := unmarshalAs(c.From, input, &doc); err != nil {
		return nil, fmt.Errorf("convert %s: decode %s: %w", c.name, c.From, err)
	}
	doc = normalizeForMarshal(doc)
	out, err := marshalAs(c.To, doc)
	if err != nil {
		return nil, fmt.Errorf("convert %s: encode %s: %w", c.name, c.To, err)
	}
	return out, nil
}

// normalizeForMarshal recursively converts map[interface{}]interface{}
// (what yaml.v3 produces for nested maps) into map[string]interface{}, so
// that json and toml marshaling of a yaml-sourced document doesn't choke on
// non-string keys.
func normalizeForMarshal(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = normalizeForMarshal(vv)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[fmt.Sprintf("%v", k)] = normalizeForMarshal(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = normalizeForMarshal(vv)
		}
		return out
	default:
		return val
	}
}
