package transform

import (
	"context"
	"encoding/json"
	"testing"
)

func TestConvertYAMLToJSON(t *testing.T) {
	c, err := NewConvertTransform("y2j", true, "", FormatYAML, FormatJSON)
	if err != nil {
		t.Fatalf("NewConvertTransform: %v", err)
	}
	out, err := c.Apply(context.Background(), []byte("name: shadowfs\ncount: 3\n"), "/f.yaml", Meta{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("expected valid JSON output, got %q: %v", out, err)
	}
	if decoded["name"] != "shadowfs" {
		t.Fatalf("expected name=shadowfs, got %v", decoded["name"])
	}
}

func TestConvertTOMLToYAML(t *testing.T) {
	c, err := NewConvertTransform("t2y", true, "", FormatTOML, FormatYAML)
	if err != nil {
		t.Fatalf("NewConvertTransform: %v", err)
	}
	out, err := c.Apply(context.Background(), []byte("name = \"shadowfs\"\n"), "/f.toml", Meta{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty YAML output")
	}
}

func TestConvertRejectsMalformedSource(t *testing.T) {
	c, _ := NewConvertTransform("j2y", true, "", FormatJSON, FormatYAML)
	if _, err := c.Apply(context.Background(), []byte("{not json"), "/f.json", Meta{}); err == nil {
		t.Fatalf("expected an error decoding malformed JSON")
	}
}
