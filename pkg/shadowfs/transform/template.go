package transform

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// TemplateTransform renders its input bytes as a Go text/template, supplying
// the file's path and metadata as the template's data context. It is
// grounded in the "template expansion" variant named by spec.md §4.7/§6.
type TemplateTransform struct {
	base
	funcs template.FuncMap
}

// templateData is the context made available to a template under ".".
type templateData struct {
	Path      string
	Size      int64
	Extension string
	ModTime   time.Time
}

// NewTemplateTransform constructs a template transform matching globPattern
// ("" matches every path). funcs may be nil; it is merged with a small
// built-in set (upper, lower).
func NewTemplateTransform(name string, enabled bool, globPattern string, funcs template.FuncMap) (*TemplateTransform, error) {
	b, err := newBase(name, enabled, globPattern)
	if err != nil {
		return nil, err
	}
	merged := template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
	for k, v := range funcs {
		merged[k] = v
	}
	return &TemplateTransform{base: b, funcs: merged}, nil
}

func (t *TemplateTransform) Apply(_ context.Context, input []byte, path string, meta Meta) ([]byte, error) {
	tmpl, err := template.New(t.name).Funcs(t.funcs).Parse(string(input))
	if err != nil {
		return nil, fmt.Errorf("template %s: parse: %w", t.name, err)
	}

	data := templateData{
		Path:      path,
		Size:      meta.Size,
		Extension: meta.Extension,
		ModTime:   time.Unix(meta.ModTimeSeconds, 0).UTC(),
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("template %s: execute: %w", t.name, err)
	}
	return out.Bytes(), nil
}
