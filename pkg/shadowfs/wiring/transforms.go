package wiring

import (
	"encoding/hex"
	"fmt"
	"text/template"

	"github.com/andronics/shadowfs/pkg/shadowfs/config"
	"github.com/andronics/shadowfs/pkg/shadowfs/transform"
)

// buildTransformSteps converts the configured transform list into pipeline
// steps, in the order they were declared; the pipeline applies them in that
// same order on every read.
func buildTransformSteps(transforms []config.TransformConfig) ([]transform.Step, error) {
	steps := make([]transform.Step, 0, len(transforms))
	for _, tc := range transforms {
		t, err := buildTransform(tc)
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", tc.Name, err)
		}
		steps = append(steps, transform.Step{
			Transform:   t,
			HaltOnError: optBool(tc.Options, "halt_on_error", false),
		})
	}
	return steps, nil
}

func buildTransform(tc config.TransformConfig) (transform.Transform, error) {
	enabled := tc.TransformEnabled()
	switch tc.Type {
	case "template":
		return transform.NewTemplateTransform(tc.Name, enabled, tc.Pattern, template.FuncMap(nil))
	case "compress":
		level := int(optFloat(tc.Options, "level", 6))
		return transform.NewCompressTransform(tc.Name, enabled, tc.Pattern, level)
	case "decompress":
		return transform.NewDecompressTransform(tc.Name, enabled, tc.Pattern)
	case "encrypt":
		key, err := transformKey(tc.Options)
		if err != nil {
			return nil, err
		}
		return transform.NewEncryptTransform(tc.Name, enabled, tc.Pattern, key)
	case "decrypt":
		key, err := transformKey(tc.Options)
		if err != nil {
			return nil, err
		}
		return transform.NewDecryptTransform(tc.Name, enabled, tc.Pattern, key)
	case "convert":
		from := transform.Format(optString(tc.Options, "from", "json"))
		to := transform.Format(optString(tc.Options, "to", "json"))
		return transform.NewConvertTransform(tc.Name, enabled, tc.Pattern, from, to)
	default:
		return nil, fmt.Errorf("unknown transform type %q", tc.Type)
	}
}

func transformKey(opts map[string]interface{}) ([]byte, error) {
	hexKey := optString(opts, "key", "")
	if hexKey == "" {
		return nil, fmt.Errorf("requires a hex-encoded 32-byte \"key\" option")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}
	return key, nil
}

func optString(opts map[string]interface{}, key, def string) string {
	if opts == nil {
		return def
	}
	if s, ok := opts[key].(string); ok {
		return s
	}
	return def
}

func optFloat(opts map[string]interface{}, key string, def float64) float64 {
	if opts == nil {
		return def
	}
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

func optBool(opts map[string]interface{}, key string, def bool) bool {
	if opts == nil {
		return def
	}
	if b, ok := opts[key].(bool); ok {
		return b
	}
	return def
}
