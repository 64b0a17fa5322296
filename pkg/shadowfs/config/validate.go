package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError is the Go counterpart of the original's ValidationError:
// a message plus the taxonomy code it maps to on the kernel boundary.
type ValidationError struct {
	Message string
	Code    string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Code: "InvalidInput"}
}

const maxPathLength = 4096

var layerNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

var validRuleActions = map[string]bool{"Include": true, "Exclude": true}
var validDialects = map[string]bool{"": true, "Glob": true, "Regex": true}
var validCombinators = map[string]bool{"": true, "All": true, "Any": true, "None": true}
var validTransformTypes = map[string]bool{
	"template": true, "compress": true, "decompress": true, "encrypt": true, "decrypt": true, "convert": true,
}
var validLayerTypes = map[string]bool{
	"classifier": true, "tag": true, "date": true, "hierarchical": true, "pattern": true, "computed": true,
}
// validEvictionPolicies is intentionally LRU-only: cache/tier.go's tier is
// built on groupcache/lru, which has no FIFO or LFU mode, so accepting
// those values here would validate a config that then silently behaves as
// LRU anyway. Reject them up front instead.
var validEvictionPolicies = map[string]bool{"lru": true}

// Validate checks a fully-merged configuration record against the field
// constraints it must satisfy before a mount can start, grounded on the
// original shadowfs/core/validators.py's rule set. It returns the first
// violation found.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg.Version); err != nil {
		return err
	}
	for i, src := range cfg.Sources {
		if err := validateSource(src); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	for i, rule := range cfg.Rules {
		if err := validateRule(rule); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	for i, tr := range cfg.Transforms {
		if err := validateTransform(tr); err != nil {
			return fmt.Errorf("transform %d: %w", i, err)
		}
	}
	for i, layer := range cfg.VirtualLayers {
		if err := validateLayer(layer); err != nil {
			return fmt.Errorf("virtual layer %d: %w", i, err)
		}
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validatePort(cfg.Metrics.Port); cfg.Metrics.Enabled && err != nil {
		return err
	}
	return nil
}

func validateVersion(version string) error {
	if version == "" {
		return invalid("version cannot be empty")
	}
	if !versionPattern.MatchString(version) {
		return invalid("invalid version format: %q, expected X.Y or X.Y.Z", version)
	}
	return nil
}

func validatePath(path string) error {
	if path == "" {
		return invalid("path cannot be empty")
	}
	if len(path) > maxPathLength {
		return invalid("path exceeds maximum length (%d)", maxPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return invalid("path contains null bytes")
	}
	if strings.Contains(path, "..") {
		return invalid("path traversal not allowed: %q", path)
	}
	return nil
}

func validateSource(src SourceConfig) error {
	if err := validatePath(src.Path); err != nil {
		return err
	}
	if src.Priority < 0 {
		return invalid("source priority must be non-negative, got %d", src.Priority)
	}
	return nil
}

func validatePattern(p string) error {
	if p == "" {
		return invalid("pattern cannot be empty")
	}
	if len(p) > maxPathLength {
		return invalid("pattern exceeds maximum length (%d)", maxPathLength)
	}
	if strings.ContainsRune(p, 0) {
		return invalid("pattern contains null bytes")
	}
	return nil
}

func validateRule(r RuleConfig) error {
	if !validRuleActions[r.Action] {
		return invalid("invalid rule action %q, must be Include or Exclude", r.Action)
	}
	if len(r.Patterns) == 0 {
		return invalid("rule %q must have at least one pattern", r.Name)
	}
	for _, p := range r.Patterns {
		if err := validatePattern(p); err != nil {
			return err
		}
	}
	if !validDialects[r.Dialect] {
		return invalid("invalid pattern dialect %q", r.Dialect)
	}
	if !validCombinators[r.Combinator] {
		return invalid("invalid condition combinator %q", r.Combinator)
	}
	return nil
}

func validateTransform(t TransformConfig) error {
	if !validTransformTypes[t.Type] {
		return invalid("invalid transform type %q", t.Type)
	}
	if err := validatePattern(t.Pattern); err != nil {
		return err
	}
	return nil
}

func validateLayer(l LayerConfig) error {
	if l.Name == "" {
		return invalid("virtual layer must have a name")
	}
	if !layerNamePattern.MatchString(l.Name) {
		return invalid("invalid virtual layer name %q: must start with a letter and contain only letters, digits, underscore, and hyphen", l.Name)
	}
	if len(l.Name) > 100 {
		return invalid("virtual layer name %q exceeds maximum length (100)", l.Name)
	}
	if !validLayerTypes[l.Type] {
		return invalid("invalid virtual layer type %q", l.Type)
	}
	return nil
}

func validateCache(c CacheConfig) error {
	if c.MaxSizeMB != 0 && c.MaxSizeMB <= 0 {
		return invalid("cache max_size_mb must be positive, got %v", c.MaxSizeMB)
	}
	if c.TTLSeconds != 0 && c.TTLSeconds <= 0 {
		return invalid("cache ttl_seconds must be positive, got %v", c.TTLSeconds)
	}
	if c.EvictionPolicy != "" && !validEvictionPolicies[c.EvictionPolicy] {
		return invalid("invalid cache eviction policy %q", c.EvictionPolicy)
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return invalid("port must be in range 1-65535, got %d", port)
	}
	return nil
}
