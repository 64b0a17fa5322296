// Package config loads and validates the configuration record (spec.md §6):
// sources, rules, transforms, virtual layers, cache limits, logging, and the
// metrics/control surface, from YAML, TOML, or HuJSON, merged with defaults
// and environment overrides.
package config

// SourceConfig is one entry of the sources list.
type SourceConfig struct {
	Path     string `yaml:"path" toml:"path" json:"path"`
	Priority int    `yaml:"priority" toml:"priority" json:"priority"`
	ReadOnly bool   `yaml:"readonly" toml:"readonly" json:"readonly"`
}

// ConditionConfig is one attribute condition within a rule.
type ConditionConfig struct {
	Attribute  string `yaml:"attribute" toml:"attribute" json:"attribute"`
	Comparator string `yaml:"comparator" toml:"comparator" json:"comparator"`
	Target     string `yaml:"target" toml:"target" json:"target"`
}

// RuleConfig is one rule record (spec.md §3).
type RuleConfig struct {
	Name       string            `yaml:"name" toml:"name" json:"name"`
	Action     string            `yaml:"action" toml:"action" json:"action"`
	Patterns   []string          `yaml:"patterns" toml:"patterns" json:"patterns"`
	Dialect    string            `yaml:"dialect" toml:"dialect" json:"dialect"`
	Conditions []ConditionConfig `yaml:"conditions" toml:"conditions" json:"conditions"`
	Combinator string            `yaml:"combinator" toml:"combinator" json:"combinator"`
	Priority   int               `yaml:"priority" toml:"priority" json:"priority"`
	Enabled    *bool             `yaml:"enabled" toml:"enabled" json:"enabled"`
}

// TransformConfig is one `{name, type, pattern, ...}` transform entry.
type TransformConfig struct {
	Name    string                 `yaml:"name" toml:"name" json:"name"`
	Type    string                 `yaml:"type" toml:"type" json:"type"`
	Pattern string                 `yaml:"pattern" toml:"pattern" json:"pattern"`
	Enabled *bool                  `yaml:"enabled" toml:"enabled" json:"enabled"`
	Options map[string]interface{} `yaml:"options" toml:"options" json:"options"`
}

// LayerConfig is one `{name, type, enabled, ...}` virtual layer entry.
type LayerConfig struct {
	Name    string                 `yaml:"name" toml:"name" json:"name"`
	Type    string                 `yaml:"type" toml:"type" json:"type"`
	Enabled *bool                  `yaml:"enabled" toml:"enabled" json:"enabled"`
	Options map[string]interface{} `yaml:"options" toml:"options" json:"options"`
}

// CacheConfig is the top-level cache sizing block.
type CacheConfig struct {
	Enabled        bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	MaxSizeMB      float64 `yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb"`
	TTLSeconds     float64 `yaml:"ttl_seconds" toml:"ttl_seconds" json:"ttl_seconds"`
	EvictionPolicy string  `yaml:"eviction_policy" toml:"eviction_policy" json:"eviction_policy"`
}

// LoggingConfig controls the logging sink.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
	File  string `yaml:"file" toml:"file" json:"file"`
}

// MetricsConfig controls the optional metrics/control listener.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" toml:"port" json:"port"`
}

// Config is the canonical configuration record (spec.md §6).
type Config struct {
	Version      string            `yaml:"version" toml:"version" json:"version"`
	Sources      []SourceConfig    `yaml:"sources" toml:"sources" json:"sources"`
	ReadOnly     bool              `yaml:"readonly" toml:"readonly" json:"readonly"`
	AllowOther   bool              `yaml:"allow_other" toml:"allow_other" json:"allow_other"`
	Rules        []RuleConfig      `yaml:"rules" toml:"rules" json:"rules"`
	Transforms   []TransformConfig `yaml:"transforms" toml:"transforms" json:"transforms"`
	VirtualLayers []LayerConfig    `yaml:"virtual_layers" toml:"virtual_layers" json:"virtual_layers"`
	Cache        CacheConfig       `yaml:"cache" toml:"cache" json:"cache"`
	Logging      LoggingConfig     `yaml:"logging" toml:"logging" json:"logging"`
	Metrics      MetricsConfig     `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// boolOrDefault reports an optional flag's effective value: the explicit
// value when present, or def when the field was omitted.
func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// RuleEnabled reports whether r is enabled, defaulting to true.
func (r RuleConfig) RuleEnabled() bool { return boolOrDefault(r.Enabled, true) }

// TransformEnabled reports whether t is enabled, defaulting to true.
func (t TransformConfig) TransformEnabled() bool { return boolOrDefault(t.Enabled, true) }

// LayerEnabled reports whether l is enabled, defaulting to true.
func (l LayerConfig) LayerEnabled() bool { return boolOrDefault(l.Enabled, true) }
