package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Default returns the configuration record's zero-state defaults, merged
// under whatever a caller loads from disk.
func Default() Config {
	return Config{
		Version:  "1.0",
		ReadOnly: false,
		Cache: CacheConfig{
			Enabled:        true,
			MaxSizeMB:      256,
			TTLSeconds:     300,
			EvictionPolicy: "lru",
		},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: false, Port: 9480},
	}
}

// Load reads a configuration file, detecting its format from its
// extension (.yaml/.yml, .toml, .json/.jsonc), merges it over Default(),
// applies the SHADOWFS_* environment overrides (after loading a sibling
// .env file, if present, via godotenv), and validates the result. ${VAR}
// references inside the file are not expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	loaded, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg := Default()
	if err := mergo.Merge(&cfg, loaded, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merge defaults: %w", err)
	}

	applyEnvOverlay(filepath.Dir(path), &cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func decode(path string, data []byte) (Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	case ".json", ".jsonc":
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, err
		}
		if err := json.Unmarshal(standardized, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unrecognized configuration extension %q", filepath.Ext(path))
	}
	return cfg, nil
}

// applyEnvOverlay loads a ".env" file next to the configuration (if any)
// into the process environment, then overrides a small set of
// operationally-relevant fields from recognized SHADOWFS_* variables. Env
// values always win over file-sourced ones.
func applyEnvOverlay(dir string, cfg *Config) {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		_ = godotenv.Load(envPath)
	}

	if level := os.Getenv("SHADOWFS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if ro := os.Getenv("SHADOWFS_READONLY"); ro != "" {
		if v, err := strconv.ParseBool(ro); err == nil {
			cfg.ReadOnly = v
		}
	}
	if port := os.Getenv("SHADOWFS_METRICS_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			cfg.Metrics.Port = v
		}
	}
}
