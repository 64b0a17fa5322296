package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAMLMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadowfs.yaml")
	content := "version: \"1.0\"\nsources:\n  - path: /srv/data\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.MaxSizeMB != 256 {
		t.Fatalf("expected default cache size to survive the merge, got %v", cfg.Cache.MaxSizeMB)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Path != "/srv/data" {
		t.Fatalf("expected loaded source to be present, got %+v", cfg.Sources)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadowfs.toml")
	content := "version = \"1.0\"\n\n[[sources]]\npath = \"/srv/data\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) != 1 {
		t.Fatalf("expected one source, got %+v", cfg.Sources)
	}
}

func TestLoadJSONCWithComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadowfs.jsonc")
	content := "{\n  // a comment\n  \"version\": \"1.0\",\n  \"sources\": [{\"path\": \"/srv/data\"}]\n}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) != 1 {
		t.Fatalf("expected one source, got %+v", cfg.Sources)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadowfs.ini")
	if err := os.WriteFile(path, []byte("x=1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unrecognized extension to fail")
	}
}

func TestLoadEnvOverlayOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadowfs.yaml")
	content := "version: \"1.0\"\nsources:\n  - path: /srv/data\nlogging:\n  level: info\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SHADOWFS_LOG_LEVEL", "debug")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env override to win, got %q", cfg.Logging.Level)
	}
}

func TestLoadInvalidConfigurationFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadowfs.yaml")
	content := "version: \"bad-version\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected invalid version to fail validation")
	}
}
