package config

import "testing"

func validConfig() *Config {
	enabled := true
	cfg := Default()
	cfg.Sources = []SourceConfig{{Path: "/srv/data", Priority: 0}}
	cfg.Rules = []RuleConfig{{Name: "exclude-tmp", Action: "Exclude", Patterns: []string{"*.tmp"}, Priority: 100, Enabled: &enabled}}
	cfg.Transforms = []TransformConfig{{Name: "up", Type: "template", Pattern: "*.txt", Enabled: &enabled}}
	cfg.VirtualLayers = []LayerConfig{{Name: "by-type", Type: "classifier", Enabled: &enabled}}
	return &cfg
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid config to pass, got %v", err)
	}
}

func TestValidateRejectsBadVersion(t *testing.T) {
	cfg := validConfig()
	cfg.Version = "not-a-version"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected malformed version to be rejected")
	}
}

func TestValidateRejectsPathTraversal(t *testing.T) {
	cfg := validConfig()
	cfg.Sources[0].Path = "/srv/../etc"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected path traversal to be rejected")
	}
}

func TestValidateRejectsUnknownRuleAction(t *testing.T) {
	cfg := validConfig()
	cfg.Rules[0].Action = "Maybe"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown rule action to be rejected")
	}
}

func TestValidateRejectsRuleWithoutPatterns(t *testing.T) {
	cfg := validConfig()
	cfg.Rules[0].Patterns = nil
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected rule without patterns to be rejected")
	}
}

func TestValidateRejectsUnknownTransformType(t *testing.T) {
	cfg := validConfig()
	cfg.Transforms[0].Type = "rot13"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown transform type to be rejected")
	}
}

func TestValidateRejectsInvalidLayerName(t *testing.T) {
	cfg := validConfig()
	cfg.VirtualLayers[0].Name = "123-bad"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected layer name starting with a digit to be rejected")
	}
}

func TestValidateRejectsBadEvictionPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.EvictionPolicy = "random"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown eviction policy to be rejected")
	}
}

func TestValidateRejectsUnimplementedEvictionPolicies(t *testing.T) {
	for _, policy := range []string{"fifo", "lfu"} {
		cfg := validConfig()
		cfg.Cache.EvictionPolicy = policy
		if err := Validate(cfg); err == nil {
			t.Fatalf("expected eviction policy %q to be rejected as unimplemented", policy)
		}
	}
}

func TestValidateRejectsOutOfRangeMetricsPort(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected out-of-range port to be rejected")
	}
}
