// Package wiring assembles the components (pattern matcher, rule engine,
// cache, scanner, virtual layers, transform pipeline, kernel callback
// handler) into a running mount from a loaded configuration record (C10).
package wiring

import (
	"fmt"
	"time"

	"github.com/andronics/shadowfs/pkg/shadowfs/cache"
	"github.com/andronics/shadowfs/pkg/shadowfs/config"
	"github.com/andronics/shadowfs/pkg/shadowfs/fskernel"
	"github.com/andronics/shadowfs/pkg/shadowfs/layers"
	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
	"github.com/andronics/shadowfs/pkg/shadowfs/pattern"
	"github.com/andronics/shadowfs/pkg/shadowfs/rules"
	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
	"github.com/andronics/shadowfs/pkg/shadowfs/transform"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Mount bundles every wired component so a caller can start serving,
// rescan, or reload configuration without reaching back into private
// wiring state.
type Mount struct {
	Config   *config.Config
	Manager  *layers.Manager
	Engine   *rules.Engine
	Pipeline *transform.Pipeline
	Cache    *cache.Cache
	Handler  *fskernel.Handler
	Logger   *logging.Logger

	mountpoint string
	server     *fuse.Server
}

// Serve mounts the filesystem at mountpoint and blocks until it is
// unmounted (by the kernel, by a signal handler calling Unmount, or by the
// user running `fusermount -u`).
func (m *Mount) Serve(mountpoint string) error {
	server, err := fskernel.Mount(mountpoint, m.Handler, m.Config.AllowOther)
	if err != nil {
		return fmt.Errorf("mounting at %q: %w", mountpoint, err)
	}
	m.mountpoint = mountpoint
	m.server = server
	server.Wait()
	return nil
}

// Unmount tears down an active mount started by Serve.
func (m *Mount) Unmount() error {
	if m.server == nil {
		return fmt.Errorf("not mounted")
	}
	return m.server.Unmount()
}

// Build constructs every component in dependency order from cfg: pattern
// matching is implicit in the rule engine and layers, so construction order
// is cache, rule engine, scanner sources, virtual layers, transform
// pipeline, then the kernel callback handler.
func Build(cfg *config.Config, logger *logging.Logger) (*Mount, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := buildCache(cfg.Cache, logger)

	engine, err := buildRuleEngine(cfg.Rules, logger)
	if err != nil {
		return nil, fmt.Errorf("building rule engine: %w", err)
	}

	manager := layers.NewManager(logger)
	for _, src := range cfg.Sources {
		if err := manager.AddSource(scan.Entry{Root: src.Path, Priority: src.Priority, ReadOnly: src.ReadOnly}); err != nil {
			return nil, fmt.Errorf("adding source %q: %w", src.Path, err)
		}
	}
	for _, lc := range cfg.VirtualLayers {
		if !lc.LayerEnabled() {
			continue
		}
		layer, err := buildLayer(lc)
		if err != nil {
			return nil, fmt.Errorf("building virtual layer %q: %w", lc.Name, err)
		}
		if err := manager.AddLayer(layer); err != nil {
			return nil, fmt.Errorf("registering virtual layer %q: %w", lc.Name, err)
		}
	}
	if err := manager.Scan(); err != nil {
		return nil, fmt.Errorf("scanning sources: %w", err)
	}
	manager.RebuildIndexes()

	steps, err := buildTransformSteps(cfg.Transforms)
	if err != nil {
		return nil, fmt.Errorf("building transform pipeline: %w", err)
	}
	pipeline := transform.New(transform.Config{Cache: c, CacheTier: cache.L3, Cacheable: cfg.Cache.Enabled}, logger)
	pipeline.SetSteps(steps)

	handler := fskernel.New(cfg, manager, engine, pipeline, c, logger)

	return &Mount{
		Config:   cfg,
		Manager:  manager,
		Engine:   engine,
		Pipeline: pipeline,
		Cache:    c,
		Handler:  handler,
		Logger:   logger,
	}, nil
}

func buildCache(cc config.CacheConfig, logger *logging.Logger) *cache.Cache {
	if !cc.Enabled {
		return cache.New(cache.Config{}, logger)
	}
	maxBytes := int64(cc.MaxSizeMB * 1024 * 1024)
	ttl := time.Duration(cc.TTLSeconds) * time.Second
	tier := cache.TierConfig{MaxEntries: 100000, MaxBytes: maxBytes, DefaultTTL: ttl, Enabled: true}
	return cache.New(cache.Config{L1: tier, L2: tier, L3: tier}, logger)
}

// Reload rebuilds the scan snapshot and virtual layer indexes, and swaps in
// a freshly loaded configuration's rules and transforms, without tearing
// down the FUSE mount. It is the target of the control interface's
// `/config/reload` endpoint.
func (m *Mount) Reload(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	newRules := make([]rules.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		r, err := RuleFromConfig(rc)
		if err != nil {
			return fmt.Errorf("rule %q: %w", rc.Name, err)
		}
		newRules = append(newRules, r)
	}
	if err := m.Engine.ReplaceAll(newRules, rules.Include); err != nil {
		return fmt.Errorf("building rule engine: %w", err)
	}

	steps, err := buildTransformSteps(cfg.Transforms)
	if err != nil {
		return fmt.Errorf("building transform pipeline: %w", err)
	}
	m.Pipeline.SetSteps(steps)
	m.Cache.Clear("")
	if err := m.Manager.Scan(); err != nil {
		return fmt.Errorf("rescanning sources: %w", err)
	}
	m.Manager.RebuildIndexes()
	return nil
}

// RuleFromConfig converts one rule record into the engine's representation,
// grounded on the capitalized-enum convention config.Validate enforces
// (action "Include"/"Exclude", dialect "Glob"/"Regex", combinator
// "All"/"Any"/"None").
func RuleFromConfig(rc config.RuleConfig) (rules.Rule, error) {
	action := rules.Include
	if rc.Action == "Exclude" {
		action = rules.Exclude
	}

	dialect := pattern.Glob
	if rc.Dialect == "Regex" {
		dialect = pattern.Regex
	}

	combinator := rules.CombinatorAll
	switch rc.Combinator {
	case "Any":
		combinator = rules.CombinatorAny
	case "None":
		combinator = rules.CombinatorNone
	}

	conditions := make([]rules.Condition, len(rc.Conditions))
	for i, cc := range rc.Conditions {
		conditions[i] = rules.Condition{
			Attribute:  rules.Attribute(cc.Attribute),
			Comparator: rules.Comparator(cc.Comparator),
			Target:     cc.Target,
		}
	}

	return rules.Rule{
		Name:       rc.Name,
		Action:     action,
		Patterns:   rc.Patterns,
		Dialect:    dialect,
		Conditions: conditions,
		Combinator: combinator,
		Priority:   rc.Priority,
		Enabled:    rc.RuleEnabled(),
	}, nil
}

func buildRuleEngine(ruleConfigs []config.RuleConfig, logger *logging.Logger) (*rules.Engine, error) {
	engine := rules.NewEngine(rules.Include, logger)
	for _, rc := range ruleConfigs {
		r, err := RuleFromConfig(rc)
		if err != nil {
			return nil, err
		}
		if err := engine.Add(r); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rc.Name, err)
		}
	}
	return engine, nil
}
