package cache

import (
	"testing"
	"time"
)

func testConfig() Config {
	tc := TierConfig{MaxEntries: 3, MaxBytes: 100, DefaultTTL: time.Hour, Enabled: true}
	return Config{L1: tc, L2: tc, L3: tc}
}

func TestGetMissThenSetThenHit(t *testing.T) {
	c := New(testConfig(), nil)

	if _, ok := c.Get(NamespacePath, "a", L1); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set(NamespacePath, "a", "backing/a", 10, L1)
	v, ok := c.Get(NamespacePath, "a", L1)
	if !ok || v != "backing/a" {
		t.Fatalf("expected hit with value backing/a, got %v, %v", v, ok)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	c := New(testConfig(), nil)
	c.Set(NamespacePath, "x", "path-value", 1, L1)
	c.Set(NamespaceAttr, "x", "attr-value", 1, L1)

	pv, _ := c.Get(NamespacePath, "x", L1)
	av, _ := c.Get(NamespaceAttr, "x", L1)
	if pv == av {
		t.Fatalf("expected distinct namespaces to store distinct values for the same key")
	}
}

func TestTTLExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.L1.DefaultTTL = time.Millisecond
	c := New(cfg, nil)

	c.Set(NamespaceAttr, "f", "stat", 1, L1)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(NamespaceAttr, "f", L1); ok {
		t.Fatalf("expected expired entry to be treated as absent")
	}
}

func TestMaxBytesEnforced(t *testing.T) {
	cfg := Config{L2: TierConfig{MaxEntries: 100, MaxBytes: 50, DefaultTTL: time.Hour, Enabled: true}}
	c := New(cfg, nil)

	for i := 0; i < 10; i++ {
		c.SetTTL(NamespaceContent, string(rune('a'+i)), "payload", 10, L2, 0)
	}

	stats := c.Stats()[L2]
	if stats.Bytes > 50 {
		t.Fatalf("expected bytes_in_tier <= max_bytes, got %d", stats.Bytes)
	}
}

func TestMaxEntriesEnforced(t *testing.T) {
	cfg := Config{L1: TierConfig{MaxEntries: 2, MaxBytes: 1_000_000, DefaultTTL: time.Hour, Enabled: true}}
	c := New(cfg, nil)

	c.Set(NamespacePath, "a", "1", 1, L1)
	c.Set(NamespacePath, "b", "2", 1, L1)
	c.Set(NamespacePath, "c", "3", 1, L1)

	stats := c.Stats()[L1]
	if stats.Entries > 2 {
		t.Fatalf("expected entries_in_tier <= max_entries, got %d", stats.Entries)
	}
	// "a" should have been evicted as least-recently-used.
	if _, ok := c.Get(NamespacePath, "a", L1); ok {
		t.Fatalf("expected oldest entry to have been evicted")
	}
}

func TestInvalidateAcrossTiers(t *testing.T) {
	c := New(testConfig(), nil)
	c.Set(NamespaceContent, "f", "v1", 1, L2)
	c.Invalidate(NamespaceContent, "f")

	if _, ok := c.Get(NamespaceContent, "f", L2); ok {
		t.Fatalf("expected invalidated entry to be absent")
	}
}

func TestClearSingleTierLeavesOthersIntact(t *testing.T) {
	c := New(testConfig(), nil)
	c.Set(NamespacePath, "a", "v", 1, L1)
	c.Set(NamespaceContent, "a", "v", 1, L2)

	c.Clear(L1)

	if _, ok := c.Get(NamespacePath, "a", L1); ok {
		t.Fatalf("expected L1 to be cleared")
	}
	if _, ok := c.Get(NamespaceContent, "a", L2); !ok {
		t.Fatalf("expected L2 to remain intact")
	}
}

func TestDisabledTierNeverCaches(t *testing.T) {
	cfg := Config{L3: TierConfig{MaxEntries: 10, MaxBytes: 1000, Enabled: false}}
	c := New(cfg, nil)
	c.Set(NamespaceTransform, "a", "v", 1, L3)

	if _, ok := c.Get(NamespaceTransform, "a", L3); ok {
		t.Fatalf("expected disabled tier not to retain entries")
	}
}
