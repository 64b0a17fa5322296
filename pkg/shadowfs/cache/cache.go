package cache

import (
	"time"

	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
)

// Config configures all three tiers at once.
type Config struct {
	L1 TierConfig
	L2 TierConfig
	L3 TierConfig
}

// Cache is the multi-level cache (C3): three independently-locked LRU+TTL
// tiers. Callers name the tier explicitly on every operation, matching
// spec.md §4.3's public API shape.
type Cache struct {
	tiers map[Name]*tier
}

// New constructs a Cache with the given per-tier configuration.
func New(cfg Config, logger *logging.Logger) *Cache {
	sub := logger.Sublogger("cache")
	return &Cache{
		tiers: map[Name]*tier{
			L1: newTier(L1, cfg.L1, sub.Sublogger("l1")),
			L2: newTier(L2, cfg.L2, sub.Sublogger("l2")),
			L3: newTier(L3, cfg.L3, sub.Sublogger("l3")),
		},
	}
}

// Get looks up key within namespace in the given tier. A negative result
// (absence) is never itself cached, so a miss here is always authoritative
// for "not yet computed," not "computed and known absent."
func (c *Cache) Get(namespace Namespace, key string, tierName Name) (interface{}, bool) {
	t, ok := c.tiers[tierName]
	if !ok {
		return nil, false
	}
	return t.get(namespace, key)
}

// Set stores value under key within namespace in the given tier, with the
// given byte cost. ttl of zero uses the tier's configured default.
func (c *Cache) Set(namespace Namespace, key string, value interface{}, byteCost int64, tierName Name) {
	c.SetTTL(namespace, key, value, byteCost, tierName, 0)
}

// SetTTL is Set with an explicit per-entry TTL override.
func (c *Cache) SetTTL(namespace Namespace, key string, value interface{}, byteCost int64, tierName Name, ttl time.Duration) {
	t, ok := c.tiers[tierName]
	if !ok {
		return
	}
	t.set(namespace, key, value, byteCost, ttl)
}

// Invalidate removes key within namespace from every tier, since a caller
// that doesn't track which tier a key lives in (e.g. the kernel handler
// invalidating after a mutation) shouldn't have to.
func (c *Cache) Invalidate(namespace Namespace, key string) {
	for _, t := range c.tiers {
		t.invalidate(namespace, key)
	}
}

// Clear empties one tier, or every tier if tierName is empty.
func (c *Cache) Clear(tierName Name) {
	if tierName == "" {
		for _, t := range c.tiers {
			t.clear()
		}
		return
	}
	if t, ok := c.tiers[tierName]; ok {
		t.clear()
	}
}

// Stats returns a snapshot of every tier's counters, keyed by tier name.
func (c *Cache) Stats() map[Name]Stats {
	out := make(map[Name]Stats, len(c.tiers))
	for name, t := range c.tiers {
		out[name] = t.snapshot()
	}
	return out
}
