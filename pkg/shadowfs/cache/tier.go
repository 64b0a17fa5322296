// Package cache implements the multi-level cache (C3): three independent
// LRU+TTL tiers (L1 metadata, L2 content, L3 transform output), each
// serialized by its own lock so that hot-path metadata lookups never queue
// behind a large content payload eviction.
package cache

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/groupcache/lru"

	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
)

// Namespace partitions keys within a tier so that, e.g., a "path" entry and
// a "readdir" entry for the same string never collide.
type Namespace string

const (
	NamespacePath      Namespace = "path"
	NamespaceAttr      Namespace = "attr"
	NamespaceReaddir   Namespace = "readdir"
	NamespaceContent   Namespace = "content"
	NamespaceTransform Namespace = "transform"
)

// Name identifies one of the three tiers.
type Name string

const (
	L1 Name = "L1"
	L2 Name = "L2"
	L3 Name = "L3"
)

// TierConfig configures one tier's limits.
type TierConfig struct {
	MaxEntries int
	MaxBytes   int64
	DefaultTTL time.Duration
	Enabled    bool
}

// Stats accumulates per-tier counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Bytes     int64
	Entries   int64
}

// entry is what a tier actually stores per key.
type entry struct {
	namespace  Namespace
	key        string // the original, unhashed composite key, for collision verification
	value      interface{}
	cost       int64
	insertedAt time.Time
	lastAccess time.Time
	ttl        time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.insertedAt) >= e.ttl
}

// tier is one LRU+TTL store. Its backing map is keyed by a 64-bit hash of
// the namespace+key composite (computed with xxhash, a fast non-cryptographic
// hash appropriate for in-memory indexing) rather than the composite string
// itself, to avoid repeated string concatenation/allocation on the hot path;
// the original composite key is kept in each entry and compared on lookup so
// that a hash collision degrades to a correctness-safe cache miss rather
// than returning the wrong value.
type tier struct {
	mu     sync.Mutex
	name   Name
	cfg    TierConfig
	lru    *lru.Cache
	bytes  int64
	stats  Stats
	logger *logging.Logger
}

func newTier(name Name, cfg TierConfig, logger *logging.Logger) *tier {
	t := &tier{
		name:   name,
		cfg:    cfg,
		logger: logger,
	}
	t.lru = &lru.Cache{
		MaxEntries: cfg.MaxEntries,
		OnEvicted: func(key lru.Key, value interface{}) {
			e := value.(*entry)
			t.bytes -= e.cost
			t.stats.Evictions++
		},
	}
	return t
}

func hashKey(namespace Namespace, key string) uint64 {
	d := xxhash.New()
	d.WriteString(string(namespace))
	d.WriteString("\x00")
	d.WriteString(key)
	return d.Sum64()
}

func (t *tier) get(namespace Namespace, key string) (interface{}, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Enabled {
		return nil, false
	}

	hk := hashKey(namespace, key)
	raw, ok := t.lru.Get(hk)
	if !ok {
		t.stats.Misses++
		return nil, false
	}
	e := raw.(*entry)
	if e.namespace != namespace || e.key != key {
		// Hash collision between distinct keys; treat as absent.
		t.stats.Misses++
		return nil, false
	}
	if e.expired(time.Now()) {
		// Remove runs OnEvicted, which releases the entry's byte cost.
		t.lru.Remove(hk)
		t.stats.Misses++
		return nil, false
	}
	e.lastAccess = time.Now()
	t.stats.Hits++
	return e.value, true
}

func (t *tier) set(namespace Namespace, key string, value interface{}, cost int64, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Enabled {
		return
	}
	if ttl <= 0 {
		ttl = t.cfg.DefaultTTL
	}

	hk := hashKey(namespace, key)
	if raw, ok := t.lru.Get(hk); ok {
		old := raw.(*entry)
		t.bytes -= old.cost
	}

	now := time.Now()
	t.lru.Add(hk, &entry{
		namespace:  namespace,
		key:        key,
		value:      value,
		cost:       cost,
		insertedAt: now,
		lastAccess: now,
		ttl:        ttl,
	})
	t.bytes += cost

	for t.cfg.MaxBytes > 0 && t.bytes > t.cfg.MaxBytes && t.lru.Len() > 0 {
		t.lru.RemoveOldest()
	}
	t.logger.Trace("%s: set %s/%s cost=%d bytes=%d", t.name, namespace, key, cost, t.bytes)
}

func (t *tier) invalidate(namespace Namespace, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hk := hashKey(namespace, key)
	if raw, ok := t.lru.Get(hk); ok {
		e := raw.(*entry)
		if e.namespace == namespace && e.key == key {
			t.lru.Remove(hk)
		}
	}
}

func (t *tier) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lru.Clear()
	t.bytes = 0
}

func (t *tier) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.Bytes = t.bytes
	s.Entries = int64(t.lru.Len())
	return s
}
