//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package cache implements the policy cache half of the tiered
// evaluator (spec component C7): a process-wide (or handle-scoped)
// LRU of compiled evaluators keyed by [Fingerprint], backed by
// hashicorp/golang-lru so eviction and the map operation itself are
// handled by a library the rest of the corpus already relies on for
// bounded in-memory caches.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/manetu/polix/internal/logging"
	"github.com/manetu/polix/pkg/evaluator"
)

var logger = logging.GetLogger("evaluator.cache")

// DefaultCapacity is the cache size used when a caller doesn't specify one.
const DefaultCapacity = 128

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Total   uint64
	HitRate float64
	Size    int
}

// Cache is a thread-safe, fixed-capacity LRU of compiled policies.
//
// Concurrent misses on the same key may each call compile independently;
// the last Put wins. Compilation is deterministic so this never produces
// an inconsistent entry, only (rarely) redundant work.
type Cache struct {
	lru    *lru.Cache[string, evaluator.CompiledPolicy]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a Cache with the given capacity (DefaultCapacity if <= 0).
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l, err := lru.New[string, evaluator.CompiledPolicy](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached compiled policy for key, recording a hit or miss.
func (c *Cache) Get(key string) (evaluator.CompiledPolicy, bool) {
	cp, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return cp, ok
}

// Put inserts or replaces the entry for key.
func (c *Cache) Put(key string, cp evaluator.CompiledPolicy) {
	c.lru.Add(key, cp)
}

// CompileFunc produces a compiled policy on a cache miss.
type CompileFunc func() (evaluator.CompiledPolicy, error)

// CompileCached returns the cached entry for key, compiling and storing
// it via compile on a miss.
func (c *Cache) CompileCached(key string, compile CompileFunc) (evaluator.CompiledPolicy, error) {
	if cp, ok := c.Get(key); ok {
		return cp, nil
	}
	trace := uuid.New().String()
	logger.SysDebugf("cache miss key=%s trace=%s: compiling", key, trace)
	cp, err := compile()
	if err != nil {
		logger.SysWarnf("cache miss key=%s trace=%s: compile failed: %+v", key, trace, err)
		return nil, err
	}
	c.Put(key, cp)
	return cp, nil
}

// Clear empties the cache and resets hit/miss counters.
func (c *Cache) Clear() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// WarmEntry is one precompiled entry to seed via [Cache.Warm].
type WarmEntry struct {
	Key     string
	Compile CompileFunc
}

// Warm populates the cache from entries, compiling every one regardless
// of current contents (re-warming an already-cached key replaces it).
// The first compile error aborts the remaining entries and is returned;
// entries processed before the failing one stay in the cache.
func (c *Cache) Warm(entries []WarmEntry) error {
	for _, e := range entries {
		cp, err := e.Compile()
		if err != nil {
			return err
		}
		c.Put(e.Key, cp)
	}
	return nil
}

// Stats returns a snapshot of cache hit/miss activity and current size.
func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: misses, Total: total, HitRate: rate, Size: c.lru.Len()}
}

var (
	defaultOnce sync.Once
	defaultC    *Cache
)

// Default returns the process-wide default cache, built with
// [DefaultCapacity] on first use.
func Default() *Cache {
	defaultOnce.Do(func() {
		c, err := New(DefaultCapacity)
		if err != nil {
			panic(err)
		}
		defaultC = c
	})
	return defaultC
}
