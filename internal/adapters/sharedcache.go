//
//  Copyright © Manetu Inc. All rights reserved.
//

package adapters

import (
	"sync"

	"github.com/manetu/polix/pkg/evaluator/cache"
)

// SharedCache is the thread-safe map-of-caches named by spec component
// C9: a process can run several independent engine handles (e.g. one per
// tenant), each wanting its own bounded compiled-policy cache, without
// every handle needing to carry its own locking story. Lookup and
// eviction-on-insert are delegated entirely to each named [cache.Cache];
// SharedCache only owns the name → cache association.
type SharedCache struct {
	mu       sync.RWMutex
	capacity int
	caches   map[string]*cache.Cache
}

// NewSharedCache creates a SharedCache whose member caches are created
// on demand with the given capacity.
func NewSharedCache(capacity int) *SharedCache {
	return &SharedCache{capacity: capacity, caches: make(map[string]*cache.Cache)}
}

// For returns the named cache, creating it on first use.
func (s *SharedCache) For(name string) (*cache.Cache, error) {
	s.mu.RLock()
	c, ok := s.caches[name]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[name]; ok {
		return c, nil
	}
	c, err := cache.New(s.capacity)
	if err != nil {
		return nil, err
	}
	s.caches[name] = c
	return c, nil
}

// Drop discards the named cache, if present.
func (s *SharedCache) Drop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caches, name)
}

// Names returns the currently active cache names.
func (s *SharedCache) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.caches))
	for name := range s.caches {
		out = append(out, name)
	}
	return out
}
