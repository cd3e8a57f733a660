package stage

import (
	"fmt"
	"sync"
)

// Cache maps traversal context keys to the stage each context draws into.
// Lookup and insertion are serialized by one mutex, so concurrent traversals
// can never construct two stages for the same key. Constructors run under the
// lock and must not touch the GPU; stages allocate GPU resources lazily in Draw.
type Cache[K comparable, S Stage] struct {
	mu        *sync.Mutex
	stages    map[K]S
	construct func(key K) (S, error)
}

// NewCache creates a Cache.
//
// Parameters:
//   - construct: builds the stage for a key on first use
//
// Returns:
//   - *Cache[K, S]: the empty cache
func NewCache[K comparable, S Stage](construct func(key K) (S, error)) *Cache[K, S] {
	if construct == nil {
		panic("stage: NewCache requires a constructor")
	}
	return &Cache[K, S]{
		mu:        &sync.Mutex{},
		stages:    make(map[K]S),
		construct: construct,
	}
}

// GetOrCreate returns the stage for key, constructing it on first use.
//
// Parameters:
//   - key: the traversal context key
//
// Returns:
//   - S: the stage for key
//   - error: the constructor's error, in which case nothing is cached
func (c *Cache[K, S]) GetOrCreate(key K) (S, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stages[key]; ok {
		return s, nil
	}
	s, err := c.construct(key)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("failed to construct stage: %w", err)
	}
	c.stages[key] = s
	return s, nil
}

// Get returns the stage for key without constructing one.
func (c *Cache[K, S]) Get(key K) (S, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stages[key]
	return s, ok
}

// Reset clears the per-frame content of the stage for key.
//
// Returns:
//   - bool: false if no stage exists for key
func (c *Cache[K, S]) Reset(key K) bool {
	s, ok := c.Get(key)
	if !ok {
		return false
	}
	s.Reset()
	return true
}

// ResetAll resets every cached stage.
func (c *Cache[K, S]) ResetAll() {
	c.Range(func(_ K, s S) bool {
		s.Reset()
		return true
	})
}

// Delete removes and returns the stage for key. The caller releases its GPU resources.
func (c *Cache[K, S]) Delete(key K) (S, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stages[key]
	delete(c.stages, key)
	return s, ok
}

// Len returns the number of cached stages.
func (c *Cache[K, S]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stages)
}

// Range calls fn for every cached stage until fn returns false. fn runs
// outside the lock and may call back into the cache.
func (c *Cache[K, S]) Range(fn func(key K, s S) bool) {
	c.mu.Lock()
	keys := make([]K, 0, len(c.stages))
	vals := make([]S, 0, len(c.stages))
	for k, s := range c.stages {
		keys = append(keys, k)
		vals = append(vals, s)
	}
	c.mu.Unlock()

	for i := range keys {
		if !fn(keys[i], vals[i]) {
			return
		}
	}
}
