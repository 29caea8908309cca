// Package cache provides caching utilities for the extractor.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDirCacheSize bounds the number of directories remembered per run.
const DefaultDirCacheSize = 512

// DirCache remembers directories known to exist so repeated writes into the
// same directory skip the MkdirAll syscalls. It is bounded; an evicted
// directory is simply created again, which is idempotent.
type DirCache struct {
	cache *lru.Cache[string, struct{}]
}

// NewDirCache creates a cache holding at most maxItems directories.
// A non-positive maxItems selects DefaultDirCacheSize.
func NewDirCache(maxItems int) (*DirCache, error) {
	if maxItems <= 0 {
		maxItems = DefaultDirCacheSize
	}
	c, err := lru.New[string, struct{}](maxItems)
	if err != nil {
		return nil, err
	}
	return &DirCache{cache: c}, nil
}

// Has reports whether dir was recorded as existing.
func (c *DirCache) Has(dir string) bool {
	_, ok := c.cache.Get(dir)
	return ok
}

// Add records dir as existing.
func (c *DirCache) Add(dir string) {
	c.cache.Add(dir, struct{}{})
}

// Len returns the current number of remembered directories.
func (c *DirCache) Len() int {
	return c.cache.Len()
}
