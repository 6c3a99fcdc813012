package spi

import (
	gocache "github.com/patrickmn/go-cache"
)

// resolvedSet is the cached result for one contract: the builders that were
// listed for it and the instances they produced, index aligned.
type resolvedSet struct {
	builders []string
	values   []any
}

// resolvedCache holds resolved sets for the life of the process. Entries
// never expire; empty sets are evicted on lookup so that a later call retries.
type resolvedCache struct {
	c *gocache.Cache
}

func newResolvedCache() *resolvedCache {
	return &resolvedCache{c: gocache.New(gocache.NoExpiration, 0)}
}

// get returns the cached set for contract. A cached empty set is evicted and
// reported as a miss.
func (c *resolvedCache) get(contract string) (*resolvedSet, bool) {
	v, found := c.c.Get(contract)
	if !found {
		return nil, false
	}
	set, ok := v.(*resolvedSet)
	if !ok || set == nil || len(set.values) == 0 {
		c.c.Delete(contract)
		return nil, false
	}
	return set, true
}

// store caches set unless another set is already cached for contract, in
// which case the cached one is returned so every caller agrees on one set.
func (c *resolvedCache) store(contract string, set *resolvedSet) *resolvedSet {
	if err := c.c.Add(contract, set, gocache.NoExpiration); err == nil {
		return set
	}
	if cur, ok := c.get(contract); ok {
		return cur
	}
	c.c.Set(contract, set, gocache.NoExpiration)
	return set
}

// len returns the number of cached contracts, including empty sets not yet evicted.
func (c *resolvedCache) len() int {
	return c.c.ItemCount()
}
