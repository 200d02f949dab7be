package gogsdk

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const credCacheSize = 128

// credCache holds game client credentials for a bounded TTL. Opt-in: the
// default SDK re-derives credentials on every sync for freshness.
type credCache struct {
	lru *expirable.LRU[string, *GameCredentials]
}

func newCredCache(ttl time.Duration) *credCache {
	return &credCache{
		lru: expirable.NewLRU[string, *GameCredentials](credCacheSize, nil, ttl),
	}
}

func (c *credCache) get(key string) (*GameCredentials, bool) {
	return c.lru.Get(key)
}

func (c *credCache) set(key string, creds *GameCredentials) {
	c.lru.Add(key, creds)
}
