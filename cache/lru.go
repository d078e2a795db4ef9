package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultLRUSize = 256

// LRU is an in-process cache bounded by entry count, with optional expiry.
type LRU struct {
	lru *expirable.LRU[string, Entry]
}

// NewLRU creates an in-memory cache. A non-positive size uses the default;
// a zero ttl disables expiry.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = defaultLRUSize
	}
	return &LRU{lru: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) (Entry, bool, error) {
	e, ok := c.lru.Get(key)
	return e, ok, nil
}

func (c *LRU) Set(_ context.Context, key string, entry Entry) error {
	c.lru.Add(key, entry)
	return nil
}

// Len reports the number of live entries.
func (c *LRU) Len() int {
	return c.lru.Len()
}

func (c *LRU) Close() error {
	c.lru.Purge()
	return nil
}
