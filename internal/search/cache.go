package search

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is an in-process TTL cache for query results. Concurrent identical
// queries collapse into a single execution via singleflight. Every index
// mutation invalidates the whole cache; entries also expire on their own.
type Cache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
	logger  *slog.Logger
}

type cacheEntry struct {
	results []Result
	expires time.Time
}

// NewCache creates a Cache with the given entry TTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// GetOrCompute returns the cached results for the query if fresh, otherwise
// runs compute once (collapsing concurrent duplicates) and caches its
// output. The second return value reports a cache hit.
func (c *Cache) GetOrCompute(query string, opts Options, compute func() []Result) ([]Result, bool) {
	key := c.buildKey(query, opts)
	if results, ok := c.get(key); ok {
		c.hits.Add(1)
		return results, true
	}
	c.misses.Add(1)
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.get(key); ok {
			return results, nil
		}
		results := compute()
		c.set(key, results)
		return results, nil
	})
	return val.([]Result), false
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Stats returns lifetime hit and miss counts.
func (c *Cache) Stats() (hits int64, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.results, true
}

func (c *Cache) set(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		results: results,
		expires: time.Now().Add(c.ttl),
	}
}

// buildKey hashes the normalized query plus the options that affect output.
// Word order is preserved: phrase matching makes it significant.
func (c *Cache) buildKey(query string, opts Options) string {
	words := strings.Fields(strings.ToLower(query))
	raw := fmt.Sprintf("%s|max=%d|min=%d|snip=%t|hl=%t|phrase=%t|fuzzy=%t",
		strings.Join(words, ","),
		opts.MaxResults, opts.MinResults,
		opts.IncludeSnippets, opts.HighlightMatches, opts.Phrase, opts.Fuzzy,
	)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", hash[:16])
}
