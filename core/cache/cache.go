// Package cache implements the bounded route-match LRU sitting in front
// of the radix router, patterned on a container/list-based
// sendfile descriptor cache: a map for O(1)
// lookup plus a doubly-linked list for O(1) move-to-front and eviction.
// Go's garbage collector reclaims evicted entries and any cycles in the
// list on its own, so an arena-index-based node scheme for avoiding
// cyclic references is unnecessary here; removing the element from the
// list and the map is enough.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Handler is the router's match result: an opaque callable identified by
// the caller, kept untyped here so this package has no dependency on the
// router or event packages.
type Handler any

// Entry is what RouteCache stores per (method, path).
type Entry struct {
	Handler    Handler
	Params     map[string]string
	lastAccess int64
}

// cloneParams returns a copy of the entry's param map, already owned by the
// caller, so a cache hit never hands out a map the cache itself keeps
// mutating.
func (e *Entry) cloneParams() map[string]string {
	if len(e.Params) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Params))
	for k, v := range e.Params {
		out[k] = v
	}
	return out
}

type cacheKey struct {
	method string
	path   string
}

type cacheRecord struct {
	key   cacheKey
	entry *Entry
}

// Stats is the telemetry surface exposed by RouteCache.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HitRatio  float64
	Size      int
	MaxSize   int
}

// RouteCache is a bounded LRU keyed by (method, path). Zero capacity is
// legal and degenerates to always-miss; it is never treated as a setup
// error, matching FileCache tolerance for a maxFiles of 0.
type RouteCache struct {
	mu      sync.Mutex
	maxSize int
	items   map[cacheKey]*list.Element
	lru     *list.List

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewRouteCache constructs a cache with the given maximum entry count.
func NewRouteCache(maxSize int) *RouteCache {
	if maxSize < 0 {
		maxSize = 0
	}
	return &RouteCache{
		maxSize: maxSize,
		items:   make(map[cacheKey]*list.Element, maxSize),
		lru:     list.New(),
	}
}

// Get looks up (method, path) without allocating for the lookup itself —
// the caller is expected to already hold both as Go strings (the wire
// shell converts []byte to string once, at parse time, not per probe).
func (c *RouteCache) Get(method, path string) (*Entry, map[string]string, bool) {
	key := cacheKey{method: method, path: path}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, nil, false
	}
	c.lru.MoveToFront(el)
	rec := el.Value.(*cacheRecord)
	rec.entry.lastAccess = time.Now().UnixNano()
	c.hits++
	return rec.entry, rec.entry.cloneParams(), true
}

// Put inserts or refreshes the entry for (method, path). If the key is
// already present, the handler and params are replaced in place and the
// element moved to front rather than re-inserted, avoiding a spurious
// eviction of a different entry.
func (c *RouteCache) Put(method, path string, handler Handler, params map[string]string) {
	if c.maxSize == 0 {
		return
	}
	key := cacheKey{method: method, path: path}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		rec := el.Value.(*cacheRecord)
		rec.entry.Handler = handler
		rec.entry.Params = cloneParamsOwned(params)
		rec.entry.lastAccess = time.Now().UnixNano()
		c.lru.MoveToFront(el)
		return
	}

	if len(c.items) >= c.maxSize {
		c.evictBack()
	}

	entry := &Entry{Handler: handler, Params: cloneParamsOwned(params), lastAccess: time.Now().UnixNano()}
	rec := &cacheRecord{key: cacheKey{method: method, path: path}, entry: entry}
	el := c.lru.PushFront(rec)
	c.items[rec.key] = el
}

func cloneParamsOwned(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// Oldest returns the (method, path) of the entry currently at the LRU
// tail, i.e. the least recently accessed among the live entries. It
// exists mainly so tests can assert LRU ordering directly.
func (c *RouteCache) Oldest() (method, path string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	back := c.lru.Back()
	if back == nil {
		return "", "", false
	}
	rec := back.Value.(*cacheRecord)
	return rec.key.method, rec.key.path, true
}

func (c *RouteCache) evictBack() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	rec := back.Value.(*cacheRecord)
	delete(c.items, rec.key)
	c.lru.Remove(back)
	c.evictions++
}

// Clear drops every entry and resets the counters.
func (c *RouteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[cacheKey]*list.Element, c.maxSize)
	c.lru.Init()
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// Stats returns a snapshot of the cache's counters.
func (c *RouteCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var ratio float64
	if total > 0 {
		ratio = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRatio:  ratio,
		Size:      len(c.items),
		MaxSize:   c.maxSize,
	}
}
