package router

import "github.com/latticehttp/corekit/core/cache"

// Router is the collaborator-facing entry point: Find first consults the
// RouteCache, falling back to the radix tree on a miss and populating
// the cache with the result so repeated hits on a hot path skip the tree
// walk entirely.
type Router struct {
	tree  *RadixRouter
	cache *cache.RouteCache
}

// NewRouter constructs a Router with the given cache capacity. A
// capacity of 0 is legal and simply disables caching (RouteCache
// degenerates to always-miss at that size).
func NewRouter(cacheSize int) *Router {
	return &Router{
		tree:  NewRadixRouter(),
		cache: cache.NewRouteCache(cacheSize),
	}
}

// Add registers a handler for (method, path).
func (r *Router) Add(method, path string, handler HandlerFunc) {
	r.tree.Add(method, path, handler)
}

// Find resolves (method, path) to a handler and its route params,
// consulting the cache first and writing the radix-tree result back on
// a miss. A miss for which the radix tree also has nothing is itself not
// cached — cache.Handler is untyped, and caching a nil handler would
// make every subsequent cache.Get look like a hit with a nil entry,
// forcing every caller to recheck a typed nil anyway. A dedicated
// not-found marker would avoid the repeated tree walk on 404 hot paths;
// this implementation accepts that cost since unmatched routes are not
// expected to be the hot path.
func (r *Router) Find(method, path string) (HandlerFunc, map[string]string, bool) {
	if entry, params, ok := r.cache.Get(method, path); ok {
		handler, _ := entry.Handler.(HandlerFunc)
		return handler, params, true
	}

	handler, params := r.tree.Find(method, path)
	if handler == nil {
		return nil, nil, false
	}
	r.cache.Put(method, path, handler, params)
	return handler, params, true
}

// CacheStats exposes the underlying RouteCache's counters.
func (r *Router) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// ClearCache drops every cached route match.
func (r *Router) ClearCache() {
	r.cache.Clear()
}
