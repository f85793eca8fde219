package router

import (
	"testing"

	"github.com/latticehttp/corekit/core/event"
)

func TestRouterCachesMatchOnSecondFind(t *testing.T) {
	r := NewRouter(10)
	r.Add("GET", "/widgets/:id", func(e *event.Event) {})

	h1, params1, ok := r.Find("GET", "/widgets/42")
	if !ok || h1 == nil {
		t.Fatalf("expected a match on first Find")
	}
	if params1["id"] != "42" {
		t.Fatalf("expected param id=42, got %v", params1)
	}
	stats := r.CacheStats()
	if stats.Misses != 1 || stats.Hits != 0 {
		t.Fatalf("expected first Find to be a cache miss: %+v", stats)
	}

	h2, params2, ok := r.Find("GET", "/widgets/42")
	if !ok || h2 == nil {
		t.Fatalf("expected a match on second Find")
	}
	if params2["id"] != "42" {
		t.Fatalf("expected param id=42 on cache hit, got %v", params2)
	}
	stats = r.CacheStats()
	if stats.Hits != 1 {
		t.Fatalf("expected second Find to be a cache hit: %+v", stats)
	}
}

func TestRouterFindMissDoesNotPanic(t *testing.T) {
	r := NewRouter(10)
	r.Add("GET", "/known", func(e *event.Event) {})

	h, params, ok := r.Find("GET", "/unknown")
	if ok || h != nil || params != nil {
		t.Fatalf("expected a clean miss, got h=%v params=%v ok=%v", h, params, ok)
	}
}

func TestRouterClearCacheDropsEntries(t *testing.T) {
	r := NewRouter(10)
	r.Add("GET", "/a", func(e *event.Event) {})
	r.Find("GET", "/a")
	r.Find("GET", "/a")

	r.ClearCache()
	stats := r.CacheStats()
	if stats.Size != 0 || stats.Hits != 0 || stats.Misses != 0 {
		t.Fatalf("expected ClearCache to reset everything: %+v", stats)
	}
}
