package core

import (
	"encoding/json"
	"fmt"

	"github.com/latticehttp/corekit/core/cache"
	"github.com/latticehttp/corekit/core/event"
	"github.com/latticehttp/corekit/core/memory"
	"github.com/latticehttp/corekit/core/pools"
)

// Stats is the combined telemetry snapshot this module's pools expose:
// EventPool, MemoryManager, RouteCache, and the global connection-level
// ScratchPool counters together. Scratch is process-wide rather than
// per-Manager, since one ScratchPool backs every connection's read and
// response buffers regardless of which MemoryManager is serving it.
type Stats struct {
	Pool    event.PoolStats `json:"pool"`
	Memory  memory.Stats    `json:"memory"`
	Cache   cache.Stats     `json:"cache"`
	Scratch pools.Stats     `json:"scratch"`
}

// CollectStats snapshots mgr's EventPool and memory counters, the
// Engine's RouteCache counters, and the process-wide ScratchPool
// counters. Intended for telemetry endpoints or periodic logging, never
// the request hot path: a handler wanting to expose these normally
// closes over the Engine and the per-connection mgr is reachable only
// through request-scoped context in that case.
func CollectStats(mgr *memory.Manager, e *Engine) Stats {
	return Stats{
		Pool:    mgr.PoolStats(),
		Memory:  mgr.Stats(),
		Cache:   e.Router().CacheStats(),
		Scratch: pools.GlobalStats(),
	}
}

// JSON renders Stats as an indented JSON document.
func (s Stats) JSON() string {
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}

// Text renders Stats as the human-readable report an operator is
// expected to read off a /debug endpoint or a log line.
func (s Stats) Text() string {
	return fmt.Sprintf(`Engine Statistics
=================

Event Pool:
  Size:        %d / %d
  Created:     %d
  Reused:      %d
  Reuse Ratio: %.2f%%

Memory:
  Current Usage: %d bytes
  Peak Usage:    %d bytes
  Arena Resets:  %d
  GC Runs:       %d

Route Cache:
  Size:      %d / %d
  Hits:      %d
  Misses:    %d
  Evictions: %d
  Hit Ratio: %.2f%%

Scratch Pool:
  Gets:     %d
  Hit Rate: %.2f%%
`,
		s.Pool.PoolSize, s.Pool.MaxSize, s.Pool.CreatedCount, s.Pool.ReuseCount, s.Pool.ReuseRatio*100,
		s.Memory.CurrentUsage, s.Memory.PeakUsage, s.Memory.ArenaResets, s.Memory.GCRuns,
		s.Cache.Size, s.Cache.MaxSize, s.Cache.Hits, s.Cache.Misses, s.Cache.Evictions, s.Cache.HitRatio*100,
		s.Scratch.Gets, s.Scratch.HitRate*100,
	)
}
