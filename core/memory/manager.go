package memory

import (
	"sync"
	"sync/atomic"

	"github.com/latticehttp/corekit/core/event"
)

// globalGCRuns counts PerformGC calls across every Manager in the
// process, independent of any one Manager's own GCRuns counter, so a
// process-wide consumer (core/observability's bottleneck scan) can
// watch for GC churn without holding a reference to every worker's
// Manager.
var globalGCRuns atomic.Uint64

// GlobalGCRuns returns the process-wide PerformGC count.
func GlobalGCRuns() uint64 { return globalGCRuns.Load() }

// AllocationStrategy selects a GC tuning preset for the process.
type AllocationStrategy int

const (
	StrategyBalanced AllocationStrategy = iota
	StrategyPerformance
	StrategyMemory
)

func ParseAllocationStrategy(s string) AllocationStrategy {
	switch s {
	case "performance":
		return StrategyPerformance
	case "memory":
		return StrategyMemory
	default:
		return StrategyBalanced
	}
}

// Scope selects which allocator a helper should draw from.
type Scope int

const (
	ScopeRequest Scope = iota
	ScopeTemporary
	ScopePersistent
)

// Config is the external configuration surface for a MemoryManager.
type Config struct {
	EnableEventPool      bool
	EventPoolSize        int
	AllocationStrategy   AllocationStrategy
	ArenaSize            int
	EnableMemoryTracking bool
	GCThreshold          int64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		EnableEventPool:      true,
		EventPoolSize:        100,
		AllocationStrategy:   StrategyBalanced,
		ArenaSize:            64 * 1024,
		EnableMemoryTracking: true,
		GCThreshold:          1 << 20,
	}
}

// Stats is a snapshot of one Manager's counters: monotone counters that
// never decrement, plus live-usage gauges that do.
type Stats struct {
	TotalAllocated int64
	CurrentUsage   int64
	PeakUsage      int64
	PoolHits       uint64
	PoolMisses     uint64
	ArenaResets    uint64
	GCRuns         uint64
}

// Manager owns the request/temp arena pair, an optional EventPool, and
// the running stats counters, one instance per worker goroutine per
// this module's single-threaded-per-worker concurrency model. Nothing
// shares a Manager across goroutines, so the stats mutex and the
// EventPool's mutex it takes on the hot path are never contended.
type Manager struct {
	cfg Config

	requestArena *Arena
	tempArena    *Arena
	pool         *event.EventPool

	mu    sync.Mutex
	stats Stats
}

// gcPresetOnce makes the GC preset a one-time, process-wide setting.
var gcPresetOnce sync.Once

// New constructs a Manager from cfg and, if enabled, constructs and
// warms up an EventPool. The first New call in the process applies the
// GC preset matching cfg.AllocationStrategy; later calls leave the
// process's GC settings as they are.
func New(cfg Config) *Manager {
	gcPresetOnce.Do(func() { applyGCConfig(gcConfigForStrategy(cfg.AllocationStrategy)) })

	m := &Manager{
		cfg:          cfg,
		requestArena: NewArena(cfg.ArenaSize),
		tempArena:    NewArena(cfg.ArenaSize),
	}
	if cfg.EnableEventPool {
		m.pool = event.NewEventPool(cfg.EventPoolSize)
		m.pool.WarmUp(cfg.EventPoolSize / 4)
	}
	return m
}

// AcquireEvent delegates to the EventPool if enabled, else allocates a
// fresh Event directly, and updates the pool hit/miss counters either
// way so telemetry stays accurate even with pooling disabled.
func (m *Manager) AcquireEvent() *event.Event {
	if m.pool == nil {
		m.mu.Lock()
		m.stats.PoolMisses++
		m.mu.Unlock()
		return event.NewEvent()
	}
	before := m.pool.Stats()
	e := m.pool.Acquire()
	after := m.pool.Stats()

	m.mu.Lock()
	if after.ReuseCount > before.ReuseCount {
		m.stats.PoolHits++
	} else {
		m.stats.PoolMisses++
	}
	m.mu.Unlock()
	return e
}

// ReleaseEvent returns e to the EventPool if enabled, else drops it.
func (m *Manager) ReleaseEvent(e *event.Event) {
	if m.pool == nil {
		return
	}
	m.pool.Release(e)
}

// RequestAllocator returns the handle handlers should use for anything
// scoped to the current request.
func (m *Manager) RequestAllocator() *Arena { return m.requestArena }

// TempAllocator returns the handle for shorter-lived scratch than a
// full request.
func (m *Manager) TempAllocator() *Arena { return m.tempArena }

// Allocator resolves a Scope to the matching arena handle.
// ScopePersistent has no arena backing and returns nil — callers in that
// scope should allocate normally and let the garbage collector own the
// result.
func (m *Manager) Allocator(scope Scope) *Arena {
	switch scope {
	case ScopeTemporary:
		return m.tempArena
	case ScopePersistent:
		return nil
	default:
		return m.requestArena
	}
}

// ResetRequestArena rewinds the request arena for reuse on the next
// request, triggering a full GC pass if current usage has crossed the
// configured threshold.
func (m *Manager) ResetRequestArena() {
	usage := m.requestArena.Used() + m.tempArena.Used()
	m.requestArena.Reset()

	m.mu.Lock()
	m.stats.ArenaResets++
	if m.cfg.EnableMemoryTracking {
		m.stats.TotalAllocated += usage
		m.stats.CurrentUsage = usage
		if usage > m.stats.PeakUsage {
			m.stats.PeakUsage = usage
		}
	}
	threshold := m.cfg.GCThreshold
	m.mu.Unlock()

	if threshold > 0 && usage > threshold {
		m.PerformGC()
	}
}

// ResetTempArena rewinds the temp arena without touching GC accounting.
func (m *Manager) ResetTempArena() {
	m.tempArena.Reset()
}

// PerformGC frees both arenas' grown blocks back to the collector, runs
// EventPool maintenance, and zeroes the current-usage gauge.
func (m *Manager) PerformGC() {
	m.requestArena.Free()
	m.tempArena.Free()
	if m.pool != nil {
		m.pool.Maintenance()
	}

	m.mu.Lock()
	m.stats.CurrentUsage = 0
	m.stats.GCRuns++
	m.mu.Unlock()
	globalGCRuns.Add(1)
}

// Optimize adjusts EventPool sizing based on the observed reuse ratio
// and forces a GC pass if usage has run well past the configured
// threshold, per this module's documented thresholds (0.5 / 0.95 / 2x).
func (m *Manager) Optimize() {
	if m.pool != nil {
		stats := m.pool.Stats()
		switch {
		case stats.ReuseRatio < 0.5 && stats.PoolSize > 10:
			m.pool.Shrink(stats.PoolSize / 2)
		case stats.ReuseRatio > 0.95 && stats.PoolSize < stats.MaxSize:
			room := stats.MaxSize - stats.PoolSize
			if room > 10 {
				room = 10
			}
			m.pool.WarmUp(room)
		}
	}

	m.mu.Lock()
	usage := m.stats.CurrentUsage
	threshold := m.cfg.GCThreshold
	m.mu.Unlock()

	if threshold > 0 && usage > 2*threshold {
		m.PerformGC()
	}
}

// IsMemoryHealthy reports whether pool efficiency, usage-to-peak ratio,
// and GC run count are all within the documented healthy bounds.
func (m *Manager) IsMemoryHealthy() bool {
	var poolEfficiency float64 = 1
	if m.pool != nil {
		poolEfficiency = m.pool.Stats().ReuseRatio
	}

	m.mu.Lock()
	usage, peak, gcRuns := m.stats.CurrentUsage, m.stats.PeakUsage, m.stats.GCRuns
	m.mu.Unlock()

	var usageRatio float64
	if peak > 0 {
		usageRatio = float64(usage) / float64(peak)
	}

	return poolEfficiency > 0.8 && usageRatio < 0.9 && gcRuns < 100
}

// Stats returns a snapshot of the running counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// PoolStats returns the wrapped EventPool's counters, or a zero value
// if pooling is disabled for this Manager.
func (m *Manager) PoolStats() event.PoolStats {
	if m.pool == nil {
		return event.PoolStats{}
	}
	return m.pool.Stats()
}
