package observability

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/latticehttp/corekit/core/memory"
)

// latencyBoundsMS are the upper edges, in milliseconds, of every
// RouteMetrics latency bucket but the last; a sample lands in the
// first bucket whose bound it falls under, or the overflow bucket at
// index len(latencyBoundsMS) if it exceeds all of them.
var latencyBoundsMS = [9]uint64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000}

func bucketIndex(ms uint64) int {
	for i, bound := range latencyBoundsMS {
		if ms < bound {
			return i
		}
	}
	return len(latencyBoundsMS)
}

// RouteMetrics is one route's running counters, keyed by "METHOD path"
// in PerformanceMonitor.routes. Every field is an atomic so
// RecordRequest never takes a lock on the request path.
type RouteMetrics struct {
	Route      string
	Hits       atomic.Uint64
	Failures   atomic.Uint64
	TotalNanos atomic.Uint64
	MinNanos   atomic.Uint64
	MaxNanos   atomic.Uint64
	buckets    [len(latencyBoundsMS) + 1]atomic.Uint64
}

func (m *RouteMetrics) recordMinMax(nanos uint64) {
	for {
		cur := m.MinNanos.Load()
		if cur != 0 && cur <= nanos {
			break
		}
		if m.MinNanos.CompareAndSwap(cur, nanos) {
			break
		}
	}
	for {
		cur := m.MaxNanos.Load()
		if cur >= nanos {
			break
		}
		if m.MaxNanos.CompareAndSwap(cur, nanos) {
			break
		}
	}
}

// Bottleneck is one issue PerformanceMonitor's periodic scan detected:
// a single route running hot or erroring a lot, or the process as a
// whole churning through GC cycles faster than the scan window
// expects.
type Bottleneck struct {
	Kind     string // "latency", "errors", or "memory"
	Route    string // empty for a process-wide "memory" bottleneck
	Severity int    // 1-10, higher is worse
	Detail   string
	At       time.Time
}

// PerformanceMonitor aggregates per-route latency/error counters plus a
// periodic scan that flags routes (and the process's overall memory
// churn) crossing fixed thresholds. Every counter update is
// lock-free; only the bottleneck snapshot and the scan's own bookkeeping
// take a lock, and neither sits on the request path.
type PerformanceMonitor struct {
	enabled atomic.Bool
	routes  sync.Map // string -> *RouteMetrics

	totalRequests atomic.Uint64
	totalNanos    atomic.Uint64

	lastGCRuns atomic.Uint64 // memory.GlobalGCRuns() as of the previous scan tick

	mu          sync.RWMutex
	bottlenecks []Bottleneck

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPerformanceMonitor starts a monitor and its background scan loop.
// Call Stop when the owning Engine shuts down so the loop's goroutine
// doesn't outlive it.
func NewPerformanceMonitor() *PerformanceMonitor {
	pm := &PerformanceMonitor{stop: make(chan struct{})}
	pm.enabled.Store(true)
	pm.lastGCRuns.Store(memory.GlobalGCRuns())
	go pm.scanLoop()
	return pm
}

// Stop halts the background scan loop. Safe to call more than once.
func (pm *PerformanceMonitor) Stop() {
	pm.stopOnce.Do(func() { close(pm.stop) })
}

// RecordRequest folds one request's outcome into route's counters.
func (pm *PerformanceMonitor) RecordRequest(route string, duration time.Duration, failed bool) {
	if !pm.enabled.Load() {
		return
	}

	val, _ := pm.routes.LoadOrStore(route, &RouteMetrics{Route: route})
	m := val.(*RouteMetrics)

	nanos := uint64(duration.Nanoseconds())
	m.Hits.Add(1)
	if failed {
		m.Failures.Add(1)
	}
	m.TotalNanos.Add(nanos)
	m.recordMinMax(nanos)
	m.buckets[bucketIndex(nanos/1_000_000)].Add(1)

	pm.totalRequests.Add(1)
	pm.totalNanos.Add(nanos)
}

func (pm *PerformanceMonitor) scanLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-pm.stop:
			return
		case <-ticker.C:
			if !pm.enabled.Load() {
				continue
			}
			found := pm.scan()
			pm.mu.Lock()
			pm.bottlenecks = found
			pm.mu.Unlock()
		}
	}
}

// scan walks every route's counters looking for sustained high latency
// or error rate, then folds in a single process-wide check of how fast
// core/memory's GC counter has moved since the last scan.
func (pm *PerformanceMonitor) scan() []Bottleneck {
	found := make([]Bottleneck, 0)
	now := time.Now()

	pm.routes.Range(func(_, value interface{}) bool {
		m := value.(*RouteMetrics)
		hits := m.Hits.Load()
		if hits == 0 {
			return true
		}

		avg := time.Duration(m.TotalNanos.Load() / hits)
		if avg > 100*time.Millisecond {
			found = append(found, Bottleneck{
				Kind:     "latency",
				Route:    m.Route,
				Severity: 8,
				Detail:   fmt.Sprintf("average latency %v over %d requests", avg, hits),
				At:       now,
			})
		}

		if failures := m.Failures.Load(); failures > 0 {
			if rate := float64(failures) / float64(hits); rate > 0.05 {
				found = append(found, Bottleneck{
					Kind:     "errors",
					Route:    m.Route,
					Severity: 10,
					Detail:   fmt.Sprintf("%.1f%% error rate over %d requests", rate*100, hits),
					At:       now,
				})
			}
		}
		return true
	})

	gcRuns := memory.GlobalGCRuns()
	if delta := gcRuns - pm.lastGCRuns.Load(); delta > 5 {
		found = append(found, Bottleneck{
			Kind:     "memory",
			Severity: 6,
			Detail:   fmt.Sprintf("%d GC runs across all connections in the last scan window", delta),
			At:       now,
		})
	}
	pm.lastGCRuns.Store(gcRuns)

	return found
}

// GetBottlenecks returns the most recent scan's findings.
func (pm *PerformanceMonitor) GetBottlenecks() []Bottleneck {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return append([]Bottleneck{}, pm.bottlenecks...)
}

// StartTrace returns a timestamp for EndTrace to measure against, or 0
// if the monitor is disabled (EndTrace treats 0 as "don't record").
func (pm *PerformanceMonitor) StartTrace() int64 {
	if !pm.enabled.Load() {
		return 0
	}
	return time.Now().UnixNano()
}

// EndTrace records the elapsed time since start against route.
func (pm *PerformanceMonitor) EndTrace(route string, start int64, failed bool) {
	if start == 0 {
		return
	}
	pm.RecordRequest(route, time.Duration(time.Now().UnixNano()-start), failed)
}
