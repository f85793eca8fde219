package event

import (
	"errors"
	"sync"
)

// ErrGlobalPoolNotInitialized is returned by AcquireGlobal/ReleaseGlobal
// before InitGlobalPool has run. The global pool fails closed rather than
// silently allocating, so a missing startup call is loud in every caller
// instead of showing up only under load.
var ErrGlobalPoolNotInitialized = errors.New("event: global pool not initialized")

// PoolStats reports the counters this pool actually tracks: a bounded
// LIFO stack needs exact created/reuse counts, not a sync.Pool's
// best-effort Gets/Puts.
type PoolStats struct {
	PoolSize     int
	MaxSize      int
	CreatedCount uint64
	ReuseCount   uint64
	ReuseRatio   float64
}

// EventPool is a bounded LIFO stack of *Event. Unlike sync.Pool it gives
// deterministic capacity and exact reuse accounting, which the hot-path
// leak tests in this package depend on; sync.Pool offers no contract
// about what survives between a Put and the next Get, so it cannot stand
// in for the exact accounting this pool needs.
type EventPool struct {
	mu      sync.Mutex
	stack   []*Event
	maxSize int

	createdCount uint64
	reuseCount   uint64
}

// NewEventPool constructs a pool with the given maximum retained size.
func NewEventPool(maxSize int) *EventPool {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &EventPool{
		stack:   make([]*Event, 0, maxSize),
		maxSize: maxSize,
	}
}

// Acquire pops a reset Event off the stack, or allocates a new one if the
// stack is empty. Reset cost is paid here, on the consumer's path, not on
// Release, so a burst of releases never stalls whoever is producing them.
func (p *EventPool) Acquire() *Event {
	p.mu.Lock()
	n := len(p.stack)
	if n == 0 {
		p.createdCount++
		p.mu.Unlock()
		return NewEvent()
	}
	e := p.stack[n-1]
	p.stack = p.stack[:n-1]
	p.reuseCount++
	p.mu.Unlock()

	e.resetEvent()
	return e
}

// Release pushes e back onto the stack if there is room, else drops it
// for the garbage collector to reclaim.
func (p *EventPool) Release(e *Event) {
	if e == nil {
		return
	}
	p.mu.Lock()
	if len(p.stack) < p.maxSize {
		p.stack = append(p.stack, e)
	}
	p.mu.Unlock()
}

// WarmUp pre-allocates up to maxSize Events and pushes them onto the
// stack, counted as created rather than reused.
func (p *EventPool) WarmUp(n int) {
	p.mu.Lock()
	room := p.maxSize - len(p.stack)
	p.mu.Unlock()
	if room <= 0 {
		return
	}
	if n > room {
		n = room
	}
	fresh := make([]*Event, n)
	for i := range fresh {
		fresh[i] = NewEvent()
	}
	p.mu.Lock()
	p.stack = append(p.stack, fresh...)
	p.createdCount += uint64(n)
	p.mu.Unlock()
}

// Shrink pops and drops Events until the stack size is at most target.
func (p *EventPool) Shrink(target int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if target < 0 {
		target = 0
	}
	for len(p.stack) > target {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

// Maintenance shrinks the pool when it has grown well past its steady
// state, on the same heuristic used elsewhere for deciding when idle
// capacity is wasted rather than useful headroom.
func (p *EventPool) Maintenance() {
	p.mu.Lock()
	size := len(p.stack)
	floor := p.maxSize / 4
	if floor < 10 {
		floor = 10
	}
	threshold := 2 * floor
	p.mu.Unlock()

	if size > threshold {
		p.Shrink(floor)
	}
}

// Stats returns a snapshot of the pool's counters.
func (p *EventPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := p.createdCount + p.reuseCount
	var ratio float64
	if total > 0 {
		ratio = float64(p.reuseCount) / float64(total)
	}
	return PoolStats{
		PoolSize:     len(p.stack),
		MaxSize:      p.maxSize,
		CreatedCount: p.createdCount,
		ReuseCount:   p.reuseCount,
		ReuseRatio:   ratio,
	}
}

var (
	globalPoolMu sync.Mutex
	globalPool   *EventPool
)

// InitGlobalPool constructs the process-wide singleton pool. It must be
// called once before AcquireGlobal/ReleaseGlobal are used; single-worker
// deployments can rely on it, multi-worker deployments should prefer a
// pool per worker instead.
func InitGlobalPool(maxSize int) {
	globalPoolMu.Lock()
	defer globalPoolMu.Unlock()
	globalPool = NewEventPool(maxSize)
}

// AcquireGlobal acquires from the global pool, failing closed with
// ErrGlobalPoolNotInitialized if InitGlobalPool was never called.
func AcquireGlobal() (*Event, error) {
	globalPoolMu.Lock()
	p := globalPool
	globalPoolMu.Unlock()
	if p == nil {
		return nil, ErrGlobalPoolNotInitialized
	}
	return p.Acquire(), nil
}

// ReleaseGlobal releases e back to the global pool.
func ReleaseGlobal(e *Event) error {
	globalPoolMu.Lock()
	p := globalPool
	globalPoolMu.Unlock()
	if p == nil {
		return ErrGlobalPoolNotInitialized
	}
	p.Release(e)
	return nil
}
