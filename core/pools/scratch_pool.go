// Package pools implements the scratch-buffer pool core/httpwire draws
// a connection's read chunk and response-serialization buffer from,
// outside the per-connection MemoryManager's arena pair: a MemoryManager
// resets its arenas at request boundaries, but a connection's read/write
// buffers need to survive across that reset (keep-alive serves many
// requests per connection), so they are sized and reused separately
// here instead.
package pools

import (
	"sync"
	"sync/atomic"
)

// Scratch-buffer size tiers, chosen to match this module's own hot-path
// allocations: a connection's read chunk and its response-serialization
// scratch space (see core/httpwire.ServeConn), plus a small and an
// oversized tier on either side.
const (
	SmallTierBytes    = 512
	ResponseTierBytes = 4 * 1024
	ReadTierBytes     = 8 * 1024
	LargeTierBytes    = 32 * 1024
)

var defaultTiers = []int{SmallTierBytes, ResponseTierBytes, ReadTierBytes, LargeTierBytes}

// ScratchPool is a multi-tiered []byte pool: Get rounds a requested size
// up to the smallest tier that fits it, Put returns a buffer to the
// tier matching its capacity exactly. A request larger than every tier
// allocates directly and is never pooled on Put.
type ScratchPool struct {
	tiers []*sync.Pool
	sizes []int
	hits  []atomic.Uint64
	gets  atomic.Uint64
}

// NewScratchPool creates a pool using this module's default tiers.
func NewScratchPool() *ScratchPool {
	return NewScratchPoolWithTiers(defaultTiers)
}

// NewScratchPoolWithTiers creates a pool with caller-supplied tier
// sizes, ascending order assumed but not enforced.
func NewScratchPoolWithTiers(sizes []int) *ScratchPool {
	sp := &ScratchPool{
		tiers: make([]*sync.Pool, len(sizes)),
		sizes: sizes,
		hits:  make([]atomic.Uint64, len(sizes)),
	}
	for i, size := range sizes {
		tierSize := size
		sp.tiers[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, tierSize)
				return &buf
			},
		}
	}
	return sp
}

// Get returns a slice of exactly length size, backed by a tier's
// capacity when size fits one.
func (sp *ScratchPool) Get(size int) []byte {
	sp.gets.Add(1)
	for i, tierSize := range sp.sizes {
		if size <= tierSize {
			sp.hits[i].Add(1)
			bufPtr := sp.tiers[i].Get().(*[]byte)
			return (*bufPtr)[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to the tier matching its capacity, if any.
func (sp *ScratchPool) Put(buf []byte) {
	capacity := cap(buf)
	for i, tierSize := range sp.sizes {
		if capacity == tierSize {
			buf = buf[:capacity]
			sp.tiers[i].Put(&buf)
			return
		}
	}
}

// Stats is ScratchPool's telemetry surface: total Gets, the fraction
// served by a pooled tier versus a direct allocation, and a per-tier
// breakdown for callers that want finer granularity.
type Stats struct {
	Gets     uint64
	TierHits []uint64
	HitRate  float64
}

// Stats snapshots sp's counters.
func (sp *ScratchPool) Stats() Stats {
	gets := sp.gets.Load()
	tierHits := make([]uint64, len(sp.hits))
	var totalHits uint64
	for i := range sp.hits {
		tierHits[i] = sp.hits[i].Load()
		totalHits += tierHits[i]
	}
	var hitRate float64
	if gets > 0 {
		hitRate = float64(totalHits) / float64(gets)
	}
	return Stats{Gets: gets, TierHits: tierHits, HitRate: hitRate}
}

var globalScratchPool = NewScratchPool()

// GetBytes draws size bytes from the global ScratchPool.
func GetBytes(size int) []byte {
	return globalScratchPool.Get(size)
}

// PutBytes returns buf to the global ScratchPool.
func PutBytes(buf []byte) {
	globalScratchPool.Put(buf)
}

// GlobalStats snapshots the global ScratchPool's counters.
func GlobalStats() Stats {
	return globalScratchPool.Stats()
}
