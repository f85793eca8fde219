// Package memory implements the request/temp arena pair and the
// MemoryManager that wraps them together with an EventPool. The arena
// itself is a chained-block bump allocator: each block satisfies
// allocations off a bare offset bump, and a full block is replaced by a
// fresh one rather than grown, so a long-lived arena never needs to
// move already-handed-out slices.
package memory

// block is one fixed-size chunk of a chained arena. Region encodes the
// used-size footer into the last two bytes of the block itself; this
// implementation keeps it as a plain field instead, which removes the
// uint16-sized block ceiling Region's encoding implies and reads more
// plainly as ordinary Go.
type block struct {
	data []byte
	used int
}

func newBlock(size int) block {
	return block{data: make([]byte, size)}
}

func (b *block) remaining() int { return len(b.data) - b.used }

func (b *block) take(size int) []byte {
	out := b.data[b.used : b.used+size]
	b.used += size
	return out
}

// Arena is a monotonic bump allocator. Make hands out a slice from the
// current block's tail, growing by appending a fresh block when the
// current one can't satisfy the request; Reset rewinds every block's
// used counter to zero without releasing the underlying backing arrays,
// so steady-state request handling allocates no new blocks at all.
// Oversized single requests (bigger than blockSize) bypass the arena
// and fall back to a direct make([]byte, size), matching Region's
// handling of requests larger than a 4K block.
type Arena struct {
	blocks    []block
	blockSize int
}

// NewArena constructs an Arena with one block of blockSize bytes
// already allocated, the same way Region.Init seeds block0 up front so
// the first Make call never has to grow.
func NewArena(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}
	return &Arena{
		blocks:    []block{newBlock(blockSize)},
		blockSize: blockSize,
	}
}

// Make returns a size-byte slice bump-allocated from the arena. The
// returned slice is only valid until the next Reset.
func (a *Arena) Make(size int) []byte {
	if size <= 0 {
		return nil
	}
	last := &a.blocks[len(a.blocks)-1]
	if last.remaining() >= size {
		return last.take(size)
	}
	if size > a.blockSize {
		return make([]byte, size)
	}
	a.blocks = append(a.blocks, newBlock(a.blockSize))
	nb := &a.blocks[len(a.blocks)-1]
	return nb.take(size)
}

// MakeString copies s into an arena-owned byte slice and returns it as a
// string, for handlers that want arena-scoped string scratch without an
// extra heap allocation outside the arena.
func (a *Arena) MakeString(s string) string {
	buf := a.Make(len(s))
	copy(buf, s)
	return string(buf)
}

// Used reports the number of live bytes currently bump-allocated across
// all blocks.
func (a *Arena) Used() int64 {
	var total int64
	for i := range a.blocks {
		total += int64(a.blocks[i].used)
	}
	return total
}

// Cap reports total backing capacity across all chained blocks.
func (a *Arena) Cap() int64 {
	var total int64
	for i := range a.blocks {
		total += int64(len(a.blocks[i].data))
	}
	return total
}

// Reset zeroes the bytes handed out since the last reset and rewinds
// every block's bump pointer to zero, retaining capacity for reuse by
// the next request. It is the arena equivalent of the ScratchPool
// put-back: the backing arrays are never freed here.
func (a *Arena) Reset() {
	for i := range a.blocks {
		clear(a.blocks[i].data[:a.blocks[i].used])
		a.blocks[i].used = 0
	}
}

// Free drops every block past the first back to the garbage collector,
// mirroring Region.Free's behavior of returning grown blocks and
// keeping only the always-present first block.
func (a *Arena) Free() {
	if len(a.blocks) > 1 {
		a.blocks = a.blocks[:1]
	}
	a.blocks[0].used = 0
}
