package pool

import "sync"

// LargeBuffer is a single contiguous byte slice, quantized to a multiple
// of the Manager's LargeBufferMultiple. Buffers whose quantized size
// exceeds MaximumBufferSize are marked oversized: they are allocated
// on demand and never returned to the free list.
type LargeBuffer struct {
	data     []byte
	oversize bool
}

// Bytes returns the large buffer's backing slice.
func (b *LargeBuffer) Bytes() []byte { return b.data }

// Oversized reports whether this buffer falls outside the pool's managed
// size classes (larger than MaximumBufferSize), and is therefore
// discarded rather than recycled on return.
func (b *LargeBuffer) Oversized() bool { return b.oversize }

// largePool is a bounded, size-classed free list of LargeBuffers. One
// free list is kept per size class (a multiple of LargeBufferMultiple,
// up to MaximumBufferSize). Oversized buffers bypass the free list
// entirely.
type largePool struct {
	mu               sync.Mutex
	free             map[int][]*LargeBuffer // keyed by size in bytes
	multiple         int
	maxBufferSize    int
	maxFreeBytesCap  int64 // 0 means unbounded
	freeBytesCurrent int64 // running total across all size classes, protected by mu

	inUse     counter
	freeBytes counter
}

func newLargePool(multiple, maxBufferSize int, maxFreeBytes int64) *largePool {
	return &largePool{
		free:            make(map[int][]*LargeBuffer),
		multiple:        multiple,
		maxBufferSize:   maxBufferSize,
		maxFreeBytesCap: maxFreeBytes,
	}
}

// quantize rounds requiredSize up to the nearest multiple of p.multiple,
// with a minimum of one multiple.
func (p *largePool) quantize(requiredSize int) int {
	if requiredSize <= p.multiple {
		return p.multiple
	}
	n := (requiredSize + p.multiple - 1) / p.multiple
	return n * p.multiple
}

// get returns a LargeBuffer whose length is at least requiredSize,
// reusing a pooled buffer of the matching size class when one is free.
func (p *largePool) get(requiredSize int) (*LargeBuffer, bool) {
	size := p.quantize(requiredSize)

	if size > p.maxBufferSize {
		buf := &LargeBuffer{data: make([]byte, size), oversize: true}
		p.inUse.add(int64(size))
		return buf, true
	}

	p.mu.Lock()
	list := p.free[size]
	if len(list) == 0 {
		p.mu.Unlock()
		buf := &LargeBuffer{data: make([]byte, size)}
		p.inUse.add(int64(size))
		return buf, true
	}
	n := len(list)
	buf := list[n-1]
	list[n-1] = nil
	p.free[size] = list[:n-1]
	p.freeBytesCurrent -= int64(size)
	p.mu.Unlock()

	p.freeBytes.add(-int64(size))
	p.inUse.add(int64(size))
	return buf, false
}

// put returns a buffer to its size class's free list, unless it is
// oversized or the large pool's free-byte cap is already reached, in
// which case it is discarded.
func (p *largePool) put(buf *LargeBuffer) (discarded bool) {
	size := len(buf.data)
	p.inUse.add(-int64(size))

	if buf.oversize {
		return true
	}

	p.mu.Lock()
	if p.maxFreeBytesCap > 0 && p.freeBytesCurrent+int64(size) > p.maxFreeBytesCap {
		p.mu.Unlock()
		return true
	}
	for i := range buf.data {
		buf.data[i] = 0
	}
	p.free[size] = append(p.free[size], buf)
	p.freeBytesCurrent += int64(size)
	p.mu.Unlock()

	p.freeBytes.add(int64(size))
	return false
}

func (p *largePool) inUseSize() int64 { return p.inUse.load() }
func (p *largePool) freeSize() int64  { return p.freeBytes.load() }

// setMaxFreeBytes updates the free-list byte cap at runtime. A
// non-positive value means unbounded.
func (p *largePool) setMaxFreeBytes(maxFreeBytes int64) {
	p.mu.Lock()
	p.maxFreeBytesCap = maxFreeBytes
	p.mu.Unlock()
}
