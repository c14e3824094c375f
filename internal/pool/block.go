package pool

import "sync"

// Block is a fixed-size byte buffer recycled by the small pool. All
// Blocks issued by a given Manager have the same length, Manager.BlockSize().
type Block struct {
	data []byte
}

// Bytes returns the block's backing slice. Its length is always the
// owning Manager's BlockSize.
func (b *Block) Bytes() []byte { return b.data }

// smallPool is a bounded free list of same-size Blocks. It is safe for
// concurrent use; StreamView callers never touch it directly.
type smallPool struct {
	mu         sync.Mutex
	free       []*Block
	blockSize  int
	maxFreeLen int // derived from MaximumFreeSmallPoolBytes / blockSize; -1 means unbounded

	inUse      counter
	freeBytes  counter
}

func newSmallPool(blockSize int, maxFreeBytes int64) *smallPool {
	maxFreeLen := -1
	if maxFreeBytes > 0 && blockSize > 0 {
		maxFreeLen = int(maxFreeBytes / int64(blockSize))
	}
	return &smallPool{
		blockSize:  blockSize,
		maxFreeLen: maxFreeLen,
	}
}

// get removes a block from the free list, or allocates a fresh one when
// the free list is empty.
func (p *smallPool) get() (*Block, bool) {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		b := &Block{data: make([]byte, p.blockSize)}
		p.inUse.add(int64(p.blockSize))
		return b, true
	}
	b := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.mu.Unlock()

	p.freeBytes.add(-int64(p.blockSize))
	p.inUse.add(int64(p.blockSize))
	return b, false
}

// put returns a block to the free list. When the free list is already at
// its configured byte cap, the block is discarded instead and discarded
// reports true so the caller can emit a discard event.
func (p *smallPool) put(b *Block) (discarded bool) {
	p.inUse.add(-int64(p.blockSize))

	p.mu.Lock()
	if p.maxFreeLen >= 0 && len(p.free) >= p.maxFreeLen {
		p.mu.Unlock()
		return true
	}
	for i := range b.data {
		b.data[i] = 0
	}
	p.free = append(p.free, b)
	p.mu.Unlock()

	p.freeBytes.add(int64(p.blockSize))
	return false
}

func (p *smallPool) inUseSize() int64 { return p.inUse.load() }
func (p *smallPool) freeSize() int64  { return p.freeBytes.load() }

// setMaxFreeBytes updates the free-list byte cap at runtime, recomputing
// the derived block-count limit. A non-positive value means unbounded.
func (p *smallPool) setMaxFreeBytes(maxFreeBytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if maxFreeBytes > 0 && p.blockSize > 0 {
		p.maxFreeLen = int(maxFreeBytes / int64(p.blockSize))
	} else {
		p.maxFreeLen = -1
	}
}
