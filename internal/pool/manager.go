// Package pool implements a two-tier pooled byte-buffer allocator and the
// StreamView abstraction built on top of it. A Manager hands out
// fixed-size Blocks from a small pool and quantized LargeBuffers from a
// large pool, both bounded by configured free-byte caps, and tracks
// linearizable in-use/free counters for each tier. GetStream wraps those
// buffers in a StreamView, a single-owner, non-concurrent-safe
// io.ReadWriteSeeker that grows by chaining Blocks until it is large
// enough to justify promotion to single-LargeBuffer backing.
package pool

import (
	"fmt"
	"runtime"
	"sync"
)

const (
	// DefaultBlockSize matches the historical default of the allocator
	// this package replaces: large enough to amortize per-block
	// bookkeeping, small enough that short-lived streams don't pin a
	// disproportionate amount of memory.
	DefaultBlockSize = 16384
	// DefaultLargeBufferMultiple is the quantization unit for the large
	// pool's size classes.
	DefaultLargeBufferMultiple = 1048576
	// DefaultMaximumBufferSize is the largest buffer size the large pool
	// will recycle; requests above it are served as oversized,
	// non-pooled buffers.
	DefaultMaximumBufferSize = 8388608
)

// Config configures a Manager. Zero-value fields are filled with the
// Default* constants by NewManager, except where noted.
type Config struct {
	// BlockSize is the fixed size of every Block the small pool issues.
	BlockSize int
	// LargeBufferMultiple is the quantization unit for LargeBuffer sizes.
	LargeBufferMultiple int
	// MaximumBufferSize is the largest buffer size managed by the large
	// pool's free lists. Requests above it are served as oversized
	// buffers that bypass pooling entirely.
	MaximumBufferSize int
	// MaximumFreeSmallPoolBytes caps how many bytes of unused Blocks the
	// small pool retains before discarding returned blocks outright.
	MaximumFreeSmallPoolBytes int64
	// MaximumFreeLargePoolBytes caps how many bytes of unused
	// LargeBuffers the large pool retains across all size classes.
	MaximumFreeLargePoolBytes int64
	// MaximumStreamCapacity bounds how large any single StreamView may
	// grow. Zero means unlimited.
	MaximumStreamCapacity int64
	// AggressiveBufferReturn controls what happens to a StreamView's
	// prior large buffer when it regrows into a new, bigger large buffer:
	// true returns the old buffer to the pool immediately; false retains
	// it on the stream (oldLargeBuffers) until Dispose, trading peak
	// memory for fewer pool round-trips under repeated growth. Promotion
	// from block-chain to large-buffer backing returns the blocks to the
	// small pool immediately under either setting; blocks are never
	// retained until Dispose.
	AggressiveBufferReturn bool
	// GenerateCallStacks enables runtime.Caller-based capture of the
	// allocation and dispose call sites for each StreamView, surfaced on
	// EventContext.AllocationStack / DisposeStack. Off by default since
	// it is not free.
	GenerateCallStacks bool
	// Sink receives lifecycle notifications. A NopSink is used when nil.
	Sink EventSink
}

// Validate reports an error describing the first configuration problem
// found, or nil if c is usable.
func (c *Config) Validate() error {
	if c.BlockSize <= 0 {
		return wrapErr(KindInvalidConfiguration, fmt.Sprintf("BlockSize must be positive, got %d", c.BlockSize), nil)
	}
	if c.LargeBufferMultiple <= 0 {
		return wrapErr(KindInvalidConfiguration, fmt.Sprintf("LargeBufferMultiple must be positive, got %d", c.LargeBufferMultiple), nil)
	}
	if c.MaximumBufferSize <= 0 {
		return wrapErr(KindInvalidConfiguration, fmt.Sprintf("MaximumBufferSize must be positive, got %d", c.MaximumBufferSize), nil)
	}
	if c.MaximumBufferSize < c.LargeBufferMultiple {
		return wrapErr(KindInvalidConfiguration, "MaximumBufferSize must be at least LargeBufferMultiple", nil)
	}
	if c.MaximumFreeSmallPoolBytes < 0 {
		return wrapErr(KindInvalidConfiguration, "MaximumFreeSmallPoolBytes must be non-negative", nil)
	}
	if c.MaximumFreeLargePoolBytes < 0 {
		return wrapErr(KindInvalidConfiguration, "MaximumFreeLargePoolBytes must be non-negative", nil)
	}
	if c.MaximumStreamCapacity < 0 {
		return wrapErr(KindInvalidConfiguration, "MaximumStreamCapacity must be non-negative", nil)
	}
	return nil
}

// applyDefaults fills zero-valued fields with package defaults. Caps
// (MaximumFree*Bytes, MaximumStreamCapacity) are left at zero when unset,
// since zero is itself a meaningful "unbounded"/"none retained" value for
// those fields, not a missing one.
func (c Config) applyDefaults() Config {
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.LargeBufferMultiple == 0 {
		c.LargeBufferMultiple = DefaultLargeBufferMultiple
	}
	if c.MaximumBufferSize == 0 {
		c.MaximumBufferSize = DefaultMaximumBufferSize
	}
	if c.Sink == nil {
		c.Sink = NopSink{}
	}
	return c
}

// Manager is a thread-safe pooled allocator for Blocks and LargeBuffers,
// and the factory for StreamViews built on top of them. All Manager
// methods may be called concurrently from any number of goroutines;
// StreamViews it produces may not.
type Manager struct {
	// mu guards the subset of cfg that is mutable at runtime
	// (MaximumFreeSmallPoolBytes, MaximumFreeLargePoolBytes,
	// MaximumStreamCapacity, AggressiveBufferReturn, GenerateCallStacks).
	// The remaining fields (BlockSize, LargeBufferMultiple,
	// MaximumBufferSize, Sink) are fixed at construction and read without
	// locking.
	mu    sync.RWMutex
	cfg   Config
	small *smallPool
	large *largePool
}

// NewManager validates cfg and builds a Manager from it.
func NewManager(cfg Config) (*Manager, error) {
	cfg = cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:   cfg,
		small: newSmallPool(cfg.BlockSize, cfg.MaximumFreeSmallPoolBytes),
		large: newLargePool(cfg.LargeBufferMultiple, cfg.MaximumBufferSize, cfg.MaximumFreeLargePoolBytes),
	}, nil
}

// BlockSize returns the fixed size of every Block this Manager issues.
func (m *Manager) BlockSize() int { return m.cfg.BlockSize }

// LargeBufferMultiple returns the large pool's size-class quantum.
func (m *Manager) LargeBufferMultiple() int { return m.cfg.LargeBufferMultiple }

// MaximumBufferSize returns the largest buffer size the large pool will
// recycle.
func (m *Manager) MaximumBufferSize() int { return m.cfg.MaximumBufferSize }

// SmallPoolInUseSize returns the total bytes currently checked out of the
// small pool as Blocks that have not been returned.
func (m *Manager) SmallPoolInUseSize() int64 { return m.small.inUseSize() }

// SmallPoolFreeSize returns the total bytes held by the small pool's free
// list, available for reuse without a new allocation.
func (m *Manager) SmallPoolFreeSize() int64 { return m.small.freeSize() }

// LargePoolInUseSize returns the total bytes currently checked out of the
// large pool as LargeBuffers (including oversized buffers) that have not
// been returned.
func (m *Manager) LargePoolInUseSize() int64 { return m.large.inUseSize() }

// LargePoolFreeSize returns the total bytes held by the large pool's free
// lists, available for reuse without a new allocation.
func (m *Manager) LargePoolFreeSize() int64 { return m.large.freeSize() }

// MaximumFreeSmallPoolBytes returns the small pool's current free-byte
// cap. Zero means unbounded.
func (m *Manager) MaximumFreeSmallPoolBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.MaximumFreeSmallPoolBytes
}

// SetMaximumFreeSmallPoolBytes changes the small pool's free-byte cap at
// runtime. Zero means unbounded. It does not evict anything already on
// the free list; a lower cap only takes effect as blocks are returned.
func (m *Manager) SetMaximumFreeSmallPoolBytes(n int64) error {
	if n < 0 {
		return wrapErr(KindInvalidConfiguration, "MaximumFreeSmallPoolBytes must be non-negative", nil)
	}
	m.mu.Lock()
	m.cfg.MaximumFreeSmallPoolBytes = n
	m.mu.Unlock()
	m.small.setMaxFreeBytes(n)
	return nil
}

// MaximumFreeLargePoolBytes returns the large pool's current free-byte
// cap. Zero means unbounded.
func (m *Manager) MaximumFreeLargePoolBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.MaximumFreeLargePoolBytes
}

// SetMaximumFreeLargePoolBytes changes the large pool's free-byte cap at
// runtime. Zero means unbounded.
func (m *Manager) SetMaximumFreeLargePoolBytes(n int64) error {
	if n < 0 {
		return wrapErr(KindInvalidConfiguration, "MaximumFreeLargePoolBytes must be non-negative", nil)
	}
	m.mu.Lock()
	m.cfg.MaximumFreeLargePoolBytes = n
	m.mu.Unlock()
	m.large.setMaxFreeBytes(n)
	return nil
}

// MaximumStreamCapacity returns the current ceiling on a single
// StreamView's Capacity. Zero means unbounded.
func (m *Manager) MaximumStreamCapacity() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.MaximumStreamCapacity
}

// SetMaximumStreamCapacity changes the ceiling on a single StreamView's
// Capacity at runtime. Zero means unbounded. Streams already past the new
// cap are left alone; the cap is only enforced on subsequent growth.
func (m *Manager) SetMaximumStreamCapacity(n int64) error {
	if n < 0 {
		return wrapErr(KindInvalidConfiguration, "MaximumStreamCapacity must be non-negative", nil)
	}
	m.mu.Lock()
	m.cfg.MaximumStreamCapacity = n
	m.mu.Unlock()
	return nil
}

// AggressiveBufferReturn reports whether superseded large buffers are
// returned to the pool immediately rather than retained until Dispose.
func (m *Manager) AggressiveBufferReturn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.AggressiveBufferReturn
}

// SetAggressiveBufferReturn changes that behavior at runtime.
func (m *Manager) SetAggressiveBufferReturn(v bool) {
	m.mu.Lock()
	m.cfg.AggressiveBufferReturn = v
	m.mu.Unlock()
}

// GenerateCallStacks reports whether new StreamViews capture an
// allocation call stack.
func (m *Manager) GenerateCallStacks() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.GenerateCallStacks
}

// SetGenerateCallStacks changes that behavior at runtime. It only affects
// StreamViews created afterward.
func (m *Manager) SetGenerateCallStacks(v bool) {
	m.mu.Lock()
	m.cfg.GenerateCallStacks = v
	m.mu.Unlock()
}

// GetBlock returns a Block of exactly BlockSize bytes, either recycled
// from the small pool's free list or freshly allocated.
func (m *Manager) GetBlock() *Block {
	b, created := m.small.get()
	if created {
		m.emit(EventBlockCreated, EventContext{Size: m.cfg.BlockSize})
	}
	return b
}

// ReturnBlocks returns one or more Blocks to the small pool. A nil entry
// in blocks is skipped rather than treated as an error, since callers
// commonly return a stream's block chain wholesale and the last chain
// link is sometimes nil after a partial release.
func (m *Manager) ReturnBlocks(blocks []*Block) {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if discarded := m.small.put(b); discarded {
			m.emit(EventBlockDiscarded, EventContext{Size: m.cfg.BlockSize})
		} else {
			m.emit(EventBlockReturned, EventContext{Size: m.cfg.BlockSize})
		}
	}
}

// GetLargeBuffer returns a LargeBuffer whose length is at least
// requiredSize, quantized up to the nearest LargeBufferMultiple. Requests
// that quantize past MaximumBufferSize are served as oversized buffers
// that are allocated fresh and never returned to a free list.
func (m *Manager) GetLargeBuffer(requiredSize int) (*LargeBuffer, error) {
	if requiredSize < 0 {
		return nil, wrapErr(KindOutOfRange, fmt.Sprintf("requiredSize must be non-negative, got %d", requiredSize), nil)
	}
	buf, created := m.large.get(requiredSize)
	if created {
		if buf.oversize {
			m.emit(EventLargeBufferCreatedOverflow, EventContext{Size: len(buf.data), RequestedSize: requiredSize})
		} else {
			m.emit(EventLargeBufferCreated, EventContext{Size: len(buf.data), RequestedSize: requiredSize})
		}
	}
	return buf, nil
}

// ReturnLargeBuffer returns buf to the large pool's free list for its
// size class, unless buf is oversized or the large pool's free-byte cap
// has been reached, in which case it is discarded. Returning a buffer
// that was never issued by GetLargeBuffer is not detected: the large
// pool's free-byte counter will increase with no matching decrement
// elsewhere. Only return buffers obtained from this Manager.
func (m *Manager) ReturnLargeBuffer(buf *LargeBuffer) {
	if buf == nil {
		return
	}
	if discarded := m.large.put(buf); discarded {
		m.emit(EventLargeBufferDiscarded, EventContext{Size: len(buf.data)})
	} else {
		m.emit(EventLargeBufferReturned, EventContext{Size: len(buf.data)})
	}
}

// GetStream returns a new, empty StreamView backed initially by one
// block's worth of capacity. tag is an opaque diagnostic label surfaced
// on lifecycle events and StreamView.String; it is never interpreted.
func (m *Manager) GetStream(tag string) *StreamView {
	sv, _ := m.getStream(tag, 0, false)
	return sv
}

// GetStreamWithCapacity returns a new StreamView with at least
// requiredSize bytes of capacity pre-allocated. If asContiguousLargeBuffer
// is true and requiredSize exceeds one Block, the stream is seeded
// directly with a single LargeBuffer instead of a chain of Blocks;
// otherwise it is seeded with the smallest number of Blocks that covers
// requiredSize, unless requiredSize already clears the Manager's
// promotion threshold, in which case it is large-buffer backed regardless.
func (m *Manager) GetStreamWithCapacity(requiredSize int, tag string, asContiguousLargeBuffer bool) (*StreamView, error) {
	return m.getStream(tag, requiredSize, asContiguousLargeBuffer)
}

// GetStreamFromBytes returns a new StreamView preloaded with count bytes
// copied from source[offset:offset+count]. Position is left at 0 and
// Length is set to count; the source slice is copied, never retained or
// mutated.
func (m *Manager) GetStreamFromBytes(tag string, source []byte, offset, count int) (*StreamView, error) {
	if source == nil {
		return nil, ErrNullInput
	}
	if offset < 0 || count < 0 || offset+count > len(source) {
		return nil, wrapErr(KindArgumentBounds, fmt.Sprintf("invalid offset/count (%d, %d) for source of length %d", offset, count, len(source)), nil)
	}
	if int64(count) > maxStreamOffset {
		return nil, wrapErr(KindOutOfRange, fmt.Sprintf("count %d exceeds the maximum of %d", count, maxStreamOffset), nil)
	}
	sv, err := m.getStream(tag, count, false)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		sv.copyIn(0, source[offset:offset+count])
	}
	sv.length = int64(count)
	return sv, nil
}

func (m *Manager) getStream(tag string, requiredSize int, asContiguousLargeBuffer bool) (*StreamView, error) {
	if requiredSize < 0 {
		return nil, wrapErr(KindOutOfRange, fmt.Sprintf("requiredSize must be non-negative, got %d", requiredSize), nil)
	}
	return m.newStreamView(tag, requiredSize, asContiguousLargeBuffer), nil
}

func (m *Manager) newStreamView(tag string, requiredSize int, asContiguousLargeBuffer bool) *StreamView {
	sv := &StreamView{
		id:  newStreamID(),
		tag: tag,
		mgr: m,
	}
	if m.GenerateCallStacks() {
		sv.allocationStack = captureCallStack()
	}

	wantLarge := requiredSize >= m.promotionThreshold()
	if asContiguousLargeBuffer && requiredSize > m.cfg.BlockSize {
		wantLarge = true
	}

	if wantLarge {
		buf, _ := m.GetLargeBuffer(requiredSize)
		sv.large = buf
	} else {
		blockSize := int64(m.cfg.BlockSize)
		want := int64(requiredSize)
		if want < blockSize {
			want = blockSize
		}
		for int64(len(sv.blocks))*blockSize < want {
			sv.blocks = append(sv.blocks, m.GetBlock())
		}
	}

	m.emit(EventStreamCreated, EventContext{
		StreamID:        sv.id,
		Tag:             tag,
		RequestedSize:   requiredSize,
		AllocationStack: sv.allocationStack,
	})
	runtime.SetFinalizer(sv, finalizeLeak)
	return sv
}

// promotionThreshold is the length past which a StreamView should be
// backed by a single LargeBuffer instead of a chain of Blocks. Chosen as
// two blocks' worth of data and at least one large-buffer quantum, so
// that small, short-lived streams stay cheap to recycle one block at a
// time while anything that will clearly need a large contiguous region
// skips the intermediate block-chain growth entirely.
func (m *Manager) promotionThreshold() int {
	t := m.cfg.BlockSize * 2
	if t < m.cfg.LargeBufferMultiple {
		t = m.cfg.LargeBufferMultiple
	}
	return t
}

func (m *Manager) emit(kind EventKind, ctx EventContext) {
	ctx.Kind = kind
	m.cfg.Sink.Emit(ctx)
}
