package pool

import (
	"bytes"
	"errors"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		BlockSize:                 16384,
		LargeBufferMultiple:       1048576,
		MaximumBufferSize:         8388608,
		MaximumFreeSmallPoolBytes: 16384 * 4,
		MaximumFreeLargePoolBytes: 1048576 * 4,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{BlockSize: -1},
		{BlockSize: 16384, LargeBufferMultiple: -1},
		{BlockSize: 16384, LargeBufferMultiple: 1048576, MaximumBufferSize: 100},
		{BlockSize: 16384, LargeBufferMultiple: 1048576, MaximumBufferSize: 1048576, MaximumFreeSmallPoolBytes: -1},
	}
	for i, c := range cases {
		if _, err := NewManager(c); err == nil {
			t.Errorf("case %d: expected error, got nil", i)
		} else if !Is(err, KindInvalidConfiguration) {
			t.Errorf("case %d: expected KindInvalidConfiguration, got %v", i, err)
		}
	}
}

func TestNewManagerAppliesDefaults(t *testing.T) {
	m, err := NewManager(Config{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.BlockSize() != DefaultBlockSize {
		t.Errorf("BlockSize = %d, want %d", m.BlockSize(), DefaultBlockSize)
	}
	if m.LargeBufferMultiple() != DefaultLargeBufferMultiple {
		t.Errorf("LargeBufferMultiple = %d, want %d", m.LargeBufferMultiple(), DefaultLargeBufferMultiple)
	}
	if m.MaximumBufferSize() != DefaultMaximumBufferSize {
		t.Errorf("MaximumBufferSize = %d, want %d", m.MaximumBufferSize(), DefaultMaximumBufferSize)
	}
}

// TestBlockCountersBalance (S1): acquiring and returning a block must
// leave SmallPoolInUseSize at zero and move the bytes into
// SmallPoolFreeSize, up to the configured cap.
func TestBlockCountersBalance(t *testing.T) {
	m := newTestManager(t)

	b := m.GetBlock()
	if got := m.SmallPoolInUseSize(); got != int64(m.BlockSize()) {
		t.Fatalf("SmallPoolInUseSize = %d, want %d", got, m.BlockSize())
	}
	if got := m.SmallPoolFreeSize(); got != 0 {
		t.Fatalf("SmallPoolFreeSize = %d, want 0", got)
	}

	m.ReturnBlocks([]*Block{b})
	if got := m.SmallPoolInUseSize(); got != 0 {
		t.Fatalf("SmallPoolInUseSize = %d, want 0", got)
	}
	if got := m.SmallPoolFreeSize(); got != int64(m.BlockSize()) {
		t.Fatalf("SmallPoolFreeSize = %d, want %d", got, m.BlockSize())
	}
}

// TestBlockReuseFromFreeList (S2): a block returned to the pool is handed
// back out by a subsequent GetBlock rather than allocated fresh.
func TestBlockReuseFromFreeList(t *testing.T) {
	m := newTestManager(t)
	b1 := m.GetBlock()
	m.ReturnBlocks([]*Block{b1})
	b2 := m.GetBlock()
	if &b1.data[0] != &b2.data[0] {
		t.Fatalf("expected GetBlock to reuse the freed block")
	}
}

// TestSmallPoolFreeCapDiscards (S3): once the small pool's free-byte cap
// is reached, further returns are discarded rather than retained.
func TestSmallPoolFreeCapDiscards(t *testing.T) {
	m := newTestManager(t)
	cap := m.small.maxFreeLen
	blocks := make([]*Block, cap+2)
	for i := range blocks {
		blocks[i] = m.GetBlock()
	}
	m.ReturnBlocks(blocks)
	if got := m.SmallPoolFreeSize(); got != int64(cap)*int64(m.BlockSize()) {
		t.Fatalf("SmallPoolFreeSize = %d, want capped at %d", got, int64(cap)*int64(m.BlockSize()))
	}
}

// TestLargeBufferQuantization (S4): requests are rounded up to the
// nearest LargeBufferMultiple.
func TestLargeBufferQuantization(t *testing.T) {
	m := newTestManager(t)
	buf, err := m.GetLargeBuffer(1)
	if err != nil {
		t.Fatalf("GetLargeBuffer: %v", err)
	}
	if len(buf.data) != m.LargeBufferMultiple() {
		t.Fatalf("len = %d, want %d", len(buf.data), m.LargeBufferMultiple())
	}

	buf2, err := m.GetLargeBuffer(m.LargeBufferMultiple() + 1)
	if err != nil {
		t.Fatalf("GetLargeBuffer: %v", err)
	}
	if len(buf2.data) != 2*m.LargeBufferMultiple() {
		t.Fatalf("len = %d, want %d", len(buf2.data), 2*m.LargeBufferMultiple())
	}
}

// TestOversizedLargeBufferBypassesPool (S5): requests beyond
// MaximumBufferSize are served as oversized buffers that are not retained
// on return.
func TestOversizedLargeBufferBypassesPool(t *testing.T) {
	m := newTestManager(t)
	buf, err := m.GetLargeBuffer(m.MaximumBufferSize() + 1)
	if err != nil {
		t.Fatalf("GetLargeBuffer: %v", err)
	}
	if !buf.Oversized() {
		t.Fatalf("expected oversized buffer")
	}
	before := m.LargePoolFreeSize()
	m.ReturnLargeBuffer(buf)
	if got := m.LargePoolFreeSize(); got != before {
		t.Fatalf("LargePoolFreeSize changed after returning an oversized buffer: %d -> %d", before, got)
	}
}

// TestLargeBufferReuseFromFreeList (S6) mirrors TestBlockReuseFromFreeList
// for the large pool's size-classed free lists.
func TestLargeBufferReuseFromFreeList(t *testing.T) {
	m := newTestManager(t)
	buf1, _ := m.GetLargeBuffer(1024)
	m.ReturnLargeBuffer(buf1)
	buf2, _ := m.GetLargeBuffer(1024)
	if &buf1.data[0] != &buf2.data[0] {
		t.Fatalf("expected GetLargeBuffer to reuse the freed buffer")
	}
}

// TestReturnLargeBufferNeverIssuedInflatesFreeSize documents the
// tolerated double-counting behavior: returning a buffer that was never
// obtained from this Manager still increments LargePoolFreeSize.
func TestReturnLargeBufferNeverIssuedInflatesFreeSize(t *testing.T) {
	m := newTestManager(t)
	stray := &LargeBuffer{data: make([]byte, m.LargeBufferMultiple())}
	before := m.LargePoolFreeSize()
	m.ReturnLargeBuffer(stray)
	after := m.LargePoolFreeSize()
	if after != before+int64(m.LargeBufferMultiple()) {
		t.Fatalf("LargePoolFreeSize = %d, want %d", after, before+int64(m.LargeBufferMultiple()))
	}
}

// TestGetStreamWithCapacityPromotesUpfront (S7): a stream requested with
// a size at or beyond the promotion threshold is large-buffer backed
// from the start, never touching the small pool.
func TestGetStreamWithCapacityPromotesUpfront(t *testing.T) {
	m := newTestManager(t)
	sv, err := m.GetStreamWithCapacity(m.LargeBufferMultiple(), "big", false)
	if err != nil {
		t.Fatalf("GetStreamWithCapacity: %v", err)
	}
	defer sv.Dispose()

	if m.SmallPoolInUseSize() != 0 {
		t.Fatalf("expected the small pool untouched, got in-use %d", m.SmallPoolInUseSize())
	}
	if _, err := sv.GetBuffer(); err != nil {
		t.Fatalf("expected large-buffer backing, GetBuffer failed: %v", err)
	}
}

func TestGetStreamStartsBlockBacked(t *testing.T) {
	m := newTestManager(t)
	sv := m.GetStream("small")
	defer sv.Dispose()

	// A single-block stream is already contiguous: GetBuffer returns it
	// directly without promoting to a LargeBuffer.
	if _, err := sv.GetBuffer(); err != nil {
		t.Fatalf("GetBuffer on a single-block stream: %v", err)
	}
	if m.SmallPoolInUseSize() != int64(m.BlockSize()) {
		t.Fatalf("SmallPoolInUseSize = %d, want %d", m.SmallPoolInUseSize(), m.BlockSize())
	}
	if m.LargePoolInUseSize() != 0 {
		t.Fatalf("expected no promotion for a single-block stream, LargePoolInUseSize = %d", m.LargePoolInUseSize())
	}
}

// TestGetBufferPromotesMultiBlockStream exercises the on-demand
// block-chain-to-LargeBuffer promotion GetBuffer performs once a stream
// spans more than one Block, without ever exceeding the write-path
// promotion threshold.
func TestGetBufferPromotesMultiBlockStream(t *testing.T) {
	m := newTestManager(t)
	sv := m.GetStream("multi")
	defer sv.Dispose()

	data := make([]byte, m.BlockSize()+1)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if _, err := sv.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf, err := sv.GetBuffer()
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	if !bytes.Equal(buf, data) {
		t.Fatalf("GetBuffer mismatch after promotion")
	}
	if len(buf) < m.BlockSize()+1 {
		t.Fatalf("len(buf) = %d, want >= %d", len(buf), m.BlockSize()+1)
	}
	if m.SmallPoolInUseSize() != 0 {
		t.Fatalf("expected blocks released on promotion, SmallPoolInUseSize = %d", m.SmallPoolInUseSize())
	}

	second, err := sv.GetBuffer()
	if err != nil {
		t.Fatalf("second GetBuffer: %v", err)
	}
	if &buf[0] != &second[0] {
		t.Fatalf("expected repeated GetBuffer calls to return the same backing array")
	}
}

func TestDisposeReturnsBuffersToPool(t *testing.T) {
	m := newTestManager(t)
	sv := m.GetStream("t")
	if err := sv.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if m.SmallPoolInUseSize() != 0 {
		t.Fatalf("SmallPoolInUseSize = %d, want 0 after Dispose", m.SmallPoolInUseSize())
	}
	if m.SmallPoolFreeSize() != int64(m.BlockSize()) {
		t.Fatalf("SmallPoolFreeSize = %d, want %d after Dispose", m.SmallPoolFreeSize(), m.BlockSize())
	}
}

func TestDoubleDispose(t *testing.T) {
	m := newTestManager(t)
	sv := m.GetStream("t")
	if err := sv.Dispose(); err != nil {
		t.Fatalf("first Dispose: %v", err)
	}
	if err := sv.Dispose(); !errors.Is(err, ErrDoubleDispose) {
		t.Fatalf("second Dispose = %v, want ErrDoubleDispose", err)
	}
}

func TestGetStreamWithCapacityMidRangeAllocatesEnoughBlocks(t *testing.T) {
	m := newTestManager(t)
	requiredSize := m.BlockSize() + 100
	sv, err := m.GetStreamWithCapacity(requiredSize, "midrange", false)
	if err != nil {
		t.Fatalf("GetStreamWithCapacity: %v", err)
	}
	defer sv.Dispose()

	if sv.Capacity() < int64(requiredSize) {
		t.Fatalf("Capacity = %d, want >= %d", sv.Capacity(), requiredSize)
	}
	if m.LargePoolInUseSize() != 0 {
		t.Fatalf("expected block-chain backing below the promotion threshold, LargePoolInUseSize = %d", m.LargePoolInUseSize())
	}
}

func TestGetStreamWithCapacityForcesLargeBuffer(t *testing.T) {
	m := newTestManager(t)
	requiredSize := m.BlockSize() + 1
	sv, err := m.GetStreamWithCapacity(requiredSize, "forced", true)
	if err != nil {
		t.Fatalf("GetStreamWithCapacity: %v", err)
	}
	defer sv.Dispose()

	if m.SmallPoolInUseSize() != 0 {
		t.Fatalf("expected asContiguousLargeBuffer to seed with a LargeBuffer, SmallPoolInUseSize = %d", m.SmallPoolInUseSize())
	}
	if m.LargePoolInUseSize() == 0 {
		t.Fatalf("expected asContiguousLargeBuffer to seed with a LargeBuffer")
	}
}

func TestGetStreamFromBytesCopiesAndSeedsLength(t *testing.T) {
	m := newTestManager(t)
	source := []byte("hello pooled world")
	sv, err := m.GetStreamFromBytes("seeded", source, 6, 6)
	if err != nil {
		t.Fatalf("GetStreamFromBytes: %v", err)
	}
	defer sv.Dispose()

	if sv.Length() != 6 {
		t.Fatalf("Length = %d, want 6", sv.Length())
	}
	if sv.Position() != 0 {
		t.Fatalf("Position = %d, want 0", sv.Position())
	}
	got, err := sv.ToArray()
	if err != nil {
		t.Fatalf("ToArray: %v", err)
	}
	if string(got) != "pooled" {
		t.Fatalf("ToArray = %q, want %q", got, "pooled")
	}

	// The source slice must not be retained: mutating it afterward must
	// not change the stream's contents.
	source[6] = 'X'
	got2, _ := sv.ToArray()
	if string(got2) != "pooled" {
		t.Fatalf("stream retained the source slice: %q", got2)
	}
}

func TestGetStreamFromBytesRejectsOutOfBounds(t *testing.T) {
	m := newTestManager(t)
	source := []byte("short")
	if _, err := m.GetStreamFromBytes("bad", source, 2, 10); !Is(err, KindArgumentBounds) {
		t.Fatalf("expected KindArgumentBounds, got %v", err)
	}
	if _, err := m.GetStreamFromBytes("bad", nil, 0, 0); !errors.Is(err, ErrNullInput) {
		t.Fatalf("expected ErrNullInput for nil source, got %v", err)
	}
}

func TestRuntimeConfigMutators(t *testing.T) {
	m := newTestManager(t)

	if err := m.SetMaximumFreeSmallPoolBytes(int64(m.BlockSize())); err != nil {
		t.Fatalf("SetMaximumFreeSmallPoolBytes: %v", err)
	}
	if got := m.MaximumFreeSmallPoolBytes(); got != int64(m.BlockSize()) {
		t.Fatalf("MaximumFreeSmallPoolBytes = %d, want %d", got, m.BlockSize())
	}
	blocks := []*Block{m.GetBlock(), m.GetBlock()}
	m.ReturnBlocks(blocks)
	if got := m.SmallPoolFreeSize(); got != int64(m.BlockSize()) {
		t.Fatalf("SmallPoolFreeSize = %d, want capped at %d after lowering the cap", got, m.BlockSize())
	}

	if err := m.SetMaximumFreeLargePoolBytes(int64(m.LargeBufferMultiple())); err != nil {
		t.Fatalf("SetMaximumFreeLargePoolBytes: %v", err)
	}
	if got := m.MaximumFreeLargePoolBytes(); got != int64(m.LargeBufferMultiple()) {
		t.Fatalf("MaximumFreeLargePoolBytes = %d, want %d", got, m.LargeBufferMultiple())
	}

	if err := m.SetMaximumStreamCapacity(4096); err != nil {
		t.Fatalf("SetMaximumStreamCapacity: %v", err)
	}
	sv := m.GetStream("capped-at-runtime")
	defer sv.Dispose()
	if _, err := sv.Write(make([]byte, 4097)); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Write past runtime-set cap = %v, want ErrCapacityExceeded", err)
	}

	m.SetAggressiveBufferReturn(true)
	if !m.AggressiveBufferReturn() {
		t.Fatalf("AggressiveBufferReturn = false, want true")
	}
	m.SetGenerateCallStacks(true)
	if !m.GenerateCallStacks() {
		t.Fatalf("GenerateCallStacks = false, want true")
	}
}

func TestEventSinkReceivesLifecycleEvents(t *testing.T) {
	var kinds []EventKind
	m, err := NewManager(Config{
		BlockSize:           16384,
		LargeBufferMultiple: 1048576,
		MaximumBufferSize:   8388608,
		Sink: FuncSink(func(ctx EventContext) {
			kinds = append(kinds, ctx.Kind)
		}),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	sv := m.GetStream("t")
	sv.Dispose()

	want := []EventKind{EventBlockCreated, EventStreamCreated, EventBlockReturned, EventStreamDisposed}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}
