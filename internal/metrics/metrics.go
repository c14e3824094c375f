package metrics

import (
	"sync"
	"time"
)

// Metrics holds application-level metrics layered on top of a pool.Manager's
// own counters: allocation/discard/dispose event totals, latency, and
// leak/double-dispose counts that the manager itself doesn't accumulate.
type Metrics struct {
	mu sync.RWMutex

	StreamsActive       int64
	StreamsTotal        int64
	StreamsDisposed     int64
	StreamsLeaked       int64
	StreamsDoubleDisposed int64

	BlocksAllocated int64
	BlocksReturned  int64
	BlocksDiscarded int64

	LargeBuffersAllocated int64
	LargeBuffersOverflow  int64
	LargeBuffersReturned  int64
	LargeBuffersDiscarded int64

	BytesWritten int64
	BytesRead    int64

	ErrorsTotal    int64
	AllocDuration  time.Duration
	allocSamples   int64
	LastActivity   time.Time
	StartTime      time.Time
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// IncrementStreamsActive records a newly created StreamView.
func (m *Metrics) IncrementStreamsActive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamsActive++
	m.StreamsTotal++
	m.LastActivity = time.Now()
}

// DecrementStreamsActive records a stream leaving service (disposed).
func (m *Metrics) DecrementStreamsActive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StreamsActive > 0 {
		m.StreamsActive--
	}
	m.StreamsDisposed++
	m.LastActivity = time.Now()
}

// IncrementStreamsLeaked records a finalizer-detected stream leak.
func (m *Metrics) IncrementStreamsLeaked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamsLeaked++
	m.LastActivity = time.Now()
}

// IncrementStreamsDoubleDisposed records a caller calling Dispose twice.
func (m *Metrics) IncrementStreamsDoubleDisposed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamsDoubleDisposed++
	m.LastActivity = time.Now()
}

// AddBlockEvent records a small-pool allocation/return/discard.
func (m *Metrics) AddBlockEvent(allocated, returned, discarded int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BlocksAllocated += allocated
	m.BlocksReturned += returned
	m.BlocksDiscarded += discarded
	m.LastActivity = time.Now()
}

// AddLargeBufferEvent records a large-pool allocation/return/discard.
func (m *Metrics) AddLargeBufferEvent(allocated, overflow, returned, discarded int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LargeBuffersAllocated += allocated
	m.LargeBuffersOverflow += overflow
	m.LargeBuffersReturned += returned
	m.LargeBuffersDiscarded += discarded
	m.LastActivity = time.Now()
}

// AddBytesWritten adds to the bytes-written counter.
func (m *Metrics) AddBytesWritten(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BytesWritten += n
	m.LastActivity = time.Now()
}

// AddBytesRead adds to the bytes-read counter.
func (m *Metrics) AddBytesRead(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BytesRead += n
	m.LastActivity = time.Now()
}

// IncrementErrors increments the error counter.
func (m *Metrics) IncrementErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorsTotal++
	m.LastActivity = time.Now()
}

// RecordAllocDuration records the latency of a single GetStream/
// GetStreamWithCapacity call, maintaining a running average.
func (m *Metrics) RecordAllocDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocSamples++
	if m.allocSamples > 1 {
		currentAvg := float64(m.AllocDuration)
		newSample := float64(d)
		n := float64(m.allocSamples)
		m.AllocDuration = time.Duration((currentAvg*(n-1) + newSample) / n)
	} else {
		m.AllocDuration = d
	}
	m.LastActivity = time.Now()
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		StreamsActive:         m.StreamsActive,
		StreamsTotal:          m.StreamsTotal,
		StreamsDisposed:       m.StreamsDisposed,
		StreamsLeaked:         m.StreamsLeaked,
		StreamsDoubleDisposed: m.StreamsDoubleDisposed,
		BlocksAllocated:       m.BlocksAllocated,
		BlocksReturned:        m.BlocksReturned,
		BlocksDiscarded:       m.BlocksDiscarded,
		LargeBuffersAllocated: m.LargeBuffersAllocated,
		LargeBuffersOverflow:  m.LargeBuffersOverflow,
		LargeBuffersReturned:  m.LargeBuffersReturned,
		LargeBuffersDiscarded: m.LargeBuffersDiscarded,
		BytesWritten:          m.BytesWritten,
		BytesRead:             m.BytesRead,
		ErrorsTotal:           m.ErrorsTotal,
		AllocDuration:         m.AllocDuration,
		LastActivity:          m.LastActivity,
		Uptime:                time.Since(m.StartTime),
		Timestamp:             time.Now(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	StreamsActive         int64         `json:"streams_active"`
	StreamsTotal          int64         `json:"streams_total"`
	StreamsDisposed       int64         `json:"streams_disposed"`
	StreamsLeaked         int64         `json:"streams_leaked"`
	StreamsDoubleDisposed int64         `json:"streams_double_disposed"`
	BlocksAllocated       int64         `json:"blocks_allocated"`
	BlocksReturned        int64         `json:"blocks_returned"`
	BlocksDiscarded       int64         `json:"blocks_discarded"`
	LargeBuffersAllocated int64         `json:"large_buffers_allocated"`
	LargeBuffersOverflow  int64         `json:"large_buffers_overflow"`
	LargeBuffersReturned  int64         `json:"large_buffers_returned"`
	LargeBuffersDiscarded int64         `json:"large_buffers_discarded"`
	BytesWritten          int64         `json:"bytes_written"`
	BytesRead             int64         `json:"bytes_read"`
	ErrorsTotal           int64         `json:"errors_total"`
	AllocDuration         time.Duration `json:"alloc_duration"`
	LastActivity          time.Time     `json:"last_activity"`
	Uptime                time.Duration `json:"uptime"`
	Timestamp             time.Time     `json:"timestamp"`
}

// LeakRate returns the percentage of streams ever created that were reclaimed
// by the finalizer instead of an explicit Dispose call.
func (s MetricsSnapshot) LeakRate() float64 {
	if s.StreamsTotal == 0 {
		return 0
	}
	return float64(s.StreamsLeaked) / float64(s.StreamsTotal) * 100
}

// ErrorRate returns the error rate as a percentage of streams created.
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.StreamsTotal == 0 {
		return 0
	}
	return float64(s.ErrorsTotal) / float64(s.StreamsTotal) * 100
}

// ThroughputBytesPerSecond returns combined read+write throughput in bytes
// per second since the metrics instance was created.
func (s MetricsSnapshot) ThroughputBytesPerSecond() float64 {
	if s.Uptime.Seconds() == 0 {
		return 0
	}
	return float64(s.BytesWritten+s.BytesRead) / s.Uptime.Seconds()
}

// StreamsPerSecond returns the rate of stream creation.
func (s MetricsSnapshot) StreamsPerSecond() float64 {
	if s.Uptime.Seconds() == 0 {
		return 0
	}
	return float64(s.StreamsTotal) / s.Uptime.Seconds()
}

// Global metrics instance
var globalMetrics = NewMetrics()

// GetGlobalMetrics returns the global metrics instance
func GetGlobalMetrics() *Metrics {
	return globalMetrics
}

// Reset resets all metrics to zero
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StreamsActive = 0
	m.StreamsTotal = 0
	m.StreamsDisposed = 0
	m.StreamsLeaked = 0
	m.StreamsDoubleDisposed = 0
	m.BlocksAllocated = 0
	m.BlocksReturned = 0
	m.BlocksDiscarded = 0
	m.LargeBuffersAllocated = 0
	m.LargeBuffersOverflow = 0
	m.LargeBuffersReturned = 0
	m.LargeBuffersDiscarded = 0
	m.BytesWritten = 0
	m.BytesRead = 0
	m.ErrorsTotal = 0
	m.AllocDuration = 0
	m.allocSamples = 0
	m.StartTime = time.Now()
	m.LastActivity = time.Time{}
}
