package metrics

import "github.com/ibrahmsql/streampool/internal/pool"

// EventSink adapts pool.EventSink onto a Metrics instance, so every
// allocation/dispose/leak notification the pool manager emits is also
// reflected in the counters this package exports to Prometheus.
type EventSink struct {
	m *Metrics
}

// NewEventSink returns an EventSink that accumulates pool lifecycle events
// into m.
func NewEventSink(m *Metrics) *EventSink {
	return &EventSink{m: m}
}

// Emit implements pool.EventSink.
func (s *EventSink) Emit(ctx pool.EventContext) {
	switch ctx.Kind {
	case pool.EventStreamCreated:
		s.m.IncrementStreamsActive()
	case pool.EventStreamDisposed:
		s.m.DecrementStreamsActive()
	case pool.EventStreamDoubleDisposed:
		s.m.IncrementStreamsDoubleDisposed()
	case pool.EventStreamLeakDetected:
		s.m.IncrementStreamsLeaked()
	case pool.EventBlockCreated:
		s.m.AddBlockEvent(1, 0, 0)
	case pool.EventBlockReturned:
		s.m.AddBlockEvent(0, 1, 0)
	case pool.EventBlockDiscarded:
		s.m.AddBlockEvent(0, 0, 1)
	case pool.EventLargeBufferCreated:
		s.m.AddLargeBufferEvent(1, 0, 0, 0)
	case pool.EventLargeBufferCreatedOverflow:
		s.m.AddLargeBufferEvent(0, 1, 0, 0)
	case pool.EventLargeBufferReturned:
		s.m.AddLargeBufferEvent(0, 0, 1, 0)
	case pool.EventLargeBufferDiscarded:
		s.m.AddLargeBufferEvent(0, 0, 0, 1)
	}
}
