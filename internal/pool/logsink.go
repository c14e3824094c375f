package pool

import "github.com/ibrahmsql/streampool/internal/logging"

// LoggingSink adapts a structured logging.Logger to the EventSink
// interface, so pool lifecycle events flow through the same structured
// logging pipeline as the rest of the application.
type LoggingSink struct {
	log logging.Logger
}

// NewLoggingSink wraps log as an EventSink. Leak detection and discard
// events log at Warn; creation, return, and disposal log at Debug.
func NewLoggingSink(log logging.Logger) *LoggingSink {
	return &LoggingSink{log: log.WithComponent("pool")}
}

// Emit implements EventSink.
func (s *LoggingSink) Emit(ctx EventContext) {
	fields := []logging.Field{
		logging.String("event", string(ctx.Kind)),
	}
	if ctx.StreamID != "" {
		fields = append(fields, logging.String("stream_id", ctx.StreamID))
	}
	if ctx.Tag != "" {
		fields = append(fields, logging.String("tag", ctx.Tag))
	}
	if ctx.Size != 0 {
		fields = append(fields, logging.Int("size", ctx.Size))
	}
	if ctx.RequestedSize != 0 {
		fields = append(fields, logging.Int("requested_size", ctx.RequestedSize))
	}
	if len(ctx.AllocationStack) > 0 {
		fields = append(fields, logging.Any("allocation_stack", ctx.AllocationStack))
	}
	if len(ctx.DisposeStack) > 0 {
		fields = append(fields, logging.Any("dispose_stack", ctx.DisposeStack))
	}

	switch ctx.Kind {
	case EventStreamLeakDetected, EventStreamDoubleDisposed,
		EventBlockDiscarded, EventLargeBufferDiscarded:
		s.log.Warn("pool event", fields...)
	default:
		s.log.Debug("pool event", fields...)
	}
}
