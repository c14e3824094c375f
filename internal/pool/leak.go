package pool

// finalizeLeak runs if a StreamView is garbage collected without ever
// having Dispose called on it. Go has no deterministic destructors, so
// this is a backstop for catching leaks in development and test builds,
// not a substitute for calling Dispose: the finalizer can run arbitrarily
// late (or, under GOGC=off, never), and it cannot return the stream's
// buffers to the pool from here since the stream's own fields may already
// be partially collected.
func finalizeLeak(s *StreamView) {
	if s.disposed {
		return
	}
	s.mgr.emit(EventStreamLeakDetected, EventContext{
		StreamID:        s.id,
		Tag:             s.tag,
		AllocationStack: s.allocationStack,
	})
}
