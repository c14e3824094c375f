package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// GCMonitor tracks process-wide memory pressure and nudges the Go garbage
// collector when process heap usage crosses the configured thresholds.
// It complements pool.Manager's own free-byte caps: those bound what a
// single pool retains, this bounds the process as a whole.
type GCMonitor struct {
	maxMemoryMB       int64
	gcThresholdMB     int64
	monitorInterval   time.Duration
	pressureThreshold float64

	isMonitoring bool
	lastGCTime   time.Time
	gcCount      int64

	stats *MemoryStats

	mu       sync.RWMutex
	stopChan chan struct{}

	pressureCallbacks []PressureCallback
}

// MemoryStats tracks memory usage statistics
type MemoryStats struct {
	AllocMB int64
	SysMB   int64
	HeapMB  int64
	StackMB int64

	NumGC        uint32
	PauseNs      uint64
	TotalPauseNs uint64

	PressureLevel    float64
	LastPressureTime time.Time

	SuspectedLeaks int64
	LastLeakCheck  time.Time
}

// PressureCallback is called when memory pressure is detected
type PressureCallback func(level float64, stats MemoryStats)

// GCMonitorConfig contains configuration for the GC monitor
type GCMonitorConfig struct {
	MaxMemoryMB       int64
	GCThresholdMB     int64
	MonitorInterval   time.Duration
	PressureThreshold float64
}

// DefaultGCMonitorConfig returns a default monitor configuration
func DefaultGCMonitorConfig() *GCMonitorConfig {
	return &GCMonitorConfig{
		MaxMemoryMB:       1024,
		GCThresholdMB:     512,
		MonitorInterval:   5 * time.Second,
		PressureThreshold: 0.8,
	}
}

// NewGCMonitor creates a new GC pressure monitor.
func NewGCMonitor(config *GCMonitorConfig) *GCMonitor {
	if config == nil {
		config = DefaultGCMonitorConfig()
	}

	return &GCMonitor{
		maxMemoryMB:       config.MaxMemoryMB,
		gcThresholdMB:     config.GCThresholdMB,
		monitorInterval:   config.MonitorInterval,
		pressureThreshold: config.PressureThreshold,
		lastGCTime:        time.Now(),
		stats:             &MemoryStats{},
		stopChan:          make(chan struct{}),
		pressureCallbacks: make([]PressureCallback, 0),
	}
}

// StartMonitoring starts memory monitoring
func (gm *GCMonitor) StartMonitoring() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.isMonitoring {
		return
	}

	gm.isMonitoring = true
	go gm.monitorLoop()
}

// StopMonitoring stops memory monitoring
func (gm *GCMonitor) StopMonitoring() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if !gm.isMonitoring {
		return
	}

	gm.isMonitoring = false
	close(gm.stopChan)
	gm.stopChan = make(chan struct{})
}

func (gm *GCMonitor) monitorLoop() {
	ticker := time.NewTicker(gm.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gm.updateStats()
			gm.checkMemoryPressure()
			gm.checkForLeaks()

		case <-gm.stopChan:
			return
		}
	}
}

func (gm *GCMonitor) updateStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.stats.AllocMB = int64(m.Alloc / 1024 / 1024)
	gm.stats.SysMB = int64(m.Sys / 1024 / 1024)
	gm.stats.HeapMB = int64(m.HeapAlloc / 1024 / 1024)
	gm.stats.StackMB = int64(m.StackSys / 1024 / 1024)

	gm.stats.NumGC = m.NumGC
	if len(m.PauseNs) > 0 {
		gm.stats.PauseNs = m.PauseNs[(m.NumGC+255)%256]
	}
	gm.stats.TotalPauseNs = m.PauseTotalNs

	if gm.maxMemoryMB > 0 {
		gm.stats.PressureLevel = float64(gm.stats.AllocMB) / float64(gm.maxMemoryMB)
	}
}

func (gm *GCMonitor) checkMemoryPressure() {
	gm.mu.RLock()
	pressureLevel := gm.stats.PressureLevel
	stats := *gm.stats
	gm.mu.RUnlock()

	if pressureLevel > gm.pressureThreshold {
		gm.mu.Lock()
		gm.stats.LastPressureTime = time.Now()
		gm.mu.Unlock()

		for _, callback := range gm.pressureCallbacks {
			go callback(pressureLevel, stats)
		}

		if gm.stats.AllocMB > gm.gcThresholdMB {
			gm.ForceGC()
		}
	}
}

// checkForLeaks applies a coarse heuristic: memory staying above half the
// configured limit without a recent GC is treated as a suspected leak.
func (gm *GCMonitor) checkForLeaks() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	now := time.Now()

	if now.Sub(gm.stats.LastLeakCheck) > 30*time.Second {
		if gm.stats.AllocMB > gm.maxMemoryMB/2 &&
			time.Since(gm.lastGCTime) > time.Minute {
			gm.stats.SuspectedLeaks++
		}

		gm.stats.LastLeakCheck = now
	}
}

// ForceGC forces garbage collection
func (gm *GCMonitor) ForceGC() {
	gm.mu.Lock()
	gm.lastGCTime = time.Now()
	gm.gcCount++
	gm.mu.Unlock()

	runtime.GC()
	debug.FreeOSMemory()
}

// RegisterPressureCallback registers a callback for memory pressure events
func (gm *GCMonitor) RegisterPressureCallback(callback PressureCallback) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gm.pressureCallbacks = append(gm.pressureCallbacks, callback)
}

// GetStats returns current memory statistics
func (gm *GCMonitor) GetStats() MemoryStats {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	return *gm.stats
}

// SetGCPercent sets the garbage collection target percentage
func (gm *GCMonitor) SetGCPercent(percent int) int {
	return debug.SetGCPercent(percent)
}

// SetMemoryLimit sets a soft memory limit for the runtime
func (gm *GCMonitor) SetMemoryLimit(limitMB int64) int64 {
	if limitMB <= 0 {
		return 0
	}

	limitBytes := limitMB * 1024 * 1024
	return debug.SetMemoryLimit(limitBytes) / 1024 / 1024
}

// TriggerGCIfNeeded triggers GC if memory usage exceeds threshold
func (gm *GCMonitor) TriggerGCIfNeeded() bool {
	gm.mu.RLock()
	allocMB := gm.stats.AllocMB
	threshold := gm.gcThresholdMB
	gm.mu.RUnlock()

	if allocMB > threshold {
		gm.ForceGC()
		return true
	}

	return false
}

// GetMemoryPressure returns current memory pressure level
func (gm *GCMonitor) GetMemoryPressure() float64 {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	return gm.stats.PressureLevel
}

// IsUnderPressure returns true if memory is under pressure
func (gm *GCMonitor) IsUnderPressure() bool {
	return gm.GetMemoryPressure() > gm.pressureThreshold
}

// OptimizeGC adjusts the GC target percentage based on current pressure.
// Under heavy pressure the collector runs more eagerly, trading CPU for a
// smaller resident set; this matters here because a busy StreamView churn
// can otherwise let freed blocks linger until the next natural GC cycle.
func (gm *GCMonitor) OptimizeGC() {
	stats := gm.GetStats()

	switch {
	case stats.PressureLevel > 0.9:
		debug.SetGCPercent(50)
	case stats.PressureLevel > 0.7:
		debug.SetGCPercent(75)
	default:
		debug.SetGCPercent(100)
	}
}

// Close shuts down the monitor.
func (gm *GCMonitor) Close() {
	gm.StopMonitoring()
}
