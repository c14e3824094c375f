package health

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

// MemoryHealthChecker checks memory usage
type MemoryHealthChecker struct {
	name               string
	timeout            time.Duration
	interval           time.Duration
	maxMemoryMB        int64
	warningThresholdMB int64
}

// NewMemoryHealthChecker creates a new memory health checker
func NewMemoryHealthChecker(maxMemoryMB, warningThresholdMB int64) *MemoryHealthChecker {
	return &MemoryHealthChecker{
		name:               "memory",
		timeout:            5 * time.Second,
		interval:           30 * time.Second,
		maxMemoryMB:        maxMemoryMB,
		warningThresholdMB: warningThresholdMB,
	}
}

// GetName returns the checker name
func (mhc *MemoryHealthChecker) GetName() string {
	return mhc.name
}

// GetTimeout returns the check timeout
func (mhc *MemoryHealthChecker) GetTimeout() time.Duration {
	return mhc.timeout
}

// GetInterval returns the check interval
func (mhc *MemoryHealthChecker) GetInterval() time.Duration {
	return mhc.interval
}

// Check performs the memory health check
func (mhc *MemoryHealthChecker) Check(ctx context.Context) HealthCheckResult {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := int64(m.Alloc / 1024 / 1024)
	sysMB := int64(m.Sys / 1024 / 1024)

	metadata := map[string]interface{}{
		"alloc_mb":   allocMB,
		"sys_mb":     sysMB,
		"heap_mb":    int64(m.HeapAlloc / 1024 / 1024),
		"goroutines": runtime.NumGoroutine(),
		"gc_cycles":  m.NumGC,
	}

	result := HealthCheckResult{
		Name:     mhc.name,
		Metadata: metadata,
	}

	if allocMB > mhc.maxMemoryMB {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Memory usage %dMB exceeds maximum %dMB", allocMB, mhc.maxMemoryMB)
	} else if allocMB > mhc.warningThresholdMB {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("Memory usage %dMB exceeds warning threshold %dMB", allocMB, mhc.warningThresholdMB)
	} else {
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("Memory usage %dMB is within limits", allocMB)
	}

	return result
}

// GoroutineHealthChecker checks goroutine count
type GoroutineHealthChecker struct {
	name             string
	timeout          time.Duration
	interval         time.Duration
	maxGoroutines    int
	warningThreshold int
}

// NewGoroutineHealthChecker creates a new goroutine health checker
func NewGoroutineHealthChecker(maxGoroutines, warningThreshold int) *GoroutineHealthChecker {
	return &GoroutineHealthChecker{
		name:             "goroutines",
		timeout:          5 * time.Second,
		interval:         30 * time.Second,
		maxGoroutines:    maxGoroutines,
		warningThreshold: warningThreshold,
	}
}

// GetName returns the checker name
func (ghc *GoroutineHealthChecker) GetName() string {
	return ghc.name
}

// GetTimeout returns the check timeout
func (ghc *GoroutineHealthChecker) GetTimeout() time.Duration {
	return ghc.timeout
}

// GetInterval returns the check interval
func (ghc *GoroutineHealthChecker) GetInterval() time.Duration {
	return ghc.interval
}

// Check performs the goroutine health check
func (ghc *GoroutineHealthChecker) Check(ctx context.Context) HealthCheckResult {
	count := runtime.NumGoroutine()

	metadata := map[string]interface{}{
		"count":     count,
		"max":       ghc.maxGoroutines,
		"warning":   ghc.warningThreshold,
		"cpu_cores": runtime.NumCPU(),
	}

	result := HealthCheckResult{
		Name:     ghc.name,
		Metadata: metadata,
	}

	if count > ghc.maxGoroutines {
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("Goroutine count %d exceeds maximum %d", count, ghc.maxGoroutines)
	} else if count > ghc.warningThreshold {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("Goroutine count %d exceeds warning threshold %d", count, ghc.warningThreshold)
	} else {
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("Goroutine count %d is within limits", count)
	}

	return result
}

// CustomHealthChecker allows for custom health check functions
type CustomHealthChecker struct {
	name     string
	timeout  time.Duration
	interval time.Duration
	checkFn  func(ctx context.Context) HealthCheckResult
}

// NewCustomHealthChecker creates a new custom health checker
func NewCustomHealthChecker(name string, timeout, interval time.Duration, checkFn func(ctx context.Context) HealthCheckResult) *CustomHealthChecker {
	return &CustomHealthChecker{
		name:     name,
		timeout:  timeout,
		interval: interval,
		checkFn:  checkFn,
	}
}

// GetName returns the checker name
func (chc *CustomHealthChecker) GetName() string {
	return chc.name
}

// GetTimeout returns the check timeout
func (chc *CustomHealthChecker) GetTimeout() time.Duration {
	return chc.timeout
}

// GetInterval returns the check interval
func (chc *CustomHealthChecker) GetInterval() time.Duration {
	return chc.interval
}

// Check performs the custom health check
func (chc *CustomHealthChecker) Check(ctx context.Context) HealthCheckResult {
	if chc.checkFn == nil {
		return HealthCheckResult{
			Name:   chc.name,
			Status: StatusUnhealthy,
			Error:  "No check function provided",
		}
	}

	return chc.checkFn(ctx)
}

// StreamPoolHealthChecker checks the health of a pooled stream allocator by
// comparing its free-byte levels against their configured caps, surfaced
// via a callback so this package stays independent of internal/pool.
type StreamPoolHealthChecker struct {
	name         string
	timeout      time.Duration
	interval     time.Duration
	poolName     string
	getPoolStats func() (smallFree, smallCap, largeFree, largeCap int64)
}

// NewStreamPoolHealthChecker creates a new pooled-allocator health checker.
// getPoolStats should return the small and large pool's current free-byte
// levels alongside their configured caps (0 meaning unbounded).
func NewStreamPoolHealthChecker(poolName string, getPoolStats func() (smallFree, smallCap, largeFree, largeCap int64)) *StreamPoolHealthChecker {
	return &StreamPoolHealthChecker{
		name:         fmt.Sprintf("stream_pool_%s", poolName),
		timeout:      5 * time.Second,
		interval:     30 * time.Second,
		poolName:     poolName,
		getPoolStats: getPoolStats,
	}
}

// GetName returns the checker name
func (sphc *StreamPoolHealthChecker) GetName() string {
	return sphc.name
}

// GetTimeout returns the check timeout
func (sphc *StreamPoolHealthChecker) GetTimeout() time.Duration {
	return sphc.timeout
}

// GetInterval returns the check interval
func (sphc *StreamPoolHealthChecker) GetInterval() time.Duration {
	return sphc.interval
}

// Check performs the pooled-allocator health check. A pool is considered
// degraded once either tier's free bytes climb past 80% of its configured
// cap, since that tier is close to discarding returned buffers instead of
// recycling them.
func (sphc *StreamPoolHealthChecker) Check(ctx context.Context) HealthCheckResult {
	if sphc.getPoolStats == nil {
		return HealthCheckResult{
			Name:   sphc.name,
			Status: StatusUnhealthy,
			Error:  "No pool stats function provided",
		}
	}

	smallFree, smallCap, largeFree, largeCap := sphc.getPoolStats()

	metadata := map[string]interface{}{
		"pool_name":  sphc.poolName,
		"small_free": smallFree,
		"small_cap":  smallCap,
		"large_free": largeFree,
		"large_cap":  largeCap,
	}

	result := HealthCheckResult{
		Name:     sphc.name,
		Metadata: metadata,
	}

	smallPct, largePct := usagePercent(smallFree, smallCap), usagePercent(largeFree, largeCap)
	metadata["small_usage_percent"] = smallPct
	metadata["large_usage_percent"] = largePct

	switch {
	case smallPct >= 100 || largePct >= 100:
		result.Status = StatusUnhealthy
		result.Error = fmt.Sprintf("stream pool %s free bytes at configured cap (small %.1f%%, large %.1f%%)", sphc.poolName, smallPct, largePct)
	case smallPct > 80 || largePct > 80:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("stream pool %s free bytes approaching cap (small %.1f%%, large %.1f%%)", sphc.poolName, smallPct, largePct)
	default:
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("stream pool %s is healthy (small %.1f%%, large %.1f%%)", sphc.poolName, smallPct, largePct)
	}

	return result
}

// usagePercent reports free/cap*100, or 0 when cap is unbounded (<= 0).
func usagePercent(free, cap int64) float64 {
	if cap <= 0 {
		return 0
	}
	return float64(free) / float64(cap) * 100
}

// MetricsHealthChecker checks if metrics are being collected
type MetricsHealthChecker struct {
	name           string
	timeout        time.Duration
	interval       time.Duration
	getMetricCount func() int64
	lastCount      int64
	staleThreshold time.Duration
	lastUpdate     time.Time
}

// NewMetricsHealthChecker creates a new metrics health checker
func NewMetricsHealthChecker(getMetricCount func() int64) *MetricsHealthChecker {
	return &MetricsHealthChecker{
		name:           "metrics",
		timeout:        5 * time.Second,
		interval:       60 * time.Second,
		getMetricCount: getMetricCount,
		staleThreshold: 5 * time.Minute,
		lastUpdate:     time.Now(),
	}
}

// GetName returns the checker name
func (mhc *MetricsHealthChecker) GetName() string {
	return mhc.name
}

// GetTimeout returns the check timeout
func (mhc *MetricsHealthChecker) GetTimeout() time.Duration {
	return mhc.timeout
}

// GetInterval returns the check interval
func (mhc *MetricsHealthChecker) GetInterval() time.Duration {
	return mhc.interval
}

// Check performs the metrics health check
func (mhc *MetricsHealthChecker) Check(ctx context.Context) HealthCheckResult {
	if mhc.getMetricCount == nil {
		return HealthCheckResult{
			Name:   mhc.name,
			Status: StatusUnhealthy,
			Error:  "No metric count function provided",
		}
	}

	currentCount := mhc.getMetricCount()
	now := time.Now()

	metadata := map[string]interface{}{
		"current_count": currentCount,
		"last_count":    atomic.LoadInt64(&mhc.lastCount),
		"last_update":   mhc.lastUpdate.Format(time.RFC3339),
	}

	result := HealthCheckResult{
		Name:     mhc.name,
		Metadata: metadata,
	}

	// Check if metrics are being updated
	if currentCount > atomic.LoadInt64(&mhc.lastCount) {
		mhc.lastUpdate = now
		atomic.StoreInt64(&mhc.lastCount, currentCount)
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("Metrics are being collected: %d total", currentCount)
	} else if now.Sub(mhc.lastUpdate) > mhc.staleThreshold {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("Metrics appear stale: no updates for %v", now.Sub(mhc.lastUpdate))
	} else {
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("Metrics collection is stable: %d total", currentCount)
	}

	return result
}
