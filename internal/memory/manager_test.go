package memory

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestNewGCMonitor(t *testing.T) {
	config := DefaultGCMonitorConfig()
	gm := NewGCMonitor(config)
	defer gm.Close()

	if gm.maxMemoryMB != config.MaxMemoryMB {
		t.Errorf("Expected maxMemoryMB %d, got %d", config.MaxMemoryMB, gm.maxMemoryMB)
	}

	if gm.gcThresholdMB != config.GCThresholdMB {
		t.Errorf("Expected gcThresholdMB %d, got %d", config.GCThresholdMB, gm.gcThresholdMB)
	}
}

func TestGCMonitorMonitoring(t *testing.T) {
	config := DefaultGCMonitorConfig()
	config.MonitorInterval = 100 * time.Millisecond
	gm := NewGCMonitor(config)
	defer gm.Close()

	gm.StartMonitoring()

	if !gm.isMonitoring {
		t.Error("Expected monitoring to be active")
	}

	time.Sleep(300 * time.Millisecond)

	stats := gm.GetStats()
	if stats.SysMB == 0 {
		t.Error("Expected memory stats to be updated")
	}

	gm.StopMonitoring()

	if gm.isMonitoring {
		t.Error("Expected monitoring to be stopped")
	}
}

func TestForceGC(t *testing.T) {
	gm := NewGCMonitor(DefaultGCMonitorConfig())
	defer gm.Close()

	initialGCCount := gm.gcCount

	gm.ForceGC()

	if gm.gcCount != initialGCCount+1 {
		t.Errorf("Expected GC count to increase by 1, got %d", gm.gcCount-initialGCCount)
	}

	if time.Since(gm.lastGCTime) > time.Second {
		t.Error("Expected lastGCTime to be recent")
	}
}

func TestMemoryPressureCallback(t *testing.T) {
	config := DefaultGCMonitorConfig()
	config.PressureThreshold = 0.1
	config.MonitorInterval = 50 * time.Millisecond
	gm := NewGCMonitor(config)
	defer gm.Close()

	var callbackCalled bool
	var callbackLevel float64
	var mu sync.Mutex

	gm.RegisterPressureCallback(func(level float64, stats MemoryStats) {
		mu.Lock()
		callbackCalled = true
		callbackLevel = level
		mu.Unlock()
	})

	gm.StartMonitoring()

	data := make([][]byte, 1000)
	for i := range data {
		data[i] = make([]byte, 1024*1024)
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	called := callbackCalled
	level := callbackLevel
	mu.Unlock()

	if !called {
		t.Error("Expected pressure callback to be called")
	}

	if level <= config.PressureThreshold {
		t.Errorf("Expected pressure level > %f, got %f", config.PressureThreshold, level)
	}

	runtime.KeepAlive(data)
	data = nil
	runtime.GC()
}

func TestTriggerGCIfNeeded(t *testing.T) {
	config := DefaultGCMonitorConfig()
	config.GCThresholdMB = 1
	gm := NewGCMonitor(config)
	defer gm.Close()

	data := make([]byte, 2*1024*1024)
	_ = data

	gm.updateStats()

	triggered := gm.TriggerGCIfNeeded()
	if !triggered {
		t.Error("Expected GC to be triggered")
	}

	data = nil
	runtime.GC()
}

func TestMemoryPressureDetection(t *testing.T) {
	config := DefaultGCMonitorConfig()
	config.MaxMemoryMB = 10
	gm := NewGCMonitor(config)
	defer gm.Close()

	if gm.IsUnderPressure() {
		t.Error("Expected not to be under pressure initially")
	}

	data := make([]byte, 9*1024*1024)
	_ = data

	gm.updateStats()

	if !gm.IsUnderPressure() {
		t.Error("Expected to be under pressure after allocation")
	}

	pressure := gm.GetMemoryPressure()
	if pressure <= config.PressureThreshold {
		t.Errorf("Expected pressure > %f, got %f", config.PressureThreshold, pressure)
	}

	data = nil
	runtime.GC()
}

func TestOptimizeGC(t *testing.T) {
	gm := NewGCMonitor(DefaultGCMonitorConfig())
	defer gm.Close()

	gm.OptimizeGC()
}
