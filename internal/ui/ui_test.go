package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ibrahmsql/streampool/internal/metrics"
	"github.com/ibrahmsql/streampool/internal/pool"
)

func newTestManager(t *testing.T) *pool.Manager {
	t.Helper()
	mgr, err := pool.NewManager(pool.Config{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return mgr
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(newTestManager(t), metrics.NewMetrics())
	if m.width != 80 || m.height != 24 {
		t.Errorf("default size = %dx%d, want 80x24", m.width, m.height)
	}
	if m.quitting {
		t.Error("new model should not start quitting")
	}
}

func TestModelInitReturnsTickCmd(t *testing.T) {
	m := NewModel(nil, metrics.NewMetrics())
	if cmd := m.Init(); cmd == nil {
		t.Error("Init() should return a tick command")
	}
}

func TestModelUpdateHandlesWindowResize(t *testing.T) {
	m := NewModel(nil, metrics.NewMetrics())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm := updated.(Model)
	if mm.width != 100 || mm.height != 40 {
		t.Errorf("size after resize = %dx%d, want 100x40", mm.width, mm.height)
	}
}

func TestModelUpdateQuitsOnCtrlC(t *testing.T) {
	m := NewModel(nil, metrics.NewMetrics())
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	mm := updated.(Model)
	if !mm.quitting {
		t.Error("ctrl+c should set quitting")
	}
	if cmd == nil {
		t.Error("ctrl+c should return a quit command")
	}
}

func TestModelUpdateRefreshesSnapshotOnTick(t *testing.T) {
	met := metrics.NewMetrics()
	met.AddBytesWritten(123)

	m := NewModel(nil, met)
	updated, cmd := m.Update(tickMsg(time.Now()))
	mm := updated.(Model)
	if mm.snapshot.BytesWritten != 123 {
		t.Errorf("snapshot.BytesWritten = %d, want 123", mm.snapshot.BytesWritten)
	}
	if cmd == nil {
		t.Error("tick should reschedule another tick command")
	}
}

func TestModelViewContainsDashboardSections(t *testing.T) {
	m := NewModel(newTestManager(t), metrics.NewMetrics())
	view := m.View()
	if view == "" {
		t.Fatal("View() returned empty string")
	}
	if got := m.viewPoolStats(); got == "" {
		t.Error("viewPoolStats() returned empty string")
	}
	if got := m.viewLifecycleStats(); got == "" {
		t.Error("viewLifecycleStats() returned empty string")
	}
}

func TestModelViewWhenQuitting(t *testing.T) {
	m := NewModel(nil, metrics.NewMetrics())
	m.quitting = true
	if got := m.View(); got != "Goodbye!\n" {
		t.Errorf("View() while quitting = %q, want %q", got, "Goodbye!\n")
	}
}

func TestModelViewWithoutManagerIsSafe(t *testing.T) {
	m := NewModel(nil, metrics.NewMetrics())
	if got := m.viewPoolStats(); got == "" {
		t.Error("viewPoolStats() should render a placeholder when mgr is nil")
	}
}
