package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig() should be valid, got: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`
pool:
  block_size: 32768
  large_buffer_multiple: 2097152
  maximum_buffer_size: 16777216
  aggressive_buffer_return: true
logger:
  level: debug
  format: json
  output: stdout
  show_caller: true
  colorize: false
ui:
  theme: dark
  color_scheme: dark
  animations: false
  refresh_rate: 250
`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Pool.BlockSize != 32768 {
		t.Errorf("Pool.BlockSize = %d, want 32768", cfg.Pool.BlockSize)
	}
	if !cfg.Pool.AggressiveBufferReturn {
		t.Error("Pool.AggressiveBufferReturn should be true")
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Logger.Level = %q, want debug", cfg.Logger.Level)
	}
	if cfg.UI.RefreshRate != 250 {
		t.Errorf("UI.RefreshRate = %d, want 250", cfg.UI.RefreshRate)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STREAMPOOL_BLOCK_SIZE", "8192")
	t.Setenv("STREAMPOOL_AGGRESSIVE_BUFFER_RETURN", "true")
	t.Setenv("STREAMPOOL_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Pool.BlockSize != 8192 {
		t.Errorf("Pool.BlockSize = %d, want 8192", cfg.Pool.BlockSize)
	}
	if !cfg.Pool.AggressiveBufferReturn {
		t.Error("Pool.AggressiveBufferReturn should be true from env")
	}
	if cfg.Logger.Level != "warn" {
		t.Errorf("Logger.Level = %q, want warn", cfg.Logger.Level)
	}
}

func TestValidateRejectsBadPoolConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pool.MaximumBufferSize = cfg.Pool.LargeBufferMultiple - 1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when MaximumBufferSize < LargeBufferMultiple")
	}
}

func TestValidateRejectsBadLoggerLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logger.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid logger level")
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Pool.BlockSize = 65536
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if reloaded.Pool.BlockSize != 65536 {
		t.Errorf("Pool.BlockSize = %d, want 65536", reloaded.Pool.BlockSize)
	}
}

func TestGetConfigPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgtest")
	want := filepath.Join("/tmp/xdgtest", "streampool", "config.yaml")
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}
