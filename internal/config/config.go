package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Pool   PoolConfig   `yaml:"pool" json:"pool"`
	Logger LoggerConfig `yaml:"logger" json:"logger"`
	UI     UIConfig     `yaml:"ui" json:"ui"`
}

// PoolConfig holds pooled-allocator configuration, mirroring pool.Config.
type PoolConfig struct {
	BlockSize                 int   `yaml:"block_size" json:"block_size"`
	LargeBufferMultiple       int   `yaml:"large_buffer_multiple" json:"large_buffer_multiple"`
	MaximumBufferSize         int   `yaml:"maximum_buffer_size" json:"maximum_buffer_size"`
	MaximumFreeSmallPoolBytes int64 `yaml:"maximum_free_small_pool_bytes" json:"maximum_free_small_pool_bytes"`
	MaximumFreeLargePoolBytes int64 `yaml:"maximum_free_large_pool_bytes" json:"maximum_free_large_pool_bytes"`
	MaximumStreamCapacity     int64 `yaml:"maximum_stream_capacity" json:"maximum_stream_capacity"`
	AggressiveBufferReturn    bool  `yaml:"aggressive_buffer_return" json:"aggressive_buffer_return"`
	GenerateCallStacks        bool  `yaml:"generate_call_stacks" json:"generate_call_stacks"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // "json" or "text"
	Output     string `yaml:"output" json:"output"` // "stdout", "stderr", or file path
	ShowCaller bool   `yaml:"show_caller" json:"show_caller"`
	Colorize   bool   `yaml:"colorize" json:"colorize"`
}

// UIConfig holds UI-related configuration
type UIConfig struct {
	Theme       string `yaml:"theme" json:"theme"`
	ColorScheme string `yaml:"color_scheme" json:"color_scheme"`
	Animations  bool   `yaml:"animations" json:"animations"`
	RefreshRate int    `yaml:"refresh_rate" json:"refresh_rate"` // milliseconds
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			BlockSize:                 16384,
			LargeBufferMultiple:       1048576,
			MaximumBufferSize:         8388608,
			MaximumFreeSmallPoolBytes: 64 * 1024 * 1024,
			MaximumFreeLargePoolBytes: 256 * 1024 * 1024,
			MaximumStreamCapacity:     0,
			AggressiveBufferReturn:    false,
			GenerateCallStacks:        false,
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			ShowCaller: false,
			Colorize:   true,
		},
		UI: UIConfig{
			Theme:       "default",
			ColorScheme: "auto",
			Animations:  true,
			RefreshRate: 100,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// Load from file if provided
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnv(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	// Pool configuration
	if val := os.Getenv("STREAMPOOL_BLOCK_SIZE"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			config.Pool.BlockSize = num
		}
	}
	if val := os.Getenv("STREAMPOOL_LARGE_BUFFER_MULTIPLE"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			config.Pool.LargeBufferMultiple = num
		}
	}
	if val := os.Getenv("STREAMPOOL_MAXIMUM_BUFFER_SIZE"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			config.Pool.MaximumBufferSize = num
		}
	}
	if val := os.Getenv("STREAMPOOL_MAXIMUM_FREE_SMALL_POOL_BYTES"); val != "" {
		if num, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Pool.MaximumFreeSmallPoolBytes = num
		}
	}
	if val := os.Getenv("STREAMPOOL_MAXIMUM_FREE_LARGE_POOL_BYTES"); val != "" {
		if num, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Pool.MaximumFreeLargePoolBytes = num
		}
	}
	if val := os.Getenv("STREAMPOOL_MAXIMUM_STREAM_CAPACITY"); val != "" {
		if num, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Pool.MaximumStreamCapacity = num
		}
	}
	if val := os.Getenv("STREAMPOOL_AGGRESSIVE_BUFFER_RETURN"); val != "" {
		config.Pool.AggressiveBufferReturn = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("STREAMPOOL_GENERATE_CALL_STACKS"); val != "" {
		config.Pool.GenerateCallStacks = strings.ToLower(val) == "true"
	}

	// Logger configuration
	if val := os.Getenv("STREAMPOOL_LOG_LEVEL"); val != "" {
		config.Logger.Level = strings.ToLower(val)
	}
	if val := os.Getenv("STREAMPOOL_LOG_FORMAT"); val != "" {
		config.Logger.Format = strings.ToLower(val)
	}
	if val := os.Getenv("STREAMPOOL_LOG_OUTPUT"); val != "" {
		config.Logger.Output = val
	}
	if val := os.Getenv("STREAMPOOL_LOG_SHOW_CALLER"); val != "" {
		config.Logger.ShowCaller = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("STREAMPOOL_LOG_COLORIZE"); val != "" {
		config.Logger.Colorize = strings.ToLower(val) == "true"
	}

	// UI configuration
	if val := os.Getenv("STREAMPOOL_UI_THEME"); val != "" {
		config.UI.Theme = val
	}
	if val := os.Getenv("STREAMPOOL_UI_COLOR_SCHEME"); val != "" {
		config.UI.ColorScheme = val
	}
	if val := os.Getenv("STREAMPOOL_UI_ANIMATIONS"); val != "" {
		config.UI.Animations = strings.ToLower(val) == "true"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pool.BlockSize <= 0 {
		return fmt.Errorf("pool.block_size must be positive")
	}
	if c.Pool.LargeBufferMultiple <= 0 {
		return fmt.Errorf("pool.large_buffer_multiple must be positive")
	}
	if c.Pool.MaximumBufferSize <= 0 {
		return fmt.Errorf("pool.maximum_buffer_size must be positive")
	}
	if c.Pool.MaximumBufferSize < c.Pool.LargeBufferMultiple {
		return fmt.Errorf("pool.maximum_buffer_size must be at least pool.large_buffer_multiple")
	}
	if c.Pool.MaximumFreeSmallPoolBytes < 0 {
		return fmt.Errorf("pool.maximum_free_small_pool_bytes must be non-negative")
	}
	if c.Pool.MaximumFreeLargePoolBytes < 0 {
		return fmt.Errorf("pool.maximum_free_large_pool_bytes must be non-negative")
	}
	if c.Pool.MaximumStreamCapacity < 0 {
		return fmt.Errorf("pool.maximum_stream_capacity must be non-negative")
	}

	// Validate logger configuration
	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("logger.level must be one of: %v", validLogLevels)
	}
	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logger.Format) {
		return fmt.Errorf("logger.format must be one of: %v", validFormats)
	}

	// Validate UI configuration
	if c.UI.RefreshRate <= 0 {
		return fmt.Errorf("ui.refresh_rate must be positive")
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		return filepath.Join(configDir, "streampool", "config.yaml")
	}

	if homeDir := os.Getenv("HOME"); homeDir != "" {
		return filepath.Join(homeDir, ".config", "streampool", "config.yaml")
	}

	return "config.yaml"
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
