package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/ibrahmsql/streampool/internal/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Build information variables
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
	gitBranch = "unknown"
	builtBy   = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "streampool",
	Short: "A pooled byte-buffer stream allocator",
	Long: `streampool manages a two-tier pool of reusable byte buffers — a
fixed-size small pool of Blocks and a size-classed large pool of
LargeBuffers — backing seekable, growable StreamView byte streams.

Basic Usage:
  streampool serve      # Run the demo server staging data through pooled streams
  streampool benchmark  # Run a pool allocation/churn benchmark
  streampool metrics    # Serve Prometheus-style pool metrics over HTTP
  streampool tui        # Start the live pool dashboard

Common Flags:
  --block-size               Fixed size of small-pool Blocks
  --large-buffer-multiple     Size-class quantum for the large pool
  --maximum-buffer-size       Largest buffer size the large pool manages
  --aggressive-buffer-return  Return superseded large buffers at once instead of at Dispose
  --config                   Path to configuration file
`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetBuildInfo sets the build information
func SetBuildInfo(v, bt, gc, gb, bb string) {
	version = v
	buildTime = bt
	gitCommit = gc
	gitBranch = gb
	builtBy = bb
}

// showVersion displays version and build information
func showVersion() {
	fmt.Printf("streampool %s\n\n", version)
	fmt.Println("Build Information:")
	fmt.Printf("  Version:     %s\n", version)
	fmt.Printf("  Git Commit:  %s\n", gitCommit)
	fmt.Printf("  Git Branch:  %s\n", gitBranch)
	fmt.Printf("  Build Time:  %s\n", buildTime)
	fmt.Printf("  Built By:    %s\n", builtBy)
	fmt.Println()
	fmt.Println("Runtime Information:")
	fmt.Printf("  Go Version:  %s\n", runtime.Version())
	fmt.Printf("  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  CPUs:        %d\n", runtime.NumCPU())
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		showVersion()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)

	// Pool sizing flags
	rootCmd.PersistentFlags().Int("block-size", 16384, "Fixed size of every small-pool Block, in bytes")
	rootCmd.PersistentFlags().Int("large-buffer-multiple", 1048576, "Size-class quantum for the large pool, in bytes")
	rootCmd.PersistentFlags().Int("maximum-buffer-size", 8388608, "Largest buffer size the large pool manages before falling back to an unpooled allocation")
	rootCmd.PersistentFlags().Int64("maximum-free-small-pool-bytes", 64*1024*1024, "Cap on unused Blocks the small pool retains")
	rootCmd.PersistentFlags().Int64("maximum-free-large-pool-bytes", 256*1024*1024, "Cap on unused LargeBuffers the large pool retains")
	rootCmd.PersistentFlags().Int64("maximum-stream-capacity", 0, "Upper bound on a single StreamView's capacity (0 = unbounded)")
	rootCmd.PersistentFlags().Bool("aggressive-buffer-return", false, "Release a StreamView's backing buffer immediately on regrowth instead of retaining it")
	rootCmd.PersistentFlags().Bool("generate-call-stacks", false, "Capture allocation call stacks for leak diagnostics (expensive)")

	// Logging and config
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output (debug level with caller info)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress output")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().String("theme", "", "Path to color theme file (default: ~/.streampool-theme.yml)")
	rootCmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("log-level", "info", "Set log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file")

	rootCmd.PersistentFlags().MarkHidden("generate-call-stacks")
	rootCmd.PersistentFlags().MarkHidden("maximum-stream-capacity")
	rootCmd.PersistentFlags().MarkHidden("theme")

	cobra.OnInitialize(initConfig)
}

// initConfig initializes the application configuration
func initConfig() {
	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		logger.SetLevel(logger.LevelDebug)
		logger.SetShowCaller(true)
	}

	if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug {
		logger.SetLevel(logger.LevelDebug)
		logger.SetShowCaller(true)
	}

	if quiet, _ := rootCmd.PersistentFlags().GetBool("quiet"); quiet {
		logger.SetLevel(logger.LevelError)
	}

	if jsonOutput, _ := rootCmd.PersistentFlags().GetBool("json"); jsonOutput {
		logger.SetStructured(true)
	}

	if logLevel, _ := rootCmd.PersistentFlags().GetString("log-level"); rootCmd.PersistentFlags().Changed("log-level") && logLevel != "" {
		switch logLevel {
		case "debug":
			logger.SetLevel(logger.LevelDebug)
		case "info":
			logger.SetLevel(logger.LevelInfo)
		case "warn":
			logger.SetLevel(logger.LevelWarn)
		case "error":
			logger.SetLevel(logger.LevelError)
		default:
			logger.Warn("Invalid log level '%s', using 'info'", logLevel)
			logger.SetLevel(logger.LevelInfo)
		}
	}

	if noColor, _ := rootCmd.PersistentFlags().GetBool("no-color"); !noColor {
		initTheme()
	}

	if configPath, _ := rootCmd.PersistentFlags().GetString("config"); configPath != "" {
		if err := loadConfigFile(configPath); err != nil {
			logger.Warn("Failed to load config file: %v", err)
		}
	}
}

// initTheme loads the color theme
func initTheme() {
	themePath, _ := rootCmd.PersistentFlags().GetString("theme")
	if err := logger.LoadTheme(themePath); err != nil {
		logger.Debug("Theme loading info: %v", err)
	}
}

// loadConfigFile loads configuration from a file
func loadConfigFile(configPath string) error {
	logger.Debug("Loading configuration from: %s", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("configuration file not found: %s", configPath)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config map[string]interface{}
	switch {
	case strings.HasSuffix(configPath, ".yml") || strings.HasSuffix(configPath, ".yaml"):
		if err := yaml.Unmarshal(content, &config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case strings.HasSuffix(configPath, ".json"):
		if err := json.Unmarshal(content, &config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format (supported: .yml, .yaml, .json)")
	}

	for key, value := range config {
		if flag := rootCmd.PersistentFlags().Lookup(key); flag != nil {
			if !flag.Changed {
				var stringValue string

				switch v := value.(type) {
				case []interface{}:
					var strSlice []string
					for _, item := range v {
						strSlice = append(strSlice, fmt.Sprintf("%v", item))
					}
					stringValue = strings.Join(strSlice, ",")
				case []string:
					stringValue = strings.Join(v, ",")
				default:
					stringValue = fmt.Sprintf("%v", value)
				}

				if err := flag.Value.Set(stringValue); err != nil {
					logger.Warn("Failed to set config value for %s: %v", key, err)
				}
			}
		}
	}

	logger.Debug("Configuration loaded successfully from: %s", configPath)
	return nil
}

// poolConfigFromFlags builds a pool.Config from the persistent flags shared
// by every subcommand that needs a Manager.
func poolConfigFromFlags(cmd *cobra.Command) (blockSize, largeBufferMultiple, maximumBufferSize int, maxFreeSmall, maxFreeLarge, maxStreamCapacity int64, aggressiveReturn, generateCallStacks bool) {
	blockSize, _ = cmd.Flags().GetInt("block-size")
	largeBufferMultiple, _ = cmd.Flags().GetInt("large-buffer-multiple")
	maximumBufferSize, _ = cmd.Flags().GetInt("maximum-buffer-size")
	maxFreeSmall, _ = cmd.Flags().GetInt64("maximum-free-small-pool-bytes")
	maxFreeLarge, _ = cmd.Flags().GetInt64("maximum-free-large-pool-bytes")
	maxStreamCapacity, _ = cmd.Flags().GetInt64("maximum-stream-capacity")
	aggressiveReturn, _ = cmd.Flags().GetBool("aggressive-buffer-return")
	generateCallStacks, _ = cmd.Flags().GetBool("generate-call-stacks")
	return
}
