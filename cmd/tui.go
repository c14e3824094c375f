package cmd

import (
	"fmt"
	"os"

	"github.com/ibrahmsql/streampool/internal/metrics"
	"github.com/ibrahmsql/streampool/internal/pool"
	"github.com/ibrahmsql/streampool/internal/ui"
	"github.com/spf13/cobra"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the live pool dashboard",
	Long: `Start streampool's terminal dashboard, a live view over a
pool.Manager's small/large pool byte levels and stream lifecycle counters,
refreshed on a fixed tick.

Examples:
  streampool tui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ui.CheckTerminalSupport(); err != nil {
			fmt.Fprintf(os.Stderr, "Terminal compatibility error: %v\n", err)
			fmt.Fprintf(os.Stderr, "Please ensure you're running in a compatible terminal with minimum 80x24 size.\n")
			os.Exit(1)
		}

		blockSize, largeBufferMultiple, maximumBufferSize, maxFreeSmall, maxFreeLarge, maxStreamCapacity, aggressiveReturn, generateCallStacks := poolConfigFromFlags(cmd)

		m := metrics.NewMetrics()
		mgr, err := pool.NewManager(pool.Config{
			BlockSize:                 blockSize,
			LargeBufferMultiple:       largeBufferMultiple,
			MaximumBufferSize:         maximumBufferSize,
			MaximumFreeSmallPoolBytes: maxFreeSmall,
			MaximumFreeLargePoolBytes: maxFreeLarge,
			MaximumStreamCapacity:     maxStreamCapacity,
			AggressiveBufferReturn:    aggressiveReturn,
			GenerateCallStacks:        generateCallStacks,
			Sink:                      metrics.NewEventSink(m),
		})
		if err != nil {
			return fmt.Errorf("failed to build pool manager: %w", err)
		}

		if err := ui.RunTUIWithGracefulShutdown(mgr, m); err != nil {
			return fmt.Errorf("error starting TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
