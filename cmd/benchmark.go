package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/ibrahmsql/streampool/internal/logger"
	"github.com/ibrahmsql/streampool/internal/metrics"
	"github.com/ibrahmsql/streampool/internal/pool"
	"github.com/ibrahmsql/streampool/internal/ratelimit"
	"github.com/ibrahmsql/streampool/internal/worker"
	"github.com/spf13/cobra"
)

var (
	benchWorkers   int
	benchDuration  time.Duration
	benchMinSize   int
	benchMaxSize   int
	benchRateLimit string
	benchVerbose   bool
)

// BenchmarkResults holds benchmark statistics for a pool allocation/churn run
type BenchmarkResults struct {
	TotalStreams     int64
	SuccessfulWrites int64
	FailedWrites     int64
	TotalBytes       int64
	MinLatency       time.Duration
	MaxLatency       time.Duration
	AvgLatency       time.Duration
	StartTime        time.Time
	EndTime          time.Time
	Errors           []string
	mu               sync.RWMutex
}

var benchResults = &BenchmarkResults{
	MinLatency: time.Hour,
}

var benchmarkCmd = &cobra.Command{
	Use:     "benchmark",
	Aliases: []string{"bench", "stress"},
	Short:   "Pool allocation and churn benchmark",
	Long: `Drives a pool.Manager through sustained stream allocate/write/dispose
churn across a worker pool, reporting throughput, pool in-use/free bytes,
and min/max/average latency.`,
	Example: `  # Default churn benchmark for 10s
  streampool benchmark

  # More workers, larger writes, rate-limited throughput
  streampool benchmark --workers 64 --min-size 4096 --max-size 2097152 --rate-limit 50MB/s`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)

	benchmarkCmd.Flags().IntVar(&benchWorkers, "workers", 16, "Number of concurrent churn workers")
	benchmarkCmd.Flags().DurationVar(&benchDuration, "duration", 10*time.Second, "Benchmark duration")
	benchmarkCmd.Flags().IntVar(&benchMinSize, "min-size", 1024, "Minimum stream write size in bytes")
	benchmarkCmd.Flags().IntVar(&benchMaxSize, "max-size", 1048576, "Maximum stream write size in bytes")
	benchmarkCmd.Flags().StringVar(&benchRateLimit, "rate-limit", "", "Cap total write throughput (e.g. 50MB/s); empty disables limiting")
	benchmarkCmd.Flags().BoolVar(&benchVerbose, "bench-verbose", false, "Verbose per-stream output")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
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

	var limiter *ratelimit.RateLimiter
	if benchRateLimit != "" {
		limiter, err = ratelimit.NewRateLimiter(benchRateLimit)
		if err != nil {
			return fmt.Errorf("invalid --rate-limit: %w", err)
		}
	}

	logger.Info("Starting pool churn benchmark: %d workers for %v", benchWorkers, benchDuration)

	benchResults.StartTime = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), benchDuration)
	defer cancel()

	go reportBenchProgress(ctx)

	wp := worker.NewWorkerPool(&worker.PoolConfig{
		MinWorkers:  benchWorkers,
		MaxWorkers:  benchWorkers,
		QueueSize:   benchWorkers * 4,
		IdleTimeout: benchDuration,
		TaskTimeout: 30 * time.Second,
	})

	var inFlight sync.WaitGroup
	var taskSeq int64
	for ctx.Err() == nil {
		id := atomic.AddInt64(&taskSeq, 1)
		inFlight.Add(1)
		err := wp.SubmitFunc(fmt.Sprintf("churn-%d", id), func(_ context.Context) error {
			defer inFlight.Done()
			churnOnce(mgr, limiter, int(id))
			return nil
		})
		if err != nil {
			// Queue briefly full; back off instead of busy-spinning.
			inFlight.Done()
			time.Sleep(time.Millisecond)
		}
	}

	inFlight.Wait()
	if err := wp.Shutdown(5 * time.Second); err != nil {
		logger.Warn("worker pool shutdown: %v", err)
	}
	benchResults.EndTime = time.Now()

	printBenchmarkResults(mgr, m)
	return nil
}

func churnOnce(mgr *pool.Manager, limiter *ratelimit.RateLimiter, workerID int) {
	startTime := time.Now()

	size := benchMinSize
	if benchMaxSize > benchMinSize {
		size += rand.Intn(benchMaxSize - benchMinSize)
	}

	stream, err := mgr.GetStreamWithCapacity(size, fmt.Sprintf("bench-%d", workerID), false)
	if err != nil {
		atomic.AddInt64(&benchResults.FailedWrites, 1)
		addError(fmt.Sprintf("worker %d: stream allocation failed: %v", workerID, err))
		return
	}
	defer stream.Dispose()

	atomic.AddInt64(&benchResults.TotalStreams, 1)

	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}

	if limiter != nil {
		if err := limiter.Wait(context.Background(), size); err != nil {
			atomic.AddInt64(&benchResults.FailedWrites, 1)
			addError(fmt.Sprintf("worker %d: rate limiter wait failed: %v", workerID, err))
			return
		}
	}

	n, err := stream.Write(data)
	if err != nil {
		atomic.AddInt64(&benchResults.FailedWrites, 1)
		addError(fmt.Sprintf("worker %d: write failed: %v", workerID, err))
		return
	}

	atomic.AddInt64(&benchResults.SuccessfulWrites, 1)
	atomic.AddInt64(&benchResults.TotalBytes, int64(n))

	latency := time.Since(startTime)
	updateLatency(latency)

	if benchVerbose {
		logger.Debug("worker %d: wrote %d bytes, latency %v", workerID, n, latency)
	}
}

func updateLatency(latency time.Duration) {
	benchResults.mu.Lock()
	defer benchResults.mu.Unlock()

	if latency < benchResults.MinLatency {
		benchResults.MinLatency = latency
	}
	if latency > benchResults.MaxLatency {
		benchResults.MaxLatency = latency
	}

	totalWrites := benchResults.SuccessfulWrites
	if totalWrites > 0 {
		currentAvg := benchResults.AvgLatency
		benchResults.AvgLatency = (currentAvg*time.Duration(totalWrites-1) + latency) / time.Duration(totalWrites)
	}
}

func addError(errMsg string) {
	benchResults.mu.Lock()
	defer benchResults.mu.Unlock()

	benchResults.Errors = append(benchResults.Errors, errMsg)

	if len(benchResults.Errors) > 10 {
		benchResults.Errors = benchResults.Errors[len(benchResults.Errors)-10:]
	}
}

func reportBenchProgress(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(benchResults.StartTime)
			streamsPerSec := float64(atomic.LoadInt64(&benchResults.TotalStreams)) / elapsed.Seconds()
			bytesPerSec := float64(atomic.LoadInt64(&benchResults.TotalBytes)) / elapsed.Seconds()

			fmt.Printf("\rStreams: %d | OK: %d | Failed: %d | %.1f streams/s | %s/s",
				atomic.LoadInt64(&benchResults.TotalStreams),
				atomic.LoadInt64(&benchResults.SuccessfulWrites),
				atomic.LoadInt64(&benchResults.FailedWrites),
				streamsPerSec,
				formatBytes(int64(bytesPerSec)))
		}
	}
}

func printBenchmarkResults(mgr *pool.Manager, m *metrics.Metrics) {
	duration := benchResults.EndTime.Sub(benchResults.StartTime)

	color.Cyan("\n\n=== Benchmark Results ===")
	fmt.Printf("Duration: %v\n", duration)
	fmt.Printf("Concurrent Workers: %d\n", benchWorkers)

	if benchRateLimit != "" {
		fmt.Printf("Rate Limit: %s\n", benchRateLimit)
	}

	fmt.Println("\nStream Statistics:")
	fmt.Printf("  Total Streams: %d\n", benchResults.TotalStreams)
	if benchResults.TotalStreams > 0 {
		fmt.Printf("  Successful Writes: %d (%.1f%%)\n",
			benchResults.SuccessfulWrites,
			float64(benchResults.SuccessfulWrites)*100/float64(benchResults.TotalStreams))
		fmt.Printf("  Failed: %d (%.1f%%)\n",
			benchResults.FailedWrites,
			float64(benchResults.FailedWrites)*100/float64(benchResults.TotalStreams))
	}

	fmt.Println("\nThroughput:")
	fmt.Printf("  Streams/sec: %.2f\n", float64(benchResults.TotalStreams)/duration.Seconds())
	fmt.Printf("  Data written: %s\n", formatBytes(benchResults.TotalBytes))
	fmt.Printf("  Throughput: %s/s\n", formatBytes(int64(float64(benchResults.TotalBytes)/duration.Seconds())))

	if benchResults.SuccessfulWrites > 0 {
		fmt.Println("\nLatency:")
		fmt.Printf("  Min: %v\n", benchResults.MinLatency)
		fmt.Printf("  Max: %v\n", benchResults.MaxLatency)
		fmt.Printf("  Avg: %v\n", benchResults.AvgLatency)
	}

	fmt.Println("\nPool State:")
	fmt.Printf("  Small pool in-use: %s, free: %s\n", formatBytes(mgr.SmallPoolInUseSize()), formatBytes(mgr.SmallPoolFreeSize()))
	fmt.Printf("  Large pool in-use: %s, free: %s\n", formatBytes(mgr.LargePoolInUseSize()), formatBytes(mgr.LargePoolFreeSize()))

	snap := m.GetSnapshot()
	fmt.Printf("  Streams leaked: %d, double-disposed: %d\n", snap.StreamsLeaked, snap.StreamsDoubleDisposed)

	if len(benchResults.Errors) > 0 {
		fmt.Println("\nRecent Errors:")
		for _, err := range benchResults.Errors {
			fmt.Printf("  - %s\n", err)
		}
	}

	var successRate float64
	if benchResults.TotalStreams > 0 {
		successRate = float64(benchResults.SuccessfulWrites) * 100 / float64(benchResults.TotalStreams)
	}
	grade := getPerformanceGrade(successRate)

	fmt.Printf("\nPerformance Grade: %s\n", grade)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func getPerformanceGrade(successRate float64) string {
	switch {
	case successRate >= 99:
		return color.GreenString("A+ (Excellent)")
	case successRate >= 95:
		return color.GreenString("A (Very Good)")
	case successRate >= 90:
		return color.YellowString("B (Good)")
	case successRate >= 80:
		return color.YellowString("C (Fair)")
	case successRate >= 70:
		return color.RedString("D (Poor)")
	default:
		return color.RedString("F (Failed)")
	}
}
