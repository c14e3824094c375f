package cmd

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/ibrahmsql/streampool/internal/logger"
	"github.com/ibrahmsql/streampool/internal/metrics"
	"github.com/ibrahmsql/streampool/internal/pool"
	"github.com/ibrahmsql/streampool/internal/signals"
	"github.com/spf13/cobra"
)

var (
	serveBindAddress  string
	servePort         string
	serveMaxConns     int
	serveConnTimeout  time.Duration
	serveBlockSignals bool
	serveChunkSize    int
)

var serveCmd = &cobra.Command{
	Use:     "serve [port]",
	Aliases: []string{"echo"},
	Short:   "Run a TCP demo server that stages connections through pooled streams",
	Long: `serve runs a TCP echo server that stages every connection's body
through a pool.Manager StreamView instead of a plain byte slice: the
inbound bytes are written into a StreamView (growing through the small
pool's Blocks and, on regrowth, the large pool's LargeBuffers), then the
stream is seeked back to the start and copied out to the client.

This exercises the allocator under realistic connection churn and is
mainly useful for manual testing and for watching the tui/metrics
commands react to live traffic.

Examples:
  streampool serve 9000
  streampool serve --bind 127.0.0.1 9000`,
	Args: cobra.RangeArgs(0, 1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveBindAddress, "bind", "0.0.0.0", "Address to bind the listener to")
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "9000", "Port to listen on (overridden by positional arg)")
	serveCmd.Flags().IntVarP(&serveMaxConns, "max-conn", "m", 64, "Maximum concurrent connections")
	serveCmd.Flags().DurationVarP(&serveConnTimeout, "timeout", "t", 0, "Per-connection deadline (0 = no timeout)")
	serveCmd.Flags().BoolVarP(&serveBlockSignals, "block-signals", "b", false, "Block exit signals like CTRL-C")
	serveCmd.Flags().IntVar(&serveChunkSize, "chunk-size", 32*1024, "Size of each read chunk staged into the stream")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := servePort
	if len(args) == 1 {
		port = args[0]
	}
	address := net.JoinHostPort(serveBindAddress, port)

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

	if serveBlockSignals {
		signals.BlockExitSignals()
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", address, err)
	}
	defer listener.Close()

	shutdown := make(chan struct{})
	signals.SetupSignalHandler(func() {
		logger.Info("Received shutdown signal, closing listener...")
		listener.Close()
		close(shutdown)
	})

	color.Green("Staging server listening on %s (block=%d large-multiple=%d)", address, mgr.BlockSize(), mgr.LargeBufferMultiple())

	connSemaphore := make(chan struct{}, serveMaxConns)
	var wg sync.WaitGroup
	var connSeq int64

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-shutdown:
				wg.Wait()
				return nil
			default:
			}
			logger.Error("Failed to accept connection: %v", err)
			continue
		}

		connSemaphore <- struct{}{}
		wg.Add(1)
		connSeq++
		tag := fmt.Sprintf("conn-%d", connSeq)

		go func(c net.Conn, tag string) {
			defer func() {
				c.Close()
				<-connSemaphore
				wg.Done()
			}()
			handleStagedConnection(mgr, c, tag)
		}(conn, tag)
	}
}

func handleStagedConnection(mgr *pool.Manager, conn net.Conn, tag string) {
	if serveConnTimeout > 0 {
		conn.SetDeadline(time.Now().Add(serveConnTimeout))
	}

	color.Cyan("Connection %s from %s", tag, conn.RemoteAddr())

	stream := mgr.GetStream(tag)
	defer func() {
		if err := stream.Dispose(); err != nil {
			logger.Warn("Connection %s: stream dispose: %v", tag, err)
		}
	}()

	chunk := make([]byte, serveChunkSize)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			if _, werr := stream.Write(chunk[:n]); werr != nil {
				logger.Error("Connection %s: stage write failed: %v", tag, werr)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				logger.Error("Connection %s: read error: %v", tag, err)
			}
			break
		}
	}

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		logger.Error("Connection %s: stream seek failed: %v", tag, err)
		return
	}

	written, err := stream.WriteTo(conn)
	if err != nil {
		logger.Error("Connection %s: echo failed after %d bytes: %v", tag, written, err)
		return
	}

	color.Cyan("Connection %s: staged and echoed %d bytes (stream capacity %d)", tag, written, stream.Capacity())
}
