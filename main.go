package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/thep2p/go-beacon-fetch/internal/fetch"
	"github.com/thep2p/go-beacon-fetch/internal/simulator"
	"github.com/urfave/cli/v2"
)

const (
	flagPeers          = "peers"
	flagBlocks         = "blocks"
	flagBlobsPerBlock  = "blobs-per-block"
	flagAvailability   = "availability"
	flagFailureRate    = "failure-rate"
	flagLatency        = "latency"
	flagRequestTimeout = "request-timeout"
	flagConcurrency    = "concurrency"
	flagMaxRetries     = "max-retries"
	flagRetryDelay     = "retry-delay"
	flagNoPeersWait    = "no-peers-wait"
	flagLogLevel       = "log-level"
)

func main() {
	app := &cli.App{
		Name:  "beacon-fetch",
		Usage: "fetch beacon blocks and blob sidecars from an unreliable peer set",
		Commands: []*cli.Command{
			simulateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "beacon-fetch: %v\n", err)
		os.Exit(1)
	}
}

func simulateCommand() *cli.Command {
	defaults := simulator.DefaultConfig()

	return &cli.Command{
		Name:  "simulate",
		Usage: "fetch a generated chain from a simulated network",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: flagPeers, Value: defaults.Peers, Usage: "number of simulated peers"},
			&cli.IntFlag{Name: flagBlocks, Value: defaults.Blocks, Usage: "number of blocks to fetch"},
			&cli.IntFlag{Name: flagBlobsPerBlock, Value: defaults.BlobsPerBlock, Usage: "blob sidecars per block"},
			&cli.Float64Flag{Name: flagAvailability, Value: defaults.Availability, Usage: "probability that a peer holds an item"},
			&cli.Float64Flag{Name: flagFailureRate, Value: defaults.FailureRate, Usage: "probability that a peer fails a request"},
			&cli.DurationFlag{Name: flagLatency, Value: defaults.Latency, Usage: "response latency of every peer"},
			&cli.DurationFlag{Name: flagRequestTimeout, Value: defaults.RequestTimeout, Usage: "timeout of a single request (0 disables)"},
			&cli.IntFlag{Name: flagConcurrency, Value: defaults.Pool.MaxConcurrent, Usage: "tasks fetched concurrently per pool"},
			&cli.IntFlag{Name: flagMaxRetries, Value: defaults.Pool.MaxRetries, Usage: "retries of a failed fetch"},
			&cli.DurationFlag{Name: flagRetryDelay, Value: defaults.Pool.RetryDelay, Usage: "delay before retrying a failed fetch"},
			&cli.DurationFlag{Name: flagNoPeersWait, Value: defaults.Pool.NoPeersMaxWait, Usage: "how long a task waits for peers (0 waits forever)"},
			&cli.StringFlag{Name: flagLogLevel, Value: zerolog.InfoLevel.String(), Usage: "log level (trace, debug, info, warn, error)"},
		},
		Action: runSimulation,
	}
}

func runSimulation(c *cli.Context) error {
	level, err := zerolog.ParseLevel(c.String(flagLogLevel))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	cfg := simulator.DefaultConfig()
	cfg.Peers = c.Int(flagPeers)
	cfg.Blocks = c.Int(flagBlocks)
	cfg.BlobsPerBlock = c.Int(flagBlobsPerBlock)
	cfg.Availability = c.Float64(flagAvailability)
	cfg.FailureRate = c.Float64(flagFailureRate)
	cfg.Latency = c.Duration(flagLatency)
	cfg.RequestTimeout = c.Duration(flagRequestTimeout)
	cfg.Pool.MaxConcurrent = c.Int(flagConcurrency)
	cfg.Pool.MaxRetries = c.Int(flagMaxRetries)
	cfg.Pool.RetryDelay = c.Duration(flagRetryDelay)
	cfg.Pool.NoPeersMaxWait = c.Duration(flagNoPeersWait)

	sim, err := simulator.New(logger, cfg, prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("create simulator: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := sim.Run(ctx)
	if err != nil {
		return fmt.Errorf("run simulation: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "blocks: %d/%d fetched, %d retries\n",
		report.Blocks.Outcomes[fetch.StatusSuccessful], cfg.Blocks, report.Blocks.Retries)
	fmt.Fprintf(c.App.Writer, "blobs:  %d/%d fetched, %d retries\n",
		report.Blobs.Outcomes[fetch.StatusSuccessful], cfg.Blocks*cfg.BlobsPerBlock, report.Blobs.Retries)
	fmt.Fprintf(c.App.Writer, "requests sent: %d\n", report.Requests)
	return nil
}
