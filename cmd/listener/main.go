package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nearListener/internal/chain"
	"nearListener/internal/config"
	"nearListener/internal/listener"
	"nearListener/internal/metrics"
	"nearListener/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "listener",
		Short:        "NEAR contract event listener",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Poll blocks and deliver contract events",
		RunE:  runListener,
	}

	runCmd.Flags().String("rpc", "https://rpc.testnet.near.org", "NEAR RPC URL")
	runCmd.Flags().String("account-id", "", "contract account to watch")
	runCmd.Flags().String("method-name", "", "contract method to watch")
	runCmd.Flags().Uint64("start-height", 0, "last processed block height, 0 starts from the latest final block")
	runCmd.Flags().Duration("settle-delay", listener.DefaultSettleDelay, "wait between fetching a block and scanning it")
	runCmd.Flags().Duration("poll-interval", listener.DefaultPollInterval, "wait between iterations")
	runCmd.Flags().String("backoff", config.BackoffFixed, "retry strategy for server errors (fixed, exponential)")
	runCmd.Flags().Duration("backoff-base", listener.DefaultServerErrorDelay, "fixed delay or exponential base")
	runCmd.Flags().Duration("backoff-max", time.Minute, "cap of the exponential delay")
	runCmd.Flags().Int("max-retries", 0, "consecutive server errors tolerated, 0 means unlimited")
	runCmd.Flags().Bool("scan-all", false, "process every matching transaction of a block")
	runCmd.Flags().Duration("rpc-timeout", 30*time.Second, "per-request RPC timeout")
	runCmd.Flags().Float64("rpc-rps", 0, "RPC requests per second, 0 means unlimited")
	runCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path, empty disables")
	runCmd.Flags().Bool("stdout", false, "print events as JSON lines to stdout")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().String("redis-addr", "", "Redis address")
	runCmd.Flags().String("redis-password", "", "Redis password")
	runCmd.Flags().Int("redis-db", 0, "Redis database")
	runCmd.Flags().String("redis-list", "near_events", "Redis list receiving events")
	runCmd.Flags().String("redis-channel", "", "Redis channel announcing events")
	runCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers (comma-separated)")
	runCmd.Flags().String("kafka-topic", "", "Kafka topic")
	runCmd.Flags().String("metrics-addr", "", "listen address for /metrics and /health, empty disables")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	runCmd.Flags().String("log-file", "", "also write logs to this rotating file")

	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a file of raw log lines into events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input file, one log line per line")
	decodeCmd.Flags().String("out", "./data/decoded_events.jsonl", "output events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	decodeCmd.Flags().String("log-file", "", "also write logs to this rotating file")

	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runListener(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(cfg.RPCURL,
		chain.WithTimeout(cfg.RPCTimeout),
		chain.WithRateLimit(cfg.RPCRPS, 1),
	)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	status, err := chainClient.Status(ctx)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	logger.Info("connected to node",
		zap.String("rpc", chainClient.Endpoint()),
		zap.String("chain_id", status.ChainID),
		zap.String("node_version", status.Version.Version),
		zap.Uint64("latest_height", status.SyncInfo.LatestBlockHeight),
		zap.Bool("syncing", status.SyncInfo.Syncing),
	)

	sinks, err := openSinks(ctx, cfg, os.Stdout, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.CloseAll(sinks); err != nil {
			logger.Warn("close sinks", zap.Error(err))
		}
	}()

	l, err := listener.New(listener.Config{
		RPCEndpoint: cfg.RPCURL,
		AccountID:   cfg.AccountID,
		MethodName:  cfg.MethodName,
		StartHeight: cfg.StartHeight,
	}, chainClient, newHandler(storage.Fanout(sinks), time.Now),
		listener.WithLogger(logger),
		listener.WithSettleDelay(cfg.SettleDelay),
		listener.WithPollInterval(cfg.PollInterval),
		listener.WithBackoff(newBackoff(cfg)),
		listener.WithScanAll(cfg.ScanAll),
	)
	if err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return l.Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		group.Go(func() error {
			return metrics.Serve(gctx, cfg.MetricsAddr, logger)
		})
	}

	err = group.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("listener stopped", zap.Uint64("cursor", l.Cursor()))
		return nil
	}
	return err
}
