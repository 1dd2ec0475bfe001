// Package listener polls a NEAR node block by block and delivers the events
// emitted by transactions that call a watched account/method pair.
package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nearListener/internal/chain"
	"nearListener/internal/event"
	"nearListener/internal/metrics"
	"nearListener/internal/model"
)

const (
	DefaultSettleDelay      = 2 * time.Second
	DefaultPollInterval     = 2 * time.Second
	DefaultServerErrorDelay = 5 * time.Second
)

// ErrRPC wraps node calls that failed in a way the loop does not recover from.
var ErrRPC = errors.New("rpc error")

// Client is the part of the node RPC surface the listener calls.
type Client interface {
	Block(ctx context.Context, ref chain.BlockReference) (*chain.Block, error)
	Chunk(ctx context.Context, chunkHash string) (*chain.Chunk, error)
	TxStatus(ctx context.Context, txHash, senderID, waitUntil string) (*chain.TxStatus, error)
}

// Handler is called inline for every decoded event, in log order. A slow
// handler stalls polling; a returned error stops Run.
type Handler func(ctx context.Context, d model.Delivery) error

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Listener) {
		l.logger = logger
	}
}

// WithSettleDelay sets the wait between fetching a block and scanning it.
func WithSettleDelay(d time.Duration) Option {
	return func(l *Listener) {
		l.settleDelay = d
	}
}

// WithPollInterval sets the wait between iterations.
func WithPollInterval(d time.Duration) Option {
	return func(l *Listener) {
		l.pollInterval = d
	}
}

// WithBackoff sets the retry policy for server-side block fetch errors.
func WithBackoff(b Backoff) Option {
	return func(l *Listener) {
		l.backoff = b
	}
}

// WithScanAll processes every matching transaction of a block instead of
// only the first one.
func WithScanAll(scanAll bool) Option {
	return func(l *Listener) {
		l.scanAll = scanAll
	}
}

// WithWaitUntil sets the execution status requested from the tx method.
func WithWaitUntil(status string) Option {
	return func(l *Listener) {
		l.waitUntil = status
	}
}

// Listener runs the polling loop. The cursor is owned by the goroutine
// calling Run.
type Listener struct {
	cfg     Config
	client  Client
	handler Handler
	logger  *zap.Logger

	settleDelay  time.Duration
	pollInterval time.Duration
	backoff      Backoff
	scanAll      bool
	waitUntil    string

	cursor   uint64
	failures int
}

// New validates cfg and builds a Listener whose cursor starts at
// cfg.StartHeight.
func New(cfg Config, client Client, handler Handler, opts ...Option) (*Listener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is nil")
	}

	l := &Listener{
		cfg:          cfg,
		client:       client,
		handler:      handler,
		settleDelay:  DefaultSettleDelay,
		pollInterval: DefaultPollInterval,
		backoff:      DefaultBackoff(),
		waitUntil:    chain.WaitFinal,
		cursor:       cfg.StartHeight,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.backoff == nil {
		l.backoff = DefaultBackoff()
	}

	return l, nil
}

// Config returns the configuration the listener was built with.
func (l *Listener) Config() Config {
	return l.cfg
}

// Cursor returns the height of the last processed block. It must not be
// called while Run is executing.
func (l *Listener) Cursor() uint64 {
	return l.cursor
}

// Run polls until ctx is done or a fatal error occurs. It returns ctx.Err()
// on cancellation.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("listener start",
		zap.String("rpc", l.cfg.RPCEndpoint),
		zap.String("account_id", l.cfg.AccountID),
		zap.String("method_name", l.cfg.MethodName),
		zap.Uint64("cursor", l.cursor),
		zap.Bool("scan_all", l.scanAll),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.step(ctx); err != nil {
			return err
		}
		if err := sleep(ctx, l.pollInterval); err != nil {
			return err
		}
	}
}

// step runs one iteration without the trailing poll sleep.
func (l *Listener) step(ctx context.Context) error {
	ref := ResolveReference(l.cursor)
	l.logger.Debug("fetch block", zap.Uint64("cursor", l.cursor), zap.Stringer("reference", ref))

	block, err := l.client.Block(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return l.handleBlockError(ctx, ref, err)
	}
	l.failures = 0

	if err := sleep(ctx, l.settleDelay); err != nil {
		return err
	}

	if err := l.processBlock(ctx, block); err != nil {
		return err
	}

	l.cursor = block.Header.Height
	metrics.BlocksProcessed.Inc()
	metrics.CursorHeight.Set(float64(l.cursor))
	l.logger.Info("saved new block height", zap.Uint64("height", l.cursor), zap.Int("chunks", len(block.Chunks)))

	return nil
}

func (l *Listener) handleBlockError(ctx context.Context, ref chain.BlockReference, err error) error {
	verdict := Classify(err)
	metrics.BlockFetchErrors.WithLabelValues(verdict.String()).Inc()

	switch verdict {
	case VerdictAdvance:
		l.failures = 0
		l.cursor++
		metrics.CursorHeight.Set(float64(l.cursor))
		l.logger.Info("unknown block, advance cursor", zap.Stringer("reference", ref), zap.Uint64("cursor", l.cursor))
		return nil

	case VerdictRetry:
		l.failures++
		delay, ok := l.backoff.Next(l.failures)
		if !ok {
			return fmt.Errorf("%w: fetch block %s: giving up after %d attempts: %w", ErrRPC, ref, l.failures, err)
		}
		l.logger.Warn("fetch block failed, retry",
			zap.Error(err),
			zap.Stringer("reference", ref),
			zap.Int("attempt", l.failures),
			zap.Duration("delay", delay),
		)
		return sleep(ctx, delay)

	default:
		return fmt.Errorf("%w: fetch block %s: %w", ErrRPC, ref, err)
	}
}

func (l *Listener) processBlock(ctx context.Context, block *chain.Block) error {
	matches, err := l.scanBlock(ctx, block)
	if err != nil {
		return err
	}

	for _, m := range matches {
		metrics.MatchedTransactions.Inc()

		logs, err := l.fetchLogs(ctx, m)
		if err != nil {
			return err
		}
		if err := l.dispatch(ctx, block, m, logs); err != nil {
			return err
		}
	}
	return nil
}

// dispatch parses every log line on its own and hands each decoded event to
// the handler. Lines that are not events are skipped.
func (l *Listener) dispatch(ctx context.Context, block *chain.Block, m Match, logs []string) error {
	for i, line := range logs {
		ev, err := event.Parse(line)
		if err != nil {
			metrics.LogParseFailures.WithLabelValues(event.Reason(err)).Inc()
			l.logger.Debug("skip log line", zap.Error(err), zap.String("tx_hash", m.TxHash), zap.Int("log_index", i))
			continue
		}

		d := model.Delivery{
			EventLog:    ev,
			BlockHeight: block.Header.Height,
			BlockHash:   block.Header.Hash,
			TxHash:      m.TxHash,
			SignerID:    m.SignerID,
			ReceiverID:  m.ReceiverID,
			LogIndex:    i,
		}
		if err := l.handler(ctx, d); err != nil {
			return fmt.Errorf("handle event %s/%s from tx %s: %w", ev.Standard, ev.Event, m.TxHash, err)
		}

		metrics.EventsEmitted.WithLabelValues(ev.Standard, ev.Event).Inc()
		l.logger.Info("event emitted",
			zap.String("standard", ev.Standard),
			zap.String("version", ev.Version),
			zap.String("event", ev.Event),
			zap.String("tx_hash", m.TxHash),
			zap.Uint64("height", block.Header.Height),
		)
	}
	return nil
}
