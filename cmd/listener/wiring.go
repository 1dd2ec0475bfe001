package main

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"nearListener/internal/config"
	"nearListener/internal/listener"
	"nearListener/internal/model"
	"nearListener/internal/storage"
	"nearListener/internal/storage/kafka"
	"nearListener/internal/storage/postgres"
	"nearListener/internal/storage/redis"
)

// newHandler stores each delivered event as one record.
func newHandler(sink storage.Sink, now func() time.Time) listener.Handler {
	return func(ctx context.Context, d model.Delivery) error {
		return sink.PutEvents(ctx, []model.EventRecord{model.NewEventRecord(d, now())})
	}
}

func newBackoff(cfg config.Config) listener.Backoff {
	if cfg.Backoff == config.BackoffExponential {
		return listener.ExponentialBackoff{
			Base:       cfg.BackoffBase,
			Max:        cfg.BackoffMax,
			MaxRetries: cfg.MaxRetries,
		}
	}
	return listener.FixedBackoff{
		Delay:      cfg.BackoffBase,
		MaxRetries: cfg.MaxRetries,
	}
}

// openSinks builds every configured sink. On failure the sinks opened so far
// are closed.
func openSinks(ctx context.Context, cfg config.Config, stdout io.Writer, logger *zap.Logger) (sinks []storage.Sink, err error) {
	defer func() {
		if err != nil {
			_ = storage.CloseAll(sinks)
			sinks = nil
		}
	}()

	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
		logger.Info("sink enabled", zap.String("sink", "jsonl"), zap.String("out", cfg.Out))
	}
	if cfg.Stdout {
		sinks = append(sinks, storage.NewStreamStorage(stdout))
		logger.Info("sink enabled", zap.String("sink", "stdout"))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, store)
		if err := store.EnsureSchema(ctx); err != nil {
			return sinks, err
		}
		logger.Info("sink enabled", zap.String("sink", "postgres"))
	}
	if cfg.RedisAddr != "" {
		publisher, err := redis.NewPublisher(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			List:     cfg.RedisList,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, publisher)
		logger.Info("sink enabled", zap.String("sink", "redis"), zap.String("list", cfg.RedisList), zap.String("channel", cfg.RedisChannel))
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, producer)
		logger.Info("sink enabled", zap.String("sink", "kafka"), zap.String("topic", cfg.KafkaTopic))
	}

	if len(sinks) == 0 {
		logger.Warn("no sink configured, events are only logged")
	}
	return sinks, nil
}
