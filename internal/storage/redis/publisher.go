package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"nearListener/internal/model"
)

// Config selects where records go. Either List or Channel may be empty, but
// not both.
type Config struct {
	Addr     string
	Password string
	DB       int
	List     string
	Channel  string
}

// Publisher appends records to a Redis list and announces them on a pub/sub
// channel.
type Publisher struct {
	client  *goredis.Client
	list    string
	channel string
}

func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if cfg.List == "" && cfg.Channel == "" {
		return nil, fmt.Errorf("redis list or channel is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Publisher{client: client, list: cfg.List, channel: cfg.Channel}, nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// PutEvents pushes all records in one transaction so a batch is either fully
// listed and announced or not at all.
func (p *Publisher) PutEvents(ctx context.Context, records []model.EventRecord) error {
	payloads, err := encode(records)
	if err != nil {
		return err
	}
	if len(payloads) == 0 {
		return nil
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if p.list != "" {
			pipe.RPush(ctx, p.list, payloads...)
		}
		if p.channel != "" {
			for _, payload := range payloads {
				pipe.Publish(ctx, p.channel, payload)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %d events: %w", len(payloads), err)
	}
	return nil
}

func encode(records []model.EventRecord) ([]interface{}, error) {
	payloads := make([]interface{}, 0, len(records))
	for _, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", record.ID, err)
		}
		payloads = append(payloads, string(raw))
	}
	return payloads, nil
}
