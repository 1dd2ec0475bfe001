package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nearListener/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS near_events (
	id           UUID PRIMARY KEY,
	standard     TEXT        NOT NULL,
	version      TEXT        NOT NULL,
	event        TEXT        NOT NULL,
	data         JSONB       NOT NULL,
	block_height BIGINT      NOT NULL,
	block_hash   TEXT        NOT NULL,
	tx_hash      TEXT        NOT NULL,
	signer_id    TEXT        NOT NULL,
	receiver_id  TEXT        NOT NULL,
	log_index    INTEGER     NOT NULL,
	received_at  TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS near_events_block_height_idx ON near_events (block_height);
CREATE INDEX IF NOT EXISTS near_events_standard_event_idx ON near_events (standard, event);
`

const insertEvent = `
	INSERT INTO near_events (
		id, standard, version, event, data, block_height, block_hash,
		tx_hash, signer_id, receiver_id, log_index, received_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (id) DO NOTHING
`

// Store persists event records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the events table and its indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutEvents inserts records, ignoring IDs that are already stored.
func (s *Store) PutEvents(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		args, err := eventArgs(record)
		if err != nil {
			return err
		}
		batch.Queue(insertEvent, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, record := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert event %s: %w", record.ID, err)
		}
	}
	return nil
}

func eventArgs(record model.EventRecord) ([]any, error) {
	receivedAt, err := time.Parse(time.RFC3339Nano, record.ReceivedAt)
	if err != nil {
		return nil, fmt.Errorf("parse received_at of %s: %w", record.ID, err)
	}
	data := string(record.Data)
	if data == "" {
		data = "null"
	}

	return []any{
		record.ID,
		record.Standard,
		record.Version,
		record.Event,
		data,
		int64(record.BlockHeight),
		record.BlockHash,
		record.TxHash,
		record.SignerID,
		record.ReceiverID,
		record.LogIndex,
		receivedAt,
	}, nil
}
