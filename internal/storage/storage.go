package storage

import (
	"context"
	"errors"

	"nearListener/internal/model"
)

// Sink receives event records in delivery order.
type Sink interface {
	PutEvents(ctx context.Context, records []model.EventRecord) error
}

// Fanout writes every batch to each sink in turn and stops at the first
// failure.
type Fanout []Sink

func (f Fanout) PutEvents(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, sink := range f {
		if err := sink.PutEvents(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

// Closer is implemented by sinks holding connections or files.
type Closer interface {
	Close() error
}

// CloseAll closes every sink that implements Closer and joins the errors.
func CloseAll(sinks []Sink) error {
	var errs []error
	for _, sink := range sinks {
		if c, ok := sink.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
