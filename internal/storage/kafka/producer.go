package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"nearListener/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes records to a Kafka topic keyed by transaction hash, so the
// events of one transaction stay on one partition in log order.
type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{writer: writer}, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// PutEvents writes the batch synchronously.
func (p *Producer) PutEvents(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs, err := buildMessages(records)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d kafka messages: %w", len(msgs), err)
	}
	return nil
}

func buildMessages(records []model.EventRecord) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(records))
	for _, record := range records {
		value, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", record.ID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(record.TxHash),
			Value: value,
			Headers: []kafkago.Header{
				{Key: "standard", Value: []byte(record.Standard)},
				{Key: "event", Value: []byte(record.Event)},
				{Key: "id", Value: []byte(record.ID)},
			},
		})
	}
	return msgs, nil
}
