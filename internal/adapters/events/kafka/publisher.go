package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/points_ledger/internal/core/ports/events"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives TransactionCommitted events when no topic is configured.
const DefaultTopic = "ledger.transaction_committed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes ledger events to Kafka, keyed by transaction ID.
type Publisher struct {
	writer messageWriter
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Publisher) PublishTransactionCommitted(ctx context.Context, ev events.TransactionCommitted) error {
	msg, err := encodeTransactionCommitted(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish transaction %d: %w", ev.TransactionID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func encodeTransactionCommitted(ev events.TransactionCommitted) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode transaction %d: %w", ev.TransactionID, err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.TransactionID, 10)),
		Value: data,
		Time:  ev.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID)},
			{Key: "event_type", Value: []byte("transaction_committed")},
		},
	}, nil
}
