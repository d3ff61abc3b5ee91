// Package events publishes tool-usage and audit events to Kafka.
package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// batchTimeout bounds how long a synchronous publish waits for its batch
// to fill. Publishes are one message each, so the writer's 1s default
// would be added to every request.
const batchTimeout = 10 * time.Millisecond

// Config describes the broker connection.
type Config struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
	TLS      bool
}

// Producer writes JSON messages to one topic. A nil Producer, or one
// created without brokers, skips every publish.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer returns a producer for cfg. With no brokers configured the
// producer is inert.
func NewProducer(cfg Config, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return &Producer{logger: logger}
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.TLS {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: batchTimeout,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Enabled reports whether publishes reach a broker.
func (p *Producer) Enabled() bool { return p != nil && p.writer != nil }

// Publish encodes v as JSON and writes it under key.
func (p *Producer) Publish(ctx context.Context, key string, v any) error {
	if !p.Enabled() {
		return nil
	}

	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("events: publish %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
