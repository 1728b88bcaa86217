package queue

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/yigit/internportal/internal/pkg/logger"
)

// Config addresses one topic on one broker. Username enables SASL/PLAIN over TLS.
type Config struct {
	Broker   string
	Topic    string
	GroupID  string
	Username string
	Password string
}

// Enabled reports whether a broker is configured
func (c Config) Enabled() bool {
	return c.Broker != "" && c.Topic != ""
}

// Publisher publishes keyed messages
type Publisher interface {
	PublishMessage(ctx context.Context, key, value []byte) error
}

// Producer writes to a single topic
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer for cfg.Topic
func NewProducer(cfg Config) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: 10 * time.Second,
	}
	if cfg.Username != "" {
		writer.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: cfg.Username, Password: cfg.Password},
			TLS:  &tls.Config{},
		}
	}
	return &Producer{writer: writer}
}

// PublishMessage writes one message. A nil producer skips silently.
func (p *Producer) PublishMessage(ctx context.Context, key, value []byte) error {
	if p == nil || p.writer == nil {
		logger.Warn().Msg("Kafka producer not ready - skip publish")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
