package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// Handler processes one consumed message
type Handler interface {
	HandleMessage(ctx context.Context, key, value []byte) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, key, value []byte) error

// HandleMessage calls f
func (f HandlerFunc) HandleMessage(ctx context.Context, key, value []byte) error {
	return f(ctx, key, value)
}

// KafkaConsumer reads a topic as part of a consumer group
type KafkaConsumer struct {
	Reader  *kafka.Reader
	Handler Handler
	logger  zerolog.Logger
}

// NewKafkaConsumer creates a group reader for cfg.Topic
func NewKafkaConsumer(cfg Config, handler Handler, logger zerolog.Logger) *KafkaConsumer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if cfg.Username != "" {
		dialer.TLS = &tls.Config{}
		dialer.SASLMechanism = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Broker},
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
		Dialer:   dialer,
	})

	return &KafkaConsumer{
		Reader:  reader,
		Handler: handler,
		logger:  logger,
	}
}

// Listen consumes until ctx is cancelled. Handler errors are logged and the
// message is committed anyway; there is no automatic retry.
func (kc *KafkaConsumer) Listen(ctx context.Context) {
	kc.logger.Info().Str("topic", kc.Reader.Config().Topic).Msg("Kafka consumer started")
	for {
		msg, err := kc.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				kc.logger.Info().Msg("Kafka consumer stopped")
				return
			}
			kc.logger.Error().Err(err).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		kc.logger.Debug().Str("key", string(msg.Key)).Int64("offset", msg.Offset).Msg("Kafka message received")

		if err := kc.Handler.HandleMessage(ctx, msg.Key, msg.Value); err != nil {
			kc.logger.Error().Err(err).Str("key", string(msg.Key)).Msg("Kafka handler error")
		}
	}
}

// Close closes the reader
func (kc *KafkaConsumer) Close() error {
	return kc.Reader.Close()
}
