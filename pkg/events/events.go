// Package events publishes domain events to Kafka, or to the log when no broker is configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher sends a JSON encoded event to a topic, keyed for partitioning
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

// KafkaPublisher writes every topic through one shared writer
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaPublisher creates a publisher for brokers. timeout bounds each publish.
func NewKafkaPublisher(brokers []string, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		timeout: timeout,
	}
}

func (k *KafkaPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// LogPublisher only logs events
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that writes events to logger at debug level
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	l.logger.Debug("Event published",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.ByteString("payload", payload))
	return nil
}

func (l *LogPublisher) Close() error { return nil }

// Message is an event captured by MemoryPublisher
type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// MemoryPublisher keeps published events in memory
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
}

func (m *MemoryPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Messages returns what has been published so far
func (m *MemoryPublisher) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}
