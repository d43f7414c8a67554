package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes domain events. When disabled every publish is a no-op.
type KafkaProducer struct {
	writer      messageWriter
	logger      *slog.Logger
	topicPrefix string
	enabled     bool
}

// NewKafkaProducer creates a Kafka producer. If brokers is empty or disabled, writes are no-ops.
func NewKafkaProducer(brokers, topicPrefix string, enabled bool, logger *slog.Logger) *KafkaProducer {
	if !enabled || brokers == "" {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{enabled: false, logger: logger, topicPrefix: topicPrefix}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka producer initialized", "brokers", brokers, "topic_prefix", topicPrefix)
	return &KafkaProducer{writer: w, logger: logger, topicPrefix: topicPrefix, enabled: true}
}

// Publish writes evt as JSON keyed by its partition key.
func (p *KafkaProducer) Publish(ctx context.Context, evt domain.EventDraft) error {
	if !p.enabled {
		return nil
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: evt.Topic(p.topicPrefix),
		Key:   []byte(evt.PartitionKey),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close shuts down the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads domain events from one topic within a consumer group.
type KafkaConsumer struct {
	reader messageReader
	logger *slog.Logger
}

// NewKafkaConsumer creates a consumer for topic and group.
func NewKafkaConsumer(brokers, topic, groupID string, logger *slog.Logger) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaConsumer{reader: r, logger: logger}
}

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, evt domain.EventDraft) error

// Consume reads until ctx is cancelled. Undecodable messages and handler errors
// are logged and skipped; offsets are committed either way.
func (c *KafkaConsumer) Consume(ctx context.Context, handle EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read kafka message: %w", err)
		}

		var evt domain.EventDraft
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.logger.Warn("skipping undecodable event",
				"topic", msg.Topic,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		evt.PartitionKey = string(msg.Key)

		if err := handle(ctx, evt); err != nil {
			c.logger.Error("event handler failed",
				"event_id", evt.EventID,
				"event_type", evt.EventType,
				"error", err,
			)
		}
	}
}

// Close shuts down the Kafka reader.
func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
