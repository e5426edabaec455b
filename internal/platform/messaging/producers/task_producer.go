// Package producers holds the Kafka producers: the task dispatcher used by the
// trigger surface and the dead letter publisher used by the processor.
package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/procure-finance-sync/internal/config"
	"github.com/segmentio/kafka-go"
)

// TaskMessageProducer publishes sync task requests onto the task topic
type TaskMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewTaskMessageProducer creates the trigger-side producer and ensures the
// task topic exists.
func NewTaskMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TaskMessageProducer, error) {
	if cfg.TaskTopic == "" {
		return nil, fmt.Errorf("kafka task topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for task producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.TaskTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure task topic %s exists: %w", cfg.TaskTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.TaskTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.TaskTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.TaskTopic, "count", len(messages))
			}
		},
	}

	return &TaskMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.TaskTopic,
	}, nil
}

// Publish serializes the task request and writes it keyed by task identity so
// retries of the same task land on the same partition.
func (p *TaskMessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal task message value: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish task message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish task message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published task message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *TaskMessageProducer) Close() error {
	p.logger.Info("Closing task Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close task kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
