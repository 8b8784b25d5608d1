// Package alert publishes risk violations to external subscribers.
package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

// KafkaConfig configures the alert publisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher publishes violation sets to a Kafka topic so
// dashboards and notifiers can react to them.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaPublisher creates a Kafka-backed alert publisher.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{
		writer: writer,
		log:    logger.GetLogger("alert.kafka"),
	}
}

// PublishViolations sends the violation set as a single JSON message.
func (p *KafkaPublisher) PublishViolations(ctx context.Context, violations []models.Violation) error {
	payload, err := json.Marshal(violations)
	if err != nil {
		return errors.Wrap(err, "failed to marshal violations")
	}

	msg := kafka.Message{
		Key:   []byte(time.Now().UTC().Format(time.RFC3339Nano)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to publish violations")
	}
	p.log.Infof("Published %d violations", len(violations))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
