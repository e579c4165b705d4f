// Package queue provides the Kafka transport for background company
// provisioning tasks.
package queue

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/domain/service"
	"github.com/turtacn/onboard/pkg/logger"
)

// KafkaProducer publishes ProvisionTask messages. It implements
// service.ProvisionQueue.
type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaProducer creates a producer for the provisioning topic.
func NewKafkaProducer(cfg *config.KafkaConfig, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ProvisionTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaProducer{
		writer: writer,
		logger: log.WithComponent("KafkaProducer"),
	}
}

var _ service.ProvisionQueue = (*KafkaProducer)(nil)

// Enqueue publishes one task. The company name keys the message so repeated
// tasks for one company stay ordered.
func (p *KafkaProducer) Enqueue(ctx context.Context, task models.ProvisionTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal provision task", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.CompanyName),
		Value: payload,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write provision task to Kafka", err, logger.Fields{
			"company_name": task.CompanyName,
		})
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
