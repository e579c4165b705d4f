package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/domain/service"
	"github.com/turtacn/onboard/pkg/logger"
)

// ProvisionConsumer consumes ProvisionTask messages and runs them through the
// company provisioner. All worker instances share one consumer group.
type ProvisionConsumer struct {
	reader      *kafka.Reader
	provisioner service.CompanyProvisioner
	logger      logger.Logger
	stop        chan struct{}
}

// NewProvisionConsumer creates a consumer for the provisioning topic.
func NewProvisionConsumer(cfg *config.KafkaConfig, provisioner service.CompanyProvisioner, log logger.Logger) *ProvisionConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.ProvisionTopic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})

	return &ProvisionConsumer{
		reader:      reader,
		provisioner: provisioner,
		logger:      log.WithComponent("ProvisionConsumer"),
		stop:        make(chan struct{}),
	}
}

// Start runs the consumer loop. Blocking; run it in a goroutine.
func (c *ProvisionConsumer) Start(ctx context.Context) {
	c.logger.Info(ctx, "starting provision consumer")
	for {
		select {
		case <-c.stop:
			c.logger.Info(ctx, "stopping provision consumer")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error(ctx, "failed to fetch message from kafka", err)
				continue
			}

			var task models.ProvisionTask
			if err := json.Unmarshal(msg.Value, &task); err != nil {
				c.logger.Error(ctx, "failed to unmarshal provision task", err, logger.Fields{
					"kafka_message": string(msg.Value),
				})
				// Commit the poison pill to avoid reprocessing it forever.
				c.reader.CommitMessages(ctx, msg)
				continue
			}

			if err := c.provisioner.Provision(ctx, task); err != nil {
				c.logger.Error(ctx, "provision task failed", err, logger.Fields{
					"company_name": task.CompanyName,
				})
				// Not committed: the task is retried on the next fetch.
			} else {
				c.logger.Info(ctx, "provision task completed", logger.Fields{
					"company_name": task.CompanyName,
					"modules":      task.Modules,
				})
				c.reader.CommitMessages(ctx, msg)
			}
		}
	}
}

// Stop gracefully shuts down the consumer.
func (c *ProvisionConsumer) Stop() {
	close(c.stop)
	if err := c.reader.Close(); err != nil {
		c.logger.Error(context.Background(), "failed to close kafka reader", err)
	}
}
