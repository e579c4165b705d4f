// The provisioner binary consumes queued company-provisioning tasks and runs
// them against the ERP backend: create the company record, then install the
// requested modules.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/infrastructure/erp"
	"github.com/turtacn/onboard/internal/infrastructure/monitoring"
	"github.com/turtacn/onboard/internal/infrastructure/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Kafka.Enabled {
		appLogger.Fatal(ctx, "Kafka must be enabled for the provisioner", nil)
	}

	provisioner := erp.NewRPCClient(&cfg.Provisioner, appLogger)
	consumer := queue.NewProvisionConsumer(&cfg.Kafka, provisioner, appLogger)

	go func() {
		<-ctx.Done()
		consumer.Stop()
	}()

	consumer.Start(ctx)
	appLogger.Info(context.Background(), "Provisioner stopped")
}
