// The gateway binary serves the tenant onboarding flow: intake form, database
// details, guarded creation call and login redirect.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	appservice "github.com/turtacn/onboard/internal/application/service"
	"github.com/turtacn/onboard/internal/config"
	domainservice "github.com/turtacn/onboard/internal/domain/service"
	"github.com/turtacn/onboard/internal/infrastructure/memory"
	"github.com/turtacn/onboard/internal/infrastructure/monitoring"
	"github.com/turtacn/onboard/internal/infrastructure/odoo"
	"github.com/turtacn/onboard/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/onboard/internal/infrastructure/queue"
	infraredis "github.com/turtacn/onboard/internal/infrastructure/redis"
	"github.com/turtacn/onboard/internal/infrastructure/secrets"
	"github.com/turtacn/onboard/internal/interfaces/http/handlers"
	"github.com/turtacn/onboard/internal/interfaces/http/router"
	"github.com/turtacn/onboard/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
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

	cleanup, err := monitoring.InitTracer(&cfg.Tracing)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracer", err)
	}
	defer cleanup()

	if err := secrets.LoadMasterPassword(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal(ctx, "Failed to load master password from Vault", err)
	}

	db, err := postgres.NewDBConnection(&cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to intake database", err)
	}

	var redisClient *goredis.Client
	var ledger domainservice.NonceLedger
	if cfg.Redis.Enabled {
		redisClient, err = infraredis.NewClient(&cfg.Redis, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", err)
		}
		defer redisClient.Close()
		ledger = infraredis.NewNonceLedger(redisClient, cfg.Flow.NonceTTL)
	} else {
		appLogger.Warn(ctx, "Redis disabled, using in-process nonce ledger (single instance only)")
		ledger = memory.NewNonceLedger(cfg.Flow.NonceTTL)
	}

	var provisionQueue domainservice.ProvisionQueue
	if cfg.Kafka.Enabled {
		producer := queue.NewKafkaProducer(&cfg.Kafka, appLogger)
		defer producer.Close()
		provisionQueue = producer
	}

	metrics := monitoring.NewMetrics()
	odooClient := odoo.NewClient(&cfg.Odoo, appLogger)
	intakeRepo := postgres.NewIntakeRepository(db, appLogger)

	provisioningSvc := appservice.NewProvisioningService(
		&cfg.Odoo, ledger, odooClient, odooClient, metrics, appLogger)
	flowSigner := appservice.NewFlowSigner(cfg.Flow.TokenSecret, cfg.Flow.TokenTTL)

	onboardingHandler := handlers.NewOnboardingHandler(
		provisioningSvc, flowSigner, intakeRepo, provisionQueue,
		cfg.Provisioner.DefaultModules, metrics, appLogger)

	var redisForHealth goredis.UniversalClient
	if redisClient != nil {
		redisForHealth = redisClient
	}
	healthHandler := handlers.NewHealthHandler(db, redisForHealth)

	srv := router.NewRouter(cfg, appLogger, onboardingHandler, healthHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Flow.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := ledger.Sweep(gctx); err != nil {
					appLogger.Warn(gctx, "Nonce sweep failed", logger.Fields{"error": err.Error()})
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Fatal(context.Background(), "Gateway exited with error", err)
	}
	appLogger.Info(context.Background(), "Gateway stopped")
}
