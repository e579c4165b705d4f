// Package service contains the application services of the onboarding
// gateway. ProvisioningService is the orchestrator of the create-database
// flow.
package service

import (
	"context"
	"time"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/domain/models"
	domainservice "github.com/turtacn/onboard/internal/domain/service"
	"github.com/turtacn/onboard/internal/infrastructure/monitoring"
	"github.com/turtacn/onboard/pkg/errors"
	"github.com/turtacn/onboard/pkg/logger"
)

// PrepareResult is the outcome of the pre-creation step. Either the database
// already exists and Redirect short-circuits the flow, or Nonce authorizes
// exactly one follow-up creation call.
type PrepareResult struct {
	TenantName    models.TenantName
	AlreadyExists bool
	Redirect      string
	Nonce         string
}

// CreateResult is the terminal success outcome of the creation step.
type CreateResult struct {
	Redirect string
}

// ProvisioningService sequences validation, duplicate check, token issuance,
// the creation call and re-verification.
type ProvisioningService interface {
	// Prepare validates the tenant name and either short-circuits to the
	// existing database's login page or issues a one-time creation nonce.
	Prepare(ctx context.Context, rawName string, edition models.Edition) (*PrepareResult, error)

	// Create consumes the nonce and performs the guarded creation call,
	// judging success solely by re-querying the directory.
	Create(ctx context.Context, creation models.CreationRequest, nonce string) (*CreateResult, error)

	// Target resolves the edition's base URLs.
	Target(edition models.Edition) models.EditionTarget
}

type provisioningService struct {
	targets   map[models.Edition]models.EditionTarget
	ledger    domainservice.NonceLedger
	directory domainservice.DirectoryClient
	creator   domainservice.DatabaseCreator
	metrics   *monitoring.Metrics
	logger    logger.Logger
}

// NewProvisioningService wires the orchestrator from its collaborators.
func NewProvisioningService(
	odooCfg *config.OdooConfig,
	ledger domainservice.NonceLedger,
	directory domainservice.DirectoryClient,
	creator domainservice.DatabaseCreator,
	metrics *monitoring.Metrics,
	log logger.Logger,
) ProvisioningService {
	return &provisioningService{
		targets: map[models.Edition]models.EditionTarget{
			models.EditionCommunity: {
				Internal: odooCfg.CommunityInternal,
				External: odooCfg.CommunityExternal,
			},
			models.EditionEnterprise: {
				Internal: odooCfg.EnterpriseInternal,
				External: odooCfg.EnterpriseExternal,
			},
		},
		ledger:    ledger,
		directory: directory,
		creator:   creator,
		metrics:   metrics,
		logger:    log.WithComponent("ProvisioningService"),
	}
}

func (s *provisioningService) Target(edition models.Edition) models.EditionTarget {
	return s.targets[edition]
}

func (s *provisioningService) Prepare(ctx context.Context, rawName string, edition models.Edition) (*PrepareResult, error) {
	name, err := models.NewTenantName(rawName)
	if err != nil {
		return nil, err
	}

	target := s.Target(edition)
	snapshot := s.directory.ListDatabases(ctx, target.Internal)
	if snapshot.Degraded {
		s.metrics.DirectoryDegradedQueries.Inc()
	}

	// Existing database: no creation call, so re-rendering this step under a
	// page refresh stays idempotent.
	if snapshot.Contains(name) {
		s.logger.Info(ctx, "Database already exists, short-circuiting to login", logger.Fields{
			"db_name": name.String(),
			"edition": edition.String(),
		})
		return &PrepareResult{
			TenantName:    name,
			AlreadyExists: true,
			Redirect:      target.LoginURL(name),
		}, nil
	}

	nonce, err := s.ledger.Issue(ctx, name)
	if err != nil {
		return nil, errors.ErrInternalServer.WithError(err)
	}
	s.metrics.NoncesIssued.Inc()

	return &PrepareResult{
		TenantName: name,
		Nonce:      nonce,
	}, nil
}

func (s *provisioningService) Create(ctx context.Context, creation models.CreationRequest, nonce string) (*CreateResult, error) {
	startTime := time.Now()
	edition := creation.Edition
	name := creation.TenantName
	target := s.Target(edition)

	// Race-prevention checkpoint: of two concurrent calls carrying the same
	// token, exactly one consumes it; the other fails here deterministically.
	ok, err := s.ledger.Consume(ctx, nonce)
	if err != nil {
		return nil, errors.ErrInternalServer.WithError(err)
	}
	if !ok {
		s.metrics.RecordProvision(edition.String(), "nonce_rejected", time.Since(startTime))
		return nil, errors.ErrNonceExpiredOrReplayed
	}

	// Idempotency: re-check before creating.
	snapshot := s.directory.ListDatabases(ctx, target.Internal)
	if snapshot.Degraded {
		s.metrics.DirectoryDegradedQueries.Inc()
	}
	if snapshot.Contains(name) {
		s.metrics.RecordProvision(edition.String(), "already_exists", time.Since(startTime))
		return &CreateResult{Redirect: target.LoginURL(name)}, nil
	}

	// No retry: a partially-applied creation on the remote side must not be
	// blindly repeated.
	status, err := s.creator.CreateDatabase(ctx, target.Internal, creation)
	if err != nil {
		s.logger.Error(ctx, "Creation call failed at transport level", err, logger.Fields{
			"db_name": name.String(),
			"edition": edition.String(),
		})
		s.metrics.RecordProvision(edition.String(), "network_error", time.Since(startTime))
		return nil, errors.ErrOdooNetwork(err)
	}

	// Success is judged only by the post-creation directory query, never by
	// the creation call's HTTP status.
	snapshot = s.directory.ListDatabases(ctx, target.Internal)
	if snapshot.Degraded {
		s.metrics.DirectoryDegradedQueries.Inc()
	}
	if snapshot.Contains(name) {
		s.logger.Info(ctx, "Tenant database provisioned", logger.Fields{
			"db_name":    name.String(),
			"edition":    edition.String(),
			"latency_ms": time.Since(startTime).Milliseconds(),
		})
		s.metrics.RecordProvision(edition.String(), "created", time.Since(startTime))
		return &CreateResult{Redirect: target.LoginURL(name)}, nil
	}

	s.logger.Error(ctx, "Tenant database absent after creation attempt", nil, logger.Fields{
		"db_name": name.String(),
		"edition": edition.String(),
		"status":  status,
	})
	s.metrics.RecordProvision(edition.String(), "creation_failed", time.Since(startTime))
	return nil, errors.ErrOdooCreationFailed(status)
}
