package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/domain/repository"
	apperrors "github.com/turtacn/onboard/pkg/errors"
	"github.com/turtacn/onboard/pkg/logger"
)

// IntakeRepoImpl implements IntakeRepository using PostgreSQL.
type IntakeRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewIntakeRepository creates a PostgreSQL-backed intake repository.
func NewIntakeRepository(db *gorm.DB, log logger.Logger) repository.IntakeRepository {
	return &IntakeRepoImpl{
		db:     db,
		logger: log.WithComponent("IntakeRepository"),
	}
}

// Save inserts one intake record. WithContext scopes the session so the
// connection is released on every exit path.
func (r *IntakeRepoImpl) Save(ctx context.Context, intake *models.ClientIntake) error {
	startTime := time.Now()

	if err := r.db.WithContext(ctx).Create(intake).Error; err != nil {
		r.logger.Error(ctx, "Failed to save intake record", err, logger.Fields{
			"company_name": intake.CompanyName,
			"db_name":      intake.DBName,
		})
		return fmt.Errorf("%w: %v", apperrors.ErrDatabaseOperation, err)
	}

	r.logger.Info(ctx, "Intake record saved", logger.Fields{
		"company_name": intake.CompanyName,
		"db_name":      intake.DBName,
		"edition":      intake.Edition,
		"latency_ms":   time.Since(startTime).Milliseconds(),
	})
	return nil
}

// FindAll returns all intake records, newest first.
func (r *IntakeRepoImpl) FindAll(ctx context.Context) ([]*models.ClientIntake, error) {
	var intakes []*models.ClientIntake
	if err := r.db.WithContext(ctx).Order("id desc").Find(&intakes).Error; err != nil {
		r.logger.Error(ctx, "Failed to list intake records", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDatabaseOperation, err)
	}
	return intakes, nil
}

// FindLatestByDBName returns the most recent intake record for a tenant name,
// or nil when none exists.
func (r *IntakeRepoImpl) FindLatestByDBName(ctx context.Context, dbName string) (*models.ClientIntake, error) {
	var intake models.ClientIntake
	err := r.db.WithContext(ctx).
		Where("db_name = ?", dbName).
		Order("id desc").
		First(&intake).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDatabaseOperation, err)
	}
	return &intake, nil
}
