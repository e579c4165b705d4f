// Package repository declares persistence interfaces for the intake store.
package repository

import (
	"context"

	"github.com/turtacn/onboard/internal/domain/models"
)

// IntakeRepository persists client intake records.
type IntakeRepository interface {
	Save(ctx context.Context, intake *models.ClientIntake) error
	FindAll(ctx context.Context) ([]*models.ClientIntake, error)
	FindLatestByDBName(ctx context.Context, dbName string) (*models.ClientIntake, error)
}
