// Package postgres implements the PostgreSQL-backed intake store.
package postgres

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/onboard/internal/config"
	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/pkg/logger"
)

// NewDBConnection opens the intake database and runs the schema migration.
// AutoMigrate covers the light-touch db_name column/index migration older
// deployments relied on.
func NewDBConnection(cfg *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to intake database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConns)

	if err := db.AutoMigrate(&models.ClientIntake{}); err != nil {
		return nil, fmt.Errorf("failed to migrate intake schema: %w", err)
	}

	log.Info(context.Background(), "Intake database connected", logger.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return db, nil
}
