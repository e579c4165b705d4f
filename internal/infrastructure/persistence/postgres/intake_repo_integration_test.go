//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/pkg/logger"
)

func TestIntakeRepositoryAgainstPostgres(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("clients"),
		tcpostgres.WithUsername("clientadmin"),
		tcpostgres.WithPassword("clientpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ClientIntake{}))

	repo := NewIntakeRepository(db, logger.NewNoopLogger())

	intake := &models.ClientIntake{
		CompanyName: "Acme Ltd",
		AdminEmail:  "admin@acme.example",
		Edition:     "Community",
		DBName:      "acme_1",
	}
	require.NoError(t, repo.Save(ctx, intake))
	require.NotZero(t, intake.ID)

	found, err := repo.FindLatestByDBName(ctx, "acme_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Acme Ltd", found.CompanyName)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	missing, err := repo.FindLatestByDBName(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
