//go:build integration

package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gestionexus-backend/internal/config"
	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// PostgresDB starts a throwaway Postgres container, migrates the schema
// and returns a connected handle.
func PostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	db, err := database.Open(config.DatabaseConfig{
		URL:             fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, log))

	t.Cleanup(func() {
		if err := database.Close(db); err != nil {
			t.Logf("close database: %v", err)
		}
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	return db
}

// SeedUser inserts an active user with the given role.
func SeedUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		FullName:     username,
		Username:     username,
		Email:        username + "@gestionexus.test",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedProduct inserts an active product with the given stock.
func SeedProduct(t *testing.T, db *gorm.DB, reference string, quantity int, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      "Producto " + reference,
		Reference: reference,
		Size:      "M",
		Quantity:  quantity,
		Price:     decimal.RequireFromString(price),
		Cost:      decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		IsActive:  true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
