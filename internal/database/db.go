package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestionexus-backend/internal/config"
	"gestionexus-backend/internal/logging"
	"gestionexus-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres and returns the handle every service receives.
// The caller owns it and must Close it at shutdown.
func Open(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger:         logging.GormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema, then adds the constraints
// AutoMigrate cannot express.
func Migrate(db *gorm.DB, log *logrus.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Sale{},
		&models.SaleDetail{},
		&models.LayawayPlan{},
		&models.LayawayPlanDetail{},
		&models.FinancialLedgerEntry{},
		&models.Supplier{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	statements := []string{
		// (reference, size) is unique only among active products so soft-deleted rows can be reactivated.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_reference_size_active ON products (reference, size) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_products_low_stock ON products (quantity) WHERE is_active`,
		`CREATE INDEX IF NOT EXISTS idx_layaway_plans_status_deadline ON layaway_plans (status, deadline)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration statement failed: %w", err)
		}
	}

	checks := map[string]string{
		"chk_products_quantity_non_negative": `ALTER TABLE products ADD CONSTRAINT chk_products_quantity_non_negative CHECK (quantity >= 0)`,
		"chk_layaway_balance_non_negative":   `ALTER TABLE layaway_plans ADD CONSTRAINT chk_layaway_balance_non_negative CHECK (balance_due >= 0)`,
		"chk_suppliers_nit_not_blank":        `ALTER TABLE suppliers ADD CONSTRAINT chk_suppliers_nit_not_blank CHECK (nit <> '')`,
	}
	for name, stmt := range checks {
		var exists bool
		if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, name).Scan(&exists).Error; err != nil {
			return fmt.Errorf("check constraint %s: %w", name, err)
		}
		if exists {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add constraint %s: %w", name, err)
		}
		log.WithField("constraint", name).Info("constraint added")
	}

	log.Info("database migration complete")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err came from a unique constraint.
// It relies on gorm's TranslateError option.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports whether err is gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
