package persistence

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/config"
	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/persistence/models"
)

// NewDBConnection opens the configured database and migrates the schema.
// SQLite is the default; the file is created on first run.
func NewDBConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	return newConnection(cfg, logger.Warn)
}

// NewDBConnectionSilent opens the database without SQL logging.
// The CLI uses it to keep command output clean.
func NewDBConnectionSilent(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	return newConnection(cfg, logger.Silent)
}

func newConnection(cfg *config.DatabaseConfig, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PatientModel{},
		&models.InteractionModel{},
		&models.AppointmentModel{},
	)
}
