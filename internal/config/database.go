package config

import (
	"fmt"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cycleroute/internal/repository"
)

// OpenDB connects to postgres through lib/pq and migrates the schema.
func OpenDB(cfg DBConfig, log gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSN(),
	}), &gorm.Config{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}
	return db, nil
}
