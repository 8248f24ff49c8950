package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oszuidwest/zwfm-crudread/internal/config"
	pkglogger "github.com/oszuidwest/zwfm-crudread/pkg/logger"
)

// NewGormDB creates a new GORM database connection using the provided configuration.
func NewGormDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if !cfg.Environment.IsProduction() && cfg.LogLevel == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true, // Reads only
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pkglogger.Info("GORM database connection established")

	return db, nil
}
