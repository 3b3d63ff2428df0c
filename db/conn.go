// Package db contains things related to the database connection
package db

import (
	"fmt"

	"joingate/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spf13/viper"
)

// New opens the configured database and migrates the schema. SQLite is the
// default; postgres is available for deployments that already run one.
func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch viper.GetString("db.driver") {
	case "postgres":
		dialector = postgres.Open(viper.GetString("db.dsn"))
	default:
		dialector = sqlite.Open(viper.GetString("db.path"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(
		model.JoinRequest{},
		model.Setting{},
		model.WhitelistEntry{},
		model.BlacklistEntry{},
		model.KnownUser{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
