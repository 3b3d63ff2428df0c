package store

import (
	"path/filepath"
	"testing"

	"joingate/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		model.JoinRequest{},
		model.Setting{},
		model.WhitelistEntry{},
		model.BlacklistEntry{},
		model.KnownUser{},
	))

	return db
}
