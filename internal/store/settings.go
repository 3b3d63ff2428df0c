package store

import (
	"errors"
	"strconv"

	"joingate/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Settings is the runtime key/value override store. Reads always hit the
// table, never a cache, so /setattempts and /settimeout take effect on the
// very next decision point.
type Settings struct {
	DB *gorm.DB
}

func NewSettings(db *gorm.DB) *Settings {
	return &Settings{DB: db}
}

// Get returns the stored value for key, or def when no override exists.
// Store errors fall back to the default so a flaky read never blocks a
// decision; they are logged instead.
func (s *Settings) Get(key, def string) string {
	var setting model.Setting

	err := s.DB.First(&setting, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("Failed to read setting", zap.String("key", key), zap.Error(err))
		}
		return def
	}

	return setting.Value
}

// GetInt is Get for integer-valued settings. Unparseable stored values fall
// back to the default.
func (s *Settings) GetInt(key string, def int) int {
	raw := s.Get(key, strconv.Itoa(def))

	n, err := strconv.Atoi(raw)
	if err != nil {
		zap.L().Warn("Non-numeric setting value", zap.String("key", key), zap.String("value", raw))
		return def
	}

	return n
}

// Set upserts an override.
func (s *Settings) Set(key, value string) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.Setting{Key: key, Value: value}).Error
}
