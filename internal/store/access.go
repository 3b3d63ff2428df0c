package store

import (
	"time"

	"joingate/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lists holds the whitelist/blacklist membership tables. The gate only ever
// reads them; administrative commands insert.
type Lists struct {
	DB *gorm.DB
}

func NewLists(db *gorm.DB) *Lists {
	return &Lists{DB: db}
}

func (l *Lists) Whitelisted(userID int64) (bool, error) {
	var n int64

	err := l.DB.Model(&model.WhitelistEntry{}).
		Where("user_id = ?", userID).
		Count(&n).
		Error

	return n > 0, err
}

func (l *Lists) Blacklisted(userID int64) (bool, error) {
	var n int64

	err := l.DB.Model(&model.BlacklistEntry{}).
		Where("user_id = ?", userID).
		Count(&n).
		Error

	return n > 0, err
}

// AddWhitelist inserts the user, ignoring duplicates.
func (l *Lists) AddWhitelist(userID int64) error {
	return l.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WhitelistEntry{UserID: userID, CreatedAt: time.Now()}).
		Error
}

// AddBlacklist inserts the user, ignoring duplicates.
func (l *Lists) AddBlacklist(userID int64) error {
	return l.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.BlacklistEntry{UserID: userID, CreatedAt: time.Now()}).
		Error
}
