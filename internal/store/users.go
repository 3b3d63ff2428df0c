package store

import (
	"time"

	"joingate/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Users tracks everyone who has ever started a private chat with the bot,
// which is the only audience the bot can legally message in bulk.
type Users struct {
	DB *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{DB: db}
}

// RecordStart remembers a /start, ignoring repeats.
func (u *Users) RecordStart(userID int64) error {
	return u.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.KnownUser{UserID: userID, StartedAt: time.Now()}).
		Error
}

// All returns every known user ID.
func (u *Users) All() ([]int64, error) {
	var ids []int64

	err := u.DB.Model(&model.KnownUser{}).
		Pluck("user_id", &ids).
		Error

	return ids, err
}
