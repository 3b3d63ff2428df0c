package model

import "time"

// WhitelistEntry marks a user eligible for manual /approve without the
// challenge. Only administrative commands mutate it.
type WhitelistEntry struct {
	UserID    int64 `gorm:"primaryKey"`
	CreatedAt time.Time
}

// BlacklistEntry marks a user whose join requests are declined outright.
type BlacklistEntry struct {
	UserID    int64 `gorm:"primaryKey"`
	CreatedAt time.Time
}

// KnownUser is anyone who has started a private chat with the bot. This is
// the audience for /broadcast.
type KnownUser struct {
	UserID    int64 `gorm:"primaryKey"`
	StartedAt time.Time
}
