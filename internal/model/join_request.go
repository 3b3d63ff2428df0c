package model

import "time"

// Status is the lifecycle state of a join request. A request moves
// awaiting_language -> awaiting_verification -> verified, with side exits
// into the failure states. Terminal states are final for the row; a new
// attempt by the same user gets a fresh row.
type Status string

const (
	StatusAwaitingLanguage     Status = "awaiting_language"
	StatusAwaitingVerification Status = "awaiting_verification"
	StatusVerified             Status = "verified"
	StatusVerifiedPending      Status = "verified_pending"
	StatusFailed               Status = "failed"
	StatusExpired              Status = "expired"
	StatusBlocked              Status = "blocked"
	StatusRejected             Status = "rejected"
	StatusDMFailed             Status = "dm_failed"
)

// Terminal reports whether no further transition is permitted from s.
// verified_pending is not terminal: it still owes a membership approval.
func (s Status) Terminal() bool {
	switch s {
	case StatusVerified, StatusFailed, StatusExpired, StatusBlocked, StatusRejected, StatusDMFailed:
		return true
	}
	return false
}

type JoinRequest struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	UserID int64  `gorm:"index:idx_join_req_user_chat;not null"`
	ChatID int64  `gorm:"index:idx_join_req_user_chat;not null"`
	Status Status `gorm:"not null"`

	// Set once on language selection, immutable afterwards.
	Language string

	Attempts int `gorm:"not null;default:0"`

	// At most one of the two token pairs is non-null at a time, and which
	// one it is matches Status. Both are cleared on any transition out of
	// their awaiting state.
	LanguageToken         *string `gorm:"uniqueIndex"`
	LanguageExpiresAt     *time.Time
	VerificationToken     *string `gorm:"uniqueIndex"`
	VerificationExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
