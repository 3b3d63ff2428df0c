// Package store wraps the database behind the ledger, settings and
// access-list contracts the gate operates against.
package store

import (
	"errors"
	"time"

	"joingate/internal/model"

	"gorm.io/gorm"
)

// Ledger is the persisted record of join attempts. Every mutation goes
// through Transition, a conditional update keyed on the row's current
// status. That single primitive is what keeps a double-tapped button or a
// user racing the sweeper from both succeeding: exactly one caller observes
// the expected status and wins, the other sees RowsAffected == 0.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

// Transition applies changes to the row iff its current status equals
// expected. Returns whether the update applied.
func (l *Ledger) Transition(id int64, expected model.Status, changes map[string]any) (bool, error) {
	changes["updated_at"] = time.Now()

	res := l.DB.Model(&model.JoinRequest{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// Create inserts a fresh request in awaiting_language holding the given
// language token. Earlier rows for the same (user, chat) are left untouched,
// the newest row is always the authoritative one.
func (l *Ledger) Create(userID, chatID int64, token string, expiresAt time.Time) (*model.JoinRequest, error) {
	req := &model.JoinRequest{
		UserID:            userID,
		ChatID:            chatID,
		Status:            model.StatusAwaitingLanguage,
		LanguageToken:     &token,
		LanguageExpiresAt: &expiresAt,
	}

	if err := l.DB.Create(req).Error; err != nil {
		return nil, err
	}

	return req, nil
}

// CreateBlocked inserts a row directly in blocked. No token is ever minted
// for a blacklisted user.
func (l *Ledger) CreateBlocked(userID, chatID int64) (*model.JoinRequest, error) {
	req := &model.JoinRequest{
		UserID: userID,
		ChatID: chatID,
		Status: model.StatusBlocked,
	}

	if err := l.DB.Create(req).Error; err != nil {
		return nil, err
	}

	return req, nil
}

// Latest returns the newest request for (user, chat), or nil if none exists.
func (l *Ledger) Latest(userID, chatID int64) (*model.JoinRequest, error) {
	var req model.JoinRequest

	err := l.DB.
		Where("user_id = ? AND chat_id = ?", userID, chatID).
		Order("id DESC").
		First(&req).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &req, nil
}

// ByLanguageToken resolves a language-selection token to its row. The token
// class is determined by which index matched, never by the token contents.
func (l *Ledger) ByLanguageToken(token string) (*model.JoinRequest, error) {
	return l.byToken("language_token = ?", token)
}

// ByVerificationToken resolves a verification-challenge token to its row.
func (l *Ledger) ByVerificationToken(token string) (*model.JoinRequest, error) {
	return l.byToken("verification_token = ?", token)
}

func (l *Ledger) byToken(cond, token string) (*model.JoinRequest, error) {
	if token == "" {
		return nil, nil
	}

	var req model.JoinRequest

	err := l.DB.Where(cond, token).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &req, nil
}

// Get loads a row by id.
func (l *Ledger) Get(id int64) (*model.JoinRequest, error) {
	var req model.JoinRequest

	if err := l.DB.First(&req, id).Error; err != nil {
		return nil, err
	}

	return &req, nil
}

// SetLanguage moves awaiting_language -> awaiting_verification: records the
// selected language, installs the verification token and clears the consumed
// language token in the same conditional update.
func (l *Ledger) SetLanguage(id int64, language, token string, expiresAt time.Time) (bool, error) {
	return l.Transition(id, model.StatusAwaitingLanguage, map[string]any{
		"status":                  model.StatusAwaitingVerification,
		"language":                language,
		"verification_token":      token,
		"verification_expires_at": expiresAt,
		"language_token":          nil,
		"language_expires_at":     nil,
	})
}

// MarkVerified finalizes the request into verified from the expected prior
// status, clearing any live token.
func (l *Ledger) MarkVerified(id int64, expected model.Status) (bool, error) {
	return l.Transition(id, expected, map[string]any{
		"status":                  model.StatusVerified,
		"language_token":          nil,
		"language_expires_at":     nil,
		"verification_token":      nil,
		"verification_expires_at": nil,
	})
}

// Fail finalizes the request into the given failure-class terminal status.
// A second call against an already-terminal row is a no-op.
func (l *Ledger) Fail(id int64, expected, terminal model.Status) (bool, error) {
	return l.Transition(id, expected, map[string]any{
		"status":                  terminal,
		"language_token":          nil,
		"language_expires_at":     nil,
		"verification_token":      nil,
		"verification_expires_at": nil,
	})
}

// MarkApprovalPending parks a request whose membership approval call failed
// after verification succeeded. The verified fact is kept, the approval is
// owed and retried on the next join event.
func (l *Ledger) MarkApprovalPending(id int64) (bool, error) {
	return l.Transition(id, model.StatusVerified, map[string]any{
		"status": model.StatusVerifiedPending,
	})
}

// PromotePending settles verified_pending -> verified once the join event
// is re-delivered and the approval can be retried.
func (l *Ledger) PromotePending(id int64) (bool, error) {
	return l.Transition(id, model.StatusVerifiedPending, map[string]any{
		"status": model.StatusVerified,
	})
}

// IncrementAttempts bumps the attempt counter of a request still awaiting
// verification and returns the fresh count. Attempts only ever grow.
func (l *Ledger) IncrementAttempts(id int64) (attempts int, applied bool, err error) {
	applied, err = l.Transition(id, model.StatusAwaitingVerification, map[string]any{
		"attempts": gorm.Expr("attempts + 1"),
	})
	if err != nil || !applied {
		return 0, applied, err
	}

	req, err := l.Get(id)
	if err != nil {
		return 0, true, err
	}

	return req.Attempts, true, nil
}

// RefreshLanguageToken replaces a stale language token on a request still
// awaiting language selection.
func (l *Ledger) RefreshLanguageToken(id int64, token string, expiresAt time.Time) (bool, error) {
	return l.Transition(id, model.StatusAwaitingLanguage, map[string]any{
		"language_token":      token,
		"language_expires_at": expiresAt,
	})
}

// RefreshVerificationToken replaces a stale verification token on a request
// still awaiting the challenge.
func (l *Ledger) RefreshVerificationToken(id int64, token string, expiresAt time.Time) (bool, error) {
	return l.Transition(id, model.StatusAwaitingVerification, map[string]any{
		"verification_token":      token,
		"verification_expires_at": expiresAt,
	})
}

// ExpiredLanguage lists requests still awaiting language selection whose
// token expiry has passed.
func (l *Ledger) ExpiredLanguage(now time.Time) ([]model.JoinRequest, error) {
	var reqs []model.JoinRequest

	err := l.DB.
		Where("status = ? AND language_expires_at IS NOT NULL AND language_expires_at <= ?",
			model.StatusAwaitingLanguage, now).
		Find(&reqs).
		Error

	return reqs, err
}

// ExpiredVerification lists requests still awaiting the challenge whose
// token expiry has passed.
func (l *Ledger) ExpiredVerification(now time.Time) ([]model.JoinRequest, error) {
	var reqs []model.JoinRequest

	err := l.DB.
		Where("status = ? AND verification_expires_at IS NOT NULL AND verification_expires_at <= ?",
			model.StatusAwaitingVerification, now).
		Find(&reqs).
		Error

	return reqs, err
}

// PendingForUser lists a user's requests still awaiting input, newest first.
func (l *Ledger) PendingForUser(userID int64) ([]model.JoinRequest, error) {
	var reqs []model.JoinRequest

	err := l.DB.
		Where("user_id = ? AND status IN ?", userID,
			[]model.Status{model.StatusAwaitingLanguage, model.StatusAwaitingVerification}).
		Order("updated_at DESC").
		Find(&reqs).
		Error

	return reqs, err
}

// StatusCounts returns the number of requests per status, optionally scoped
// to a single chat.
func (l *Ledger) StatusCounts(chatID *int64) (map[model.Status]int64, error) {
	type row struct {
		Status model.Status
		N      int64
	}

	var rows []row

	q := l.DB.Model(&model.JoinRequest{}).
		Select("status, count(1) as n").
		Group("status")
	if chatID != nil {
		q = q.Where("chat_id = ?", *chatID)
	}

	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}

	return counts, nil
}
