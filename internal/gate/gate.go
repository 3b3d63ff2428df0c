// Package gate implements the join-request verification state machine. One
// Gate instance holds every collaborator explicitly; there is no package
// state.
package gate

import (
	"context"
	"fmt"
	"time"

	"joingate/internal/model"
	"joingate/internal/store"
	"joingate/internal/texts"
	"joingate/internal/token"

	"go.uber.org/zap"
)

// FailureAction values. Under reject, a terminal failure also declines the
// pending membership request; under pending it is merely recorded.
const (
	FailureReject  = "reject"
	FailurePending = "pending"
)

// Config carries the static defaults. Attempt limit and verification
// timeout can be overridden at runtime through Settings and are read live
// at each decision point.
type Config struct {
	MaxAttempts     int
	VerifyTimeout   time.Duration
	LanguageTimeout time.Duration
	FailureAction   string

	PreVerifiedFastPath    bool
	NotifyAdminOnPromotion bool

	// Username of the bot account, used to build deep links. Filled in
	// after the initial getMe.
	BotUsername string
}

type Gate struct {
	Ledger   *store.Ledger
	Settings *store.Settings
	Lists    *store.Lists
	Users    *store.Users
	Issuer   *token.Issuer
	Msg      Messenger
	Cfg      Config

	now func() time.Time
}

func New(ledger *store.Ledger, settings *store.Settings, lists *store.Lists, users *store.Users, issuer *token.Issuer, msg Messenger, cfg Config) *Gate {
	return &Gate{
		Ledger:   ledger,
		Settings: settings,
		Lists:    lists,
		Users:    users,
		Issuer:   issuer,
		Msg:      msg,
		Cfg:      cfg,
		now:      time.Now,
	}
}

// maxAttempts reads the live attempt limit, falling back to the static
// default.
func (g *Gate) maxAttempts() int {
	return g.Settings.GetInt(model.SettingMaxAttempts, g.Cfg.MaxAttempts)
}

// verifyTimeout reads the live verification timeout. Only newly minted
// tokens observe a change; stored expiries are never rewritten.
func (g *Gate) verifyTimeout() time.Duration {
	secs := g.Settings.GetInt(model.SettingVerifyTimeout, int(g.Cfg.VerifyTimeout.Seconds()))
	return time.Duration(secs) * time.Second
}

// HandleJoin processes an inbound membership request.
func (g *Gate) HandleJoin(ctx context.Context, ev JoinEvent) {
	blocked, err := g.Lists.Blacklisted(ev.UserID)
	if err != nil {
		zap.L().Error("Failed to check blacklist", zap.Int64("userID", ev.UserID), zap.Error(err))
		return
	}

	if blocked {
		if _, err := g.Ledger.CreateBlocked(ev.UserID, ev.ChatID); err != nil {
			zap.L().Error("Failed to record blocked request", zap.Error(err))
			return
		}

		if err := g.Msg.DeclineJoinRequest(ctx, ev.ChatID, ev.UserID); err != nil {
			zap.L().Error("Failed to decline blacklisted join request", zap.Error(err))
		}
		return
	}

	existing, err := g.Ledger.Latest(ev.UserID, ev.ChatID)
	if err != nil {
		zap.L().Error("Failed to load latest request", zap.Error(err))
		return
	}

	if existing != nil && existing.Status == model.StatusVerifiedPending && g.Cfg.PreVerifiedFastPath {
		g.settlePending(ctx, existing)
		return
	}

	if existing != nil && !existing.Status.Terminal() {
		// Already in flight, just point the user back at the challenge.
		if err := g.Msg.SendText(ctx, ev.UserID, "Join request received. Please complete verification in this chat."); err != nil {
			zap.L().Warn("Could not notify user about pending verification", zap.Error(err))
		}
		return
	}

	g.openRequest(ctx, ev.UserID, ev.ChatID)
}

// openRequest creates a fresh row in awaiting_language and presents the
// language prompt. A DM failure parks the row in dm_failed; the membership
// request itself is left pending so an admin can still act on it.
func (g *Gate) openRequest(ctx context.Context, userID, chatID int64) {
	tok, err := g.Issuer.Mint(g.Cfg.LanguageTimeout)
	if err != nil {
		zap.L().Error("Failed to mint language token", zap.Error(err))
		return
	}

	req, err := g.Ledger.Create(userID, chatID, tok.Value, tok.ExpiresAt)
	if err != nil {
		zap.L().Error("Failed to create join request", zap.Error(err))
		return
	}

	if err := g.Msg.SendChoice(ctx, userID, texts.Welcome(texts.BaseLang), languageKeyboard(tok.Value)); err != nil {
		zap.L().Warn("Could not DM user, leaving join request pending", zap.Int64("userID", userID), zap.Error(err))

		if _, err := g.Ledger.Fail(req.ID, model.StatusAwaitingLanguage, model.StatusDMFailed); err != nil {
			zap.L().Error("Failed to mark request dm_failed", zap.Error(err))
		}
	}
}

// settlePending reconciles a row whose verification finished before the
// platform re-delivered the join event: promote it and retry the approval.
func (g *Gate) settlePending(ctx context.Context, req *model.JoinRequest) {
	applied, err := g.Ledger.PromotePending(req.ID)
	if err != nil {
		zap.L().Error("Failed to promote pending request", zap.Error(err))
		return
	}
	if !applied {
		return
	}

	if err := g.Msg.ApproveJoinRequest(ctx, req.ChatID, req.UserID); err != nil {
		zap.L().Error("Failed to approve pre-verified join request", zap.Error(err))

		if _, err := g.Ledger.MarkApprovalPending(req.ID); err != nil {
			zap.L().Error("Failed to re-park approval", zap.Error(err))
		}
		return
	}

	if err := g.Msg.SendText(ctx, req.UserID, texts.Success(req.Language)); err != nil {
		zap.L().Warn("Failed to notify user after approval", zap.Error(err))
	}
}

// HandleChoice routes a button press to the matching token class handler.
func (g *Gate) HandleChoice(ctx context.Context, ev ChoiceEvent) {
	switch ev.Class {
	case ClassLanguage:
		g.handleLanguage(ctx, ev)
	case ClassVerification:
		g.handleVerify(ctx, ev)
	default:
		g.answer(ctx, ev.CallbackID, "Invalid selection.", true)
	}
}

// HandlePromotion DMs the promoting admin a deep link users can follow to
// start the bot before requesting to join.
func (g *Gate) HandlePromotion(ctx context.Context, ev PromotionEvent) {
	if !g.Cfg.NotifyAdminOnPromotion {
		return
	}

	username := g.Cfg.BotUsername
	if username == "" {
		username = "your_bot"
	}

	title := ev.ChatTitle
	if title == "" {
		title = "this chat"
	}

	text := fmt.Sprintf(
		"Thanks for adding me as an admin.\nChat: %s\nShare this link with users so they can start the bot before requesting to join:\nhttps://t.me/%s?start=join_%d",
		title, username, ev.ChatID,
	)

	if err := g.Msg.SendText(ctx, ev.PromoterID, text); err != nil {
		zap.L().Error("Failed to DM approval link to admin", zap.Error(err))
	}
}

// answer acknowledges a callback, swallowing transport errors.
func (g *Gate) answer(ctx context.Context, callbackID, text string, alert bool) {
	if callbackID == "" {
		return
	}

	if err := g.Msg.AnswerCallback(ctx, callbackID, text, alert); err != nil {
		zap.L().Warn("Failed to answer callback", zap.Error(err))
	}
}
