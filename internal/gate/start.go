package gate

import (
	"context"
	"strconv"
	"strings"
	"time"

	"joingate/internal/model"
	"joingate/internal/texts"

	"go.uber.org/zap"
)

// HandleStart processes a private /start. A "join_<chatID>" deep-link
// payload targets one chat; a bare /start re-prompts every request of the
// user still awaiting input.
func (g *Gate) HandleStart(ctx context.Context, ev StartEvent) {
	if err := g.Users.RecordStart(ev.UserID); err != nil {
		zap.L().Warn("Failed to record started user", zap.Error(err))
	}

	if strings.HasPrefix(ev.Payload, "join_") {
		chatID, err := strconv.ParseInt(strings.TrimPrefix(ev.Payload, "join_"), 10, 64)
		if err != nil {
			g.sendText(ctx, ev.UserID, "Invalid link payload.")
			return
		}

		g.startForChat(ctx, ev.UserID, chatID)
		return
	}

	pending, err := g.Ledger.PendingForUser(ev.UserID)
	if err != nil {
		zap.L().Error("Failed to list pending requests", zap.Error(err))
		return
	}

	if len(pending) == 0 {
		g.sendText(ctx, ev.UserID, "No pending join requests found.")
		return
	}

	for i := range pending {
		g.reprompt(ctx, &pending[i])
	}
}

// startForChat resumes or restarts the flow for one (user, chat) pair.
func (g *Gate) startForChat(ctx context.Context, userID, chatID int64) {
	existing, err := g.Ledger.Latest(userID, chatID)
	if err != nil {
		zap.L().Error("Failed to load latest request", zap.Error(err))
		return
	}

	if existing == nil || existing.Status.Terminal() && existing.Status != model.StatusVerified {
		g.openRequest(ctx, userID, chatID)
		return
	}

	switch existing.Status {
	case model.StatusAwaitingLanguage, model.StatusAwaitingVerification:
		g.reprompt(ctx, existing)
	case model.StatusVerifiedPending:
		g.sendText(ctx, userID, "You are verified. Please request to join the chat now.")
	case model.StatusVerified:
		g.sendText(ctx, userID, "You are already verified.")
	}
}

// reprompt re-sends the prompt matching the request's state, re-minting the
// token when the stored one is missing or stale.
func (g *Gate) reprompt(ctx context.Context, req *model.JoinRequest) {
	switch req.Status {
	case model.StatusAwaitingLanguage:
		value, ok := g.liveToken(req.LanguageToken, req.LanguageExpiresAt)
		if !ok {
			tok, err := g.Issuer.Mint(g.Cfg.LanguageTimeout)
			if err != nil {
				zap.L().Error("Failed to mint language token", zap.Error(err))
				return
			}

			if _, err := g.Ledger.RefreshLanguageToken(req.ID, tok.Value, tok.ExpiresAt); err != nil {
				zap.L().Error("Failed to refresh language token", zap.Error(err))
				return
			}
			value = tok.Value
		}

		if err := g.Msg.SendChoice(ctx, req.UserID, texts.Welcome(texts.BaseLang), languageKeyboard(value)); err != nil {
			zap.L().Warn("Failed to re-send language prompt", zap.Error(err))
		}

	case model.StatusAwaitingVerification:
		lang := texts.SafeLang(req.Language)

		value, ok := g.liveToken(req.VerificationToken, req.VerificationExpiresAt)
		if !ok {
			tok, err := g.Issuer.Mint(g.verifyTimeout())
			if err != nil {
				zap.L().Error("Failed to mint verification token", zap.Error(err))
				return
			}

			if _, err := g.Ledger.RefreshVerificationToken(req.ID, tok.Value, tok.ExpiresAt); err != nil {
				zap.L().Error("Failed to refresh verification token", zap.Error(err))
				return
			}
			value = tok.Value
		}

		if err := g.Msg.SendChoice(ctx, req.UserID, texts.Verify(lang), verifyKeyboard(value)); err != nil {
			zap.L().Warn("Failed to re-send verification prompt", zap.Error(err))
		}
	}
}

// liveToken returns the stored token if it exists and has not passed its
// expiry.
func (g *Gate) liveToken(value *string, expiresAt *time.Time) (string, bool) {
	if value == nil || *value == "" {
		return "", false
	}
	if expiresAt == nil || g.now().After(*expiresAt) {
		return "", false
	}
	return *value, true
}

func (g *Gate) sendText(ctx context.Context, chatID int64, text string) {
	if err := g.Msg.SendText(ctx, chatID, text); err != nil {
		zap.L().Warn("Failed to send message", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
