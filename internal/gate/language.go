package gate

import (
	"context"

	"joingate/internal/model"
	"joingate/internal/texts"

	"go.uber.org/zap"
)

// handleLanguage consumes a language-selection token: awaiting_language ->
// awaiting_verification, recording the language and minting the challenge
// token with the live timeout.
func (g *Gate) handleLanguage(ctx context.Context, ev ChoiceEvent) {
	req, err := g.Ledger.ByLanguageToken(ev.Token)
	if err != nil {
		zap.L().Error("Failed to look up language token", zap.Error(err))
		return
	}

	if req == nil {
		g.answer(ctx, ev.CallbackID, "Expired.", true)
		return
	}

	if req.UserID != ev.UserID {
		g.answer(ctx, ev.CallbackID, "Not for you.", true)
		return
	}

	if req.Status != model.StatusAwaitingLanguage {
		g.answer(ctx, ev.CallbackID, "Already handled.", true)
		return
	}

	if req.LanguageExpiresAt != nil && g.now().After(*req.LanguageExpiresAt) {
		g.failRequest(ctx, req, model.StatusExpired, texts.Expired(texts.BaseLang))
		g.answer(ctx, ev.CallbackID, "Expired.", true)
		return
	}

	lang := texts.SafeLang(ev.Option)

	tok, err := g.Issuer.Mint(g.verifyTimeout())
	if err != nil {
		zap.L().Error("Failed to mint verification token", zap.Error(err))
		return
	}

	applied, err := g.Ledger.SetLanguage(req.ID, lang, tok.Value, tok.ExpiresAt)
	if err != nil {
		zap.L().Error("Failed to record language selection", zap.Error(err))
		return
	}
	if !applied {
		// Lost the race against a concurrent delivery or the sweeper.
		g.answer(ctx, ev.CallbackID, "Already handled.", true)
		return
	}

	g.answer(ctx, ev.CallbackID, "Language saved.", false)
	g.presentChallenge(ctx, ev, req.UserID, lang, tok.Value)
}

// presentChallenge swaps the language prompt for the verification keyboard,
// falling back to a fresh message when the edit fails.
func (g *Gate) presentChallenge(ctx context.Context, ev ChoiceEvent, userID int64, lang, token string) {
	keyboard := verifyKeyboard(token)

	err := g.Msg.EditChoice(ctx, ev.ChatID, ev.MessageID, texts.Verify(lang), keyboard)
	if err == nil {
		return
	}
	zap.L().Error("Failed to update message with verification buttons", zap.Error(err))

	if err := g.Msg.SendChoice(ctx, userID, texts.Verify(lang), keyboard); err != nil {
		zap.L().Error("Failed to send verification message", zap.Error(err))

		if err := g.Msg.EditChoice(ctx, ev.ChatID, ev.MessageID, "Could not send verification. Please /start and try again.", nil); err != nil {
			zap.L().Warn("Failed to update message after verification send error", zap.Error(err))
		}
	}
}
