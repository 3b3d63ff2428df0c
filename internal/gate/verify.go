package gate

import (
	"context"

	"joingate/internal/model"
	"joingate/internal/texts"

	"go.uber.org/zap"
)

// handleVerify consumes a verification-challenge token. A wrong option burns
// an attempt; the right one settles the request and approves membership.
func (g *Gate) handleVerify(ctx context.Context, ev ChoiceEvent) {
	req, err := g.Ledger.ByVerificationToken(ev.Token)
	if err != nil {
		zap.L().Error("Failed to look up verification token", zap.Error(err))
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

	if req.Status != model.StatusAwaitingVerification {
		g.answer(ctx, ev.CallbackID, "Already handled.", true)
		return
	}

	lang := texts.SafeLang(req.Language)

	if req.VerificationExpiresAt != nil && g.now().After(*req.VerificationExpiresAt) {
		g.failRequest(ctx, req, model.StatusExpired, texts.Expired(lang))
		g.answer(ctx, ev.CallbackID, "Expired.", true)
		return
	}

	if ev.Option != texts.VerifyOptionHuman {
		g.wrongAnswer(ctx, ev, req, lang)
		return
	}

	applied, err := g.Ledger.MarkVerified(req.ID, model.StatusAwaitingVerification)
	if err != nil {
		zap.L().Error("Failed to mark request verified", zap.Error(err))
		return
	}
	if !applied {
		g.answer(ctx, ev.CallbackID, "Already handled.", true)
		return
	}

	g.answer(ctx, ev.CallbackID, "Verified.", false)

	if err := g.Msg.EditChoice(ctx, ev.ChatID, ev.MessageID, texts.Success(lang), nil); err != nil {
		zap.L().Warn("Failed to edit success message", zap.Error(err))

		if err := g.Msg.SendText(ctx, req.UserID, texts.Success(lang)); err != nil {
			zap.L().Warn("Failed to send success message", zap.Error(err))
		}
	}

	if err := g.Msg.ApproveJoinRequest(ctx, req.ChatID, req.UserID); err != nil {
		// The verified fact is already committed; park the approval debt
		// instead of losing it.
		zap.L().Error("Failed to approve join request", zap.Error(err))

		if _, err := g.Ledger.MarkApprovalPending(req.ID); err != nil {
			zap.L().Error("Failed to mark approval pending", zap.Error(err))
		}

		if err := g.Msg.EditChoice(ctx, ev.ChatID, ev.MessageID, "You are verified. Please request to join the chat now.", nil); err != nil {
			zap.L().Warn("Failed to update message after approval failure", zap.Error(err))
		}
	}
}

// wrongAnswer counts a failed attempt and either reports what is left or
// finalizes the request once the live limit is reached.
func (g *Gate) wrongAnswer(ctx context.Context, ev ChoiceEvent, req *model.JoinRequest, lang string) {
	attempts, applied, err := g.Ledger.IncrementAttempts(req.ID)
	if err != nil {
		zap.L().Error("Failed to increment attempts", zap.Error(err))
		return
	}
	if !applied {
		g.answer(ctx, ev.CallbackID, "Already handled.", true)
		return
	}

	outcome := DecideAttempt(attempts, g.maxAttempts())
	if outcome.Exhausted {
		g.failRequest(ctx, req, model.StatusFailed, texts.Fail(lang))
		g.answer(ctx, ev.CallbackID, "Failed.", true)
		return
	}

	g.answer(ctx, ev.CallbackID, texts.AttemptsLeft(lang, outcome.Remaining), true)
}
