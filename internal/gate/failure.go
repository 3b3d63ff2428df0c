package gate

import (
	"context"

	"joingate/internal/model"

	"go.uber.org/zap"
)

// failRequest is the shared failure action behind expiry, exhausted attempts
// and expired-token handling, both inline and from the sweeper. The terminal
// transition is guarded on the row's observed status, so a concurrent actor
// that already moved the row turns this into a no-op. Decline and user
// notification are best-effort.
func (g *Gate) failRequest(ctx context.Context, req *model.JoinRequest, terminal model.Status, message string) {
	applied, err := g.Ledger.Fail(req.ID, req.Status, terminal)
	if err != nil {
		zap.L().Error("Failed to finalize join request",
			zap.Int64("requestID", req.ID),
			zap.String("terminal", string(terminal)),
			zap.Error(err))
		return
	}
	if !applied {
		return
	}

	if g.Cfg.FailureAction == FailureReject {
		if err := g.Msg.DeclineJoinRequest(ctx, req.ChatID, req.UserID); err != nil {
			zap.L().Error("Failed to decline join request", zap.Error(err))
		}
	}

	if err := g.Msg.SendText(ctx, req.UserID, message); err != nil {
		zap.L().Warn("Failed to notify user about failure", zap.Error(err))
	}
}

// ExpireRequest forces a timed-out request into expired. The sweeper calls
// this with the row snapshot it scanned; inline expiry handling goes through
// the same path, so both actors race on the same conditional update.
func (g *Gate) ExpireRequest(ctx context.Context, req *model.JoinRequest, message string) {
	g.failRequest(ctx, req, model.StatusExpired, message)
}
