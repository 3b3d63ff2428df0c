package gate

import (
	"context"
	"errors"

	"joingate/internal/model"
)

// ErrNotWhitelisted rejects a manual /approve for a user outside the
// whitelist.
var ErrNotWhitelisted = errors.New("user is not whitelisted for manual approval")

// ApproveOverride bypasses the challenge for a whitelisted user: approve the
// membership and settle the latest live row as verified.
func (g *Gate) ApproveOverride(ctx context.Context, userID, chatID int64) error {
	ok, err := g.Lists.Whitelisted(userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotWhitelisted
	}

	if err := g.Msg.ApproveJoinRequest(ctx, chatID, userID); err != nil {
		return err
	}

	return g.settleLatest(userID, chatID, model.StatusVerified)
}

// RejectOverride declines the membership unconditionally and marks the
// latest live row rejected.
func (g *Gate) RejectOverride(ctx context.Context, userID, chatID int64) error {
	if err := g.Msg.DeclineJoinRequest(ctx, chatID, userID); err != nil {
		return err
	}

	return g.settleLatest(userID, chatID, model.StatusRejected)
}

// settleLatest finalizes the newest row for (user, chat) into terminal,
// leaving already-terminal rows alone. Having no row at all is fine: the
// override still acted on the platform side.
func (g *Gate) settleLatest(userID, chatID int64, terminal model.Status) error {
	req, err := g.Ledger.Latest(userID, chatID)
	if err != nil {
		return err
	}
	if req == nil || req.Status.Terminal() {
		return nil
	}

	if terminal == model.StatusVerified {
		_, err = g.Ledger.MarkVerified(req.ID, req.Status)
	} else {
		_, err = g.Ledger.Fail(req.ID, req.Status, terminal)
	}

	return err
}
