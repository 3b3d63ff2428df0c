// Package admin is the slash-command surface for administrators. Commands
// are parsed here, authenticated against the static admin ID set and mapped
// onto gate and store operations.
package admin

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"joingate/internal/gate"
	"joingate/internal/model"
	"joingate/internal/store"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Broadcast pacing. The Bot API throttles around 30 messages per second;
// staying at 20 leaves headroom for the interactive traffic.
const broadcastPerSecond = 20

type Handler struct {
	Gate     *gate.Gate
	Ledger   *store.Ledger
	Settings *store.Settings
	Lists    *store.Lists
	Users    *store.Users
	Msg      gate.Messenger

	adminIDs map[int64]struct{}
	limiter  *rate.Limiter
}

func NewHandler(g *gate.Gate, ledger *store.Ledger, settings *store.Settings, lists *store.Lists, users *store.Users, msg gate.Messenger, adminIDs []int64) *Handler {
	ids := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}

	return &Handler{
		Gate:     g,
		Ledger:   ledger,
		Settings: settings,
		Lists:    lists,
		Users:    users,
		Msg:      msg,
		adminIDs: ids,
		limiter:  rate.NewLimiter(rate.Limit(broadcastPerSecond), 1),
	}
}

func (h *Handler) isAdmin(userID int64) bool {
	_, ok := h.adminIDs[userID]
	return ok
}

// Handle runs one command. Non-admin callers are ignored silently so the
// command set is not discoverable.
func (h *Handler) Handle(ctx context.Context, cmd gate.AdminCommand) {
	if !h.isAdmin(cmd.UserID) {
		return
	}

	switch cmd.Name {
	case "status":
		h.status(ctx, cmd)
	case "approve":
		h.approve(ctx, cmd)
	case "reject":
		h.reject(ctx, cmd)
	case "whitelist":
		h.listAdd(ctx, cmd, "Usage: /whitelist add <user_id>", h.Lists.AddWhitelist, "Whitelisted.")
	case "blacklist":
		h.listAdd(ctx, cmd, "Usage: /blacklist add <user_id>", h.Lists.AddBlacklist, "Blacklisted.")
	case "setattempts":
		h.setAttempts(ctx, cmd)
	case "settimeout":
		h.setTimeout(ctx, cmd)
	case "broadcast":
		h.broadcast(ctx, cmd)
	}
}

func (h *Handler) reply(ctx context.Context, cmd gate.AdminCommand, text string) {
	if err := h.Msg.SendText(ctx, cmd.ChatID, text); err != nil {
		zap.L().Warn("Failed to reply to admin command", zap.String("command", cmd.Name), zap.Error(err))
	}
}

// status reports request counts per lifecycle state, scoped to the current
// chat unless issued privately.
func (h *Handler) status(ctx context.Context, cmd gate.AdminCommand) {
	var chatID *int64
	if !cmd.Private {
		chatID = &cmd.ChatID
	}

	counts, err := h.Ledger.StatusCounts(chatID)
	if err != nil {
		zap.L().Error("Failed to count request statuses", zap.Error(err))
		h.reply(ctx, cmd, "Failed to load status counts.")
		return
	}

	keys := make([]string, 0, len(counts))
	for status := range counts {
		keys = append(keys, string(status))
	}
	sort.Strings(keys)

	lines := []string{"Status counts:"}
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %d", key, counts[model.Status(key)]))
	}

	h.reply(ctx, cmd, strings.Join(lines, "\n"))
}

// parseTarget reads "<user_id> [chat_id]" arguments, defaulting the chat to
// where the command was issued.
func parseTarget(cmd gate.AdminCommand) (userID, chatID int64, err error) {
	if len(cmd.Args) < 1 {
		return 0, 0, fmt.Errorf("missing user id")
	}

	userID, err = strconv.ParseInt(cmd.Args[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}

	chatID = cmd.ChatID
	if len(cmd.Args) > 1 {
		chatID, err = strconv.ParseInt(cmd.Args[1], 10, 64)
		if err != nil {
			return 0, 0, err
		}
	}

	return userID, chatID, nil
}

func (h *Handler) approve(ctx context.Context, cmd gate.AdminCommand) {
	userID, chatID, err := parseTarget(cmd)
	if err != nil {
		h.reply(ctx, cmd, "Usage: /approve <user_id> [chat_id]")
		return
	}

	err = h.Gate.ApproveOverride(ctx, userID, chatID)
	if err == gate.ErrNotWhitelisted {
		h.reply(ctx, cmd, "User is not whitelisted for manual approval.")
		return
	}
	if err != nil {
		zap.L().Error("Manual approve failed", zap.Int64("userID", userID), zap.Error(err))
		h.reply(ctx, cmd, "Failed to approve.")
		return
	}

	h.reply(ctx, cmd, "Approved.")
}

func (h *Handler) reject(ctx context.Context, cmd gate.AdminCommand) {
	userID, chatID, err := parseTarget(cmd)
	if err != nil {
		h.reply(ctx, cmd, "Usage: /reject <user_id> [chat_id]")
		return
	}

	if err := h.Gate.RejectOverride(ctx, userID, chatID); err != nil {
		zap.L().Error("Manual reject failed", zap.Int64("userID", userID), zap.Error(err))
		h.reply(ctx, cmd, "Failed to reject.")
		return
	}

	h.reply(ctx, cmd, "Rejected.")
}

func (h *Handler) listAdd(ctx context.Context, cmd gate.AdminCommand, usage string, add func(int64) error, done string) {
	if len(cmd.Args) != 2 || cmd.Args[0] != "add" {
		h.reply(ctx, cmd, usage)
		return
	}

	userID, err := strconv.ParseInt(cmd.Args[1], 10, 64)
	if err != nil {
		h.reply(ctx, cmd, usage)
		return
	}

	if err := add(userID); err != nil {
		zap.L().Error("Failed to update access list", zap.Error(err))
		h.reply(ctx, cmd, "Failed.")
		return
	}

	h.reply(ctx, cmd, done)
}

func (h *Handler) setAttempts(ctx context.Context, cmd gate.AdminCommand) {
	if len(cmd.Args) != 1 {
		h.reply(ctx, cmd, "Usage: /setattempts <number>")
		return
	}

	n, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		h.reply(ctx, cmd, "Usage: /setattempts <number>")
		return
	}

	n = max(1, n)

	if err := h.Settings.Set(model.SettingMaxAttempts, strconv.Itoa(n)); err != nil {
		zap.L().Error("Failed to store max_attempts", zap.Error(err))
		h.reply(ctx, cmd, "Failed.")
		return
	}

	h.reply(ctx, cmd, fmt.Sprintf("Max attempts set to %d.", n))
}

func (h *Handler) setTimeout(ctx context.Context, cmd gate.AdminCommand) {
	if len(cmd.Args) != 1 {
		h.reply(ctx, cmd, "Usage: /settimeout <seconds>")
		return
	}

	secs, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		h.reply(ctx, cmd, "Usage: /settimeout <seconds>")
		return
	}

	// Anything shorter than 30s barely leaves time to read the buttons.
	secs = max(30, secs)

	if err := h.Settings.Set(model.SettingVerifyTimeout, strconv.Itoa(secs)); err != nil {
		zap.L().Error("Failed to store verify_timeout", zap.Error(err))
		h.reply(ctx, cmd, "Failed.")
		return
	}

	h.reply(ctx, cmd, fmt.Sprintf("Verification timeout set to %d seconds.", secs))
}

// broadcast sends text to every known user, rate limited so one bulk send
// cannot starve interactive traffic. A failed recipient is counted, not
// fatal.
func (h *Handler) broadcast(ctx context.Context, cmd gate.AdminCommand) {
	if !cmd.Private {
		h.reply(ctx, cmd, "Please use /broadcast in private chat with the bot.")
		return
	}

	text := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if text == "" {
		h.reply(ctx, cmd, "Usage: /broadcast <message>")
		return
	}

	userIDs, err := h.Users.All()
	if err != nil {
		zap.L().Error("Failed to list broadcast audience", zap.Error(err))
		h.reply(ctx, cmd, "Failed.")
		return
	}

	if len(userIDs) == 0 {
		h.reply(ctx, cmd, "No users to broadcast to.")
		return
	}

	var sent, failed int

	for _, userID := range userIDs {
		if err := h.limiter.Wait(ctx); err != nil {
			break
		}

		if err := h.Msg.SendText(ctx, userID, text); err != nil {
			failed++
			continue
		}
		sent++
	}

	h.reply(ctx, cmd, fmt.Sprintf("Broadcast done. Sent: %d, Failed: %d.", sent, failed))
}
