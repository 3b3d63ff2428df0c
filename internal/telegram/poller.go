package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"joingate/internal/gate"

	"go.uber.org/zap"
)

// AdminHandler receives slash commands other than /start.
type AdminHandler interface {
	Handle(ctx context.Context, cmd gate.AdminCommand)
}

// Poller long-polls the Bot API and translates raw updates into the gate's
// tagged event variants. Callback payload strings are parsed here and
// nowhere else.
type Poller struct {
	Client      *Client
	Gate        *gate.Gate
	Admin       AdminHandler
	PollTimeout time.Duration

	botUsername string
}

func NewPoller(client *Client, g *gate.Gate, admin AdminHandler, pollTimeout time.Duration) *Poller {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	return &Poller{
		Client:      client,
		Gate:        g,
		Admin:       admin,
		PollTimeout: pollTimeout,
	}
}

// SetBotUsername lets /command@botname addressing be stripped correctly.
func (p *Poller) SetBotUsername(name string) {
	p.botUsername = name
}

// Run polls until ctx is cancelled. Transport errors back off and retry;
// they never end the loop.
func (p *Poller) Run(ctx context.Context) {
	var offset int64

	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := p.Client.GetUpdates(ctx, offset, p.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}

			zap.L().Error("Failed to fetch updates", zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for i := range updates {
			offset = updates[i].UpdateID + 1

			// Updates for different tokens are independent; let them run
			// concurrently. The ledger's conditional transitions make
			// same-token races safe.
			go p.Dispatch(ctx, updates[i])
		}
	}
}

// Dispatch translates one update and hands it to the matching handler.
func (p *Poller) Dispatch(ctx context.Context, u Update) {
	switch {
	case u.ChatJoinRequest != nil:
		p.Gate.HandleJoin(ctx, gate.JoinEvent{
			UserID: u.ChatJoinRequest.From.ID,
			ChatID: u.ChatJoinRequest.Chat.ID,
		})

	case u.CallbackQuery != nil:
		p.dispatchCallback(ctx, u.CallbackQuery)

	case u.MyChatMember != nil:
		p.dispatchMemberUpdate(ctx, u.MyChatMember)

	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		p.dispatchCommand(ctx, u.Message)
	}
}

func (p *Poller) dispatchCallback(ctx context.Context, q *CallbackQuery) {
	class, token, option, ok := parseChoiceData(q.Data)
	if !ok {
		if err := p.Client.AnswerCallback(ctx, q.ID, "Invalid selection.", true); err != nil {
			zap.L().Warn("Failed to answer malformed callback", zap.Error(err))
		}
		return
	}

	ev := gate.ChoiceEvent{
		UserID:     q.From.ID,
		CallbackID: q.ID,
		Class:      class,
		Token:      token,
		Option:     option,
	}
	if q.Message != nil {
		ev.ChatID = q.Message.Chat.ID
		ev.MessageID = q.Message.MessageID
	}

	p.Gate.HandleChoice(ctx, ev)
}

func (p *Poller) dispatchMemberUpdate(ctx context.Context, m *ChatMemberUpdated) {
	if !isAdminStatus(m.NewChatMember.Status) || isAdminStatus(m.OldChatMember.Status) {
		return
	}

	p.Gate.HandlePromotion(ctx, gate.PromotionEvent{
		PromoterID: m.From.ID,
		ChatID:     m.Chat.ID,
		ChatTitle:  m.Chat.Title,
	})
}

func (p *Poller) dispatchCommand(ctx context.Context, msg *Message) {
	if msg.From == nil {
		return
	}

	name, args := splitCommand(msg.Text, p.botUsername)

	if name == "start" {
		payload := ""
		if len(args) > 0 {
			payload = args[0]
		}

		p.Gate.HandleStart(ctx, gate.StartEvent{UserID: msg.From.ID, Payload: payload})
		return
	}

	p.Admin.Handle(ctx, gate.AdminCommand{
		Name:    name,
		Args:    args,
		UserID:  msg.From.ID,
		ChatID:  msg.Chat.ID,
		Private: msg.Chat.Type == "private",
	})
}

// parseChoiceData splits "lang:<token>:<option>" / "verify:<token>:<option>"
// payloads.
func parseChoiceData(data string) (gate.TokenClass, string, string, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return 0, "", "", false
	}

	switch parts[0] {
	case "lang":
		return gate.ClassLanguage, parts[1], parts[2], true
	case "verify":
		return gate.ClassVerification, parts[1], parts[2], true
	}

	return 0, "", "", false
}

// splitCommand strips the slash and an optional @botname suffix, returning
// the command name and its arguments.
func splitCommand(text, botUsername string) (string, []string) {
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")

	if at := strings.Index(name, "@"); at >= 0 {
		if botUsername != "" && !strings.EqualFold(name[at+1:], botUsername) {
			return "", nil
		}
		name = name[:at]
	}

	return strings.ToLower(name), fields[1:]
}

func isAdminStatus(status string) bool {
	return status == "administrator" || status == "creator"
}
