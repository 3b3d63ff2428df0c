package gate

// Inbound platform traffic is translated into these tagged variants at the
// transport edge. Handlers dispatch on the concrete type instead of parsing
// callback payload strings.

// TokenClass says which ledger index an inbound token should be resolved
// against.
type TokenClass int

const (
	ClassLanguage TokenClass = iota
	ClassVerification
)

// JoinEvent is a membership request for a chat.
type JoinEvent struct {
	UserID int64
	ChatID int64
}

// ChoiceEvent is a button press carrying a token and the chosen option.
// CallbackID acknowledges the press, MessageID lets the prompt be edited
// in place.
type ChoiceEvent struct {
	UserID     int64
	ChatID     int64
	MessageID  int
	CallbackID string
	Class      TokenClass
	Token      string
	Option     string
}

// StartEvent is a private /start, possibly carrying a deep-link payload
// such as "join_<chatID>".
type StartEvent struct {
	UserID  int64
	Payload string
}

// PromotionEvent fires when the bot is granted admin rights in a chat.
type PromotionEvent struct {
	PromoterID int64
	ChatID     int64
	ChatTitle  string
}

// AdminCommand is a slash command addressed to the administrative surface.
type AdminCommand struct {
	Name    string
	Args    []string
	UserID  int64
	ChatID  int64
	Private bool
}
