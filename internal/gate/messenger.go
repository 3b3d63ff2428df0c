package gate

import "context"

// Choice is one inline button: the label the user sees and the callback
// payload the platform echoes back.
type Choice struct {
	Label string
	Data  string
}

// Messenger is the outbound messaging boundary. Calls are best-effort side
// effects: they are not transactional with the ledger, and a failure after a
// committed transition is degraded (verified_pending, dm_failed) rather than
// rolled back.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendChoice(ctx context.Context, chatID int64, text string, rows [][]Choice) error
	EditChoice(ctx context.Context, chatID int64, messageID int, text string, rows [][]Choice) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error
	DeclineJoinRequest(ctx context.Context, chatID, userID int64) error
}
