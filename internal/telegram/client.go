// Package telegram is the thin Bot API boundary: a JSON-over-HTTP client
// implementing the gate's Messenger contract, plus the long poller feeding
// updates into the gate.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"joingate/internal/gate"
)

const defaultBaseURL = "https://api.telegram.org"

type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// NewClientWithBase points the client at a different API host. Used by tests
// and local Bot API servers.
func NewClientWithBase(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// call POSTs one Bot API method. out may be nil when the result is not
// needed.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var res apiResponse
	if err := json.Unmarshal(respBody, &res); err != nil {
		return fmt.Errorf("%s: malformed response, %w", method, err)
	}

	if !res.OK {
		return fmt.Errorf("%s: api error %d: %s", method, res.ErrorCode, res.Description)
	}

	if out != nil {
		return json.Unmarshal(res.Result, out)
	}

	return nil
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User

	if err := c.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return nil, err
	}

	return &me, nil
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query", "chat_join_request", "my_chat_member"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}

	return updates, nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

func (c *Client) SendChoice(ctx context.Context, chatID int64, text string, rows [][]gate.Choice) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": markup(rows),
	}, nil)
}

func (c *Client) EditChoice(ctx context.Context, chatID int64, messageID int, text string, rows [][]gate.Choice) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if rows != nil {
		payload["reply_markup"] = markup(rows)
	}

	return c.call(ctx, "editMessageText", payload, nil)
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
		"show_alert":        alert,
	}, nil)
}

func (c *Client) ApproveJoinRequest(ctx context.Context, chatID, userID int64) error {
	return c.call(ctx, "approveChatJoinRequest", map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	}, nil)
}

func (c *Client) DeclineJoinRequest(ctx context.Context, chatID, userID int64) error {
	return c.call(ctx, "declineChatJoinRequest", map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	}, nil)
}

func markup(rows [][]gate.Choice) inlineKeyboardMarkup {
	keyboard := make([][]inlineKeyboardButton, len(rows))

	for i, row := range rows {
		buttons := make([]inlineKeyboardButton, len(row))
		for j, choice := range row {
			buttons[j] = inlineKeyboardButton{Text: choice.Label, CallbackData: choice.Data}
		}
		keyboard[i] = buttons
	}

	return inlineKeyboardMarkup{InlineKeyboard: keyboard}
}
