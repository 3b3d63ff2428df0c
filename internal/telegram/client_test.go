package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"joingate/internal/gate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	Method  string
	Payload map[string]any
}

// botAPIStub fakes the Bot API: records every call and replies with canned
// results per method.
type botAPIStub struct {
	t       *testing.T
	calls   []apiCall
	results map[string]string
	fail    map[string]bool
}

func newBotAPIStub(t *testing.T) (*botAPIStub, *Client) {
	stub := &botAPIStub{
		t:       t,
		results: make(map[string]string),
		fail:    make(map[string]bool),
	}

	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	return stub, NewClientWithBase("TEST_TOKEN", srv.URL)
}

func (s *botAPIStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/botTEST_TOKEN/"
	require.Contains(s.t, r.URL.Path, prefix, "token embedded in the path")
	method := r.URL.Path[len(prefix):]

	body, err := io.ReadAll(r.Body)
	require.NoError(s.t, err)

	var payload map[string]any
	require.NoError(s.t, json.Unmarshal(body, &payload))

	s.calls = append(s.calls, apiCall{Method: method, Payload: payload})

	if s.fail[method] {
		w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
		return
	}

	result, ok := s.results[method]
	if !ok {
		result = "true"
	}

	w.Write([]byte(`{"ok":true,"result":` + result + `}`))
}

func (s *botAPIStub) last(t *testing.T) apiCall {
	t.Helper()
	require.NotEmpty(t, s.calls)
	return s.calls[len(s.calls)-1]
}

func TestGetMe(t *testing.T) {
	stub, client := newBotAPIStub(t)
	stub.results["getMe"] = `{"id":42,"username":"gatebot"}`

	me, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), me.ID)
	assert.Equal(t, "gatebot", me.Username)
}

func TestGetUpdatesRequestsRelevantKinds(t *testing.T) {
	stub, client := newBotAPIStub(t)
	stub.results["getUpdates"] = `[{"update_id":7}]`

	updates, err := client.GetUpdates(context.Background(), 5, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(7), updates[0].UpdateID)

	call := stub.last(t)
	assert.Equal(t, float64(5), call.Payload["offset"])
	assert.Equal(t, float64(30), call.Payload["timeout"])
	assert.ElementsMatch(t,
		[]any{"message", "callback_query", "chat_join_request", "my_chat_member"},
		call.Payload["allowed_updates"])
}

func TestSendChoiceBuildsInlineKeyboard(t *testing.T) {
	stub, client := newBotAPIStub(t)

	err := client.SendChoice(context.Background(), 100, "pick one", [][]gate.Choice{
		{{Label: "English", Data: "lang:tok:en"}},
		{{Label: "Yes", Data: "verify:tok:human"}, {Label: "No", Data: "verify:tok:bot"}},
	})
	require.NoError(t, err)

	call := stub.last(t)
	assert.Equal(t, "sendMessage", call.Method)
	assert.Equal(t, "pick one", call.Payload["text"])

	markup, ok := call.Payload["reply_markup"].(map[string]any)
	require.True(t, ok)
	rows, ok := markup["inline_keyboard"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1].([]any), 2)

	button := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "English", button["text"])
	assert.Equal(t, "lang:tok:en", button["callback_data"])
}

func TestAPIErrorSurfaces(t *testing.T) {
	stub, client := newBotAPIStub(t)
	stub.fail["sendMessage"] = true

	err := client.SendText(context.Background(), 100, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot was blocked")
	assert.Contains(t, err.Error(), "403")
}

func TestJoinRequestModeration(t *testing.T) {
	stub, client := newBotAPIStub(t)
	ctx := context.Background()

	require.NoError(t, client.ApproveJoinRequest(ctx, -100, 42))
	call := stub.last(t)
	assert.Equal(t, "approveChatJoinRequest", call.Method)
	assert.Equal(t, float64(-100), call.Payload["chat_id"])
	assert.Equal(t, float64(42), call.Payload["user_id"])

	require.NoError(t, client.DeclineJoinRequest(ctx, -100, 42))
	assert.Equal(t, "declineChatJoinRequest", stub.last(t).Method)
}
