package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type recordedCall struct {
	path   string
	chatID string
	text   string
}

type fakeBotAPI struct {
	mu     sync.Mutex
	calls  []recordedCall
	failed bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	params := parseParams(r.Header.Get("Content-Type"), body)

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{path: r.URL.Path, chatID: params["chat_id"], text: params["text"]})
	failed := f.failed
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failed {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}
	w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
}

func (f *fakeBotAPI) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// telebot sends JSON bodies; fall back to form values just in case.
func parseParams(contentType string, body []byte) map[string]string {
	params := map[string]string{}
	if strings.Contains(contentType, "json") {
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err == nil {
			for k, v := range raw {
				if s, ok := v.(string); ok {
					params[k] = s
				}
			}
		}
		return params
	}
	values, _ := url.ParseQuery(string(body))
	for k := range values {
		params[k] = values.Get(k)
	}
	return params
}

func newOfflineBot(t *testing.T, apiURL string) *telebot.Bot {
	t.Helper()
	bot, err := NewBot("123:token", apiURL, 2*time.Second, true)
	require.NoError(t, err)
	return bot
}

func TestNewBotOfflineSkipsAPI(t *testing.T) {
	api := &fakeBotAPI{failed: true}
	server := httptest.NewServer(api)
	defer server.Close()

	bot, err := NewBot("123:token", server.URL, 2*time.Second, true)
	require.NoError(t, err)
	assert.NotNil(t, bot)
	assert.Empty(t, api.recorded(), "no getMe call while offline")

	_, err = NewBot("123:token", server.URL, 2*time.Second, false)
	assert.Error(t, err, "online construction verifies the token")
	require.Len(t, api.recorded(), 1)
	assert.Equal(t, "/bot123:token/getMe", api.recorded()[0].path)
}

func TestTelebotAdapterSendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	adapter := NewTelebotAdapter(newOfflineBot(t, server.URL))
	err := adapter.SendMessage(42, `Изменился статус проверки работы "hw1". Работа взята на проверку ревьюером.`, nil)
	require.NoError(t, err)

	calls := api.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "/bot123:token/sendMessage", calls[0].path)
	assert.Equal(t, "42", calls[0].chatID)
	assert.Equal(t, `Изменился статус проверки работы "hw1". Работа взята на проверку ревьюером.`, calls[0].text)
}

func TestTelebotAdapterSendMessageAPIError(t *testing.T) {
	api := &fakeBotAPI{failed: true}
	server := httptest.NewServer(api)
	defer server.Close()

	adapter := NewTelebotAdapter(newOfflineBot(t, server.URL))
	err := adapter.SendMessage(42, "hello", &telebot.SendOptions{})
	assert.Error(t, err)
}

func TestTelebotAdapterUnreachableAPI(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	apiURL := server.URL
	server.Close()

	adapter := NewTelebotAdapter(newOfflineBot(t, apiURL))
	assert.Error(t, adapter.SendMessage(42, "hello", nil))
}
