package cohere

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"chatbot/internal/completion"
	"chatbot/internal/models"
	"chatbot/internal/prompt"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", "", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "command")
	assert.Error(t, err)

	c, err := NewClient("key", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, ProviderName, c.Dialect().Name)
}

func TestClient_CompleteSendsChatRequest(t *testing.T) {
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"Hello there!","generation_id":"g1"}`))
	})

	assembler := prompt.NewAssembler(c.Dialect(), prompt.Params{Temperature: prompt.Float(0.7), MaxOutputTokens: 100})
	payload := assembler.Build(
		[]models.Turn{models.UserTurn("a"), models.AssistantTurn("b")},
		"c",
		"You are a helpful assistant.",
	)

	text, err := c.Complete(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", text)

	assert.Equal(t, "c", gjson.GetBytes(body, "message").String())
	assert.Equal(t, "command", gjson.GetBytes(body, "model").String())
	assert.Equal(t, "You are a helpful assistant.", gjson.GetBytes(body, "preamble").String())
	assert.Equal(t, 0.7, gjson.GetBytes(body, "temperature").Float())
	assert.Equal(t, int64(100), gjson.GetBytes(body, "max_tokens").Int())

	history := gjson.GetBytes(body, "chat_history").Array()
	require.Len(t, history, 2)
	assert.Equal(t, "USER", history[0].Get("role").String())
	assert.Equal(t, "a", history[0].Get("message").String())
	assert.Equal(t, "CHATBOT", history[1].Get("role").String())
	assert.Equal(t, "b", history[1].Get("message").String())
}

func TestClient_CompleteOmitsEmptyFields(t *testing.T) {
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"text":"hi"}`))
	})

	payload := prompt.NewAssembler(c.Dialect(), prompt.Params{}).Build(nil, "hello", "")
	_, err := c.Complete(context.Background(), payload)
	require.NoError(t, err)

	assert.False(t, gjson.GetBytes(body, "chat_history").Exists())
	assert.False(t, gjson.GetBytes(body, "preamble").Exists())
	assert.False(t, gjson.GetBytes(body, "temperature").Exists())
}

func TestClient_CompleteSendsZeroTemperature(t *testing.T) {
	var body []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"text":"hi"}`))
	})

	payload := prompt.NewAssembler(c.Dialect(), prompt.Params{Temperature: prompt.Float(0)}).Build(nil, "hello", "")
	_, err := c.Complete(context.Background(), payload)
	require.NoError(t, err)

	temperature := gjson.GetBytes(body, "temperature")
	require.True(t, temperature.Exists(), "zero temperature must be sent")
	assert.Equal(t, 0.0, temperature.Float())
}

func TestClient_CompleteErrors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		kind    completion.Kind
		message string
	}{
		{name: "rejected with message", status: http.StatusUnauthorized, body: `{"message":"invalid api token"}`, kind: completion.KindRejected, message: "invalid api token"},
		{name: "rejected without body", status: http.StatusTooManyRequests, body: ``, kind: completion.KindRejected, message: "Too Many Requests"},
		{name: "empty text", status: http.StatusOK, body: `{"text":"  "}`, kind: completion.KindUnknown},
		{name: "garbage", status: http.StatusOK, body: `not json`, kind: completion.KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := c.Complete(context.Background(), prompt.Payload{Messages: []prompt.Message{{Role: "USER", Text: "x"}}})
			require.Error(t, err)
			assert.Equal(t, tc.kind, completion.KindOf(err))
			if tc.message != "" {
				assert.Contains(t, err.Error(), tc.message)
			}
		})
	}
}

func TestClient_CompleteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient("key", "", WithBaseURL(url), WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), prompt.Payload{Messages: []prompt.Message{{Role: "USER", Text: "x"}}})
	require.Error(t, err)
	assert.Equal(t, completion.KindUnavailable, completion.KindOf(err))
}
