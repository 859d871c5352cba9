package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"chatbot/internal/completion"
	"chatbot/internal/prompt"
	"chatbot/internal/session"
	"chatbot/internal/storage"
	"chatbot/internal/storage/memory"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

// fakeAPI records everything the bot sends to Telegram
type fakeAPI struct {
	mu        sync.Mutex
	nextID    int
	sent      []sentMessage
	deleted   []int
	requests  []tgbotapi.Chattable
	failSend  bool
	failDel   bool
	updates   chan tgbotapi.Update
	stopOnce  sync.Once
	stopCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSend {
		return tgbotapi.Message{}, errors.New("telegram unreachable")
	}
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: msg.ChatID, Text: msg.Text})
	return tgbotapi.Message{MessageID: f.nextID, Text: msg.Text}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)
	if del, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		if f.failDel {
			return nil, errors.New("message can't be deleted")
		}
		f.deleted = append(f.deleted, del.MessageID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	f.stopOnce.Do(func() { close(f.updates) })
}

func (f *fakeAPI) GetWebhookInfo() (tgbotapi.WebhookInfo, error) {
	return tgbotapi.WebhookInfo{URL: "https://bot.example.com/webhook"}, nil
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeAPI) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// fakeGateway returns canned answers and records payloads
type fakeGateway struct {
	mu       sync.Mutex
	dialect  prompt.Dialect
	answer   string
	err      error
	delay    time.Duration
	payloads []prompt.Payload

	// holdText blocks the completion of that message until release is closed
	holdText string
	release  chan struct{}
}

func newFakeGateway(answer string) *fakeGateway {
	return &fakeGateway{
		dialect: prompt.Dialect{
			Name:     "cohere",
			Roles:    prompt.Roles{User: "USER", Assistant: "CHATBOT", System: "SYSTEM"},
			Preamble: prompt.PreambleInstruction,
		},
		answer: answer,
	}
}

func (g *fakeGateway) Dialect() prompt.Dialect {
	return g.dialect
}

func (g *fakeGateway) Complete(ctx context.Context, payload prompt.Payload) (string, error) {
	g.mu.Lock()
	g.payloads = append(g.payloads, payload)
	answer, err, delay := g.answer, g.err, g.delay
	held := g.release != nil && payload.Latest().Text == g.holdText
	g.mu.Unlock()

	if held {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", completion.Unavailable(g.dialect.Name, ctx.Err())
		}
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", completion.Unavailable(g.dialect.Name, ctx.Err())
		}
	}
	return answer, err
}

func (g *fakeGateway) calls() []prompt.Payload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]prompt.Payload(nil), g.payloads...)
}

type testEnv struct {
	bot      *Bot
	api      *fakeAPI
	gateway  *fakeGateway
	sessions *session.MemoryStore
	journal  *memory.Journal
}

func newTestEnv(mode Mode) *testEnv {
	api := newFakeAPI()
	gw := newFakeGateway("Hello! How can I help?")
	sessions := session.NewMemoryStore()
	journal := memory.NewJournal(0)

	var j storage.Storage = journal
	b := newBot(api, sessions, gw, j, Options{
		Mode:          mode,
		Preamble:      "You are a helpful assistant.",
		HistoryWindow: 5,
		Params:        prompt.Params{Temperature: prompt.Float(0.7)},
		Model:         "command",
	}, zap.NewNop())

	return &testEnv{bot: b, api: api, gateway: gw, sessions: sessions, journal: journal}
}

const (
	testUserID = int64(123)
	testChatID = int64(456)
)

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: textMessage(text)}
}

func textUpdateFrom(userID int64, text string) tgbotapi.Update {
	message := textMessage(text)
	message.From = &tgbotapi.User{ID: userID, FirstName: "Grace"}
	message.Chat = &tgbotapi.Chat{ID: userID}
	return tgbotapi.Update{Message: message}
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUserID, FirstName: "Ada"},
		Chat: &tgbotapi.Chat{ID: testChatID},
		Text: text,
	}
}

// commandUpdate builds a message Telegram would flag as a bot command
func commandUpdate(command string) tgbotapi.Update {
	message := textMessage(command)
	message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command)},
	}
	return tgbotapi.Update{Message: message}
}
