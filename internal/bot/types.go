package bot

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"chatbot/internal/completion"
	"chatbot/internal/prompt"
	"chatbot/internal/session"
	"chatbot/internal/storage"
)

// API is the part of the Telegram Bot API the bot uses. *tgbotapi.BotAPI implements it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetWebhookInfo() (tgbotapi.WebhookInfo, error)
}

// Mode selects how commands and free text are routed
type Mode string

const (
	// ModeStateless treats every text message as a chat turn
	ModeStateless Mode = "stateless"
	// ModeStateful only chats between /start and /end
	ModeStateful Mode = "stateful"
)

// updateQueue holds a user's updates in arrival order
type updateQueue struct {
	pending []tgbotapi.Update
}

// ChatState is the per-user conversation state in stateful mode
type ChatState int

const (
	StateIdle ChatState = iota
	StateChatting
)

// Options controls chat behaviour
type Options struct {
	Mode          Mode
	Preamble      string
	HistoryWindow int
	Params        prompt.Params
	Model         string // recorded in the usage journal
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api       API
	sessions  session.Store
	gateway   completion.Gateway
	assembler *prompt.Assembler
	journal   storage.Storage // nil disables usage records
	options   Options
	states    map[int64]ChatState
	statesMu  sync.RWMutex
	queues    map[int64]*updateQueue // users with a running worker
	queuesMu  sync.Mutex
	inflight  sync.WaitGroup
	logger    *zap.Logger

	newID func() string
	now   func() time.Time
}
