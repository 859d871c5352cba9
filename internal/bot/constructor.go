package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatbot/internal/completion"
	"chatbot/internal/prompt"
	"chatbot/internal/session"
	"chatbot/internal/storage"
)

// NewBot creates a new Telegram bot
func NewBot(token string, sessions session.Store, gateway completion.Gateway, journal storage.Storage, opts Options, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return newBot(api, sessions, gateway, journal, opts, logger), nil
}

func newBot(api API, sessions session.Store, gateway completion.Gateway, journal storage.Storage, opts Options, logger *zap.Logger) *Bot {
	if opts.Mode == "" {
		opts.Mode = ModeStateless
	}

	return &Bot{
		api:       api,
		sessions:  sessions,
		gateway:   gateway,
		assembler: prompt.NewAssembler(gateway.Dialect(), opts.Params),
		journal:   journal,
		options:   opts,
		states:    make(map[int64]ChatState),
		queues:    make(map[int64]*updateQueue),
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// State returns the conversation state of a user
func (b *Bot) State(userID int64) ChatState {
	b.statesMu.RLock()
	defer b.statesMu.RUnlock()
	return b.states[userID]
}

func (b *Bot) setState(userID int64, state ChatState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()

	if state == StateIdle {
		delete(b.states, userID)
		return
	}
	b.states[userID] = state
}
