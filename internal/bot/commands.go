package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleStart resets the session and greets the user
func (b *Bot) handleStart(message *tgbotapi.Message) {
	userID := message.From.ID

	// An exchange in flight finishes before the reset so it cannot write back
	unlock := b.sessions.Lock(userID)
	b.sessions.Clear(userID)
	if b.options.Mode == ModeStateful {
		b.setState(userID, StateChatting)
	}
	unlock()

	name := message.From.FirstName
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("Hi %s! I'm a chatbot powered by %s. How can I help you today?",
		name, providerLabel(b.gateway.Dialect().Name))
	b.reply(message.Chat.ID, text)
}

// handleHelp shows the commands available in the current mode
func (b *Bot) handleHelp(message *tgbotapi.Message) {
	label := providerLabel(b.gateway.Dialect().Name)

	var text string
	if b.options.Mode == ModeStateful {
		text = fmt.Sprintf(`I'm a chatbot powered by %s. Just send me a message and I'll respond!

Commands:
/start - Start a new conversation
/help - Show this help message
/reset - Reset your conversation history
/stats - Show your usage
/end - End the conversation`, label)
	} else {
		text = fmt.Sprintf(`I'm a chatbot powered by %s. Here are some things you can do:
- Just chat with me naturally
- Use /start to start a new conversation
- Use /clear to clear conversation history
- Use /stats to see your usage
- Use /help to see this message again`, label)
	}

	b.reply(message.Chat.ID, text)
}

// handleClear empties the history but keeps the conversation open
func (b *Bot) handleClear(message *tgbotapi.Message) {
	unlock := b.sessions.Lock(message.From.ID)
	b.sessions.Clear(message.From.ID)
	unlock()

	if message.Command() == "reset" {
		b.reply(message.Chat.ID, "Conversation history has been reset.")
		return
	}
	b.reply(message.Chat.ID, "Conversation history cleared! Let's start fresh.")
}

// handleEnd drops the session and closes the conversation
func (b *Bot) handleEnd(message *tgbotapi.Message) {
	userID := message.From.ID

	unlock := b.sessions.Lock(userID)
	b.sessions.Delete(userID)
	b.setState(userID, StateIdle)
	unlock()

	b.reply(message.Chat.ID, "Conversation ended. Type /start to begin a new conversation.")
}

// handleStats shows the session size and the user's usage totals
func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	s := b.sessions.GetOrCreate(userID)

	var text strings.Builder
	text.WriteString("Your conversation:\n")
	fmt.Fprintf(&text, "Turns in memory: %d\n", len(s.Turns))
	fmt.Fprintf(&text, "Turns sent with each message: %d\n", b.options.HistoryWindow)

	if b.journal != nil {
		stats, err := b.journal.UserStats(ctx, userID)
		if err != nil {
			b.logger.Error("Failed to load usage stats", zap.Error(err), zap.Int64("user_id", userID))
			text.WriteString("\nUsage statistics are unavailable right now.")
		} else {
			text.WriteString("\nUsage:\n")
			fmt.Fprintf(&text, "Exchanges: %d (failed: %d)\n", stats.Exchanges, stats.Failures)
			fmt.Fprintf(&text, "Characters received: %d\n", stats.ReplyChars)
			if !stats.LastAt.IsZero() {
				fmt.Fprintf(&text, "Last exchange: %s", stats.LastAt.UTC().Format("2006-01-02 15:04 MST"))
			}
		}
	}

	b.reply(message.Chat.ID, strings.TrimRight(text.String(), "\n"))
}

// handleUnknownCommand answers commands the bot does not know
func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) {
	b.reply(message.Chat.ID, textUnknownCommand)
}

func providerLabel(provider string) string {
	switch provider {
	case "cohere":
		return "Cohere AI"
	case "gemini":
		return "Google Gemini"
	case "openai":
		return "OpenAI"
	default:
		return provider
	}
}
