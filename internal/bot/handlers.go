package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage routes a single message to a command or the chat handler
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.Any("panic", r),
				zap.Int64("user_id", message.From.ID),
			)
			b.reply(message.Chat.ID, textPanic)
		}
	}()

	userID := message.From.ID

	// In stateful mode only /start opens a conversation
	if b.options.Mode == ModeStateful && b.State(userID) == StateIdle {
		if !message.IsCommand() || message.Command() != "start" {
			b.logger.Debug("Ignoring message outside of a conversation",
				zap.Int64("user_id", userID),
			)
			return
		}
	}

	if message.IsCommand() {
		b.logger.Info("Command received",
			zap.Int64("user_id", userID),
			zap.String("command", message.Command()),
		)

		switch message.Command() {
		case "start":
			b.handleStart(message)
		case "help":
			b.handleHelp(message)
		case "clear", "reset":
			b.handleClear(message)
		case "end":
			if b.options.Mode != ModeStateful {
				b.handleUnknownCommand(message)
				return
			}
			b.handleEnd(message)
		case "stats":
			b.handleStats(ctx, message)
		default:
			b.handleUnknownCommand(message)
		}
		return
	}

	if strings.TrimSpace(message.Text) == "" {
		// Stickers, photos and other non-text content
		return
	}

	b.handleChat(ctx, message)
}
