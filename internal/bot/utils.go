package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	textThinking       = "Thinking..."
	textUnavailable    = "I'm having trouble connecting to my AI service. Please try again in a moment."
	textRejected       = "Sorry, I encountered an error while processing your request. Please try again later."
	textUnexpected     = "I encountered an unexpected error. My developers have been notified."
	textUnknownCommand = "I didn't understand that command. Type /help for available commands."
	textPanic          = "An error occurred while processing your request. Please try again."
)

const (
	// maxMessageLength stays below Telegram's 4096 character limit
	maxMessageLength = 4000
	// continuationReserve is kept free in follow-up fragments for the marker
	continuationReserve = 32
)

// reply sends a plain text message
func (b *Bot) reply(chatID int64, text string) (tgbotapi.Message, error) {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// replyLong sends text split into fragments that fit a single message
func (b *Bot) replyLong(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLength) {
		if _, err := b.reply(chatID, part); err != nil {
			return
		}
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
	}
	return sent, err
}

// deleteMessage removes a message; failure is not fatal
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("Failed to delete message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
		)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("Failed to send chat action", zap.Error(err))
	}
}

// splitMessage cuts text into fragments of at most limit characters.
// Fragments after the first start with "(continued i/total)".
// A cut prefers the last newline in the second half of the window.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	size := limit
	for len(runes) > 0 {
		if len(runes) <= size {
			parts = append(parts, string(runes))
			break
		}

		cut := size
		for i := size - 1; i >= size/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}

		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]

		size = limit - continuationReserve
		if size < 1 {
			size = 1
		}
	}

	total := len(parts)
	for i := 1; i < total; i++ {
		parts[i] = fmt.Sprintf("(continued %d/%d)\n%s", i+1, total, parts[i])
	}
	return parts
}
