package bot

import (
	"context"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"chatbot/internal/completion"
	"chatbot/internal/models"
)

// handleChat runs one exchange with the completion provider.
// The user's history is locked for the whole exchange and only changes on success.
func (b *Bot) handleChat(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	unlock := b.sessions.Lock(userID)
	defer unlock()

	exchange := models.Exchange{
		ID:       b.newID(),
		UserID:   userID,
		Provider: b.gateway.Dialect().Name,
		Model:    b.options.Model,
	}
	logger := b.logger.With(
		zap.String("exchange_id", exchange.ID),
		zap.Int64("user_id", userID),
	)

	history := b.sessions.Recent(userID, b.options.HistoryWindow)
	payload := b.assembler.Build(history, text, b.options.Preamble)
	exchange.PromptChars = payload.Chars()

	logger.Info("Message received",
		zap.Int("history_turns", len(history)),
		zap.Int("prompt_chars", exchange.PromptChars),
	)

	b.sendTyping(chatID)
	notice, noticeErr := b.reply(chatID, textThinking)

	started := b.now()
	answer, err := b.gateway.Complete(ctx, payload)
	exchange.Latency = b.now().Sub(started)
	exchange.CreatedAt = started.UTC()

	if noticeErr == nil {
		b.deleteMessage(chatID, notice.MessageID)
	}

	if err != nil {
		kind := completion.KindOf(err)
		logger.Error("Completion failed",
			zap.Error(err),
			zap.String("kind", kind.String()),
			zap.Duration("latency", exchange.Latency),
		)
		exchange.Outcome = outcomeOf(kind)
		b.recordExchange(ctx, exchange, logger)
		b.reply(chatID, fallbackText(kind))
		return
	}

	b.sessions.Append(userID, models.UserTurn(text), models.AssistantTurn(answer))

	exchange.Outcome = models.OutcomeOK
	exchange.ReplyChars = utf8.RuneCountInString(answer)
	logger.Info("Completion succeeded",
		zap.Int("reply_chars", exchange.ReplyChars),
		zap.Duration("latency", exchange.Latency),
	)
	b.recordExchange(ctx, exchange, logger)

	b.replyLong(chatID, answer)
}

// recordExchange writes a usage record; failures are only logged
func (b *Bot) recordExchange(ctx context.Context, exchange models.Exchange, logger *zap.Logger) {
	if b.journal == nil {
		return
	}
	if err := b.journal.RecordExchange(ctx, exchange); err != nil {
		logger.Warn("Failed to record exchange", zap.Error(err))
	}
}

func outcomeOf(kind completion.Kind) string {
	switch kind {
	case completion.KindUnavailable:
		return models.OutcomeUnavailable
	case completion.KindRejected:
		return models.OutcomeRejected
	default:
		return models.OutcomeUnknown
	}
}

// fallbackText is the only thing a user sees when a completion fails
func fallbackText(kind completion.Kind) string {
	switch kind {
	case completion.KindUnavailable:
		return textUnavailable
	case completion.KindRejected:
		return textRejected
	default:
		return textUnexpected
	}
}
