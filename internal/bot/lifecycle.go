package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookPath is where Telegram posts updates in webhook mode
const WebhookPath = "/webhook"

// Start runs the bot in polling mode until ctx is done.
// In-flight updates are finished before it returns.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started successfully. Waiting for updates...")

	defer b.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.Dispatch(ctx, update)
		}
	}
}

// StartWebhook sets up the bot to receive updates via webhook
func (b *Bot) StartWebhook(webhookURL string) error {
	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL + WebhookPath)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	webhookConfig.MaxConnections = 40

	if _, err := b.api.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", webhookURL))
		return err
	}

	// Get webhook info to verify
	info, err := b.api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
		)
	}

	b.logger.Info("Bot configured for webhook mode")
	return nil
}

// Dispatch queues an update for its sender. Each user's updates are handled
// one at a time in arrival order; different users are handled concurrently.
// Cancelling ctx does not abort queued updates.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID

	b.queuesMu.Lock()
	b.inflight.Add(1)
	if q, ok := b.queues[userID]; ok {
		q.pending = append(q.pending, update)
		b.queuesMu.Unlock()
		return
	}
	q := &updateQueue{pending: []tgbotapi.Update{update}}
	b.queues[userID] = q
	b.queuesMu.Unlock()

	go b.drain(context.WithoutCancel(ctx), userID, q)
}

// drain handles a user's queued updates until the queue is empty
func (b *Bot) drain(ctx context.Context, userID int64, q *updateQueue) {
	for {
		b.queuesMu.Lock()
		if len(q.pending) == 0 {
			delete(b.queues, userID)
			b.queuesMu.Unlock()
			return
		}
		update := q.pending[0]
		q.pending = q.pending[1:]
		b.queuesMu.Unlock()

		func() {
			defer b.inflight.Done()
			b.HandleUpdate(ctx, update)
		}()
	}
}

// Wait blocks until every dispatched update is handled
func (b *Bot) Wait() {
	b.inflight.Wait()
}

// HandleUpdate processes a single update synchronously
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}
	b.handleMessage(ctx, update.Message)
}
