package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// botCommands is the command menu shown by Telegram clients
var botCommands = []tgbotapi.BotCommand{
	{Command: "read", Description: "Toggle a chapter: /read John 3"},
	{Command: "book", Description: "Mark a whole book as read"},
	{Command: "progress", Description: "Show reading progress"},
	{Command: "streak", Description: "Show your reading streak"},
	{Command: "calendar", Description: "Days read in a month: /calendar 2024-03"},
	{Command: "notifications", Description: "Show notifications"},
	{Command: "reset", Description: "Reset one book"},
	{Command: "reset_all", Description: "Reset all progress"},
	{Command: "help", Description: "Show help"},
}

// registerCommands publishes the command menu; failures are logged only
func (b *Bot) registerCommands() {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		b.logger.Warn("Failed to register bot commands", zap.Error(err))
	}
}

// Start starts the bot in polling mode and blocks until Stop is called
func (b *Bot) Start() error {
	if b.api == nil {
		return fmt.Errorf("bot API is not initialized")
	}
	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}
	b.registerCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}

	b.logger.Info("Bot started successfully. Waiting for updates...")
	b.handleUpdates(b.api.GetUpdatesChan(u))
	return nil
}

// Stop stops receiving updates in polling mode
func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
}

// StartWebhook points Telegram at <webhookURL>/telegram-webhook
func (b *Bot) StartWebhook(webhookURL string) error {
	if b.api == nil {
		return fmt.Errorf("bot API is not initialized")
	}
	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL + "/telegram-webhook")
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}
	webhookConfig.MaxConnections = 40
	webhookConfig.AllowedUpdates = []string{"message", "callback_query"}

	if _, err := b.api.Request(webhookConfig); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	b.registerCommands()

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
			zap.String("last_error", info.LastErrorMessage),
		)
	}
	return nil
}

// authorize reports whether the sender may use the bot and logs rejections
func (b *Bot) authorize(from *tgbotapi.User, kind string) bool {
	if from == nil {
		return false
	}
	if b.allowedUsers[from.ID] {
		return true
	}
	b.logger.Warn("Unauthorized update",
		zap.String("kind", kind),
		zap.Int64("user_id", from.ID),
		zap.String("username", from.UserName),
	)
	return false
}

// HandleWebhookUpdate routes one update to the message or callback handler
func (b *Bot) HandleWebhookUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if !b.authorize(update.Message.From, "message") {
			b.sendText(update.Message.Chat.ID, "Sorry, you are not authorized to use this bot.")
			return
		}
		b.handleMessage(update.Message)

	case update.CallbackQuery != nil:
		if !b.authorize(update.CallbackQuery.From, "callback") {
			return
		}
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleUpdates processes incoming updates from polling mode
func (b *Bot) handleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		b.HandleWebhookUpdate(update)
	}
}
