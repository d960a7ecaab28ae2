package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"truthgoals/internal/notify"
	"truthgoals/internal/reading"
)

// NewBot creates a new Telegram bot
func NewBot(token string, tracker *reading.Tracker, notifications *notify.Store, allowedUserIDs []int64, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return newBot(api, tracker, notifications, allowedUserIDs, logger), nil
}

func newBot(api *tgbotapi.BotAPI, tracker *reading.Tracker, notifications *notify.Store, allowedUserIDs []int64, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	if notifications == nil {
		notifications = notify.NewStore()
	}

	return &Bot{
		api:           api,
		tracker:       tracker,
		notifications: notifications,
		allowedUsers:  allowedUsers,
		states:        make(map[int64]*ConversationState),
		logger:        logger,
	}
}

// SetNotificationChat configures the chat that receives book completion
// announcements. A zero chat id disables them.
func (b *Bot) SetNotificationChat(chatID int64, threadID int) {
	b.notificationChatID = chatID
	b.notificationThreadID = threadID
}

// Token returns the bot token used to validate Mini App initData
func (b *Bot) Token() string {
	if b.api == nil {
		return ""
	}
	return b.api.Token
}

// IsAllowed reports whether the Telegram user may use the bot
func (b *Bot) IsAllowed(userID int64) bool {
	return b.allowedUsers[userID]
}
