package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"truthgoals/internal/notify"
)

// Callback data prefixes
const (
	readBookPrefix = "read_book:"
	resetAllPrefix = "reset_all:"
)

// handleReadBookCallback processes book selection from inline keyboard
func (b *Bot) handleReadBookCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != "read" {
		return
	}

	bookIdx, err := strconv.Atoi(strings.TrimPrefix(query.Data, readBookPrefix))
	books := b.tracker.Books()
	if err != nil || bookIdx < 0 || bookIdx >= len(books) {
		b.sendText(query.Message.Chat.ID, "Error: Invalid book selection")
		state.Step = -1
		return
	}

	b.askForChapter(query.Message.Chat.ID, state, books[bookIdx])
}

// handleResetAllCallback applies or cancels the reset confirmation
func (b *Bot) handleResetAllCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != "reset_all" {
		return
	}
	state.Step = -1 // Mark conversation as complete

	chatID := query.Message.Chat.ID
	if strings.TrimPrefix(query.Data, resetAllPrefix) != "yes" {
		b.sendText(chatID, "Reset cancelled. Your progress is unchanged.")
		return
	}

	userID := userKey(query.From.ID)
	if err := b.tracker.ResetAll(ctx, userID); err != nil {
		b.logger.Error("Failed to reset all progress",
			zap.Error(err),
			zap.Int64("user_id", query.From.ID),
		)
		b.sendText(chatID, errorText(err))
		return
	}

	b.notifications.Add(userID, "Progress reset", "All reading progress was reset", notify.TypeSystem)
	b.sendText(chatID, "🗑 All reading progress was reset.")
}
