package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// getState returns a private copy of the user's conversation. Changes to
// it take effect only through saveState.
func (b *Bot) getState(userID int64) (*ConversationState, bool) {
	b.statesMu.RLock()
	defer b.statesMu.RUnlock()
	state, ok := b.states[userID]
	if !ok {
		return nil, false
	}
	return state.clone(), true
}

// setState starts a new conversation, replacing any existing one
func (b *Bot) setState(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.stateSeq++
	stored := state.clone()
	stored.version = b.stateSeq
	b.states[userID] = stored
}

// saveState commits a copy obtained from getState. Completed conversations
// are dropped. The write is skipped when the conversation was replaced or
// cleared since the copy was taken.
func (b *Bot) saveState(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	current, ok := b.states[userID]
	if !ok || current.version != state.version {
		return
	}
	if state.Step == -1 {
		delete(b.states, userID)
		return
	}
	b.stateSeq++
	stored := state.clone()
	stored.version = b.stateSeq
	b.states[userID] = stored
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.Any("panic", r),
				zap.Int64("chat_id", message.Chat.ID),
			)
			b.sendText(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID
	ctx := context.Background()

	// Check if user is in a conversation
	if state, ok := b.getState(userID); ok {
		if message.IsCommand() {
			// Any command cancels an ongoing conversation
			b.clearState(userID)
		} else {
			b.handleConversation(ctx, message, state)
			b.saveState(userID, state)
			return
		}
	}

	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "read":
		b.handleRead(ctx, message)
	case "book":
		b.handleBook(ctx, message)
	case "reset":
		b.handleReset(ctx, message)
	case "reset_all":
		b.handleResetAllStart(message)
	case "progress":
		b.handleProgress(ctx, message)
	case "streak":
		b.handleStreak(ctx, message)
	case "calendar":
		b.handleCalendar(ctx, message)
	case "notifications":
		b.handleNotifications(message)
	default:
		b.sendText(message.Chat.ID, "Unknown command. Use /start to see available commands.")
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery",
				zap.Any("panic", r),
				zap.String("callback_data", query.Data),
			)
		}
	}()

	userID := query.From.ID
	ctx := context.Background()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
	}

	state, ok := b.getState(userID)
	if !ok || query.Message == nil {
		return
	}

	data := query.Data
	switch {
	case strings.HasPrefix(data, readBookPrefix):
		b.handleReadBookCallback(ctx, query, state)
	case strings.HasPrefix(data, resetAllPrefix):
		b.handleResetAllCallback(ctx, query, state)
	}

	b.saveState(userID, state)
}
