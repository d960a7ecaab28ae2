package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"truthgoals/internal/bible"
	"truthgoals/internal/models"
	"truthgoals/internal/notify"
)

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to Truthgoals! 📖

Available commands:
/read <book> <chapter> - Mark a chapter as read (or unread)
/book <book> - Mark a whole book as read
/reset <book> - Clear progress for a book
/reset_all - Clear all reading progress
/progress - Show your reading progress
/streak - Show your reading streak
/calendar [YYYY-MM] - Show reading days for a month
/notifications - Show your notifications`

	b.sendText(message.Chat.ID, text)
}

// handleRead toggles a chapter, or starts the book selection conversation
// when no arguments are given
func (b *Bot) handleRead(ctx context.Context, message *tgbotapi.Message) {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		b.setState(message.From.ID, &ConversationState{
			Command: "read",
			Step:    1,
			Data:    make(map[string]interface{}),
		})

		msg := tgbotapi.NewMessage(message.Chat.ID, "📚 Select a book:")
		msg.ReplyMarkup = bookKeyboard(b.tracker.Books(), readBookPrefix)
		b.sendMessage(msg)
		return
	}

	book, chapter, err := parseBookAndChapter(args)
	if err != nil {
		b.sendText(message.Chat.ID, fmt.Sprintf("❌ %v\n\nUsage: /read <book> <chapter>\nExample: /read John 3", err))
		return
	}

	b.toggleChapter(ctx, message.Chat.ID, message.From.ID, book.Name, chapter)
}

// toggleChapter flips a chapter and reports the new state
func (b *Bot) toggleChapter(ctx context.Context, chatID, userID int64, bookName string, chapter int) {
	key := userKey(userID)
	var isRead bool
	err := b.withStreakCheck(ctx, key, func() error {
		var err error
		isRead, err = b.tracker.ToggleChapter(ctx, key, bookName, chapter)
		return err
	})
	if err != nil {
		b.logger.Warn("Failed to toggle chapter",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("book", bookName),
			zap.Int("chapter", chapter),
		)
		b.sendText(chatID, errorText(err))
		return
	}

	if isRead {
		b.sendText(chatID, fmt.Sprintf("✅ %s %d marked as read", bookName, chapter))
	} else {
		b.sendText(chatID, fmt.Sprintf("↩️ %s %d marked as unread", bookName, chapter))
	}
}

// handleBook marks every chapter of a book as read today
func (b *Bot) handleBook(ctx context.Context, message *tgbotapi.Message) {
	name := strings.TrimSpace(message.CommandArguments())
	book, ok := bible.Find(name)
	if !ok {
		b.sendText(message.Chat.ID, "❌ Unknown book.\n\nUsage: /book <book>\nExample: /book Ruth")
		return
	}

	userID := userKey(message.From.ID)
	var created []models.ReadEvent
	err := b.withStreakCheck(ctx, userID, func() error {
		var err error
		created, err = b.tracker.MarkBookRead(ctx, userID, book.Name, book.Chapters)
		return err
	})
	if err != nil {
		b.logger.Warn("Failed to mark book as read",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.String("book", book.Name),
		)
		b.sendText(message.Chat.ID, errorText(err))
		return
	}

	b.notifications.Add(userID, "Book completed", fmt.Sprintf("You finished %s", book.Name), notify.TypeReading)
	b.sendText(message.Chat.ID, fmt.Sprintf("✅ %s marked as read (%d chapters)", book.Name, len(created)))

	if b.notificationChatID != 0 {
		announcement := fmt.Sprintf("🎉 %s finished reading %s!", message.From.FirstName, book.Name)
		b.sendMessageInThread(b.notificationChatID, announcement, b.notificationThreadID)
	}
}

// handleReset clears the progress of one book
func (b *Bot) handleReset(ctx context.Context, message *tgbotapi.Message) {
	name := strings.TrimSpace(message.CommandArguments())
	book, ok := bible.Find(name)
	if !ok {
		b.sendText(message.Chat.ID, "❌ Unknown book.\n\nUsage: /reset <book>\nExample: /reset Genesis")
		return
	}

	userID := userKey(message.From.ID)
	if err := b.tracker.ResetBook(ctx, userID, book.Name); err != nil {
		b.logger.Warn("Failed to reset book", zap.Error(err), zap.String("book", book.Name))
		b.sendText(message.Chat.ID, errorText(err))
		return
	}

	b.notifications.Add(userID, "Progress reset", fmt.Sprintf("Reading progress for %s was reset", book.Name), notify.TypeSystem)
	b.sendText(message.Chat.ID, fmt.Sprintf("🗑 Progress for %s was reset", book.Name))
}

// handleResetAllStart asks for confirmation before clearing all progress
func (b *Bot) handleResetAllStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, &ConversationState{
		Command: "reset_all",
		Step:    1,
		Data:    make(map[string]interface{}),
	})

	msg := tgbotapi.NewMessage(message.Chat.ID, "⚠️ This will delete all of your reading progress. Are you sure?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, reset everything", resetAllPrefix+"yes"),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", resetAllPrefix+"no"),
		),
	)
	b.sendMessage(msg)
}

// handleProgress sends the progress report
func (b *Bot) handleProgress(ctx context.Context, message *tgbotapi.Message) {
	snapshot, err := b.tracker.Snapshot(ctx, userKey(message.From.ID))
	if err != nil {
		b.logger.Error("Failed to build progress report", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendText(message.Chat.ID, errorText(err))
		return
	}

	b.sendText(message.Chat.ID, FormatProgressReport(snapshot))
}

// handleStreak sends the current streak
func (b *Bot) handleStreak(ctx context.Context, message *tgbotapi.Message) {
	streak, err := b.tracker.Streak(ctx, userKey(message.From.ID))
	if err != nil {
		b.logger.Error("Failed to compute streak", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendText(message.Chat.ID, errorText(err))
		return
	}

	b.sendText(message.Chat.ID, FormatStreak(streak))
}

// handleCalendar shows the reading days of a month, the current one by default
func (b *Bot) handleCalendar(ctx context.Context, message *tgbotapi.Message) {
	month := b.tracker.Today()
	if args := strings.TrimSpace(message.CommandArguments()); args != "" {
		parsed, err := time.Parse("2006-01", args)
		if err != nil {
			b.sendText(message.Chat.ID, "❌ Invalid month format. Please use YYYY-MM\n\nExample: 2024-11")
			return
		}
		month = parsed
	}

	dates, err := b.tracker.ReadingDates(ctx, userKey(message.From.ID))
	if err != nil {
		b.logger.Error("Failed to list reading dates", zap.Error(err), zap.Int64("user_id", message.From.ID))
		b.sendText(message.Chat.ID, errorText(err))
		return
	}

	b.sendText(message.Chat.ID, FormatCalendar(dates, month.Year(), month.Month()))
}

// handleNotifications lists notifications and marks them as read
func (b *Bot) handleNotifications(message *tgbotapi.Message) {
	userID := userKey(message.From.ID)
	b.sendText(message.Chat.ID, FormatNotifications(b.notifications.List(userID)))
	b.notifications.MarkAllRead(userID)
}
