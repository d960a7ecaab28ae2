package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"truthgoals/internal/bible"
	"truthgoals/internal/identity"
	"truthgoals/internal/models"
	"truthgoals/internal/reading"
)

// sendMessage sends a message, logging failures
func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if b.api == nil {
		return // For testing
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

// sendText sends plain text to a chat
func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// sendMessageInThread sends a message to a specific thread/topic in a group
func (b *Bot) sendMessageInThread(chatID int64, text string, messageThreadID int) {
	if b.api == nil {
		return // For testing
	}

	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonEmpty("text", text)
	params.AddNonZero("message_thread_id", messageThreadID)

	if _, err := b.api.MakeRequest("sendMessage", params); err != nil {
		b.logger.Error("Failed to send thread message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int("thread_id", messageThreadID),
		)
	}
}

// userKey converts a Telegram user id into a tracker user id
func userKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10)
}

// parseBookAndChapter splits "Song of Solomon 2" into the book and chapter
func parseBookAndChapter(args string) (models.BookDefinition, int, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return models.BookDefinition{}, 0, fmt.Errorf("expected a book and a chapter")
	}

	chapter, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return models.BookDefinition{}, 0, fmt.Errorf("invalid chapter number: %s", fields[len(fields)-1])
	}

	name := strings.Join(fields[:len(fields)-1], " ")
	book, ok := bible.Find(name)
	if !ok {
		return models.BookDefinition{}, 0, fmt.Errorf("%w: %q", reading.ErrUnknownBook, name)
	}
	return book, chapter, nil
}

// errorText turns a tracker error into a reply
func errorText(err error) string {
	var chapterErr *reading.InvalidChapterError
	var storeErr *reading.StoreError

	switch {
	case errors.As(err, &chapterErr):
		return "❌ " + chapterErr.Error()
	case errors.Is(err, reading.ErrUnknownBook):
		return "❌ Unknown book. Use the full name, for example: 1 Corinthians"
	case errors.Is(err, identity.ErrNotAuthenticated):
		return "Sorry, you are not authorized to use this bot."
	case errors.As(err, &storeErr):
		return fmt.Sprintf("⚠️ Could not %s. Please try again.", storeErr.Op)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// bookKeyboard lays the books out in rows of two. Callback data carries the
// book's index in books.
func bookKeyboard(books []models.BookDefinition, prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var currentRow []tgbotapi.InlineKeyboardButton
	for i, book := range books {
		button := tgbotapi.NewInlineKeyboardButtonData(book.Name, fmt.Sprintf("%s%d", prefix, i))
		currentRow = append(currentRow, button)

		// Add row when we have 2 buttons or it's the last book
		if len(currentRow) == 2 || i == len(books)-1 {
			rows = append(rows, currentRow)
			currentRow = []tgbotapi.InlineKeyboardButton{}
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
