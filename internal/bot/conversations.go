package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"truthgoals/internal/bible"
	"truthgoals/internal/models"
)

// handleConversation advances a multi-step conversation on the caller's copy of its state
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Command {
	case "read":
		b.handleReadConversation(ctx, message, state)
	case "reset_all":
		b.sendText(message.Chat.ID, "Please use the buttons above to confirm or cancel.")
	}
}

// handleReadConversation handles the two-step /read process
func (b *Bot) handleReadConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Step {
	case 1: // Waiting for a book, typed instead of picked
		book, ok := bible.Find(message.Text)
		if !ok {
			b.sendText(message.Chat.ID, "❌ Unknown book. Please pick one from the list or type its full name.")
			return
		}
		b.askForChapter(message.Chat.ID, state, book)

	case 2: // Waiting for the chapter number
		chapter, err := strconv.Atoi(strings.TrimSpace(message.Text))
		if err != nil {
			b.sendText(message.Chat.ID, "Invalid chapter. Please enter a number:")
			return
		}

		bookName := state.Data["book"].(string)
		b.toggleChapter(ctx, message.Chat.ID, message.From.ID, bookName, chapter)

		state.Step = -1 // Mark conversation as complete
	}
}

// askForChapter stores the chosen book and moves to the chapter step
func (b *Bot) askForChapter(chatID int64, state *ConversationState, book models.BookDefinition) {
	state.Data["book"] = book.Name
	state.Step = 2
	b.sendText(chatID, fmt.Sprintf("📖 %s: enter the chapter number (1-%d):", book.Name, book.Chapters))
}
