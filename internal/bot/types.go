package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"truthgoals/internal/notify"
	"truthgoals/internal/reading"
)

// Bot represents the Telegram bot wrapper
type Bot struct {
	api           *tgbotapi.BotAPI
	tracker       *reading.Tracker
	notifications *notify.Store
	allowedUsers  map[int64]bool
	states        map[int64]*ConversationState
	stateSeq      uint64
	statesMu      sync.RWMutex
	logger        *zap.Logger

	// Chat (and forum topic) that receives book completion announcements
	notificationChatID   int64
	notificationThreadID int
}

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]interface{}

	version uint64
}

func (s *ConversationState) clone() *ConversationState {
	data := make(map[string]interface{}, len(s.Data))
	for key, value := range s.Data {
		data[key] = value
	}
	return &ConversationState{Command: s.Command, Step: s.Step, Data: data, version: s.version}
}
