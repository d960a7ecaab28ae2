// Package notify keeps per-user in-app notifications. A Store is created at
// application start and a user's notifications are cleared at sign-out.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	TypeReading = "reading"
	TypeStreak  = "streak"
	TypeSystem  = "system"
)

// Notification is a single in-app message
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an in-memory notification store keyed by user id
type Store struct {
	mu     sync.RWMutex
	byUser map[string][]Notification
	now    func() time.Time
}

// NewStore creates an empty notification store
func NewStore() *Store {
	return &Store{
		byUser: make(map[string][]Notification),
		now:    time.Now,
	}
}

// Add prepends a notification for the user and returns it
func (s *Store) Add(userID, title, message, notificationType string) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Type:      notificationType,
		CreatedAt: s.now(),
	}
	s.byUser[userID] = append([]Notification{n}, s.byUser[userID]...)
	return n
}

// List returns the user's notifications, newest first
func (s *Store) List(userID string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Notification, len(s.byUser[userID]))
	copy(list, s.byUser[userID])
	return list
}

// Unread returns the number of unread notifications
func (s *Store) Unread(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byUser[userID] {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marks one notification as read. It reports whether it was found.
func (s *Store) MarkRead(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead marks every notification of the user as read
func (s *Store) MarkAllRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i := range list {
		list[i].Read = true
	}
}

// Clear removes all of the user's notifications
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byUser, userID)
}
