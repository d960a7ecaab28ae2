package stubs

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"truthgoals/internal/models"
)

// MockDB is an in-memory implementation of the Storage interface
type MockDB struct {
	mu     sync.RWMutex
	events []models.ReadEvent
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		events: make([]models.ReadEvent, 0),
	}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// ListReadings returns all events for the user ordered by book and chapter
func (m *MockDB) ListReadings(ctx context.Context, userID string) ([]models.ReadEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []models.ReadEvent
	for _, event := range m.events {
		if event.UserID == userID {
			events = append(events, event)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BookName != events[j].BookName {
			return events[i].BookName < events[j].BookName
		}
		return events[i].ChapterNumber < events[j].ChapterNumber
	})

	return events, nil
}

// FindReading returns the event for a chapter or nil
func (m *MockDB) FindReading(ctx context.Context, userID, bookName string, chapter int) (*models.ReadEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, event := range m.events {
		if event.UserID == userID && event.BookName == bookName && event.ChapterNumber == chapter {
			found := event
			return &found, nil
		}
	}
	return nil, nil
}

// CreateReading stores a new event
func (m *MockDB) CreateReading(ctx context.Context, event models.ReadEvent) (models.ReadEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	m.events = append(m.events, event)
	return event, nil
}

// CreateReadings stores events in one call
func (m *MockDB) CreateReadings(ctx context.Context, events []models.ReadEvent) ([]models.ReadEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := make([]models.ReadEvent, 0, len(events))
	for _, event := range events {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		m.events = append(m.events, event)
		created = append(created, event)
	}
	return created, nil
}

// DeleteReading removes the event with the given id
func (m *MockDB) DeleteReading(ctx context.Context, id string) error {
	m.deleteWhere(func(event models.ReadEvent) bool {
		return event.ID == id
	})
	return nil
}

// DeleteBookReadings removes all of a user's events for one book
func (m *MockDB) DeleteBookReadings(ctx context.Context, userID, bookName string) error {
	m.deleteWhere(func(event models.ReadEvent) bool {
		return event.UserID == userID && event.BookName == bookName
	})
	return nil
}

// DeleteAllReadings removes all of a user's events
func (m *MockDB) DeleteAllReadings(ctx context.Context, userID string) error {
	m.deleteWhere(func(event models.ReadEvent) bool {
		return event.UserID == userID
	})
	return nil
}

func (m *MockDB) deleteWhere(match func(models.ReadEvent) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	for _, event := range m.events {
		if !match(event) {
			kept = append(kept, event)
		}
	}
	m.events = kept
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
