package storage

import (
	"context"

	"truthgoals/internal/models"
)

// Storage defines the interface for reading progress persistence
type Storage interface {
	// ListReadings returns every read event recorded for the user
	ListReadings(ctx context.Context, userID string) ([]models.ReadEvent, error)

	// FindReading returns the event for a chapter, or nil if the chapter is unread
	FindReading(ctx context.Context, userID, bookName string, chapter int) (*models.ReadEvent, error)

	// CreateReading inserts a single event and returns it as stored
	CreateReading(ctx context.Context, event models.ReadEvent) (models.ReadEvent, error)

	// CreateReadings inserts events in one bulk write
	CreateReadings(ctx context.Context, events []models.ReadEvent) ([]models.ReadEvent, error)

	// Delete operations
	DeleteReading(ctx context.Context, id string) error
	DeleteBookReadings(ctx context.Context, userID, bookName string) error
	DeleteAllReadings(ctx context.Context, userID string) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

// BookReplacer is implemented by stores that can delete a book's events and
// insert the replacements atomically
type BookReplacer interface {
	ReplaceBookReadings(ctx context.Context, userID, bookName string, events []models.ReadEvent) ([]models.ReadEvent, error)
}
