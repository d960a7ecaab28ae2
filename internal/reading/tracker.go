// Package reading tracks Bible reading progress: chapter toggles, whole-book
// marks, resets, and the progress, reading-date and streak statistics
// derived from a user's read events.
package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"truthgoals/internal/identity"
	"truthgoals/internal/models"
	"truthgoals/internal/storage"
)

// Tracker runs reading progress operations against a record store
type Tracker struct {
	store    storage.Storage
	books    []models.BookDefinition
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewTracker creates a tracker. Dates are computed in location.
func NewTracker(store storage.Storage, books []models.BookDefinition, location *time.Location, logger *zap.Logger) *Tracker {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:    store,
		books:    books,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// Books returns the book definitions the tracker works with
func (t *Tracker) Books() []models.BookDefinition {
	books := make([]models.BookDefinition, len(t.books))
	copy(books, t.books)
	return books
}

// Today returns the current calendar date in the tracker's location
func (t *Tracker) Today() time.Time {
	return CalendarDate(t.now(), t.location)
}

func (t *Tracker) findBook(name string) (models.BookDefinition, error) {
	for _, book := range t.books {
		if book.Name == name {
			return book, nil
		}
	}
	return models.BookDefinition{}, fmt.Errorf("%w: %q", ErrUnknownBook, name)
}

func (t *Tracker) newEvent(userID, bookName string, chapter int) models.ReadEvent {
	return models.ReadEvent{
		ID:            uuid.NewString(),
		UserID:        userID,
		BookName:      bookName,
		ChapterNumber: chapter,
		CompletedAt:   t.now().UTC(),
		DateRead:      t.Today(),
	}
}

// ToggleChapter flips the read state of a chapter and reports whether the
// chapter is read afterwards. Calling it twice restores the prior state.
func (t *Tracker) ToggleChapter(ctx context.Context, userID, bookName string, chapter int) (bool, error) {
	if userID == "" {
		return false, identity.ErrNotAuthenticated
	}
	book, err := t.findBook(bookName)
	if err != nil {
		return false, err
	}
	if chapter < 1 || chapter > book.Chapters {
		return false, &InvalidChapterError{Book: book.Name, Chapter: chapter, Max: book.Chapters}
	}

	existing, err := t.store.FindReading(ctx, userID, book.Name, chapter)
	if err != nil {
		return false, storeError("check existing progress", err)
	}

	if existing != nil {
		if err := t.store.DeleteReading(ctx, existing.ID); err != nil {
			return false, storeError("unmark chapter", err)
		}
		t.logger.Info("Chapter unmarked",
			zap.String("user_id", userID),
			zap.String("book", book.Name),
			zap.Int("chapter", chapter),
		)
		return false, nil
	}

	if _, err := t.store.CreateReading(ctx, t.newEvent(userID, book.Name, chapter)); err != nil {
		return false, storeError("mark chapter", err)
	}
	t.logger.Info("Chapter marked as read",
		zap.String("user_id", userID),
		zap.String("book", book.Name),
		zap.Int("chapter", chapter),
	)
	return true, nil
}

// MarkBookRead replaces every event for the book with chapters
// 1..totalChapters dated today. Earlier read dates for the book are lost.
//
// The delete and the insert are separate store calls unless the store
// implements storage.BookReplacer. If the insert fails after the delete,
// the book is left with no events.
func (t *Tracker) MarkBookRead(ctx context.Context, userID, bookName string, totalChapters int) ([]models.ReadEvent, error) {
	if userID == "" {
		return nil, identity.ErrNotAuthenticated
	}
	book, err := t.findBook(bookName)
	if err != nil {
		return nil, err
	}
	if totalChapters != book.Chapters {
		return nil, &InvalidChapterError{Book: book.Name, Chapter: totalChapters, Max: book.Chapters, Err: ErrChapterCountMismatch}
	}

	events := make([]models.ReadEvent, 0, totalChapters)
	for chapter := 1; chapter <= totalChapters; chapter++ {
		events = append(events, t.newEvent(userID, book.Name, chapter))
	}

	if replacer, ok := t.store.(storage.BookReplacer); ok {
		created, err := replacer.ReplaceBookReadings(ctx, userID, book.Name, events)
		if err != nil {
			return nil, storeError("mark book as read", err)
		}
		t.logBookRead(userID, book.Name, len(created))
		return created, nil
	}

	if err := t.store.DeleteBookReadings(ctx, userID, book.Name); err != nil {
		return nil, storeError("clear book progress", err)
	}

	created, err := t.store.CreateReadings(ctx, events)
	if err != nil {
		t.logger.Error("Book progress cleared but chapters were not inserted",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("book", book.Name),
		)
		return nil, storeError("mark book as read", err)
	}

	t.logBookRead(userID, book.Name, len(created))
	return created, nil
}

func (t *Tracker) logBookRead(userID, bookName string, chapters int) {
	t.logger.Info("Book marked as read",
		zap.String("user_id", userID),
		zap.String("book", bookName),
		zap.Int("chapters", chapters),
	)
}

// ResetBook deletes all of the user's events for a book
func (t *Tracker) ResetBook(ctx context.Context, userID, bookName string) error {
	if userID == "" {
		return identity.ErrNotAuthenticated
	}
	book, err := t.findBook(bookName)
	if err != nil {
		return err
	}

	if err := t.store.DeleteBookReadings(ctx, userID, book.Name); err != nil {
		return storeError("reset book progress", err)
	}
	t.logger.Info("Book progress reset", zap.String("user_id", userID), zap.String("book", book.Name))
	return nil
}

// ResetAll deletes all of the user's events
func (t *Tracker) ResetAll(ctx context.Context, userID string) error {
	if userID == "" {
		return identity.ErrNotAuthenticated
	}

	if err := t.store.DeleteAllReadings(ctx, userID); err != nil {
		return storeError("reset all progress", err)
	}
	t.logger.Info("All progress reset", zap.String("user_id", userID))
	return nil
}

// Events returns the user's read events
func (t *Tracker) Events(ctx context.Context, userID string) ([]models.ReadEvent, error) {
	if userID == "" {
		return nil, identity.ErrNotAuthenticated
	}

	events, err := t.store.ListReadings(ctx, userID)
	if err != nil {
		return nil, storeError("get reading progress", err)
	}
	return events, nil
}

// ReadingDates returns the user's distinct reading dates, most recent first
func (t *Tracker) ReadingDates(ctx context.Context, userID string) ([]time.Time, error) {
	events, err := t.Events(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ReadingDates(events), nil
}

// Streak returns the user's reading streak as of today
func (t *Tracker) Streak(ctx context.Context, userID string) (models.StreakInfo, error) {
	dates, err := t.ReadingDates(ctx, userID)
	if err != nil {
		return models.StreakInfo{}, err
	}
	return ComputeStreak(dates, t.Today()), nil
}

// Snapshot computes progress, reading dates and streak from one select
func (t *Tracker) Snapshot(ctx context.Context, userID string) (models.Snapshot, error) {
	events, err := t.Events(ctx, userID)
	if err != nil {
		return models.Snapshot{}, err
	}

	books, summary := Aggregate(t.books, events)
	dates := ReadingDates(events)

	return models.Snapshot{
		Books:        books,
		Summary:      summary,
		ReadingDates: dates,
		Streak:       ComputeStreak(dates, t.Today()),
	}, nil
}
