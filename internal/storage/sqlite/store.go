// Package sqlite provides a SQLite-backed reading progress store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"truthgoals/internal/models"
	"truthgoals/migrations"
)

// Store persists read events in SQLite
type Store struct {
	sqlDB *sql.DB
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// dsnOptions are applied by modernc.org/sqlite to every pooled connection.
// Transactions begin IMMEDIATE so concurrent writers wait on busy_timeout.
const dsnOptions = "?_pragma=busy_timeout(5000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_txlock=immediate"

// Open opens a SQLite store. Call Initialize to apply migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + dsnOptions
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Initialize applies pending migrations
func (s *Store) Initialize(ctx context.Context) error {
	return migrations.Up(ctx, s.sqlDB, goose.DialectSQLite3)
}

// DB exposes the underlying handle for migration tooling
func (s *Store) DB() *sql.DB {
	return s.sqlDB
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const selectColumns = `SELECT id, user_id, book_name, chapter_number, completed_at, date_read FROM bible_reading_progress`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.ReadEvent, error) {
	var (
		event       models.ReadEvent
		completedAt int64
		dateRead    string
	)
	if err := row.Scan(&event.ID, &event.UserID, &event.BookName, &event.ChapterNumber, &completedAt, &dateRead); err != nil {
		return models.ReadEvent{}, err
	}
	event.CompletedAt = fromMillis(completedAt)
	if dateRead != "" {
		parsed, err := time.Parse(models.DateLayout, dateRead)
		if err != nil {
			return models.ReadEvent{}, fmt.Errorf("parse date_read %q: %w", dateRead, err)
		}
		event.DateRead = parsed
	}
	return event, nil
}

// ListReadings returns all events for the user ordered by book and chapter
func (s *Store) ListReadings(ctx context.Context, userID string) ([]models.ReadEvent, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		selectColumns+` WHERE user_id = ? ORDER BY book_name, chapter_number`, userID)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var events []models.ReadEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return events, nil
}

// FindReading returns the event for a chapter or nil if there is none
func (s *Store) FindReading(ctx context.Context, userID, bookName string, chapter int) (*models.ReadEvent, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		selectColumns+` WHERE user_id = ? AND book_name = ? AND chapter_number = ? LIMIT 1`,
		userID, bookName, chapter)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reading: %w", err)
	}
	return &event, nil
}

// CreateReading inserts one event
func (s *Store) CreateReading(ctx context.Context, event models.ReadEvent) (models.ReadEvent, error) {
	created, err := insertEvents(ctx, s.sqlDB, []models.ReadEvent{event})
	if err != nil {
		return models.ReadEvent{}, err
	}
	return created[0], nil
}

// CreateReadings inserts all events in one transaction
func (s *Store) CreateReadings(ctx context.Context, events []models.ReadEvent) ([]models.ReadEvent, error) {
	var created []models.ReadEvent
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = insertEvents(ctx, tx, events)
		return err
	})
	return created, err
}

// ReplaceBookReadings deletes the book's events and inserts the replacements
// in a single transaction
func (s *Store) ReplaceBookReadings(ctx context.Context, userID, bookName string, events []models.ReadEvent) ([]models.ReadEvent, error) {
	var created []models.ReadEvent
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM bible_reading_progress WHERE user_id = ? AND book_name = ?`, userID, bookName); err != nil {
			return fmt.Errorf("delete book readings: %w", err)
		}
		var err error
		created, err = insertEvents(ctx, tx, events)
		return err
	})
	return created, err
}

// DeleteReading removes the event with the given id
func (s *Store) DeleteReading(ctx context.Context, id string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM bible_reading_progress WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}
	return nil
}

// DeleteBookReadings removes all of a user's events for one book
func (s *Store) DeleteBookReadings(ctx context.Context, userID, bookName string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM bible_reading_progress WHERE user_id = ? AND book_name = ?`, userID, bookName); err != nil {
		return fmt.Errorf("delete book readings: %w", err)
	}
	return nil
}

// DeleteAllReadings removes all of a user's events
func (s *Store) DeleteAllReadings(ctx context.Context, userID string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM bible_reading_progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete all readings: %w", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertEvents(ctx context.Context, db execer, events []models.ReadEvent) ([]models.ReadEvent, error) {
	created := make([]models.ReadEvent, 0, len(events))
	for _, event := range events {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		var dateRead string
		if !event.DateRead.IsZero() {
			dateRead = event.DateRead.Format(models.DateLayout)
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO bible_reading_progress (id, user_id, book_name, chapter_number, completed_at, date_read)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			event.ID, event.UserID, event.BookName, event.ChapterNumber, toMillis(event.CompletedAt), dateRead)
		if err != nil {
			return nil, fmt.Errorf("insert reading: %w", err)
		}
		event.CompletedAt = fromMillis(toMillis(event.CompletedAt))
		created = append(created, event)
	}
	return created, nil
}
