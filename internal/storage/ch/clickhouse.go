package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"truthgoals/internal/models"
	"truthgoals/migrations"
)

type ClickHouseDB struct {
	conn    clickhouse.Conn
	options *clickhouse.Options
}

// Options builds ClickHouse connection options
func Options(host string, port int, database, user, password string, useTLS bool) *clickhouse.Options {
	options := &clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", host, port)},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}
	return options
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	options := Options(host, port, database, user, password, useTLS)

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, options: options}, nil
}

// OpenSQL opens a database/sql handle, used by goose
func OpenSQL(options *clickhouse.Options) *sql.DB {
	return clickhouse.OpenDB(options)
}

// Initialize applies pending goose migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	sqlDB := OpenSQL(db.options)
	defer sqlDB.Close()

	return migrations.Up(ctx, sqlDB, goose.DialectClickHouse)
}

const selectColumns = `SELECT id, user_id, book_name, chapter_number, completed_at, date_read FROM bible_reading_progress`

// deletes wait for the mutation so the next read sees it
func syncContext(ctx context.Context) context.Context {
	return clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"mutations_sync": 2,
	}))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.ReadEvent, error) {
	var (
		event   models.ReadEvent
		id      uuid.UUID
		chapter uint16
	)
	if err := row.Scan(&id, &event.UserID, &event.BookName, &chapter, &event.CompletedAt, &event.DateRead); err != nil {
		return models.ReadEvent{}, err
	}
	event.ID = id.String()
	event.ChapterNumber = int(chapter)
	event.CompletedAt = event.CompletedAt.UTC()
	event.DateRead = time.Date(event.DateRead.Year(), event.DateRead.Month(), event.DateRead.Day(), 0, 0, 0, 0, time.UTC)
	return event, nil
}

// ListReadings returns all events for the user ordered by book and chapter
func (db *ClickHouseDB) ListReadings(ctx context.Context, userID string) ([]models.ReadEvent, error) {
	rows, err := db.conn.Query(ctx, selectColumns+` WHERE user_id = ? ORDER BY book_name, chapter_number`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	var events []models.ReadEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}
	return events, nil
}

// FindReading returns the event for a chapter or nil if there is none
func (db *ClickHouseDB) FindReading(ctx context.Context, userID, bookName string, chapter int) (*models.ReadEvent, error) {
	rows, err := db.conn.Query(ctx,
		selectColumns+` WHERE user_id = ? AND book_name = ? AND chapter_number = ? LIMIT 1`,
		userID, bookName, chapter)
	if err != nil {
		return nil, fmt.Errorf("failed to find reading: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find reading: %w", err)
		}
		return nil, nil
	}
	event, err := scanEvent(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reading: %w", err)
	}
	return &event, nil
}

// CreateReading inserts one event
func (db *ClickHouseDB) CreateReading(ctx context.Context, event models.ReadEvent) (models.ReadEvent, error) {
	created, err := db.CreateReadings(ctx, []models.ReadEvent{event})
	if err != nil {
		return models.ReadEvent{}, err
	}
	return created[0], nil
}

// CreateReadings inserts events as a single batch
func (db *ClickHouseDB) CreateReadings(ctx context.Context, events []models.ReadEvent) ([]models.ReadEvent, error) {
	batch, err := db.conn.PrepareBatch(ctx, `INSERT INTO bible_reading_progress (id, user_id, book_name, chapter_number, completed_at, date_read)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare batch: %w", err)
	}

	created := make([]models.ReadEvent, 0, len(events))
	for _, event := range events {
		id := uuid.New()
		if event.ID != "" {
			if id, err = uuid.Parse(event.ID); err != nil {
				_ = batch.Abort()
				return nil, fmt.Errorf("invalid reading id %q: %w", event.ID, err)
			}
		}
		event.ID = id.String()
		event.CompletedAt = event.CompletedAt.UTC().Truncate(time.Millisecond)

		if err := batch.Append(id, event.UserID, event.BookName, uint16(event.ChapterNumber), event.CompletedAt, event.DateRead); err != nil {
			_ = batch.Abort()
			return nil, fmt.Errorf("failed to append reading: %w", err)
		}
		created = append(created, event)
	}

	if err := batch.Send(); err != nil {
		return nil, fmt.Errorf("failed to insert readings: %w", err)
	}
	return created, nil
}

// DeleteReading removes the event with the given id
func (db *ClickHouseDB) DeleteReading(ctx context.Context, id string) error {
	if err := db.conn.Exec(syncContext(ctx), `DELETE FROM bible_reading_progress WHERE id = toUUID(?)`, id); err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}
	return nil
}

// DeleteBookReadings removes all of a user's events for one book
func (db *ClickHouseDB) DeleteBookReadings(ctx context.Context, userID, bookName string) error {
	err := db.conn.Exec(syncContext(ctx), `DELETE FROM bible_reading_progress WHERE user_id = ? AND book_name = ?`, userID, bookName)
	if err != nil {
		return fmt.Errorf("failed to delete book readings: %w", err)
	}
	return nil
}

// DeleteAllReadings removes all of a user's events
func (db *ClickHouseDB) DeleteAllReadings(ctx context.Context, userID string) error {
	if err := db.conn.Exec(syncContext(ctx), `DELETE FROM bible_reading_progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete all readings: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
