package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truthgoals/internal/models"
	"truthgoals/internal/storage"
)

var _ storage.Storage = (*Store)(nil)
var _ storage.BookReplacer = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "truthgoals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Initialize(context.Background()))
	return store
}

func readEvent(userID, book string, chapter int, day string) models.ReadEvent {
	dateRead, _ := time.Parse(models.DateLayout, day)
	return models.ReadEvent{
		UserID:        userID,
		BookName:      book,
		ChapterNumber: chapter,
		CompletedAt:   dateRead.Add(9*time.Hour + 123*time.Millisecond),
		DateRead:      dateRead,
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestInitialize_Idempotent(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Initialize(context.Background()))
}

func TestStore_CreateAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateReading(ctx, readEvent("u1", "John", 3, "2024-01-02"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = store.CreateReadings(ctx, []models.ReadEvent{
		readEvent("u1", "John", 1, "2024-01-01"),
		readEvent("u1", "Genesis", 1, "2024-01-01"),
		readEvent("u2", "John", 1, "2024-01-01"),
	})
	require.NoError(t, err)

	events, err := store.ListReadings(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Genesis", events[0].BookName)
	assert.Equal(t, 1, events[1].ChapterNumber)
	assert.Equal(t, 3, events[2].ChapterNumber)

	assert.Equal(t, created.ID, events[2].ID)
	assert.Equal(t, "2024-01-02", events[2].DateRead.Format(models.DateLayout))
	assert.True(t, created.CompletedAt.Equal(events[2].CompletedAt))
}

func TestStore_FindReading(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	missing, err := store.FindReading(ctx, "u1", "Ruth", 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := store.CreateReading(ctx, readEvent("u1", "Ruth", 1, "2024-01-01"))
	require.NoError(t, err)

	found, err := store.FindReading(ctx, "u1", "Ruth", 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	other, err := store.FindReading(ctx, "u2", "Ruth", 1)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestStore_Deletes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateReadings(ctx, []models.ReadEvent{
		readEvent("u1", "Ruth", 1, "2024-01-01"),
		readEvent("u1", "Ruth", 2, "2024-01-01"),
		readEvent("u1", "Jonah", 1, "2024-01-01"),
		readEvent("u2", "Ruth", 1, "2024-01-01"),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteReading(ctx, created[0].ID))
	events, err := store.ListReadings(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	require.NoError(t, store.DeleteBookReadings(ctx, "u1", "Ruth"))
	events, err = store.ListReadings(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Jonah", events[0].BookName)

	require.NoError(t, store.DeleteAllReadings(ctx, "u1"))
	events, err = store.ListReadings(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = store.ListReadings(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, events, 1, "other users are untouched")
}

func TestStore_ReplaceBookReadings(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.CreateReadings(ctx, []models.ReadEvent{
		readEvent("u1", "Ruth", 2, "2024-01-01"),
		readEvent("u1", "Jonah", 1, "2024-01-01"),
	})
	require.NoError(t, err)

	replacements := make([]models.ReadEvent, 0, 4)
	for chapter := 1; chapter <= 4; chapter++ {
		replacements = append(replacements, readEvent("u1", "Ruth", chapter, "2024-02-01"))
	}

	created, err := store.ReplaceBookReadings(ctx, "u1", "Ruth", replacements)
	require.NoError(t, err)
	assert.Len(t, created, 4)

	events, err := store.ListReadings(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 5)
	for _, event := range events {
		if event.BookName == "Ruth" {
			assert.Equal(t, "2024-02-01", event.DateRead.Format(models.DateLayout))
		}
	}
}

func TestStore_ReplaceBookReadingsRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	existing, err := store.CreateReading(ctx, readEvent("u1", "Ruth", 2, "2024-01-01"))
	require.NoError(t, err)

	// the duplicate primary key fails the second insert
	duplicate := readEvent("u1", "Ruth", 1, "2024-02-01")
	duplicate.ID = "dup"
	_, err = store.ReplaceBookReadings(ctx, "u1", "Ruth", []models.ReadEvent{duplicate, duplicate})
	require.Error(t, err)

	events, err := store.ListReadings(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, existing.ID, events[0].ID)
}

func TestOpen_AppliesPragmas(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var journalMode string
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var foreignKeys int
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestStore_ConcurrentReplaceBookReadings(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const writers = 40
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			events := make([]models.ReadEvent, 0, 4)
			for chapter := 1; chapter <= 4; chapter++ {
				events = append(events, readEvent(userID, "Ruth", chapter, "2024-02-01"))
			}
			_, err := store.ReplaceBookReadings(ctx, userID, "Ruth", events)
			errs <- err
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	for i := 0; i < writers; i++ {
		events, err := store.ListReadings(ctx, fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		assert.Len(t, events, 4)
	}
}

func TestStore_CloseNil(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Close())
}
