package reading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truthgoals/internal/bible"
	"truthgoals/internal/identity"
	"truthgoals/internal/models"
	"truthgoals/internal/storage"
	"truthgoals/internal/storage/stubs"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestTracker(store storage.Storage) *Tracker {
	tracker := NewTracker(store, bible.Books(), time.UTC, zap.NewNop())
	tracker.now = func() time.Time { return fixedNow }
	return tracker
}

// failingInsertStore fails bulk inserts after deletes have succeeded
type failingInsertStore struct {
	*stubs.MockDB
	err error
}

func (s *failingInsertStore) CreateReadings(ctx context.Context, events []models.ReadEvent) ([]models.ReadEvent, error) {
	return nil, s.err
}

// failingListStore fails every select
type failingListStore struct {
	*stubs.MockDB
	err error
}

func (s *failingListStore) ListReadings(ctx context.Context, userID string) ([]models.ReadEvent, error) {
	return nil, s.err
}

// replacingStore records calls to the atomic replace path
type replacingStore struct {
	*stubs.MockDB
	calls int
}

func (s *replacingStore) ReplaceBookReadings(ctx context.Context, userID, bookName string, events []models.ReadEvent) ([]models.ReadEvent, error) {
	s.calls++
	if err := s.MockDB.DeleteBookReadings(ctx, userID, bookName); err != nil {
		return nil, err
	}
	return s.MockDB.CreateReadings(ctx, events)
}

func TestTracker_ToggleChapter(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()
	tracker := newTestTracker(db)

	isRead, err := tracker.ToggleChapter(ctx, "user-1", "John", 3)
	require.NoError(t, err)
	assert.True(t, isRead)

	events, err := tracker.Events(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "John", events[0].BookName)
	assert.Equal(t, 3, events[0].ChapterNumber)
	assert.Equal(t, "2024-03-10", events[0].DateRead.Format(models.DateLayout))
	assert.Equal(t, fixedNow, events[0].CompletedAt)
	assert.NotEmpty(t, events[0].ID)

	isRead, err = tracker.ToggleChapter(ctx, "user-1", "John", 3)
	require.NoError(t, err)
	assert.False(t, isRead)

	events, err = tracker.Events(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTracker_ToggleIsItsOwnInverse(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()
	tracker := newTestTracker(db)

	_, err := tracker.ToggleChapter(ctx, "user-1", "Genesis", 1)
	require.NoError(t, err)
	_, err = tracker.ToggleChapter(ctx, "user-1", "Genesis", 2)
	require.NoError(t, err)

	before, err := tracker.Events(ctx, "user-1")
	require.NoError(t, err)

	_, err = tracker.ToggleChapter(ctx, "user-1", "Genesis", 2)
	require.NoError(t, err)
	_, err = tracker.ToggleChapter(ctx, "user-1", "Genesis", 2)
	require.NoError(t, err)

	after, err := tracker.Events(ctx, "user-1")
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].BookName, after[i].BookName)
		assert.Equal(t, before[i].ChapterNumber, after[i].ChapterNumber)
		assert.Equal(t, before[i].DateRead, after[i].DateRead)
	}
}

func TestTracker_ToggleChapter_Invalid(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(stubs.NewMockDB())

	testCases := []struct {
		name    string
		userID  string
		book    string
		chapter int
		check   func(t *testing.T, err error)
	}{
		{
			name: "not authenticated", userID: "", book: "John", chapter: 1,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, identity.ErrNotAuthenticated) },
		},
		{
			name: "unknown book", userID: "user-1", book: "Hezekiah", chapter: 1,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnknownBook) },
		},
		{
			name: "chapter zero", userID: "user-1", book: "Ruth", chapter: 0,
			check: func(t *testing.T, err error) {
				var invalid *InvalidChapterError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, 4, invalid.Max)
			},
		},
		{
			name: "chapter past end", userID: "user-1", book: "Ruth", chapter: 5,
			check: func(t *testing.T, err error) {
				var invalid *InvalidChapterError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, 5, invalid.Chapter)
				assert.EqualError(t, err, "invalid chapter 5 for Ruth (valid range 1-4)")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tracker.ToggleChapter(ctx, tc.userID, tc.book, tc.chapter)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestTracker_MarkBookRead_Overwrites(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()
	tracker := newTestTracker(db)

	// Pre-existing progress for Ruth on an earlier date
	_, err := db.CreateReading(ctx, models.ReadEvent{UserID: "user-1", BookName: "Ruth", ChapterNumber: 2, DateRead: date("2024-01-05")})
	require.NoError(t, err)
	_, err = db.CreateReading(ctx, models.ReadEvent{UserID: "user-1", BookName: "Jonah", ChapterNumber: 1, DateRead: date("2024-01-05")})
	require.NoError(t, err)

	created, err := tracker.MarkBookRead(ctx, "user-1", "Ruth", 4)
	require.NoError(t, err)
	assert.Len(t, created, 4)

	events, err := db.ListReadings(ctx, "user-1")
	require.NoError(t, err)

	var ruth []models.ReadEvent
	for _, event := range events {
		if event.BookName == "Ruth" {
			ruth = append(ruth, event)
		}
	}
	require.Len(t, ruth, 4)
	for i, event := range ruth {
		assert.Equal(t, i+1, event.ChapterNumber)
		assert.Equal(t, "2024-03-10", event.DateRead.Format(models.DateLayout), "earlier read dates are overwritten")
	}

	// Other books keep their events
	assert.Len(t, events, 5)
}

func TestTracker_MarkBookRead_CountMismatch(t *testing.T) {
	tracker := newTestTracker(stubs.NewMockDB())

	_, err := tracker.MarkBookRead(context.Background(), "user-1", "Ruth", 5)

	var invalid *InvalidChapterError
	require.ErrorAs(t, err, &invalid)
	assert.ErrorIs(t, err, ErrChapterCountMismatch)

	_, err = tracker.MarkBookRead(context.Background(), "", "Ruth", 4)
	assert.ErrorIs(t, err, identity.ErrNotAuthenticated)
}

func TestTracker_MarkBookRead_InsertFailureLeavesBookEmpty(t *testing.T) {
	ctx := context.Background()
	insertErr := errors.New("connection reset")
	db := &failingInsertStore{MockDB: stubs.NewMockDB(), err: insertErr}
	tracker := newTestTracker(db)

	_, err := db.CreateReading(ctx, models.ReadEvent{UserID: "user-1", BookName: "Ruth", ChapterNumber: 1, DateRead: date("2024-01-05")})
	require.NoError(t, err)

	_, err = tracker.MarkBookRead(ctx, "user-1", "Ruth", 4)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, insertErr)

	// The delete already happened, the insert did not
	events, err := db.ListReadings(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTracker_MarkBookRead_UsesBookReplacer(t *testing.T) {
	ctx := context.Background()
	db := &replacingStore{MockDB: stubs.NewMockDB()}
	tracker := newTestTracker(db)

	created, err := tracker.MarkBookRead(ctx, "user-1", "Jude", 1)
	require.NoError(t, err)
	assert.Len(t, created, 1)
	assert.Equal(t, 1, db.calls)
}

func TestTracker_Reset(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()
	tracker := newTestTracker(db)

	_, err := tracker.MarkBookRead(ctx, "user-1", "Ruth", 4)
	require.NoError(t, err)
	_, err = tracker.ToggleChapter(ctx, "user-1", "Mark", 1)
	require.NoError(t, err)
	_, err = tracker.ToggleChapter(ctx, "user-2", "Mark", 1)
	require.NoError(t, err)

	require.NoError(t, tracker.ResetBook(ctx, "user-1", "Ruth"))
	snapshot, err := tracker.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Summary.ChaptersRead)

	require.NoError(t, tracker.ResetAll(ctx, "user-1"))
	snapshot, err = tracker.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.Summary.ChaptersRead)
	for _, book := range snapshot.Books {
		assert.Equal(t, 0, book.ChaptersRead, book.Book.Name)
	}

	// Another user's progress survives
	snapshot, err = tracker.Snapshot(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Summary.ChaptersRead)

	assert.ErrorIs(t, tracker.ResetBook(ctx, "user-1", "Hezekiah"), ErrUnknownBook)
	assert.ErrorIs(t, tracker.ResetBook(ctx, "", "Ruth"), identity.ErrNotAuthenticated)
	assert.ErrorIs(t, tracker.ResetAll(ctx, ""), identity.ErrNotAuthenticated)
}

func TestTracker_SnapshotAndStreak(t *testing.T) {
	ctx := context.Background()
	db := stubs.NewMockDB()
	tracker := newTestTracker(db)

	for i, d := range []string{"2024-03-10", "2024-03-09", "2024-03-08", "2024-03-01"} {
		_, err := db.CreateReading(ctx, models.ReadEvent{UserID: "user-1", BookName: "Psalms", ChapterNumber: i + 1, DateRead: date(d)})
		require.NoError(t, err)
	}
	_, err := db.CreateReading(ctx, models.ReadEvent{UserID: "user-1", BookName: "Psalms", ChapterNumber: 23, DateRead: date("2024-03-10")})
	require.NoError(t, err)

	snapshot, err := tracker.Snapshot(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 5, snapshot.Summary.ChaptersRead)
	assert.Equal(t, []string{"2024-03-10", "2024-03-09", "2024-03-08", "2024-03-01"}, FormatDates(snapshot.ReadingDates))
	assert.Equal(t, 3, snapshot.Streak.CurrentStreak)
	assert.Equal(t, 3, snapshot.Streak.LongestStreak)
	require.NotNil(t, snapshot.Streak.LastReadDate)
	assert.Equal(t, "2024-03-10", snapshot.Streak.LastReadDate.Format(models.DateLayout))

	streak, err := tracker.Streak(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Streak, streak)

	empty, err := tracker.Streak(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, models.StreakInfo{}, empty)
}

func TestTracker_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	listErr := errors.New("timeout")
	tracker := newTestTracker(&failingListStore{MockDB: stubs.NewMockDB(), err: listErr})

	_, err := tracker.Snapshot(ctx, "user-1")
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get reading progress", storeErr.Op)
	assert.ErrorIs(t, err, listErr)

	_, err = tracker.ReadingDates(ctx, "user-1")
	assert.ErrorIs(t, err, listErr)

	_, err = tracker.Events(ctx, "")
	assert.ErrorIs(t, err, identity.ErrNotAuthenticated)
}

func TestTracker_TodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	tracker := NewTracker(stubs.NewMockDB(), bible.Books(), loc, nil)
	// 03:00 UTC on March 10 is still March 9 at UTC-8
	tracker.now = func() time.Time { return time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC) }

	assert.Equal(t, "2024-03-09", tracker.Today().Format(models.DateLayout))
	assert.Len(t, tracker.Books(), 66)
}
