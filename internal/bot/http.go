package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"truthgoals/internal/bible"
	"truthgoals/internal/identity"
	"truthgoals/internal/models"
	"truthgoals/internal/notify"
	"truthgoals/internal/reading"
)

// HTTPServer handles HTTP requests for the Mini App
type HTTPServer struct {
	bot      *Bot
	botToken string
	verifier *identity.JWTVerifier // nil disables bearer tokens
	now      func() time.Time
}

// NewHTTPServer creates a new HTTP server for the Mini App. Requests must
// carry Telegram initData, or a bearer token when verifier is not nil.
func NewHTTPServer(bot *Bot, verifier *identity.JWTVerifier) *HTTPServer {
	return &HTTPServer{
		bot:      bot,
		botToken: bot.Token(),
		verifier: verifier,
		now:      time.Now,
	}
}

// RegisterRoutes registers Mini App routes on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", hs.authMiddleware(hs.handleBooks))
	mux.HandleFunc("GET /api/progress", hs.authMiddleware(hs.handleProgress))
	mux.HandleFunc("POST /api/progress/reset", hs.authMiddleware(hs.handleResetAll))
	mux.HandleFunc("POST /api/chapters/toggle", hs.authMiddleware(hs.handleToggleChapter))
	mux.HandleFunc("POST /api/books/read", hs.authMiddleware(hs.handleMarkBookRead))
	mux.HandleFunc("POST /api/books/reset", hs.authMiddleware(hs.handleResetBook))
	mux.HandleFunc("GET /api/streak", hs.authMiddleware(hs.handleStreak))
	mux.HandleFunc("GET /api/reading-dates", hs.authMiddleware(hs.handleReadingDates))
	mux.HandleFunc("GET /api/completion", hs.authMiddleware(hs.handleCompletion))
	mux.HandleFunc("GET /api/notifications", hs.authMiddleware(hs.handleNotifications))
	mux.HandleFunc("DELETE /api/notifications", hs.authMiddleware(hs.handleClearNotifications))
	mux.HandleFunc("POST /api/notifications/read", hs.authMiddleware(hs.handleMarkNotificationsRead))
	mux.HandleFunc("POST /api/signout", hs.authMiddleware(hs.handleSignOut))
}

// authenticate resolves the caller from the Authorization header
func (hs *HTTPServer) authenticate(r *http.Request) (identity.User, error) {
	authHeader := r.Header.Get("Authorization")

	switch {
	case strings.HasPrefix(authHeader, "tma "):
		user, err := identity.ValidateTelegramInitData(strings.TrimPrefix(authHeader, "tma "), hs.botToken, hs.now())
		if err != nil {
			return identity.User{}, err
		}
		if !hs.bot.IsAllowed(user.ID) {
			return identity.User{}, fmt.Errorf("user not allowed")
		}
		return identity.User{ID: userKey(user.ID), Name: user.FirstName}, nil

	case strings.HasPrefix(authHeader, "Bearer "):
		if hs.verifier == nil {
			return identity.User{}, fmt.Errorf("bearer tokens are not enabled")
		}
		return hs.verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))

	default:
		return identity.User{}, identity.ErrNotAuthenticated
	}
}

// authMiddleware rejects unauthenticated requests and stores the user in
// the request context
func (hs *HTTPServer) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := hs.authenticate(r)
		if err != nil {
			hs.bot.logger.Warn("Rejected unauthenticated request",
				zap.Error(err),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		hs.bot.logger.Debug("Authenticated request",
			zap.String("user_id", user.ID),
			zap.String("path", r.URL.Path),
		)

		next(w, r.WithContext(identity.WithUser(r.Context(), user)))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeTrackerError maps tracker errors onto status codes
func (hs *HTTPServer) writeTrackerError(w http.ResponseWriter, r *http.Request, err error) {
	var chapterErr *reading.InvalidChapterError
	var storeErr *reading.StoreError

	switch {
	case errors.As(err, &chapterErr), errors.Is(err, reading.ErrUnknownBook):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &storeErr):
		hs.bot.logger.Error("Store operation failed", zap.Error(err), zap.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Could not %s. Please try again.", storeErr.Op))
	default:
		hs.bot.logger.Error("Request failed", zap.Error(err), zap.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// ChapterResponse is one chapter in API responses
type ChapterResponse struct {
	ChapterNumber int     `json:"chapter_number"`
	IsRead        bool    `json:"is_read"`
	DateRead      *string `json:"date_read,omitempty"`
}

// BookResponse is one book with its progress
type BookResponse struct {
	Name         string            `json:"name"`
	Testament    models.Testament  `json:"testament"`
	Chapters     int               `json:"chapters"`
	ChaptersRead int               `json:"chapters_read"`
	Progress     int               `json:"progress"`
	ChapterState []ChapterResponse `json:"chapter_states"`
}

// SummaryResponse is the overall and per-testament completion
type SummaryResponse struct {
	TotalChapters        int `json:"total_chapters"`
	ChaptersRead         int `json:"chapters_read"`
	OverallProgress      int `json:"overall_progress"`
	OldTestamentTotal    int `json:"old_testament_total"`
	OldTestamentRead     int `json:"old_testament_read"`
	OldTestamentProgress int `json:"old_testament_progress"`
	NewTestamentTotal    int `json:"new_testament_total"`
	NewTestamentRead     int `json:"new_testament_read"`
	NewTestamentProgress int `json:"new_testament_progress"`
}

// StreakResponse is the reading streak
type StreakResponse struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	LongestRun    int     `json:"longest_run"`
	LastReadDate  *string `json:"last_read_date"`
}

// ProgressResponse is the full progress snapshot
type ProgressResponse struct {
	Summary      SummaryResponse `json:"summary"`
	Books        []BookResponse  `json:"books"`
	ReadingDates []string        `json:"reading_dates"`
	Streak       StreakResponse  `json:"streak"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

func bookResponse(progress models.BookProgress) BookResponse {
	chapters := make([]ChapterResponse, 0, len(progress.Chapters))
	for _, chapter := range progress.Chapters {
		chapters = append(chapters, ChapterResponse{
			ChapterNumber: chapter.ChapterNumber,
			IsRead:        chapter.IsRead,
			DateRead:      formatDate(chapter.DateRead),
		})
	}
	return BookResponse{
		Name:         progress.Book.Name,
		Testament:    progress.Book.Testament,
		Chapters:     progress.Book.Chapters,
		ChaptersRead: progress.ChaptersRead,
		Progress:     progress.Progress,
		ChapterState: chapters,
	}
}

func summaryResponse(summary models.ProgressSummary) SummaryResponse {
	return SummaryResponse{
		TotalChapters:        summary.TotalChapters,
		ChaptersRead:         summary.ChaptersRead,
		OverallProgress:      summary.OverallProgress,
		OldTestamentTotal:    summary.OldTestamentTotal,
		OldTestamentRead:     summary.OldTestamentRead,
		OldTestamentProgress: summary.OldTestamentProgress,
		NewTestamentTotal:    summary.NewTestamentTotal,
		NewTestamentRead:     summary.NewTestamentRead,
		NewTestamentProgress: summary.NewTestamentProgress,
	}
}

func streakResponse(streak models.StreakInfo) StreakResponse {
	return StreakResponse{
		CurrentStreak: streak.CurrentStreak,
		LongestStreak: streak.LongestStreak,
		LongestRun:    streak.LongestRun,
		LastReadDate:  formatDate(streak.LastReadDate),
	}
}

// handleBooks returns the canon with per-book progress, optionally filtered
// by testament and a name search
func (hs *HTTPServer) handleBooks(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	snapshot, err := hs.bot.tracker.Snapshot(r.Context(), userID)
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	visible := make(map[string]bool)
	for _, book := range bible.Filter(hs.bot.tracker.Books(), r.URL.Query().Get("testament"), r.URL.Query().Get("search")) {
		visible[book.Name] = true
	}

	books := make([]BookResponse, 0, len(visible))
	for _, progress := range snapshot.Books {
		if visible[progress.Book.Name] {
			books = append(books, bookResponse(progress))
		}
	}

	writeJSON(w, http.StatusOK, books)
}

// handleProgress returns the user's progress snapshot
func (hs *HTTPServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.UserID(r.Context())
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	snapshot, err := hs.bot.tracker.Snapshot(r.Context(), userID)
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	books := make([]BookResponse, 0, len(snapshot.Books))
	for _, progress := range snapshot.Books {
		books = append(books, bookResponse(progress))
	}

	writeJSON(w, http.StatusOK, ProgressResponse{
		Summary:      summaryResponse(snapshot.Summary),
		Books:        books,
		ReadingDates: reading.FormatDates(snapshot.ReadingDates),
		Streak:       streakResponse(snapshot.Streak),
	})
}

// canonicalBookName resolves a client-supplied book name the way the bot
// commands do. Unknown names are returned unchanged for the tracker to reject.
func canonicalBookName(name string) string {
	if book, ok := bible.Find(strings.TrimSpace(name)); ok {
		return book.Name
	}
	return name
}

// ToggleChapterRequest represents the request body for toggling a chapter
type ToggleChapterRequest struct {
	BookName      string `json:"book_name"`
	ChapterNumber int    `json:"chapter_number"`
}

// handleToggleChapter flips the read state of one chapter
func (hs *HTTPServer) handleToggleChapter(w http.ResponseWriter, r *http.Request) {
	var req ToggleChapterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID, err := identity.UserID(r.Context())
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	bookName := canonicalBookName(req.BookName)
	var isRead bool
	err = hs.bot.withStreakCheck(r.Context(), userID, func() error {
		var err error
		isRead, err = hs.bot.tracker.ToggleChapter(r.Context(), userID, bookName, req.ChapterNumber)
		return err
	})
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"book_name":      bookName,
		"chapter_number": req.ChapterNumber,
		"is_read":        isRead,
	})
}

// MarkBookReadRequest represents the request body for marking a whole book
type MarkBookReadRequest struct {
	BookName      string `json:"book_name"`
	TotalChapters int    `json:"total_chapters"`
}

// handleMarkBookRead marks every chapter of a book as read today
func (hs *HTTPServer) handleMarkBookRead(w http.ResponseWriter, r *http.Request) {
	var req MarkBookReadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, _ := identity.CurrentUser(r.Context())
	bookName := canonicalBookName(req.BookName)
	var created []models.ReadEvent
	err := hs.bot.withStreakCheck(r.Context(), user.ID, func() error {
		var err error
		created, err = hs.bot.tracker.MarkBookRead(r.Context(), user.ID, bookName, req.TotalChapters)
		return err
	})
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	hs.bot.notifications.Add(user.ID, "Book completed", fmt.Sprintf("You finished %s", bookName), notify.TypeReading)

	if hs.bot.notificationChatID != 0 {
		name := user.Name
		if name == "" {
			name = "Someone"
		}
		hs.bot.sendMessageInThread(hs.bot.notificationChatID,
			fmt.Sprintf("🎉 %s finished reading %s!", name, bookName), hs.bot.notificationThreadID)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"book_name":     bookName,
		"chapters_read": len(created),
	})
}

// ResetBookRequest represents the request body for resetting a book
type ResetBookRequest struct {
	BookName string `json:"book_name"`
}

// handleResetBook clears the progress of one book
func (hs *HTTPServer) handleResetBook(w http.ResponseWriter, r *http.Request) {
	var req ResetBookRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, _ := identity.CurrentUser(r.Context())
	bookName := canonicalBookName(req.BookName)
	if err := hs.bot.tracker.ResetBook(r.Context(), user.ID, bookName); err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	hs.bot.notifications.Add(user.ID, "Progress reset", fmt.Sprintf("Reading progress for %s was reset", bookName), notify.TypeSystem)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleResetAll clears all of the user's progress
func (hs *HTTPServer) handleResetAll(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r.Context())
	if err := hs.bot.tracker.ResetAll(r.Context(), user.ID); err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	hs.bot.notifications.Add(user.ID, "Progress reset", "All reading progress was reset", notify.TypeSystem)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleStreak returns the user's streak
func (hs *HTTPServer) handleStreak(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r.Context())
	streak, err := hs.bot.tracker.Streak(r.Context(), user.ID)
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, streakResponse(streak))
}

// handleReadingDates returns the distinct reading dates, newest first
func (hs *HTTPServer) handleReadingDates(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r.Context())
	dates, err := hs.bot.tracker.ReadingDates(r.Context(), user.ID)
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reading.FormatDates(dates))
}

// CompletionResponse is the share of days with reading in a month and year
type CompletionResponse struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Monthly int `json:"monthly"`
	Yearly  int `json:"yearly"`
}

// handleCompletion returns monthly and yearly completion, defaulting to the current month
func (hs *HTTPServer) handleCompletion(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r.Context())

	today := hs.bot.tracker.Today()
	year, month := today.Year(), int(today.Month())
	if value := r.URL.Query().Get("year"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = parsed
	}
	if value := r.URL.Query().Get("month"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month")
			return
		}
		month = parsed
	}

	dates, err := hs.bot.tracker.ReadingDates(r.Context(), user.ID)
	if err != nil {
		hs.writeTrackerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CompletionResponse{
		Year:    year,
		Month:   month,
		Monthly: reading.MonthlyCompletion(dates, year, time.Month(month)),
		Yearly:  reading.YearlyCompletion(dates, year),
	})
}

// handleNotifications returns the user's notifications and unread count
func (hs *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": hs.bot.notifications.List(user.ID),
		"unread":        hs.bot.notifications.Unread(user.ID),
	})
}

// MarkNotificationsReadRequest marks one notification, or all when ID is empty
type MarkNotificationsReadRequest struct {
	ID string `json:"id"`
}

func (hs *HTTPServer) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	var req MarkNotificationsReadRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	user, _ := identity.CurrentUser(r.Context())
	if req.ID == "" {
		hs.bot.notifications.MarkAllRead(user.ID)
	} else if !hs.bot.notifications.MarkRead(user.ID, req.ID) {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"unread": hs.bot.notifications.Unread(user.ID)})
}

func (hs *HTTPServer) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r.Context())
	hs.bot.notifications.Clear(user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSignOut drops per-user session state
func (hs *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r.Context())
	hs.bot.notifications.Clear(user.ID)

	hs.bot.logger.Info("User signed out", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
