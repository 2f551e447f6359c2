package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"lifescript/pkg/auth"
	"lifescript/pkg/domain"
	"lifescript/pkg/export"
	"lifescript/pkg/storage"
	"lifescript/pkg/store"
)

// NarrativeGenerator produces the next chapter of a book from a raw entry.
type NarrativeGenerator interface {
	GenerateChapter(ctx context.Context, book *domain.Book, entry string, tone domain.Tone) (domain.Chapter, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	SessionStrategy string
	SessionTTL      time.Duration
	JWTSecret       string

	Store     store.Store
	Sessions  store.SessionStore
	Narrative NarrativeGenerator
	Artifacts storage.ArtifactStore
}

// App is the core application service. It owns the authenticated user, the
// navigation state and the persistence wiring; the design assumes a single
// active user session per runtime instance.
type App struct {
	store     store.Store
	sessions  store.SessionStore
	narrative NarrativeGenerator
	artifacts storage.ArtifactStore

	mu     sync.Mutex
	user   *domain.User
	state  State
	guards map[string]*semaphore.Weighted
}

// New constructs the application with storage and session management.
func New(cfg Config) (*App, error) {
	if cfg.Narrative == nil {
		return nil, fmt.Errorf("narrative generator required")
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL != "" {
			var err error
			dataStore, err = store.NewGormStore(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
		} else {
			dataStore = store.NewMemoryStore()
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		switch cfg.SessionStrategy {
		case "redis":
			if strings.TrimSpace(cfg.RedisAddr) == "" {
				return nil, fmt.Errorf("redisAddr is required for redis session strategy")
			}
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		case "jwt":
			var err error
			sessionStore, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
			if err != nil {
				return nil, fmt.Errorf("init jwt session store: %w", err)
			}
		default:
			sessionStore = store.NewMemorySessionStore()
		}
	}

	return &App{
		store:     dataStore,
		sessions:  sessionStore,
		narrative: cfg.Narrative,
		artifacts: cfg.Artifacts,
		state:     initialState(),
		guards:    make(map[string]*semaphore.Weighted),
	}, nil
}

// Register creates a credential and an empty user record, then starts a
// session. The two writes are independent; a missing user record is
// repaired lazily on the next login.
func (a *App) Register(username, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, "", ErrCredentialsRequired
	}
	exists, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check username: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrUsernameTaken
	}
	secret, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	if err := a.store.SaveCredential(domain.Credential{Username: username, Secret: secret}); err != nil {
		return domain.User{}, "", fmt.Errorf("save credential: %w", err)
	}
	user := domain.User{Username: username, Books: []domain.Book{}}
	if err := a.store.SaveUserRecord(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user record: %w", err)
	}
	return a.startSession(user)
}

// Login validates credentials, loads (or lazily creates) the user record
// and starts a session.
func (a *App) Login(username, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, "", ErrCredentialsRequired
	}
	cred, ok, err := a.store.GetCredential(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch credential: %w", err)
	}
	if !ok || !auth.CheckPassword(password, cred.Secret) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	user, found, err := a.store.GetUserRecord(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user record: %w", err)
	}
	if !found {
		user = domain.User{Username: username, Books: []domain.Book{}}
		if err := a.store.SaveUserRecord(user); err != nil {
			return domain.User{}, "", fmt.Errorf("save user record: %w", err)
		}
	}
	return a.startSession(user)
}

func (a *App) startSession(user domain.User) (domain.User, string, error) {
	token, err := a.sessions.NewSession(user.Username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("start session: %w", err)
	}
	a.mu.Lock()
	a.user = &user
	a.state = State{View: ViewBooksList}
	a.mu.Unlock()
	return user, token, nil
}

// Logout clears the session marker and all in-memory identity and
// navigation state. It has no failure mode.
func (a *App) Logout(token string) {
	_ = a.sessions.DeleteSession(token)
	a.mu.Lock()
	a.user = nil
	a.state = initialState()
	a.mu.Unlock()
}

// UserFromToken resolves a user from a session token. A valid token for a
// user not yet loaded resumes the session and lands on the bookshelf.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	username, ok, err := a.sessions.UsernameByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user != nil && a.user.Username == username {
		return *a.user, true
	}
	user, found, err := a.store.GetUserRecord(username)
	if err != nil || !found {
		return domain.User{}, false
	}
	a.user = &user
	a.state = State{View: ViewBooksList}
	return user, true
}

// CurrentUser returns the authenticated user.
func (a *App) CurrentUser() (domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return domain.User{}, ErrNotAuthenticated
	}
	return *a.user, nil
}

// CurrentState returns a snapshot of the navigation state.
func (a *App) CurrentState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Book returns one of the authenticated user's books.
func (a *App) Book(bookID string) (domain.Book, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return domain.Book{}, ErrNotAuthenticated
	}
	book, ok := a.user.Book(bookID)
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}
	return *book, nil
}

// CreateBook appends a new empty book and persists the user record.
// Two calls with the same title produce two distinct books.
func (a *App) CreateBook(title string) (domain.Book, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Book{}, ErrTitleRequired
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return domain.Book{}, ErrNotAuthenticated
	}
	book := domain.NewBook(title)
	updated := *a.user
	updated.Books = slices.Clone(updated.Books)
	updated.AddBook(book)
	if err := a.store.SaveUserRecord(updated); err != nil {
		return domain.Book{}, fmt.Errorf("save user record: %w", err)
	}
	a.user = &updated
	return book, nil
}

// RenameBook swaps a book's title in place, preserving its identifier and
// chapters. Renaming an unknown book is a no-op.
func (a *App) RenameBook(bookID, title string) (domain.User, error) {
	if strings.TrimSpace(title) == "" {
		return domain.User{}, ErrTitleRequired
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return domain.User{}, ErrNotAuthenticated
	}
	updated := *a.user
	updated.Books = slices.Clone(updated.Books)
	if !updated.RenameBook(bookID, title) {
		return *a.user, nil
	}
	if err := a.store.SaveUserRecord(updated); err != nil {
		return domain.User{}, fmt.Errorf("save user record: %w", err)
	}
	a.user = &updated
	return updated, nil
}

// SaveProfile updates the profile picture reference and persists the user
// record. The profile view stays open.
func (a *App) SaveProfile(picURL string) (domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return domain.User{}, ErrNotAuthenticated
	}
	updated := *a.user
	updated.ProfilePicURL = picURL
	if err := a.store.SaveUserRecord(updated); err != nil {
		return domain.User{}, fmt.Errorf("save user record: %w", err)
	}
	a.user = &updated
	return updated, nil
}

// OpenBook enters the journal for a book in write mode. A stale reference
// to a vanished book self-heals back to the bookshelf.
func (a *App) OpenBook(bookID string) (State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return a.state, ErrNotAuthenticated
	}
	if _, ok := a.user.Book(bookID); !ok {
		a.state = State{View: ViewBooksList}
		return a.state, ErrBookNotFound
	}
	a.state = State{View: ViewJournal, ActiveBookID: bookID, Mode: ModeWrite}
	return a.state, nil
}

// CloseBook navigates back from the journal to the bookshelf.
func (a *App) CloseBook() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return a.state
	}
	a.state = State{View: ViewBooksList}
	return a.state
}

// EnterRead switches the journal to read mode over the book's chapters in
// chronological order, starting at the first chapter.
func (a *App) EnterRead(bookID string) (State, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return a.state, ErrNotAuthenticated
	}
	if _, ok := a.user.Book(bookID); !ok {
		a.state = State{View: ViewBooksList}
		return a.state, ErrBookNotFound
	}
	a.state = State{View: ViewJournal, ActiveBookID: bookID, Mode: ModeRead}
	return a.state, nil
}

// EnterWrite switches the journal back to write mode.
func (a *App) EnterWrite(bookID string) (State, error) {
	return a.OpenBook(bookID)
}

// ReadNext advances the read cursor, clamped at the last chapter.
func (a *App) ReadNext() State {
	return a.moveReadCursor(1)
}

// ReadPrev moves the read cursor back, clamped at the first chapter.
func (a *App) ReadPrev() State {
	return a.moveReadCursor(-1)
}

func (a *App) moveReadCursor(delta int) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil || a.state.View != ViewJournal || a.state.Mode != ModeRead {
		return a.state
	}
	book, ok := a.user.Book(a.state.ActiveBookID)
	if !ok {
		a.state = State{View: ViewBooksList}
		return a.state
	}
	a.state.ReadIndex = clampReadIndex(a.state.ReadIndex+delta, len(book.Chapters))
	return a.state
}

// OpenProfile shows the profile screen, remembering where it was opened
// from so CloseProfile can return there.
func (a *App) OpenProfile() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return a.state
	}
	if a.state.View != ViewProfile {
		a.state.returnView = a.state.View
		a.state.View = ViewProfile
	}
	return a.state
}

// CloseProfile returns to the screen the profile was opened from. A
// journal whose book vanished in the meantime self-heals to the bookshelf.
func (a *App) CloseProfile() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil || a.state.View != ViewProfile {
		return a.state
	}
	if a.state.returnView == ViewJournal {
		if _, ok := a.user.Book(a.state.ActiveBookID); ok {
			a.state.View = ViewJournal
			a.state.returnView = ""
			return a.state
		}
	}
	a.state = State{View: ViewBooksList}
	return a.state
}

func (a *App) guard(bookID string) *semaphore.Weighted {
	if g, ok := a.guards[bookID]; ok {
		return g
	}
	g := semaphore.NewWeighted(1)
	a.guards[bookID] = g
	return g
}

// SubmitEntry generates a story chapter for the active book and appends it
// atomically: the stored book is untouched unless generation succeeds and
// the book is still active when the call resolves.
func (a *App) SubmitEntry(ctx context.Context, bookID, entry string, tone domain.Tone) (domain.Chapter, error) {
	if strings.TrimSpace(entry) == "" {
		return domain.Chapter{}, ErrEntryRequired
	}
	if tone == "" {
		tone = domain.DefaultTone
	}
	if !tone.Valid() {
		return domain.Chapter{}, ErrInvalidTone
	}

	a.mu.Lock()
	if a.user == nil {
		a.mu.Unlock()
		return domain.Chapter{}, ErrNotAuthenticated
	}
	book, ok := a.user.Book(bookID)
	if !ok {
		a.mu.Unlock()
		return domain.Chapter{}, ErrBookNotFound
	}
	if a.state.View != ViewJournal || a.state.ActiveBookID != bookID {
		a.mu.Unlock()
		return domain.Chapter{}, ErrStaleGeneration
	}
	username := a.user.Username
	snapshot := *book
	guard := a.guard(bookID)
	a.mu.Unlock()

	if !guard.TryAcquire(1) {
		return domain.Chapter{}, ErrGenerationInFlight
	}
	defer guard.Release(1)

	// The state lock is released for the duration of the model call; the
	// result is re-validated against the navigation state before it is
	// applied, and discarded when stale.
	chapter, err := a.narrative.GenerateChapter(ctx, &snapshot, entry, tone)
	if err != nil {
		return domain.Chapter{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil || a.user.Username != username || a.state.ActiveBookID != bookID {
		return domain.Chapter{}, ErrStaleGeneration
	}
	updated := *a.user
	updated.Books = slices.Clone(updated.Books)
	target, ok := updated.Book(bookID)
	if !ok {
		return domain.Chapter{}, ErrStaleGeneration
	}
	target.AppendChapter(chapter)
	if err := a.store.SaveUserRecord(updated); err != nil {
		return domain.Chapter{}, fmt.Errorf("save user record: %w", err)
	}
	a.user = &updated
	return chapter, nil
}

// ExportPDF renders a book's chapters as a PDF document and returns the
// artifact name and bytes. When object storage is configured a copy is
// archived there as well.
func (a *App) ExportPDF(ctx context.Context, bookID string) (string, []byte, error) {
	a.mu.Lock()
	if a.user == nil {
		a.mu.Unlock()
		return "", nil, ErrNotAuthenticated
	}
	book, ok := a.user.Book(bookID)
	if !ok {
		a.mu.Unlock()
		return "", nil, ErrBookNotFound
	}
	username := a.user.Username
	snapshot := *book
	a.mu.Unlock()

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, &snapshot); err != nil {
		return "", nil, err
	}
	filename := export.Filename(snapshot.Title)

	if a.artifacts != nil {
		key := storage.ExportKey(username, filename)
		if err := a.artifacts.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "application/pdf"); err != nil {
			// Archiving is best effort; the download still succeeds.
			slog.Warn("archive export", "key", key, "error", err)
		} else if url, err := a.artifacts.PresignGet(ctx, key, 24*time.Hour); err == nil {
			slog.Info("export archived", "key", key, "url", url)
		}
	}
	return filename, buf.Bytes(), nil
}
