package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lifescript/internal/app"
	"lifescript/internal/ratelimit"
	"lifescript/internal/util"
	"lifescript/pkg/ai"
	"lifescript/pkg/domain"
	"lifescript/pkg/export"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// AuthLimiter throttles register/login attempts per client IP.
	// Nil disables throttling.
	AuthLimiter *ratelimit.FixedWindowLimiter
}

// Server exposes the journaling application over HTTP.
type Server struct {
	app         *app.App
	authLimiter *ratelimit.FixedWindowLimiter
	mux         *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:         cfg.App,
		authLimiter: cfg.AuthLimiter,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestLog(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.Handle("/auth/logout", s.authenticated(s.handleLogout))
	s.mux.Handle("/auth/me", s.authenticated(s.handleMe))

	s.mux.Handle("/api/state", s.authenticated(s.handleState))
	s.mux.Handle("/api/books", s.authenticated(s.handleBooks))
	s.mux.Handle("/api/books/", s.authenticated(s.handleBookByID))
	s.mux.Handle("/api/profile", s.authenticated(s.handleProfile))
	s.mux.Handle("/api/profile/open", s.authenticated(s.handleProfileOpen))
	s.mux.Handle("/api/profile/close", s.authenticated(s.handleProfileClose))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authedHandler func(http.ResponseWriter, *http.Request, string, domain.User)

func (s *Server) authenticated(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, token, user)
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) allowAuthAttempt(r *http.Request) bool {
	if s.authLimiter == nil {
		return true
	}
	return s.authLimiter.Allow(util.RemoteHost(r))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowAuthAttempt(r) {
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := s.app.Register(req.Username, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowAuthAttempt(r) {
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, token string, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.app.Logout(token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, _ string, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, _ string, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.CurrentState())
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request, _ string, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, user.Books)
	case http.MethodPost:
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		book, err := s.app.CreateBook(req.Title)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, book)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, _ string, _ domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/books/")
	bookID, action, _ := strings.Cut(path, "/")
	if bookID == "" {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	switch action {
	case "":
		s.handleBook(w, r, bookID)
	case "open":
		s.postState(w, r, func() (app.State, error) { return s.app.OpenBook(bookID) })
	case "close":
		s.postState(w, r, func() (app.State, error) { return s.app.CloseBook(), nil })
	case "read":
		s.postState(w, r, func() (app.State, error) { return s.app.EnterRead(bookID) })
	case "write":
		s.postState(w, r, func() (app.State, error) { return s.app.EnterWrite(bookID) })
	case "read/next":
		s.postState(w, r, func() (app.State, error) { return s.app.ReadNext(), nil })
	case "read/prev":
		s.postState(w, r, func() (app.State, error) { return s.app.ReadPrev(), nil })
	case "chapters":
		s.handleChapters(w, r, bookID)
	case "export":
		s.handleExport(w, r, bookID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request, bookID string) {
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.Book(bookID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPatch:
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if _, err := s.app.RenameBook(bookID, req.Title); err != nil {
			s.writeAppError(w, err)
			return
		}
		book, err := s.app.Book(bookID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) postState(w http.ResponseWriter, r *http.Request, transition func() (app.State, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	state, err := transition()
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type submitEntryRequest struct {
	RawText string `json:"rawText"`
	Tone    string `json:"tone"`
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request, bookID string) {
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.Book(bookID)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book.ChaptersInOrder())
	case http.MethodPost:
		var req submitEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		chapter, err := s.app.SubmitEntry(r.Context(), bookID, req.RawText, domain.Tone(req.Tone))
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, chapter)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, bookID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	filename, data, err := s.app.ExportPDF(r.Context(), bookID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, _ string, _ domain.User) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ProfilePicURL string `json:"profilePicUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.app.SaveProfile(req.ProfilePicURL)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleProfileOpen(w http.ResponseWriter, r *http.Request, _ string, _ domain.User) {
	s.postState(w, r, func() (app.State, error) { return s.app.OpenProfile(), nil })
}

func (s *Server) handleProfileClose(w http.ResponseWriter, r *http.Request, _ string, _ domain.User) {
	s.postState(w, r, func() (app.State, error) { return s.app.CloseProfile(), nil })
}

// writeAppError maps core errors onto HTTP statuses. Stale-reference
// navigation faults self-heal in the core; they surface here as 404/409 so
// clients can refresh the bookshelf.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrCredentialsRequired),
		errors.Is(err, app.ErrTitleRequired),
		errors.Is(err, app.ErrEntryRequired),
		errors.Is(err, app.ErrInvalidTone):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrUsernameTaken),
		errors.Is(err, app.ErrGenerationInFlight),
		errors.Is(err, app.ErrStaleGeneration),
		errors.Is(err, export.ErrNoChapters):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrBookNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ai.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
