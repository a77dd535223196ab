package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/serejivanov62/wish/internal/auth"
	"github.com/serejivanov62/wish/internal/metrics"
	"github.com/serejivanov62/wish/internal/service"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// Options configures the HTTP API
type Options struct {
	// BotToken verifies Telegram mini-app init data
	BotToken string
	// InitDataMaxAge rejects init data signed longer ago; zero disables
	InitDataMaxAge time.Duration
	// DevLogin accepts "dev_user_id=<n>" in place of init data
	DevLogin bool
	Metrics  *metrics.Metrics
}

// Server provides the WishSpace HTTP API.
type Server struct {
	svc      *service.Service
	issuer   *auth.Issuer
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	opts     Options
	mux      *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, issuer *auth.Issuer, logger *logrus.Logger, opts Options) *Server {
	s := &Server{
		svc:      svc,
		issuer:   issuer,
		logger:   logger,
		metrics:  opts.Metrics,
		validate: service.NewValidator(),
		opts:     opts,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.requestID(s.observe(s.mux))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Auth & profile
	s.mux.HandleFunc("POST /api/auth/telegram", s.handleTelegramAuth)
	s.mux.Handle("GET /api/me", s.authed(s.handleGetMe))
	s.mux.Handle("PUT /api/me/phone", s.authed(s.handleUpdatePhone))

	// Items
	s.mux.Handle("POST /api/items/manual", s.authed(s.handleCreateItem))
	s.mux.Handle("POST /api/items/scrape", s.authed(s.handleScrapeItem))
	s.mux.Handle("GET /api/items", s.authed(s.handleListItems))
	s.mux.Handle("GET /api/items/{id}", s.authed(s.handleGetItem))
	s.mux.Handle("PUT /api/items/{id}", s.authed(s.handleUpdateItem))
	s.mux.Handle("DELETE /api/items/{id}", s.authed(s.handleDeleteItem))
	s.mux.Handle("POST /api/items/{id}/book", s.authed(s.handleBookItem))
	s.mux.Handle("GET /api/categories", s.authed(s.handleListCategories))

	// Events
	s.mux.Handle("POST /api/events", s.authed(s.handleCreateEvent))
	s.mux.Handle("GET /api/events/{id}", s.authed(s.handleGetEvent))
	s.mux.Handle("PUT /api/events/{id}", s.authed(s.handleUpdateEvent))
	s.mux.Handle("DELETE /api/events/{id}", s.authed(s.handleDeleteEvent))
	s.mux.Handle("POST /api/events/{id}/items", s.authed(s.handleAddEventItem))
	s.mux.Handle("GET /api/users/{id}/events", s.authed(s.handleListUserEvents))

	// Sharing
	s.mux.Handle("POST /api/events/{id}/collaborators", s.authed(s.handleAddCollaborator))
	s.mux.Handle("DELETE /api/events/{id}/collaborators/{userID}", s.authed(s.handleRemoveCollaborator))
	s.mux.Handle("GET /api/shared-events", s.authed(s.handleSharedEvents))

	// Friends
	s.mux.Handle("POST /api/friends", s.authed(s.handleAddFriend))
	s.mux.Handle("GET /api/friends", s.authed(s.handleListFriends))
	s.mux.Handle("DELETE /api/friends/{id}", s.authed(s.handleRemoveFriend))
}

func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return s.issuer.Middleware(h)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto status codes. Unexpected
// errors are logged and reported without detail.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, service.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrConflict):
		status, message = http.StatusConflict, conflictMessage(err)
	case errors.Is(err, service.ErrUpstream):
		status, message = http.StatusBadGateway, "could not extract item from the page"
	case errors.Is(err, service.ErrInvalid):
		status, message = http.StatusBadRequest, err.Error()
	}

	entry := s.log(r).WithError(err).WithField("status", status)
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	s.respondError(w, status, message)
}

// conflictMessage keeps the service's description of a conflict without
// its internal ids
func conflictMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "+service.ErrConflict.Error()); i > 0 {
		msg = msg[:i]
	}
	if strings.HasPrefix(msg, "item ") {
		return "item is already booked"
	}
	return msg
}

// decodeJSON reads the request body into dst and validates it. It returns
// an error message on failure; the caller should return immediately when
// ok == false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil || r.Body == http.NoBody {
		return false, "request body is empty"
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return false, fmt.Sprintf("field %s failed %q validation", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return false, err.Error()
	}
	return true, ""
}

// pathID extracts a path value and converts it to a positive int64.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in path", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// caller returns the authenticated user id set by auth.Middleware
func caller(r *http.Request) int64 {
	id, _ := auth.UserID(r.Context())
	return id
}
