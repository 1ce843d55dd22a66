package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/form"
	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/api/middleware"
	"github.com/artpar/shopdesk/internal/shell/sessions"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// HandlerConfig configures the form, validation and login endpoints.
type HandlerConfig struct {
	Store    store.Store
	Sessions *sessions.Registry
	Policy   rules.Policy
	Logger   *slog.Logger

	// TokenSecret signs login tokens. Login is disabled without it.
	TokenSecret []byte

	// TokenTTL is the lifetime of login tokens. Default: 12 hours.
	TokenTTL time.Duration
}

// Handler serves the interactive form sessions and the stateless field
// checks behind them.
type Handler struct {
	store       store.Store
	sessions    *sessions.Registry
	policy      rules.Policy
	validate    *validator.Validate
	logger      *slog.Logger
	tokenSecret []byte
	tokenTTL    time.Duration
	now         func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = sessions.NewRegistry(cfg.Logger)
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	return &Handler{
		store:       cfg.Store,
		sessions:    cfg.Sessions,
		policy:      cfg.Policy,
		validate:    newValidator(),
		logger:      cfg.Logger.With("component", "api"),
		tokenSecret: cfg.TokenSecret,
		tokenTTL:    cfg.TokenTTL,
		now:         time.Now,
	}
}

// newValidator reports struct fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.NoCache)
	r.Use(h.jsonContentType)

	r.Route("/api/v1/forms", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.logger))
		r.Post("/", h.handleOpenForm)
		r.Get("/{id}", h.handleGetForm)
		r.Patch("/{id}", h.handleChangeField)
		r.Post("/{id}/submit", h.handleSubmitForm)
		r.Delete("/{id}", h.handleCloseForm)
	})

	r.Route("/api/v1/validate", func(r chi.Router) {
		r.Post("/cpf", h.handleCheckCPF)
		r.Post("/email", h.handleCheckEmail)
		r.Post("/password", h.handleCheckPassword)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.With(middleware.RequireAuth(h.logger)).Get("/me", h.handleMe)
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// decode reads a JSON body into v and checks its validate tags.
// On failure it writes the 400 response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:       "invalid request",
			Code:        "validation_error",
			FieldErrors: fields,
		})
		return false
	}
	return true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return fe.Field() + " must be a valid email address"
	case "max":
		return fe.Field() + " is too long"
	}
	return fe.Field() + " is invalid"
}

// writeSessionError maps registry and session errors to responses.
func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "form session not found", "not_found")
	case errors.Is(err, sessions.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "form session belongs to another user", "forbidden")
	case errors.Is(err, form.ErrUnknownField):
		h.writeError(w, http.StatusBadRequest, err.Error(), "unknown_field")
	case errors.Is(err, form.ErrReadOnly):
		h.writeError(w, http.StatusConflict, "form is read-only", "read_only")
	case errors.Is(err, form.ErrSessionClosed):
		h.writeError(w, http.StatusConflict, "form session is closed", "session_closed")
	case errors.Is(err, domain.ErrUnknownKind), errors.Is(err, domain.ErrUnknownMode):
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "record not found", "not_found")
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error", "internal_error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
