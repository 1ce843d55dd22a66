// Package middleware provides HTTP middleware for the back office API.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/shopdesk/internal/core/auth"
)

// =============================================================================
// Auth Configuration
// =============================================================================

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Mode is auth.ModeDev or auth.ModeToken. Dev mode also trusts the
	// X-Actor-* headers.
	Mode string

	// TokenSecret verifies bearer tokens. Without it bearer tokens are ignored.
	TokenSecret []byte

	// Now returns the time tokens are checked against. Default: time.Now.
	Now func() time.Time

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware extracts the acting user and stores it in the request context.
type AuthMiddleware struct {
	config AuthConfig
}

// NewAuthMiddleware creates a new auth middleware with the given config.
func NewAuthMiddleware(cfg AuthConfig) *AuthMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Mode == "" {
		cfg.Mode = auth.ModeToken
	}
	return &AuthMiddleware{config: cfg}
}

// Handler returns the middleware handler function.
// A request presenting a bearer token that does not verify is rejected;
// a request without credentials continues as anonymous.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := auth.ExtractFromRequest(r, auth.ExtractOptions{
			Mode:   m.config.Mode,
			Secret: m.config.TokenSecret,
			Now:    m.config.Now(),
		})

		if !actor.Authenticated && len(m.config.TokenSecret) > 0 &&
			strings.HasPrefix(r.Header.Get(auth.HeaderAuthorization), "Bearer ") {
			m.config.Logger.Warn("rejected bearer token",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
			return
		}

		r = r.WithContext(auth.WithContext(r.Context(), actor))
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Require Auth Middleware
// =============================================================================

// RequireAuth is a middleware that requires authentication.
// Must be used AFTER AuthMiddleware.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := auth.FromContext(r.Context())

			if !actor.Authenticated {
				logger.Warn("unauthenticated request to protected endpoint",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// JSON Error Response
// =============================================================================

// JSONAPIError represents a JSON:API error object.
type JSONAPIError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// JSONAPIErrorResponse represents a JSON:API error response.
type JSONAPIErrorResponse struct {
	Errors []JSONAPIError `json:"errors"`
}

// writeJSONError writes a JSON:API formatted error response.
func writeJSONError(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(JSONAPIErrorResponse{
		Errors: []JSONAPIError{
			{
				Status: http.StatusText(status),
				Title:  title,
				Detail: detail,
			},
		},
	})
}
