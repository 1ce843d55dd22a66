// Package auth provides the acting user's identity and the permission rules
// that gate form fields.
//
// The Actor is always passed explicitly; nothing in the core reads it from
// global state. The shell extracts it from request headers and carries it in
// the request context.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/shopdesk/internal/core/domain"
)

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const actorContextKey contextKey = "actor"

// =============================================================================
// Types
// =============================================================================

// Actor is the user performing an action.
type Actor struct {
	// UserID is the ID of the acting user record.
	UserID string `json:"user_id"`

	// Name is the display name, used for logging only.
	Name string `json:"name,omitempty"`

	// Role decides which gated fields the actor may change.
	Role domain.Role `json:"role"`

	// Authenticated indicates whether the identity was established.
	Authenticated bool `json:"authenticated"`
}

// Anonymous is the actor of a request without credentials.
var Anonymous = Actor{}

// =============================================================================
// Header Constants
// =============================================================================

const (
	// HeaderAuthorization carries "Bearer {token}".
	HeaderAuthorization = "Authorization"

	// HeaderActorID is the dev-mode header containing the acting user's ID
	HeaderActorID = "X-Actor-ID"

	// HeaderActorName is the dev-mode header containing the display name
	HeaderActorName = "X-Actor-Name"

	// HeaderActorRole is the dev-mode header containing the role (wire value or label)
	HeaderActorRole = "X-Actor-Role"
)

// Extraction modes.
const (
	ModeDev   = "dev"
	ModeToken = "token"
)

// =============================================================================
// Actor Extraction
// =============================================================================

// HeaderGetter is an interface for getting header values.
// This allows testing without requiring an http.Request.
type HeaderGetter interface {
	Get(key string) string
}

// ExtractOptions controls how an actor is read from headers.
type ExtractOptions struct {
	// Mode is ModeDev or ModeToken.
	Mode string

	// Secret verifies bearer tokens.
	Secret []byte

	// Now is the time tokens are checked against.
	Now time.Time
}

// ExtractFromRequest extracts the actor from HTTP request headers.
func ExtractFromRequest(r *http.Request, opts ExtractOptions) Actor {
	return ExtractFromHeaders(r.Header, opts)
}

// ExtractFromHeaders extracts the actor using the HeaderGetter interface.
//
// Sources (checked in order):
//  1. Authorization: Bearer {jwt}, verified with opts.Secret
//  2. X-Actor-* headers, in dev mode only
//
// Anything unverifiable yields an unauthenticated actor.
func ExtractFromHeaders(headers HeaderGetter, opts ExtractOptions) Actor {
	if token, ok := bearerToken(headers.Get(HeaderAuthorization)); ok && len(opts.Secret) > 0 {
		actor, err := ParseToken(token, opts.Secret, opts.Now)
		if err != nil {
			return Anonymous
		}
		return actor
	}

	if opts.Mode != ModeDev {
		return Anonymous
	}

	id := strings.TrimSpace(headers.Get(HeaderActorID))
	if id == "" {
		return Anonymous
	}
	role, err := domain.ParseRole(headers.Get(HeaderActorRole))
	if err != nil {
		return Anonymous
	}

	return Actor{
		UserID:        id,
		Name:          headers.Get(HeaderActorName),
		Role:          role,
		Authenticated: true,
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the actor in the request context.
func WithContext(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// FromContext retrieves the actor from the request context.
// If no actor is found, returns an unauthenticated actor.
func FromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorContextKey).(Actor); ok {
		return actor
	}
	return Anonymous
}

// =============================================================================
// Helper Types for Testing
// =============================================================================

// MapHeaderGetter wraps a map to implement HeaderGetter interface.
// This is useful for testing without creating http.Request objects.
type MapHeaderGetter map[string]string

func (m MapHeaderGetter) Get(key string) string {
	return m[key]
}
