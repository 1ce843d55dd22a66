// Package sessions keeps the open form sessions of the HTTP API.
//
// A form.Session is single-threaded; the registry gives every session its own
// lock so each request runs as one discrete event against it.
package sessions

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/core/form"
)

var (
	// ErrNotFound is returned for an unknown or expired session ID.
	ErrNotFound = errors.New("form session not found")

	// ErrForbidden is returned when an actor uses another actor's session.
	ErrForbidden = errors.New("form session belongs to another user")
)

type entry struct {
	mu         sync.Mutex
	session    *form.Session
	owner      string
	lastActive time.Time
}

// Registry holds open form sessions keyed by ID.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
		logger:  logger.With("component", "sessions"),
	}
}

// Open starts a form session owned by actor and returns its ID.
func (r *Registry) Open(kind domain.RecordKind, mode domain.FormMode, existing domain.Record, actor auth.Actor, opts ...form.Option) (string, error) {
	s, err := form.Open(kind, mode, existing, actor, opts...)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	r.mu.Lock()
	r.entries[id] = &entry{session: s, owner: actor.UserID, lastActive: r.now()}
	r.mu.Unlock()

	r.logger.Debug("form session opened", "session_id", id, "kind", kind, "mode", mode, "user_id", actor.UserID)
	return id, nil
}

func (r *Registry) lookup(id string, actor auth.Actor) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if e.owner != actor.UserID {
		return nil, ErrForbidden
	}
	return e, nil
}

// Do runs fn with exclusive access to the session. Sessions that end up
// closed are removed from the registry.
func (r *Registry) Do(id string, actor auth.Actor, fn func(*form.Session) error) error {
	e, err := r.lookup(id, actor)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Swept while waiting for the lock
	if e.session == nil {
		return ErrNotFound
	}

	e.lastActive = r.now()
	err = fn(e.session)
	if e.session.State() == form.StateClosed {
		r.remove(id, e)
	}
	return err
}

// Close closes and removes a session.
func (r *Registry) Close(id string, actor auth.Actor) error {
	e, err := r.lookup(id, actor)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ErrNotFound
	}
	r.remove(id, e)
	return nil
}

// remove closes the session and drops the entry. Caller holds e.mu.
func (r *Registry) remove(id string, e *entry) {
	e.session.Close()
	e.session = nil

	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Sweep closes sessions idle for longer than idle as of now and returns how
// many were closed. Sessions busy in Do are skipped.
func (r *Registry) Sweep(now time.Time, idle time.Duration) int {
	r.mu.RLock()
	candidates := make(map[string]*entry, len(r.entries))
	for id, e := range r.entries {
		candidates[id] = e
	}
	r.mu.RUnlock()

	closed := 0
	for id, e := range candidates {
		if !e.mu.TryLock() {
			continue
		}
		if e.session != nil && now.Sub(e.lastActive) > idle {
			r.remove(id, e)
			closed++
			r.logger.Debug("form session expired", "session_id", id)
		}
		e.mu.Unlock()
	}
	return closed
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
