// Package workers contains background workers for the back office API.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionSweeper closes idle form sessions.
type SessionSweeper interface {
	Sweep(now time.Time, idle time.Duration) int
	Len() int
}

// SessionReaperConfig configures the session reaper worker.
type SessionReaperConfig struct {
	// Interval is the time between sweeps.
	// Default: 1 minute.
	Interval time.Duration

	// IdleTimeout is how long a form session may sit untouched.
	// Default: 30 minutes.
	IdleTimeout time.Duration
}

// DefaultSessionReaperConfig returns the default configuration.
func DefaultSessionReaperConfig() SessionReaperConfig {
	return SessionReaperConfig{
		Interval:    time.Minute,
		IdleTimeout: 30 * time.Minute,
	}
}

// SessionReaper periodically closes form sessions abandoned by their clients.
type SessionReaper struct {
	sessions SessionSweeper
	config   SessionReaperConfig
	logger   *slog.Logger
	now      func() time.Time

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionReaper creates a new session reaper worker.
func NewSessionReaper(sessions SessionSweeper, config SessionReaperConfig, logger *slog.Logger) *SessionReaper {
	if config.Interval == 0 {
		config.Interval = time.Minute
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 30 * time.Minute
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SessionReaper{
		sessions: sessions,
		config:   config,
		logger:   logger.With("component", "session_reaper"),
		now:      time.Now,
	}
}

// Start begins the reaper background goroutine.
func (r *SessionReaper) Start() {
	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go r.run()

	r.logger.Info("session reaper started",
		"interval", r.config.Interval,
		"idle_timeout", r.config.IdleTimeout,
	)
}

// Stop stops the reaper and waits for the current sweep to finish.
func (r *SessionReaper) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("session reaper stopped")
}

func (r *SessionReaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.runCycle()
		}
	}
}

// runCycle executes a single sweep.
func (r *SessionReaper) runCycle() int {
	if r.ctx != nil && r.ctx.Err() != nil {
		return 0
	}

	closed := r.sessions.Sweep(r.now(), r.config.IdleTimeout)
	if closed > 0 {
		r.logger.Info("expired idle form sessions",
			"closed", closed,
			"open", r.sessions.Len(),
		)
	}
	return closed
}
