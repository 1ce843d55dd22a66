package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/shell/sessions"
)

// =============================================================================
// Mock Sweeper
// =============================================================================

type mockSweeper struct {
	mu     sync.Mutex
	calls  int
	idle   time.Duration
	closed int
}

func (m *mockSweeper) Sweep(_ time.Time, idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.idle = idle
	return m.closed
}

func (m *mockSweeper) Len() int { return 0 }

func (m *mockSweeper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultSessionReaperConfig(t *testing.T) {
	cfg := DefaultSessionReaperConfig()
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
}

func TestNewSessionReaper_DefaultConfig(t *testing.T) {
	r := NewSessionReaper(&mockSweeper{}, SessionReaperConfig{}, nil)
	assert.Equal(t, time.Minute, r.config.Interval)
	assert.Equal(t, 30*time.Minute, r.config.IdleTimeout)
}

func TestNewSessionReaper_CustomConfig(t *testing.T) {
	r := NewSessionReaper(&mockSweeper{}, SessionReaperConfig{Interval: time.Second, IdleTimeout: 5 * time.Minute}, nil)
	assert.Equal(t, time.Second, r.config.Interval)
	assert.Equal(t, 5*time.Minute, r.config.IdleTimeout)
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestSessionReaper_StartStop(t *testing.T) {
	m := &mockSweeper{}
	r := NewSessionReaper(m, SessionReaperConfig{Interval: 10 * time.Millisecond}, nil)

	r.Start()
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	assert.GreaterOrEqual(t, m.Calls(), 1)

	// Restartable
	r.Start()
	r.Stop()
}

func TestSessionReaper_StopWithoutStart(t *testing.T) {
	r := NewSessionReaper(&mockSweeper{}, SessionReaperConfig{}, nil)
	r.Stop()
}

// =============================================================================
// Cycle Tests
// =============================================================================

func TestSessionReaper_RunCyclePassesIdleTimeout(t *testing.T) {
	m := &mockSweeper{closed: 2}
	r := NewSessionReaper(m, SessionReaperConfig{IdleTimeout: 7 * time.Minute}, nil)
	r.ctx, r.cancel = context.WithCancel(context.Background())
	defer r.cancel()

	assert.Equal(t, 2, r.runCycle())
	assert.Equal(t, 7*time.Minute, m.idle)
}

func TestSessionReaper_RunCycleAfterCancel(t *testing.T) {
	m := &mockSweeper{}
	r := NewSessionReaper(m, SessionReaperConfig{}, nil)
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.cancel()

	assert.Equal(t, 0, r.runCycle())
	assert.Equal(t, 0, m.Calls())
}

func TestSessionReaper_ExpiresRegistrySessions(t *testing.T) {
	reg := sessions.NewRegistry(nil)
	actor := auth.Actor{UserID: "u-1", Role: domain.RoleManager, Authenticated: true}
	_, err := reg.Open(domain.KindProduct, domain.ModeAdd, nil, actor)
	require.NoError(t, err)

	r := NewSessionReaper(reg, SessionReaperConfig{IdleTimeout: time.Minute}, nil)
	r.ctx, r.cancel = context.WithCancel(context.Background())
	defer r.cancel()

	r.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 1, r.runCycle())
	assert.Equal(t, 0, reg.Len())
}
