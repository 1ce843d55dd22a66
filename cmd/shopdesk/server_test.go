package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/shopdesk/internal/shell/store"
)

func testConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		Database: DatabaseConfig{DSN: store.MemoryDSN},
		Seed:     SeedConfig{Enabled: true},
		Auth:     AuthConfig{Mode: "dev", TokenTTL: time.Hour},
		Rules:    RulesConfig{PromotionBelowBaseIsBlocking: true},
		Sessions: SessionsConfig{IdleTimeout: time.Minute, SweepInterval: time.Minute},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer_SeedsMemoryStore(t *testing.T) {
	s, err := NewServer(context.Background(), testConfig(), discardLogger())
	require.NoError(t, err)

	products, err := s.store.ListProducts(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, products)

	users, err := s.store.ListUsers(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, users)

	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestNewServer_SeedDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Seed.Enabled = false

	s, err := NewServer(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	products, err := s.store.ListProducts(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestNewServer_MissingFixtures(t *testing.T) {
	cfg := testConfig()
	cfg.Seed.File = "/nonexistent/fixtures.yaml"

	_, err := NewServer(context.Background(), cfg, discardLogger())
	require.Error(t, err)

	var sErr *ServerError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, ExitDatabaseError, sErr.ExitCode)
}

func TestNewServer_UnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	_, err := NewServer(context.Background(), cfg, discardLogger())
	require.Error(t, err)

	var sErr *ServerError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, ExitCacheError, sErr.ExitCode)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(fmt.Errorf("users[0]: %w", store.ErrDuplicateEmail)))
	assert.True(t, isDuplicate(store.ErrDuplicateCPF))
	assert.False(t, isDuplicate(store.ErrConnectionFailed))
}

func TestServerError(t *testing.T) {
	err := &ServerError{Op: "Start", Err: errors.New("boom"), ExitCode: ExitHTTPServerError}

	assert.Equal(t, "Start: boom", err.Error())
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
}
