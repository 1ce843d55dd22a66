package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"

	"github.com/artpar/shopdesk/internal/core/rules"
	"github.com/artpar/shopdesk/internal/shell/api"
	"github.com/artpar/shopdesk/internal/shell/cache"
	"github.com/artpar/shopdesk/internal/shell/seed"
	"github.com/artpar/shopdesk/internal/shell/sessions"
	"github.com/artpar/shopdesk/internal/shell/store"
	"github.com/artpar/shopdesk/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitCacheError      = 3
	ExitHTTPServerError = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the shopdesk application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	sessions   *sessions.Registry
	reaper     *workers.SessionReaper
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	sqlStore, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitDatabaseError}
	}

	var s store.Store = sqlStore
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		}, logger)
		if err != nil {
			sqlStore.Close()
			return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitCacheError}
		}
		s = cache.NewCachedStore(sqlStore, rc, logger)
		logger.Info("product cache enabled", "redis_addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
	}

	policy := cfg.Rules.Policy()

	if cfg.Seed.Enabled {
		if err := seedStore(ctx, s, cfg.Seed, policy, logger); err != nil {
			s.Close()
			return nil, &ServerError{Op: "NewServer", Err: err, ExitCode: ExitDatabaseError}
		}
	}

	registry := sessions.NewRegistry(logger)
	reaper := workers.NewSessionReaper(registry, workers.SessionReaperConfig{
		Interval:    cfg.Sessions.SweepInterval,
		IdleTimeout: cfg.Sessions.IdleTimeout,
	}, logger)

	handler := api.SetupAPI(api.APIConfig{
		Store:       s,
		Sessions:    registry,
		Policy:      policy,
		Logger:      logger,
		AuthMode:    cfg.Auth.Mode,
		TokenSecret: []byte(cfg.Auth.TokenSecret),
		TokenTTL:    cfg.Auth.TokenTTL,
		Version:     Version,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		sessions:   registry,
		reaper:     reaper,
		logger:     logger,
	}, nil
}

// seedStore loads fixtures into empty tables. Fixtures that are rejected or
// collide with stored records are logged; any other failure stops startup.
func seedStore(ctx context.Context, s store.Store, cfg SeedConfig, policy rules.Policy, logger *slog.Logger) error {
	fx, err := seed.LoadFile(cfg.File)
	if err != nil {
		return err
	}

	res, err := seed.NewSeeder(s, policy, logger).Seed(ctx, fx)
	for _, e := range multierr.Errors(err) {
		var rejected *seed.RejectedError
		if !errors.As(e, &rejected) && !isDuplicate(e) {
			return err
		}
		logger.Warn("fixture rejected", "error", e)
	}

	logger.Info("store seeded",
		"products", res.Products,
		"users", res.Users,
		"customers", res.Customers,
	)
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicateID) ||
		errors.Is(err, store.ErrDuplicateEmail) ||
		errors.Is(err, store.ErrDuplicateCPF)
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.reaper.Start()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address(),
			"auth_mode", s.config.Auth.Mode,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.reaper.Stop()
		s.store.Close()
		return &ServerError{Op: "Start", Err: err, ExitCode: ExitHTTPServerError}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown", "open_sessions", s.sessions.Len())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	var errs error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		errs = multierr.Append(errs, err)
	}

	s.reaper.Stop()

	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
		errs = multierr.Append(errs, err)
	}

	s.logger.Info("shutdown complete")
	return errs
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
