// Package server assembles the realtime service from its configuration.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/event-radar/backend/api/handlers"
	"github.com/event-radar/backend/internal/auth"
	"github.com/event-radar/backend/internal/config"
	"github.com/event-radar/backend/internal/db"
	"github.com/event-radar/backend/internal/dispatch"
	"github.com/event-radar/backend/internal/presence"
	"github.com/event-radar/backend/internal/pubsub"
	"github.com/event-radar/backend/internal/repository"
	"github.com/event-radar/backend/internal/ws"
)

// ShutdownReason is sent in the close frame of every connection on shutdown.
const ShutdownReason = "server shutdown"

// Server owns every long-lived component of the process.
type Server struct {
	cfg    config.Config
	logger *zap.Logger

	httpServer *http.Server
	hub        *ws.Hub
	wsHandler  *ws.Handler
	dispatcher *dispatch.Dispatcher
	registry   *presence.Registry
	bridge     *pubsub.Bridge
	bus        *pubsub.RedisBus

	sqlDB *sql.DB
	pool  *pgxpool.Pool
}

// New builds a Server. Stores are opened (and migrated) here; the bus
// connects lazily on first use.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	users, sessions, err := s.openStores(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.Mode == "jwt" {
		sessions = auth.NewJWTStore(cfg.Auth.Secret, cfg.Auth.CookieName)
	}
	validator := auth.NewValidator(sessions, cfg.Auth.CookieName, logger)

	s.hub = ws.NewHub(logger)
	s.registry = presence.NewRegistry()

	var bus pubsub.Bus
	if cfg.Redis.Enabled() {
		s.bus = pubsub.NewRedisBus(cfg.Redis, logger)
		bus = s.bus
		logger.Info("redis bus enabled")
	} else {
		logger.Warn("redis not configured, using in-process fanout")
	}
	s.bridge = pubsub.NewBridge(bus, s.hub, logger)

	s.dispatcher = dispatch.New(s.hub, s.registry, s.bridge, users, cfg.Realtime.DefaultChannels, logger)
	s.wsHandler = ws.NewHandler(s.hub, validator, s.dispatcher, ws.Options{
		PingInterval:    cfg.Server.PingInterval,
		PingTimeout:     cfg.Server.PingTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		MaxMessageBytes: cfg.Server.MaxMessageBytes,
		SendBuffer:      cfg.Realtime.SendBuffer,
		CheckOrigin:     checkOrigin(cfg.Server.CORSOrigin),
	}, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		CORSOrigin: cfg.Server.CORSOrigin,
		Logger:     logger,
		Validator:  validator,
		Health:     handlers.NewHealthHandler(s.bridge.HasBus()),
		Presence:   handlers.NewPresenceHandler(s.registry),
		WebSocket:  handlers.NewWebSocketHandler(s.wsHandler),
	})

	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)),
		Handler: router,
	}
	return s, nil
}

func (s *Server) openStores(ctx context.Context) (dispatch.UserStore, auth.SessionStore, error) {
	switch s.cfg.Database.Driver {
	case "postgres":
		pool, err := db.OpenPostgres(ctx, s.cfg.Database.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		s.pool = pool
		store := repository.NewPGStore(pool, s.cfg.Auth.CookieName)
		return store, store, nil
	default:
		if dir := filepath.Dir(s.cfg.Database.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		sqlDB, err := db.OpenSQLite(s.cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		s.sqlDB = sqlDB
		return repository.NewUserRepository(sqlDB), repository.NewSessionStore(sqlDB, s.cfg.Auth.CookieName), nil
	}
}

// checkOrigin admits the configured origin and non-browser clients that
// send no Origin header. "*" admits everything.
func checkOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return allowed == "*" || origin == "" || origin == allowed
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.bus != nil {
		if err := s.bus.Ping(ctx); err != nil {
			s.logger.Warn("redis not reachable yet, will retry on use", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, closes every connection, drains
// background work, then releases the bus and the database.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	var errs []error

	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	s.hub.Close(ShutdownReason)
	if err := s.wsHandler.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("waiting for connections: %w", err))
	}
	if err := s.dispatcher.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("waiting for background tasks: %w", err))
	}

	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bus: %w", err))
		}
	}
	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}

	s.logger.Info("server stopped")
	return errors.Join(errs...)
}
