package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/soundmarket/api/controllers"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/db"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
	"github.com/angelmondragon/soundmarket/pkg/migrate"
	"github.com/angelmondragon/soundmarket/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

// Server is the sandbox marketplace API with its database and optional redis.
type Server struct {
	cfg      *config.Config
	logg     *logger.Logger
	db       *db.Client
	redis    *redis.Client
	services *Services
	http     *http.Server
}

// NewServer opens the database, applies migrations and seeds accounts as
// configured. reg may be nil to disable metrics.
func NewServer(ctx context.Context, cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer) (*Server, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	dbClient, err := db.New(ctx, cfg.Sandbox, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	s := &Server{cfg: cfg, logg: logg, db: dbClient}

	if err := s.init(ctx, reg); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init(ctx context.Context, reg prometheus.Registerer) error {
	if s.cfg.Sandbox.Migrate {
		sqlDB, err := s.db.DB().DB()
		if err != nil {
			return fmt.Errorf("sql handle: %w", err)
		}
		if err := migrate.Up(ctx, sqlDB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	services, err := NewServices(s.cfg, s.db.DB(), s.logg)
	if err != nil {
		return err
	}
	s.services = services

	if s.cfg.Sandbox.Seed {
		if err := Seed(ctx, services.Users, s.logg); err != nil {
			return err
		}
	}

	opts := Options{Ready: map[string]controllers.Pinger{"database": s.db}}
	if reg != nil {
		opts.Metrics = metrics.NewServerMetrics(reg)
	}
	if s.cfg.Sandbox.RateLimitRedis {
		client, err := redis.New(ctx, s.cfg.Redis, s.logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		s.redis = client
		opts.RateLimiter = client
		opts.Ready["redis"] = client
	}

	s.http = &http.Server{
		Addr:              s.cfg.Sandbox.Addr,
		Handler:           NewHandler(s.cfg, s.logg, services, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Services() *Services { return s.services }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{"env": s.cfg.App.Env, "addr": s.http.Addr})
	s.logg.Info(ctx, "starting sandbox api")

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logg.Error(ctx, "sandbox api stopped unexpectedly", err)
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logg.Info(ctx, "sandbox api stopped")
	return nil
}

// Close releases the database and redis connections.
func (s *Server) Close() error {
	var err error
	if s.redis != nil {
		err = multierr.Append(err, s.redis.Close())
	}
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
	}
	return err
}
