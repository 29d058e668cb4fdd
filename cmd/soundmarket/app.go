package main

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	"github.com/angelmondragon/soundmarket/pkg/auth/session"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
	"github.com/angelmondragon/soundmarket/pkg/redis"
)

// app is what every console command needs: config, logger, the stored
// session and an API client bound to it.
type app struct {
	cfg       *config.Config
	logg      *logger.Logger
	out       io.Writer
	session   *session.Session
	client    *apiclient.Client
	notifier  notifications.Notifier
	confirmer mutation.Confirmer
	metrics   *metrics.RequestMetrics
	closers   []func() error
}

// loadConfig reads .env then the environment, and builds the logger.
func loadConfig(service string) (*config.Config, *logger.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if globalOpts.apiURL != "" {
		cfg.API.BaseURL = globalOpts.apiURL
	}
	if globalOpts.profile != "" {
		cfg.Session.Profile = globalOpts.profile
	}

	logg := logger.New(logger.Options{
		ServiceName: service,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	return cfg, logg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, logg, err := loadConfig("console")
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logg: logg, out: cmd.OutOrStdout()}

	store, err := a.sessionStore(cmd.Context())
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.session = session.New(store, cfg.Session.Profile)

	a.metrics = metrics.NewRequestMetrics(prometheus.NewRegistry())
	a.client = apiclient.New(a.session,
		apiclient.WithBaseURL(cfg.API.BaseURL),
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithUserAgent(cfg.API.UserAgent),
		apiclient.WithLogger(logg),
		apiclient.WithMetrics(a.metrics),
	)
	a.notifier = notifications.NewConsole(cmd.ErrOrStderr(), logg)
	if globalOpts.yes {
		a.confirmer = mutation.AutoConfirm
	} else {
		a.confirmer = mutation.NewPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	return a, nil
}

func (a *app) sessionStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Store {
	case config.SessionStoreFile:
		return session.NewFileStore(a.cfg.Session.FilePath)
	case config.SessionStoreMemory:
		return session.NewMemoryStore(), nil
	case config.SessionStoreRedis:
		client, err := redis.New(ctx, a.cfg.Redis, a.logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return session.NewRedisStore(client)
	}
	return nil, fmt.Errorf("unknown session store %q", a.cfg.Session.Store)
}

func (a *app) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c())
	}
	return err
}

// withApp builds the app for a command and releases it afterwards.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, a.Close()) }()
		return run(cmd, a, args)
	}
}
