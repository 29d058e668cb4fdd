package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/soundmarket/api"
	"github.com/angelmondragon/soundmarket/pkg/db"
	"github.com/angelmondragon/soundmarket/pkg/migrate"
)

const defaultMigrationsDir = "pkg/migrate/migrations"

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Local stand-in marketplace API",
	}
	cmd.AddCommand(sandboxServeCmd(), sandboxSeedCmd(), sandboxMigrateCmd())
	return cmd
}

func sandboxServeCmd() *cobra.Command {
	var addr, metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sandbox API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, logg, err := loadConfig("sandbox")
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Sandbox.Addr = addr
			}
			ctx := cmd.Context()

			reg := prometheus.NewRegistry()
			server, err := api.NewServer(ctx, cfg, logg, reg)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, server.Close()) }()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return server.Run(ctx) })
			if metricsAddr != "" {
				g.Go(func() error { return serveMetrics(ctx, metricsAddr, reg) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides SOUNDMARKET_SANDBOX_ADDR")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func sandboxSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate the sandbox database and create the demo accounts",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, logg, err := loadConfig("sandbox")
			if err != nil {
				return err
			}
			cfg.Sandbox.Migrate = true
			cfg.Sandbox.Seed = true
			server, err := api.NewServer(cmd.Context(), cfg, logg, nil)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, server.Close()) }()

			return render(cmd.OutOrStdout(), api.SeedAccounts, func(w io.Writer) {
				row(w, "E-MAIL", "RÔLE", "MOT DE PASSE")
				for _, acc := range api.SeedAccounts {
					row(w, acc.Email, acc.Role, acc.Password)
				}
			})
		},
	}
}

// withSQL opens the sandbox database for a migration command.
func withSQL(cmd *cobra.Command, run func(ctx context.Context, conn *sql.DB) error) (err error) {
	cfg, logg, err := loadConfig("migrate")
	if err != nil {
		return err
	}
	ctx := logg.WithField(cmd.Context(), "cmd", cmd.Name())
	client, err := db.New(ctx, cfg.Sandbox, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, client.Close()) }()

	conn, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	logg.Info(ctx, "migrate ready")
	return run(ctx, conn)
}

func printVersion(cmd *cobra.Command, conn *sql.DB) error {
	version, err := migrate.Version(cmd.Context(), conn)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema version:", version)
	return nil
}

func sandboxMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the sandbox schema",
	}

	goose := func(use, short string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSQL(cmd, func(ctx context.Context, conn *sql.DB) error {
					if err := migrate.Run(ctx, conn, use); err != nil {
						return err
					}
					return printVersion(cmd, conn)
				})
			},
		}
	}

	var dir string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Write an empty SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	}
	create.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "Migrations directory")

	cmd.AddCommand(
		goose("up", "Apply every pending migration"),
		goose("down", "Roll back the last migration"),
		goose("status", "Show the current schema version"),
		&cobra.Command{
			Use:   "to <version>",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSQL(cmd, func(ctx context.Context, conn *sql.DB) error {
					if err := migrate.MigrateToVersion(ctx, conn, args[0]); err != nil {
						return err
					}
					return printVersion(cmd, conn)
				})
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check the embedded migration files",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := migrate.Validate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
				return nil
			},
		},
		create,
	)
	return cmd
}
