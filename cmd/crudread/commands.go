package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oszuidwest/zwfm-crudread/internal/api"
	"github.com/oszuidwest/zwfm-crudread/internal/auth"
	"github.com/oszuidwest/zwfm-crudread/internal/config"
	"github.com/oszuidwest/zwfm-crudread/internal/database"
	"github.com/oszuidwest/zwfm-crudread/internal/repository"
	"github.com/oszuidwest/zwfm-crudread/internal/services"
	"github.com/oszuidwest/zwfm-crudread/pkg/logger"
	"github.com/oszuidwest/zwfm-crudread/pkg/version"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crudread",
		Short: "Paginated, searchable list reads over configured database resources",
		Long: `crudread serves read-only, paginated list endpoints for resources declared
in a YAML file. Each resource is a base query with an allow-list of search
columns and sort keys.

Server settings come from CRUDREAD_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newValidateCmd(),
		newHashKeyCmd(),
		newVersionCmd(),
	)
	return cmd
}

// setup loads the environment configuration and initializes logging.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Initialize(cfg.LogLevel, !cfg.Environment.IsProduction()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Info("Database config: Host=%s, Port=%d, User=%s, Database=%s, Backend=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database, cfg.Database.Backend)

	resources, err := config.LoadResources(cfg.ResourcesFile)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(&auth.Config{
		Clients:        resources.Clients,
		Policies:       resources.Policies,
		RequireClients: cfg.Environment.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.close()

	var opts []services.Option
	if cfg.Database.ReadTransactions {
		opts = append(opts, services.WithReadTransactions(backend.txm))
	}
	readSvc, err := services.NewReadServiceFromResources(resources, backend.queries, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.SetupRouter(cfg, readSvc, authService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting crudread API server on %s (%d resources)", cfg.Server.Address, len(resources.Resources))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server exited")
	return nil
}

// backend is an open database with the matching query factory.
type backend struct {
	queries services.QueryFactory
	txm     repository.TxManager
	close   func()
}

// openBackend connects with the configured query backend.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Database.Backend {
	case config.BackendSQLX:
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &backend{
			queries: services.SQLQueries(db),
			txm:     repository.NewSQLTxManager(db),
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error("Failed to close database connection: %v", err)
				}
			},
		}, nil
	default:
		db, err := database.NewGormDB(cfg)
		if err != nil {
			return nil, err
		}
		return &backend{
			queries: services.GormQueries(db),
			txm:     repository.NewGormTxManager(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					if err := sqlDB.Close(); err != nil {
						logger.Error("Failed to close database connection: %v", err)
					}
				}
			},
		}, nil
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.Connect(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Error("Failed to close database connection: %v", err)
				}
			}()

			v, err := database.Migrate(db.DB, "mysql", os.DirFS(cfg.Database.MigrationsPath))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	var resourcesFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a resource file without connecting to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := resourcesFile
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				path = cfg.ResourcesFile
			}

			res, err := config.LoadResources(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d resources, %d policies, %d clients\n",
				path, len(res.Resources), len(res.Policies), len(res.Clients))
			return nil
		},
	}
	cmd.Flags().StringVar(&resourcesFile, "resources", "", "resource file (default $CRUDREAD_RESOURCES_FILE)")
	return cmd
}

func newHashKeyCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "hash-key",
		Short: "Hash an API client secret for the resource file",
		Long: `hash-key prints the bcrypt key_hash for a client entry. Without --secret a
random secret is generated and printed once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			generated := secret == ""
			if generated {
				secret = auth.GenerateSecret()
			}

			hash, err := auth.HashSecret(secret)
			if err != nil {
				return err
			}
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "secret:   %s\n", secret)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key_hash: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "secret to hash (generated when empty)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
