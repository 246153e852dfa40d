package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IWUGERMANY/elca-sub002/config"
	"github.com/IWUGERMANY/elca-sub002/internal/workers/refresh"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/routes"
	benchmarkroutes "github.com/IWUGERMANY/elca-sub002/pkg/routes/benchmark"
	cacheroutes "github.com/IWUGERMANY/elca-sub002/pkg/routes/cache"
	"github.com/IWUGERMANY/elca-sub002/pkg/startup"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "elca-cache",
	Short:         "LCA result cache and benchmark service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), true, func(ctx context.Context, a *app) error {
			return serve(ctx, a)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), true, func(context.Context, *app) error {
			return nil
		})
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Refresh projects reported outdated on the event bus",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), false, func(ctx context.Context, a *app) error {
			return work(ctx, a)
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute all outdated cache items of a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		projectID, _ := cmd.Flags().GetInt64("project")
		return withApp(cmd.Context(), false, func(ctx context.Context, a *app) error {
			result, err := a.cache.Refresh(ctx, projectID)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report cache consistency of a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		projectID, _ := cmd.Flags().GetInt64("project")
		return withApp(cmd.Context(), false, func(ctx context.Context, a *app) error {
			result, err := a.cache.Check(ctx, projectID)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var copyVersionCmd = &cobra.Command{
	Use:   "copy-version",
	Short: "Copy a benchmark version with all of its settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		versionID, _ := cmd.Flags().GetInt64("version")
		var name *string
		if cmd.Flags().Changed("name") {
			value, _ := cmd.Flags().GetString("name")
			name = &value
		}
		return withApp(cmd.Context(), false, func(ctx context.Context, a *app) error {
			version, err := a.benchmark.CopyVersion(ctx, versionID, name)
			if err != nil {
				return err
			}
			return printJSON(version)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")

	refreshCmd.Flags().Int64("project", 0, "project id")
	_ = refreshCmd.MarkFlagRequired("project")
	checkCmd.Flags().Int64("project", 0, "project id")
	_ = checkCmd.MarkFlagRequired("project")
	copyVersionCmd.Flags().Int64("version", 0, "benchmark version id")
	copyVersionCmd.Flags().String("name", "", "name of the copy, defaults to the source name with a copy suffix")
	_ = copyVersionCmd.MarkFlagRequired("version")

	rootCmd.AddCommand(serveCmd, migrateCmd, workerCmd, refreshCmd, checkCmd, copyVersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp starts the dependency graph, runs fn and stops everything again.
func withApp(ctx context.Context, migrate bool, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	a := newApp(cfg, logger)
	if migrate {
		a.startup.AddDependency(&startup.Dependency{
			Name:     "migrations",
			Requires: []string{"database"},
			OnStart: func(context.Context) error {
				migrations := database.NewMigrationService(logger, &database.MigrationConfig{
					MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
					MigrationsTable:     cfg.DatabaseMigrationsTable,
					Version:             uint(cfg.DatabaseMigrationVersion),
					Force:               cfg.DatabaseMigrationForce,
					AutoRollback:        cfg.DatabaseMigrationAutoRollback,
				})
				return migrations.MigratePostgres(cfg.DatabaseName, a.sqlDB.DB)
			},
		})
	}

	if err := a.start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		a.stop()
		return err
	}
	defer a.stop()

	return fn(ctx, a)
}

func serve(ctx context.Context, a *app) error {
	e := routes.NewServer(routes.ServerConfig{
		ServiceName:       a.cfg.AppName,
		AllowOrigins:      a.cfg.AllowOrigins,
		AllowMethods:      a.cfg.AllowMethods,
		ReadTimeout:       time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(a.cfg.ReadHeaderTimeoutSeconds) * time.Second,
	}, a.logger, a.checker,
		cacheroutes.NewHandler(a.cache, a.logger),
		benchmarkroutes.NewHandler(a.benchmark),
	)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("Listening on port %d", a.cfg.Port)
		errCh <- e.Start(fmt.Sprintf(":%d", a.cfg.Port))
	}()
	a.checker.SetReady(true)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.checker.SetReady(false)
	a.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func work(ctx context.Context, a *app) error {
	brokers := a.cfg.Brokers()
	if len(brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required for the worker")
	}

	consumerConfig := kafka.DefaultConsumerConfig()
	consumerConfig.Brokers = brokers
	consumerConfig.GroupID = a.cfg.KafkaConsumerGroup

	consumer, err := kafka.NewConsumer(consumerConfig, a.logger)
	if err != nil {
		return err
	}
	worker := refresh.NewWorker(a.cache, a.logger)
	if err := consumer.Start(ctx, worker.Handle); err != nil {
		return err
	}

	<-ctx.Done()
	return consumer.Stop()
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
