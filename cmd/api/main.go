package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"

	"vet-clinic/internal/adapters/storage/mongodb"
	"vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/config"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/router"

	"github.com/spf13/cobra"
)

// @title           Vet Clinic API
// @version         1.0
// @description     API de gestión de clínica veterinaria.
// @BasePath        /
func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:          "vet-clinic",
		Short:        "API de clínica veterinaria",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "archivo .env opcional")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), envFile)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Crea tablas (postgres) o índices (mongo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), envFile)
		},
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup(envFile string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	return cfg, log, nil
}

// storageHandles abre la base configurada. close siempre es no-nil.
type storageHandles struct {
	db    *sql.DB
	mongo *mongo.Database
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config) (storageHandles, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
		if err != nil {
			return storageHandles{}, fmt.Errorf("open postgres: %w", err)
		}
		return storageHandles{db: db, close: func() { _ = db.Close() }}, nil
	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return storageHandles{}, fmt.Errorf("connect mongo: %w", err)
		}
		return storageHandles{
			mongo: client.Database(cfg.MongoDatabase),
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	default:
		return storageHandles{close: func() {}}, nil
	}
}

func runServer(ctx context.Context, envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		log.Error("storage init failed", map[string]any{"driver": cfg.StorageDriver, "error": err.Error()})
		return err
	}
	defer st.close()

	if st.db != nil {
		if err := postgres.Migrate(ctx, st.db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if st.mongo != nil {
		if err := mongodb.NewStore(st.mongo, false).EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.NewRouter(router.Options{
			DB:      st.db,
			Mongo:   st.mongo,
			MongoTx: cfg.MongoTransactions,
			Logger:  log,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":    srv.Addr,
			"env":     cfg.Env,
			"storage": cfg.StorageDriver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]any{"error": err.Error()})
			return err
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", map[string]any{"error": err.Error()})
		return err
	}
	log.Info("server stopped", nil)
	return nil
}

func runMigrate(ctx context.Context, envFile string) error {
	cfg, log, err := setup(envFile)
	if err != nil {
		return err
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	switch {
	case st.db != nil:
		if err := postgres.Migrate(ctx, st.db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	case st.mongo != nil:
		if err := mongodb.NewStore(st.mongo, false).EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	default:
		log.Warn("nothing to migrate for in-memory storage", nil)
		return nil
	}
	log.Info("migrations applied", map[string]any{"driver": cfg.StorageDriver})
	return nil
}
