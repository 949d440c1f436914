package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/internal/router"
	"github.com/ourgarden/backend/internal/services"
	"github.com/ourgarden/backend/internal/storage"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer closeLog()

		db, err := models.InitDB(cfg)
		if err != nil {
			return err
		}
		if err := models.Migrate(db); err != nil {
			return err
		}

		redisClient := models.InitRedis(cfg)
		if redisClient != nil {
			defer redisClient.Close()
		}

		ctx := cmd.Context()
		files, err := storage.New(ctx, cfg)
		if err != nil {
			return err
		}

		deps := router.NewServices(db, redisClient, cfg, files, services.LimitsFromConfig(cfg))
		if local, ok := files.(*storage.Local); ok {
			deps.UploadDir = local.BasePath()
		}
		if err := deps.Auth.CreateDefaultAdmin(ctx); err != nil {
			slog.Error("failed to create default admin", "error", err)
		}

		srv := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router.New(deps),
			ReadTimeout:  120 * time.Second, // multipart batches
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			slog.Info("starting server", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageBackend)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err, ok := <-errc:
			if ok {
				return err
			}
			return nil
		case <-quit:
		}

		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("server exited")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer closeLog()

		db, err := models.InitDB(cfg)
		if err != nil {
			return err
		}
		if err := models.Migrate(db); err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil
	},
}
