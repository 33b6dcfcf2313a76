// Package main is the entry point for the tutorhub API server.
//
// Import Path: tutorhub.io/tutorhub/cmd/server
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/app"
	"tutorhub.io/tutorhub/internal/config"
	"tutorhub.io/tutorhub/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting tutorhub", startupFields(cfg)...)

	// Bootstrap application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Shutdown()

	// Fail fast when the database is unreachable.
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	// HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      application.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() { //nolint:naked-goroutine // main server goroutine is exempt
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// startupFields summarizes the settings an operator checks first. The
// database password never appears.
func startupFields(cfg *config.Config) []zap.Field {
	return []zap.Field{
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("database", databaseTarget(cfg.Database)),
		zap.Bool("auto_migrate", cfg.Database.AutoMigrate),
		zap.String("files_root", cfg.Storage.FilesRoot),
		zap.Int64("max_upload_bytes", cfg.Storage.MaxUploadBytes),
		zap.Int("general_pool_size", cfg.Worker.GeneralPoolSize),
		zap.Int("blob_pool_size", cfg.Worker.BlobPoolSize),
		zap.Duration("token_ttl", cfg.Security.TokenTTL),
		zap.Strings("allowed_origins", cfg.Server.AllowedOrigins),
	}
}

// databaseTarget renders host:port/database of the configured DSN.
func databaseTarget(db config.DatabaseConfig) string {
	u, err := url.Parse(db.DSN())
	if err != nil || u.Host == "" {
		return "unparseable DSN"
	}
	return u.Host + u.Path
}
