// Package cli provides the initialization steps shared by cmd/digimart and
// cmd/digimart-cli.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"digimart/internal/amqp"
	"digimart/internal/backend"
	"digimart/internal/config"
	"digimart/internal/dataset"
	applog "digimart/internal/log"
	"digimart/internal/storage"
)

// SetupLogger builds the process logger for level and makes it the slog
// default. An unknown level falls back to info with a warning; LOG_FORMAT=json
// switches to JSON records.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	lvl, err := config.ParseLogLevel(level)
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: applog.ComponentApp,
		Output:    out,
		JSON:      strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", applog.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads and validates the configuration.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// LoadDataset loads the order table from the configured source.
func LoadDataset(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*dataset.Table, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent(applog.ComponentDataset)
	start := time.Now()
	log.Info("Loading dataset", applog.FieldSource, bcfg.Type.String())

	table, err := backend.Load(ctx, backend.NewFactory(log.Logger), bcfg)
	if err != nil {
		return nil, err
	}

	log.Info("Dataset ready",
		applog.FieldSource, bcfg.Type.String(),
		applog.FieldRows, table.Len(),
		"years", table.Years(),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return table, nil
}

// OpenSQLite opens the SQLite store at dbPath, applying migrations.
func OpenSQLite(logger *applog.Logger, dbPath string) (*storage.Repository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	logger.WithComponent(applog.ComponentStorage).Debug("SQLite store opened", applog.FieldPath, dbPath)
	return repo, nil
}

// ConnectAMQP opens the import notification client. It returns nil without
// error when AMQP_URL is unset.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect AMQP: %w", err)
	}
	logger.WithComponent(applog.ComponentAMQP).Info("AMQP connected",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete. cleanup receives a
// context bounded by timeout.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
