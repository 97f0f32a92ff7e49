package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"digimart/internal/cli"
	"digimart/internal/dataset"
	apphttp "digimart/internal/http"
	applog "digimart/internal/log"
	"digimart/internal/report"
	"digimart/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, os.Stdout)
	logger.Info("Starting digimart", "port", cfg.Port, applog.FieldSource, cfg.DataSource)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 5*time.Minute)
	table, err := cli.LoadDataset(loadCtx, logger, cfg)
	cancelLoad()
	if err != nil {
		logger.Error("Failed to load dataset", applog.FieldError, err)
		os.Exit(1)
	}

	svc := report.NewService(table, report.WithCache(cfg.ReportCacheSize, cfg.ReportCacheTTL))
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RequestTimeout:       cfg.RequestTimeout,
		APIRequestsPerMinute: cfg.APIRequestsPerMinute,
		Logger:               logger,
	})

	reloader := worker.NewReloadWorker(func(ctx context.Context) (*dataset.Table, error) {
		return cli.LoadDataset(ctx, logger, cfg)
	}, svc)

	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		// The dashboard still works without notifications.
		logger.Warn("AMQP unavailable, import notifications disabled", applog.FieldError, err)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
	})

	workerLog := logger.WithComponent(applog.ComponentWorker)
	if amqpClient != nil {
		go func() {
			if err := amqpClient.Consume(ctx, reloader.HandleDatasetImported); err != nil && !errors.Is(err, context.Canceled) {
				workerLog.Error("Import notification consumer stopped", applog.FieldError, err)
			}
		}()
	}
	if cfg.ReloadInterval > 0 {
		go reloader.RunPeriodic(ctx, cfg.ReloadInterval)
	}

	logger.Info("Server listening", "addr", srv.Addr, applog.FieldRows, table.Len())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped")
}
