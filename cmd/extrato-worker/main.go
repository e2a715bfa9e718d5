package main

import (
	"context"
	"errors"
	"os"
	"time"

	"extrato/internal/amqp"
	"extrato/internal/cache"
	"extrato/internal/cli"
	"extrato/internal/config"
	applog "extrato/internal/log"
	"extrato/internal/sheets"
	"extrato/internal/sheets/google"
	"extrato/internal/worker"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred closes run before exit.
func run() int {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker, os.Stdout)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker, os.Stdout)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		return 1
	}

	res, err := cli.InitBackend(logger, cfg)
	if err != nil {
		return 1
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()

	if len(res.Caches) > 0 {
		janitor := cache.NewJanitor(res.Caches...)
		janitor.Start(time.Minute)
		defer janitor.Stop()
	}

	exporter := initExporter(logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPResultQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		return 1
	}
	defer amqpClient.Close()

	agg := cli.NewAggregator(cfg, res)
	loadWorker := worker.NewLoadWorker(agg, res.Items, amqpClient, exporter, agg.Year, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Starting extrato worker",
		applog.FieldOperation, applog.OpStartup,
		"queue", cfg.AMQPQueue,
		"result_queue", cfg.AMQPResultQueue,
		"sheets_enabled", exporter != nil)

	if err := amqpClient.ConsumeLoadRequests(ctx, loadWorker.HandleLoadRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		return 1
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully", applog.FieldOperation, applog.OpShutdown)
	return 0
}

// initExporter returns nil when the export is not configured or the client
// cannot be built; requests asking for an export then report it as an error.
func initExporter(logger *applog.Logger, cfg *config.Config) sheets.StatementExporter {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export not configured")
		return nil
	}
	client, err := google.New(context.Background(), google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetPrefix:     cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Warn("Failed to initialize Google Sheets client, continuing without export", applog.FieldError, err)
		return nil
	}
	logger.Info("Initialized Google Sheets export", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}
