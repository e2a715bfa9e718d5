package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"extrato/internal/cache"
	"extrato/internal/cli"
	apphttp "extrato/internal/http"
	applog "extrato/internal/log"
	"extrato/internal/services"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred closes run before exit.
func run() int {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp, os.Stdout)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp, os.Stdout)

	res, err := cli.InitBackend(logger, cfg)
	if err != nil {
		return 1
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", applog.FieldError, err)
		}
	}()

	var janitor *cache.Janitor
	if len(res.Caches) > 0 {
		janitor = cache.NewJanitor(res.Caches...)
		janitor.Start(time.Minute)
	}

	agg := cli.NewAggregator(cfg, res)
	view := services.NewMonthView(agg, res.Items, time.Now().In(cfg.Location()).Month(), agg.Year)
	view.OnSettled(func(s services.ViewState) {
		if s.Err != nil {
			logger.Warn("Statement load failed",
				applog.FieldSeq, s.Seq,
				applog.FieldMonth, int(s.Month),
				applog.FieldError, s.Err)
			return
		}
		logger.Info("Statement loaded",
			applog.FieldSeq, s.Seq,
			applog.FieldMonth, int(s.Month),
			applog.FieldCount, len(s.Statement.Transactions))
	})

	srv := apphttp.NewServer(":"+cfg.Port, view, res.Manager, logger.WithComponent(applog.ComponentHTTP))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		view.Close()
		if janitor != nil {
			janitor.Stop()
		}
	})

	// Initial load of the current month, like opening the screen.
	view.RefreshAsync(context.Background())

	logger.Info("Starting extrato API",
		"port", cfg.Port,
		"pluggy_backend", cfg.PluggyBackend,
		"registry_backend", cfg.RegistryBackend,
		"items_writable", res.Manager != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		return 1
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return 0
}
