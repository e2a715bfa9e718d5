// Package cli provides common initialization shared by cmd/extrato,
// cmd/extrato-api and cmd/extrato-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"extrato/internal/backend"
	"extrato/internal/config"
	applog "extrato/internal/log"
	"extrato/internal/services"
)

// SetupLogger builds the component logger for a binary at the given
// LOG_LEVEL and installs it as the slog default.
func SetupLogger(level, component string, out io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = component
	if out != nil {
		cfg.Output = out
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the Pluggy adapter and item registry. Failures are
// logged and returned; callers exit after their deferred cleanup ran.
func InitBackend(logger *applog.Logger, cfg *config.Config) (*backend.Result, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).Create(bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err,
			"pluggy_backend", cfg.PluggyBackend,
			"registry_backend", cfg.RegistryBackend)
		return nil, err
	}
	return res, nil
}

// NewAggregator applies the statement settings of cfg.
func NewAggregator(cfg *config.Config, res *backend.Result) *services.Aggregator {
	aggCfg := services.DefaultAggregatorConfig()
	aggCfg.Location = cfg.Location()
	aggCfg.MaxParallel = cfg.MaxParallel
	return services.NewAggregator(res.Pluggy, res.Pluggy, aggCfg)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

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
