// Package backend builds the aggregation API adapter and the item registry
// selected by configuration.
package backend

import (
	"errors"
	"fmt"
	"log/slog"

	"extrato/internal/pluggy"
	"extrato/internal/pluggy/memory"
	"extrato/internal/registry"
	"extrato/internal/storage"
)

// Factory creates backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds both collaborators. On error nothing is left open.
func (f *Factory) Create(config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	if err := f.createPluggy(config, result); err != nil {
		return nil, err
	}
	if err := f.createRegistry(config, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Factory) createPluggy(config Config, result *Result) error {
	switch config.Pluggy {
	case PluggyAPI:
		client, err := pluggy.NewClient(pluggy.ClientConfig{
			BaseURL:      config.PluggyBaseURL,
			ClientID:     config.PluggyClientID,
			ClientSecret: config.PluggyClientSecret,
			Timeout:      config.PluggyTimeout,
			AccountsTTL:  config.AccountsCacheTTL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Pluggy client: %w", err)
		}
		result.Pluggy = client
		result.Caches = client.Caches()
		f.logger.Info("Initialized Pluggy API backend",
			"base_url", config.PluggyBaseURL,
			"accounts_ttl", config.AccountsCacheTTL)

	case PluggyFixture:
		if config.PluggyFixtureFile == "" {
			result.Pluggy = memory.New()
			f.logger.Info("Initialized empty Pluggy fixture backend")
			return nil
		}
		store, err := memory.NewFromFile(config.PluggyFixtureFile)
		if err != nil {
			return fmt.Errorf("failed to load Pluggy fixture: %w", err)
		}
		result.Pluggy = store
		f.logger.Info("Initialized Pluggy fixture backend", "file", config.PluggyFixtureFile)

	default:
		return fmt.Errorf("unsupported pluggy backend: %s", config.Pluggy)
	}
	return nil
}

func (f *Factory) createRegistry(config Config, result *Result) error {
	switch config.Registry {
	case RegistrySQLite:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		kv := registry.NewKVRegistry(repo, "sqlite")
		result.Items, result.Manager = kv, kv
		result.Cleanup = repo.Close
		f.logger.Info("Initialized SQLite item registry", "db_path", config.SQLiteDBPath)

	case RegistryBadger:
		store, err := registry.OpenBadger(config.BadgerDir)
		if err != nil {
			return fmt.Errorf("failed to initialize Badger store: %w", err)
		}
		kv := registry.NewKVRegistry(store, "badger")
		result.Items, result.Manager = kv, kv
		result.Cleanup = store.Close
		f.logger.Info("Initialized Badger item registry",
			"dir", config.BadgerDir,
			"in_memory", config.BadgerDir == "")

	case RegistryEnv:
		result.Items = registry.NewStatic(config.ItemIDs)
		f.logger.Info("Initialized read-only item registry from ITEM_IDS")

	default:
		return errors.New("unsupported registry backend: " + config.Registry.String())
	}
	return nil
}
