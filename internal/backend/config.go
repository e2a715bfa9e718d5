package backend

import (
	"fmt"
	"time"

	"extrato/internal/config"
)

// Config holds configuration for backend creation.
type Config struct {
	Pluggy             PluggyType
	PluggyBaseURL      string
	PluggyClientID     string
	PluggyClientSecret string
	PluggyTimeout      time.Duration
	PluggyFixtureFile  string
	AccountsCacheTTL   time.Duration

	Registry     RegistryType
	SQLiteDBPath string
	BadgerDir    string
	ItemIDs      string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Pluggy:             PluggyType(appConfig.PluggyBackend),
		PluggyBaseURL:      appConfig.PluggyBaseURL,
		PluggyClientID:     appConfig.PluggyClientID,
		PluggyClientSecret: appConfig.PluggyClientSecret,
		PluggyTimeout:      appConfig.PluggyTimeout,
		PluggyFixtureFile:  appConfig.PluggyFixtureFile,
		AccountsCacheTTL:   appConfig.AccountsCacheTTL,

		Registry:     RegistryType(appConfig.RegistryBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		BadgerDir:    appConfig.BadgerDir,
		ItemIDs:      appConfig.ItemIDs,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Pluggy.IsValid() {
		return fmt.Errorf("invalid pluggy backend: %s", c.Pluggy)
	}
	if !c.Registry.IsValid() {
		return fmt.Errorf("invalid registry backend: %s", c.Registry)
	}

	if c.Pluggy == PluggyAPI && (c.PluggyClientID == "" || c.PluggyClientSecret == "") {
		return fmt.Errorf("pluggy client credentials are required for the api backend")
	}

	switch c.Registry {
	case RegistrySQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite registry")
		}
	case RegistryBadger:
		// An empty directory opens an in-memory database.
	case RegistryEnv:
		// ITEM_IDS may be empty; it decodes to no items.
	}

	return nil
}

// GetRegistryTypes returns all valid registry types
func GetRegistryTypes() []RegistryType {
	return []RegistryType{RegistrySQLite, RegistryBadger, RegistryEnv}
}
