package backend

import (
	"extrato/internal/cache"
	"extrato/internal/pluggy"
	"extrato/internal/registry"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result holds the collaborators a statement load needs.
type Result struct {
	Pluggy pluggy.Service
	// Caches lists the caches a janitor should sweep; empty for fixtures.
	Caches []cache.Cleaner

	Items registry.ItemRegistry
	// Manager is nil when the registry is read-only.
	Manager registry.ItemManager

	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// PluggyType selects the aggregation API adapter.
type PluggyType string

const (
	PluggyAPI     PluggyType = "api"
	PluggyFixture PluggyType = "fixture"
)

func (t PluggyType) String() string {
	return string(t)
}

func (t PluggyType) IsValid() bool {
	switch t {
	case PluggyAPI, PluggyFixture:
		return true
	default:
		return false
	}
}

// RegistryType selects where the item list is stored.
type RegistryType string

const (
	RegistrySQLite RegistryType = "sqlite"
	RegistryBadger RegistryType = "badger"
	RegistryEnv    RegistryType = "env"
)

func (t RegistryType) String() string {
	return string(t)
}

func (t RegistryType) IsValid() bool {
	switch t {
	case RegistrySQLite, RegistryBadger, RegistryEnv:
		return true
	default:
		return false
	}
}
