// Package registry holds the list of linked item identifiers.
//
// The list is persisted as a JSON array of strings under ItemsStorageKey in a
// key-value store. A stored value that cannot be decoded is treated as an
// empty list so a corrupted entry never blocks a statement load.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	applog "extrato/internal/log"
)

// ItemsStorageKey is the key the item list is stored under.
const ItemsStorageKey = "@pluggy:items"

// ItemRegistry supplies the item identifiers a load iterates over.
type ItemRegistry interface {
	ItemIDs(ctx context.Context) ([]string, error)
}

// ItemManager is a registry whose list can be edited.
type ItemManager interface {
	ItemRegistry
	AddItem(ctx context.Context, id string) error
	RemoveItem(ctx context.Context, id string) error
}

// KeyValueStore is the persistence port behind KVRegistry.
type KeyValueStore interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// DecodeItemIDs parses a stored item list. Empty, malformed or non-string
// content yields an empty list and ok=false. Blank entries are dropped.
func DecodeItemIDs(raw string) (ids []string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, true
	}
	var decoded []string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return []string{}, false
	}
	ids = make([]string, 0, len(decoded))
	for _, id := range decoded {
		if strings.TrimSpace(id) == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, true
}

// EncodeItemIDs serialises ids in the stored format.
func EncodeItemIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode item ids: %w", err)
	}
	return string(b), nil
}

func decodeLogged(ctx context.Context, source, raw string) []string {
	ids, ok := DecodeItemIDs(raw)
	if !ok {
		applog.ForComponent(applog.ComponentRegistry).WarnContext(ctx, "Stored item list is malformed, using an empty list",
			"source", source,
			"key", ItemsStorageKey,
			"size", len(raw))
	}
	return ids
}
