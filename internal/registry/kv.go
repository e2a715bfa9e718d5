package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"extrato/internal/core"
)

// KVRegistry stores the item list in a KeyValueStore.
type KVRegistry struct {
	store KeyValueStore
	name  string
}

var _ ItemManager = (*KVRegistry)(nil)

// NewKVRegistry wraps store; name only labels log lines.
func NewKVRegistry(store KeyValueStore, name string) *KVRegistry {
	return &KVRegistry{store: store, name: name}
}

func (r *KVRegistry) ItemIDs(ctx context.Context) ([]string, error) {
	raw, found, err := r.store.GetValue(ctx, ItemsStorageKey)
	if err != nil {
		return nil, fmt.Errorf("read item list: %w", err)
	}
	if !found {
		return []string{}, nil
	}
	return decodeLogged(ctx, r.name, raw), nil
}

// SetItemIDs replaces the stored list.
func (r *KVRegistry) SetItemIDs(ctx context.Context, ids []string) error {
	raw, err := EncodeItemIDs(ids)
	if err != nil {
		return err
	}
	if err := r.store.SetValue(ctx, ItemsStorageKey, raw); err != nil {
		return fmt.Errorf("write item list: %w", err)
	}
	return nil
}

// AddItem appends id unless it is already linked.
func (r *KVRegistry) AddItem(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.ErrEmptyItemID
	}
	ids, err := r.ItemIDs(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return r.SetItemIDs(ctx, append(ids, id))
}

// RemoveItem unlinks id; unknown ids are ignored.
func (r *KVRegistry) RemoveItem(ctx context.Context, id string) error {
	ids, err := r.ItemIDs(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(ids, func(v string) bool { return v == id })
	return r.SetItemIDs(ctx, kept)
}
