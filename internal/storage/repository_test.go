package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "extrato.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_KeyValue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.GetValue(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetValue(missing) = ok %v, err %v", ok, err)
	}

	if err := repo.SetValue(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := repo.SetValue(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetValue overwrite: %v", err)
	}

	got, ok, err := repo.GetValue(ctx, "k")
	if err != nil || !ok || got != "v2" {
		t.Fatalf("GetValue(k) = %q, %v, %v; want v2", got, ok, err)
	}

	if err := repo.DeleteValue(ctx, "k"); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	if _, ok, _ := repo.GetValue(ctx, "k"); ok {
		t.Fatal("value still present after delete")
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extrato.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
