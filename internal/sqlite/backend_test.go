package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/xvault/pkg/types"
)

func attach(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

func TestBackend_Attach(t *testing.T) {
	b, dir := attach(t)

	if _, err := os.Stat(filepath.Join(dir, DBFile)); os.IsNotExist(err) {
		t.Errorf("%s not created", DBFile)
	}
	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	if !errors.Is(err, types.ErrAlreadyAttached) {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
	if b.DataDir() != dir {
		t.Errorf("DataDir = %q, want %q", b.DataDir(), dir)
	}
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		want    error
	}{
		{"empty", "", types.ErrBackendEmpty},
		{"unknown", "postgres", types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackend().Attach(types.Config{Backend: tt.backend, DataDir: t.TempDir()})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	b, _ := attach(t)

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach failed: %v", err)
	}

	ctx := context.Background()
	if _, err := b.LoadState(ctx); !errors.Is(err, types.ErrStoreDetached) {
		t.Errorf("LoadState: expected ErrStoreDetached, got %v", err)
	}
	if err := b.SaveDeployment(ctx, types.Deployment{Name: "x"}); !errors.Is(err, types.ErrStoreDetached) {
		t.Errorf("SaveDeployment: expected ErrStoreDetached, got %v", err)
	}
	if _, err := b.Receipts(ctx, ReceiptFilter{}); !errors.Is(err, types.ErrStoreDetached) {
		t.Errorf("Receipts: expected ErrStoreDetached, got %v", err)
	}
}

func TestBackend_ReattachKeepsSchemaVersion(t *testing.T) {
	b, dir := attach(t)
	if err := b.Detach(); err != nil {
		t.Fatal(err)
	}
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("reattach failed: %v", err)
	}
	var version string
	err := b.read(func(db *sql.DB) error {
		return db.QueryRow("SELECT value FROM meta WHERE key = ?", metaSchemaVersion).Scan(&version)
	})
	if err != nil || version != schemaVersion {
		t.Errorf("schema version = %q (%v), want %q", version, err, schemaVersion)
	}
}

func TestBackend_RejectsUnknownSchemaVersion(t *testing.T) {
	b, dir := attach(t)
	err := b.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE meta SET value = '99' WHERE key = ?", metaSchemaVersion)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	b.Detach()

	err = NewBackend().Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	if !errors.Is(err, ErrSchemaVersion) {
		t.Errorf("expected ErrSchemaVersion, got %v", err)
	}
}
