// Package testutil provides shared test helpers for setting up template
// folders and preset stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/presets"
	"github.com/starford/ansuz/internal/storage"
)

// TestPresetStore creates a temporary SQLite preset store that is
// automatically cleaned up.
func TestPresetStore(t *testing.T) *presets.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := presets.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestVault creates a temporary root directory with an FS provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	fsys, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, fsys
}

// WriteTemplate writes a template file under root, creating parent
// directories as needed.
func WriteTemplate(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
