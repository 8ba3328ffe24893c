// Package testutil provides shared test helpers for setting up content
// directories and index databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/casefolio/internal/index"
	"github.com/starford/casefolio/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "casefolio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContent creates a temporary content directory with a storage.Provider.
func TestContent(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteCase writes a case document named slug+".mdx" into dir.
func WriteCase(t *testing.T, dir, slug, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, slug+storage.DefaultExtension), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
