package storage

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	var name string
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'submissions'`).Scan(&name); err != nil {
		t.Fatalf("submissions table missing: %v", err)
	}

	// Opening twice must not fail on the existing schema.
	again, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	again.Close()
}
