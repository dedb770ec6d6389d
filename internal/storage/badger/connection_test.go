package badger

import (
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studeo/internal/common"
)

func TestNewBadgerDB_OpenAndClose(t *testing.T) {
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "studeo"),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if db.Store() == nil {
		t.Fatal("Expected underlying store")
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	// Second close must not panic on the stopped GC loop
	db.Close()
}

func TestNewBadgerDB_ResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studeo")
	config := &common.BadgerConfig{Path: path, ResetOnStartup: true}

	db, err := NewBadgerDB(arbor.NewLogger(), config)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.store.Upsert("key", &scratchRecord{V: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = NewBadgerDB(arbor.NewLogger(), config)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	var out scratchRecord
	if err := db.store.Get("key", &out); err == nil {
		t.Error("Expected record removed by reset_on_startup")
	}
}

type scratchRecord struct {
	V int
}
