package database

import (
	"path/filepath"
	"testing"
)

func TestDefaultPath(t *testing.T) {
	expected := filepath.Join("data", "port-navigator.db")
	if got := DefaultPath(); got != expected {
		t.Errorf("DefaultPath() = %v, want %v", got, expected)
	}
}

func TestOpen_CreatesDirectoryAndSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	for _, table := range []string{"port_gates", "destinations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestEnsureSchema_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_, err = db.Exec(`INSERT INTO destinations (label, latitude, longitude) VALUES ('Gate A', 9.9667, 76.2667)`)
	db.Close()
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	// Reopening runs the schema again and must not drop data
	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer db.Close()
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM destinations WHERE label = 'Gate A'").Scan(&count); err != nil {
		t.Fatalf("Failed to query record: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record, got %d. Data was likely lost due to table drop.", count)
	}
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO port_gates (name, latitude, longitude) VALUES ('Cochin Port', 9.9667, 76.2667)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	db.QueryRow("SELECT COUNT(*) FROM port_gates").Scan(&n)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
