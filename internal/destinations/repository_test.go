package destinations

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ngmaloney/port-navigator/internal/database"
	"github.com/ngmaloney/port-navigator/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "dest.db"))
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	r := NewRepository(db)
	r.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return r
}

func dest(label string, lat, lon float64) models.Destination {
	return models.Destination{Coordinate: models.Coordinate{Lat: lat, Lon: lon}, Label: label}
}

func TestRepository_RecordAndRecent(t *testing.T) {
	r := newTestRepo(t)

	for _, d := range []models.Destination{
		dest("Chennai, Tamil Nadu, India", 13.0827, 80.2707),
		dest("Gate A – Cochin Port", 9.9667, 76.2667),
		dest("Visakhapatnam, Andhra Pradesh, India", 17.6868, 83.2185),
	} {
		if err := r.Record(d); err != nil {
			t.Fatalf("Record(%s) error = %v", d.Label, err)
		}
	}

	entries, err := r.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Label != "Visakhapatnam, Andhra Pradesh, India" {
		t.Errorf("newest = %s", entries[0].Label)
	}

	// Using Chennai again moves it to the top without duplicating
	if err := r.Record(dest("Chennai, Tamil Nadu, India", 13.0827, 80.2707)); err != nil {
		t.Fatal(err)
	}
	entries, _ = r.Recent(10)
	if len(entries) != 3 {
		t.Fatalf("got %d entries after re-record, want 3", len(entries))
	}
	if entries[0].Label != "Chennai, Tamil Nadu, India" || entries[0].Lat != 13.0827 {
		t.Errorf("newest after re-record = %+v", entries[0])
	}
}

func TestRepository_RecentLimit(t *testing.T) {
	r := newTestRepo(t)
	for i := 0; i < DefaultRecentLimit+3; i++ {
		r.Record(dest(string(rune('A'+i)), float64(i), 0))
	}

	entries, err := r.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != DefaultRecentLimit {
		t.Errorf("Recent(0) returned %d, want default %d", len(entries), DefaultRecentLimit)
	}

	entries, _ = r.Recent(2)
	if len(entries) != 2 {
		t.Errorf("Recent(2) returned %d", len(entries))
	}
}

func TestRepository_RecordValidation(t *testing.T) {
	r := newTestRepo(t)
	if err := r.Record(dest("   ", 1, 2)); err == nil {
		t.Error("expected error for empty label")
	}
}

func TestRepository_Delete(t *testing.T) {
	r := newTestRepo(t)
	r.Record(dest("Kochi", 9.93, 76.26))

	if err := r.Delete("Kochi"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := r.Delete("Kochi"); err == nil {
		t.Error("expected error deleting a missing destination")
	}

	entries, _ := r.Recent(10)
	if len(entries) != 0 {
		t.Errorf("entries after delete = %v", entries)
	}
}
