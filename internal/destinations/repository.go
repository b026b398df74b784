// Package destinations remembers recently navigated destinations.
package destinations

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
)

// DefaultRecentLimit is how many recents the search screen shows
const DefaultRecentLimit = 8

// Entry is a saved destination
type Entry struct {
	ID int64
	models.Destination
	LastUsed time.Time
}

// Repository handles persistence for recent destinations
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a repository over an open database whose schema is in place
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Record saves dest as the most recently used, keyed by label
func (r *Repository) Record(dest models.Destination) error {
	label := strings.TrimSpace(dest.Label)
	if label == "" {
		return fmt.Errorf("destination needs a label")
	}

	query := `
		INSERT INTO destinations (label, latitude, longitude, last_used)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(label) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			last_used = excluded.last_used
	`
	if _, err := r.db.Exec(query, label, dest.Lat, dest.Lon, r.now().UTC()); err != nil {
		return fmt.Errorf("saving destination: %w", err)
	}
	return nil
}

// Recent lists saved destinations, most recently used first
func (r *Repository) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := r.db.Query(`
		SELECT id, label, latitude, longitude, last_used
		FROM destinations
		ORDER BY last_used DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying destinations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Label, &e.Lat, &e.Lon, &e.LastUsed); err != nil {
			return nil, fmt.Errorf("scanning destination: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a destination by label
func (r *Repository) Delete(label string) error {
	res, err := r.db.Exec("DELETE FROM destinations WHERE label = ?", label)
	if err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("destination not found: %s", label)
	}
	return nil
}
