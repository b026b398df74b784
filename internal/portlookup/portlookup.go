// Package portlookup finds the port gate nearest to the vehicle, which names
// the port sent with congestion predictions.
package portlookup

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPortName is used when no gate is close enough
	DefaultPortName = "Cochin Port"

	// DefaultRadiusKm bounds the nearest-gate search
	DefaultRadiusKm = 150.0
)

// ErrNoPort is returned when no gate lies within the search radius
var ErrNoPort = errors.New("no port gate nearby")

// Gate is a port entry point
type Gate struct {
	Name     string
	Country  string
	Location models.Coordinate
	Distance float64 // km from the query point; 0 when not from a search
}

// Major Indian port gates used when the table is empty
var seedGates = []Gate{
	{Name: "Cochin Port", Location: models.Coordinate{Lat: 9.9667, Lon: 76.2667}},
	{Name: "Vizhinjam Port", Location: models.Coordinate{Lat: 8.3790, Lon: 76.9960}},
	{Name: "New Mangalore Port", Location: models.Coordinate{Lat: 12.9260, Lon: 74.8130}},
	{Name: "Mormugao Port", Location: models.Coordinate{Lat: 15.4167, Lon: 73.8000}},
	{Name: "Mumbai Port", Location: models.Coordinate{Lat: 18.9388, Lon: 72.8354}},
	{Name: "Jawaharlal Nehru Port", Location: models.Coordinate{Lat: 18.9490, Lon: 72.9519}},
	{Name: "Deendayal Port", Location: models.Coordinate{Lat: 23.0333, Lon: 70.2167}},
	{Name: "V.O. Chidambaranar Port", Location: models.Coordinate{Lat: 8.7642, Lon: 78.1348}},
	{Name: "Chennai Port", Location: models.Coordinate{Lat: 13.0950, Lon: 80.2920}},
	{Name: "Kamarajar Port", Location: models.Coordinate{Lat: 13.2550, Lon: 80.3300}},
	{Name: "Visakhapatnam Port", Location: models.Coordinate{Lat: 17.6868, Lon: 83.2185}},
	{Name: "Paradip Port", Location: models.Coordinate{Lat: 20.2648, Lon: 86.6090}},
	{Name: "Haldia Dock", Location: models.Coordinate{Lat: 22.0257, Lon: 88.0583}},
	{Name: "Kolkata Port", Location: models.Coordinate{Lat: 22.5460, Lon: 88.3140}},
}

// Store reads and writes the port_gates table
type Store struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

// NewStore wraps an open database whose schema is in place
func NewStore(db *sql.DB, logger logrus.FieldLogger) *Store {
	return &Store{db: db, logger: logger}
}

// SeedDefaults fills an empty table with the built-in gates. It returns how
// many were inserted.
func (s *Store) SeedDefaults() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM port_gates").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting port gates: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	for _, g := range seedGates {
		g.Country = "IN"
		if err := s.Upsert(g); err != nil {
			return inserted, err
		}
		inserted++
	}
	s.logger.WithField("count", inserted).Info("Seeded port gates")
	return inserted, nil
}

// Upsert saves a gate, replacing any gate with the same name
func (s *Store) Upsert(g Gate) error {
	if g.Country == "" {
		g.Country = "IN"
	}
	_, err := s.db.Exec(`
		INSERT INTO port_gates (name, country, latitude, longitude)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`, g.Name, g.Country, g.Location.Lat, g.Location.Lon)
	if err != nil {
		return fmt.Errorf("saving port gate %s: %w", g.Name, err)
	}
	return nil
}

// Count returns the number of stored gates
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM port_gates").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting port gates: %w", err)
	}
	return n, nil
}

// Nearby lists gates within maxKm of the point, closest first
func (s *Store) Nearby(lat, lon, maxKm float64) ([]Gate, error) {
	// Rough bounding box first; one degree of latitude is ~111 km
	latDelta := maxKm / 111.0 * 1.5
	lonDelta := maxKm / (111.0 * math.Max(math.Cos(lat*math.Pi/180), 0.01)) * 1.5

	rows, err := s.db.Query(`
		SELECT name, country, latitude, longitude
		FROM port_gates
		WHERE latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
	`, lat-latDelta, lat+latDelta, lon-lonDelta, lon+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("querying port gates: %w", err)
	}
	defer rows.Close()

	var gates []Gate
	for rows.Next() {
		var g Gate
		if err := rows.Scan(&g.Name, &g.Country, &g.Location.Lat, &g.Location.Lon); err != nil {
			continue
		}
		g.Distance = HaversineKm(lat, lon, g.Location.Lat, g.Location.Lon)
		if g.Distance <= maxKm {
			gates = append(gates, g)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading port gates: %w", err)
	}

	sort.Slice(gates, func(i, j int) bool {
		return gates[i].Distance < gates[j].Distance
	})
	return gates, nil
}

// Nearest returns the closest gate within maxKm, or ErrNoPort
func (s *Store) Nearest(lat, lon, maxKm float64) (*Gate, error) {
	gates, err := s.Nearby(lat, lon, maxKm)
	if err != nil {
		return nil, err
	}
	if len(gates) == 0 {
		return nil, ErrNoPort
	}
	return &gates[0], nil
}

// PortNameFor picks the port to predict for at pos, falling back to
// DefaultPortName when the lookup fails or nothing is close.
func (s *Store) PortNameFor(pos models.Coordinate) string {
	g, err := s.Nearest(pos.Lat, pos.Lon, DefaultRadiusKm)
	if err != nil {
		if !errors.Is(err, ErrNoPort) {
			s.logger.WithError(err).Warn("Port gate lookup failed")
		}
		return DefaultPortName
	}
	return g.Name
}

// HaversineKm is the great-circle distance between two points in kilometers
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
