package portlookup

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/sirupsen/logrus"
)

// World Port Index attribute names
const (
	fieldPortName = "PORT_NAME"
	fieldCountry  = "COUNTRY"
)

// ImportShapefile loads Indian ports from a World Port Index point shapefile.
// Attributes are located by field name since WPI releases reorder columns.
// It returns the number of gates saved.
func (s *Store) ImportShapefile(path string) (int, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	nameIdx, countryIdx := -1, -1
	for i, f := range shape.Fields() {
		switch strings.ToUpper(strings.TrimSpace(f.String())) {
		case fieldPortName:
			nameIdx = i
		case fieldCountry:
			countryIdx = i
		}
	}
	if nameIdx < 0 || countryIdx < 0 {
		return 0, fmt.Errorf("shapefile %s lacks %s/%s attributes", path, fieldPortName, fieldCountry)
	}

	count, skipped := 0, 0
	for shape.Next() {
		n, p := shape.Shape()

		point, ok := p.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		country := strings.TrimSpace(shape.ReadAttribute(n, countryIdx))
		if !isIndia(country) {
			continue
		}
		name := strings.TrimSpace(shape.ReadAttribute(n, nameIdx))
		if name == "" {
			skipped++
			continue
		}

		g := Gate{Name: name, Country: "IN", Location: models.Coordinate{Lat: point.Y, Lon: point.X}}
		if err := s.Upsert(g); err != nil {
			s.logger.WithError(err).WithField("port", name).Warn("Skipping port")
			skipped++
			continue
		}
		count++
	}
	if err := shape.Err(); err != nil {
		return count, fmt.Errorf("reading shapefile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"path": path, "imported": count, "skipped": skipped}).Info("Imported port gates")
	return count, nil
}

func isIndia(country string) bool {
	return strings.EqualFold(country, "IN") || strings.EqualFold(country, "India")
}
