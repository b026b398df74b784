package position

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultGPSDAddr is where gpsd listens by default
const DefaultGPSDAddr = "localhost:2947"

const watchCommand = `?WATCH={"enable":true,"json":true};` + "\n"

// GPSD watches positions from a gpsd daemon over its JSON protocol
type GPSD struct {
	addr        string
	dialTimeout time.Duration
	logger      logrus.FieldLogger
}

// NewGPSD creates a watcher for the gpsd daemon at addr
func NewGPSD(addr string, logger logrus.FieldLogger) *GPSD {
	if addr == "" {
		addr = DefaultGPSDAddr
	}
	return &GPSD{
		addr:        addr,
		dialTimeout: 5 * time.Second,
		logger:      logger,
	}
}

// tpvReport is a gpsd time-position-velocity report. Optional fields are pointers.
type tpvReport struct {
	Class string   `json:"class"`
	Mode  int      `json:"mode"` // 0/1 no fix, 2 = 2D, 3 = 3D
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Speed *float64 `json:"speed"` // m/s
	Track *float64 `json:"track"` // degrees from true north
}

// Watch streams fixes until ctx is cancelled or the connection drops
func (g *GPSD) Watch(ctx context.Context) (<-chan models.Position, <-chan error) {
	fixes := make(chan models.Position)
	errs := make(chan error, 1)

	go func() {
		defer close(fixes)
		defer close(errs)

		if err := g.watch(ctx, fixes); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()

	return fixes, errs
}

func (g *GPSD) watch(ctx context.Context, fixes chan<- models.Position) error {
	dialer := net.Dialer{Timeout: g.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", g.addr)
	if err != nil {
		return fmt.Errorf("connecting to gpsd: %w", err)
	}
	defer conn.Close()
	g.logger.WithField("addr", g.addr).Info("connected to gpsd")

	// Unblock the scanner when the caller goes away
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := conn.Write([]byte(watchCommand)); err != nil {
		return fmt.Errorf("sending watch command: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		p, ok := parseTPV(scanner.Bytes())
		if !ok {
			continue
		}
		select {
		case fixes <- p:
		case <-ctx.Done():
			return nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reading from gpsd: %w", err)
	}
	if ctx.Err() == nil {
		return fmt.Errorf("gpsd closed the connection")
	}
	return nil
}

// parseTPV turns a gpsd line into a position when it's a TPV report with a fix
func parseTPV(line []byte) (models.Position, bool) {
	var r tpvReport
	if err := json.Unmarshal(line, &r); err != nil {
		return models.Position{}, false
	}
	if r.Class != "TPV" || r.Mode < 2 || r.Lat == nil || r.Lon == nil {
		return models.Position{}, false
	}

	p := models.Position{
		Coordinate: models.Coordinate{Lat: *r.Lat, Lon: *r.Lon},
		Source:     models.SourceGPS,
	}
	if r.Speed != nil {
		p.Speed = models.Float(*r.Speed * 3.6)
	}
	if r.Track != nil {
		p.Heading = models.Float(*r.Track)
	}
	return p, true
}
