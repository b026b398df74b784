package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/ngmaloney/port-navigator/internal/config"
	"github.com/ngmaloney/port-navigator/internal/database"
	"github.com/ngmaloney/port-navigator/internal/destinations"
	"github.com/ngmaloney/port-navigator/internal/emergency"
	"github.com/ngmaloney/port-navigator/internal/geocoding"
	"github.com/ngmaloney/port-navigator/internal/logging"
	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/ngmaloney/port-navigator/internal/navigation"
	"github.com/ngmaloney/port-navigator/internal/portlookup"
	"github.com/ngmaloney/port-navigator/internal/position"
	"github.com/ngmaloney/port-navigator/internal/predict"
	"github.com/ngmaloney/port-navigator/internal/routing"
	"github.com/ngmaloney/port-navigator/internal/traffic"
	"github.com/ngmaloney/port-navigator/internal/ui"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "Path to a YAML config file")
	dest := flag.String("dest", "", "Destination to navigate to directly (place name, or \"default\" for Cochin Port)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Printf("Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg, logger, *dest); err != nil {
		logger.WithError(err).Error("Exiting")
		fmt.Printf("Error: %v\n", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Logger, destQuery string) error {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ports := portlookup.NewStore(db, logger)
	if n, err := ports.SeedDefaults(); err != nil {
		logger.WithError(err).Warn("Seeding port gates failed")
	} else if n > 0 {
		logger.WithField("count", n).Info("Seeded port gates")
	}
	if cfg.Ports.Shapefile != "" {
		if n, err := ports.ImportShapefile(cfg.Ports.Shapefile); err != nil {
			logger.WithError(err).WithField("path", cfg.Ports.Shapefile).Warn("Port shapefile import failed")
		} else {
			logger.WithField("count", n).Info("Imported port gates from shapefile")
		}
	}

	geocoder := geocoding.NewGeocoder(cfg.Geocoding.URL)

	services := ui.Services{
		Config:     cfg,
		Logger:     logger,
		Geocoder:   geocoder,
		Router:     routing.NewClient(cfg.Routing.URL),
		Traffic:    traffic.NewClient(cfg.Traffic.URL, cfg.Traffic.APIKey),
		Ports:      ports,
		Recents:    destinations.NewRepository(db),
		Dispatcher: emergency.NewOpenerDispatcher(),
		Speaker:    speaker(cfg, logger),
		TruckID:    uuid.NewString(),
	}
	if cfg.PredictionsEnabled() {
		services.Predictor = predict.NewClient(cfg.Backend.URL)
	}
	if cfg.GPS.Enabled {
		services.Watcher = position.NewGPSD(cfg.GPS.GPSDAddr, logger)
	}

	if destQuery != "" {
		d, err := resolveDestination(geocoder, destQuery)
		if err != nil {
			return err
		}
		services.Destination = d
	}

	logger.WithFields(logrus.Fields{
		"truck_id":    services.TruckID,
		"predictions": cfg.PredictionsEnabled(),
		"traffic":     cfg.TrafficEnabled(),
		"gps":         cfg.GPS.Enabled,
	}).Info("Starting port navigator")

	p := tea.NewProgram(ui.NewModel(services), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if m, ok := final.(ui.Model); ok {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func speaker(cfg *config.Config, logger logrus.FieldLogger) navigation.Speaker {
	if cfg.Speech.Command == "" {
		return navigation.NopSpeaker{}
	}
	s, err := navigation.NewCommandSpeaker(cfg.Speech.Command)
	if err != nil {
		logger.WithError(err).Warn("Speech disabled")
		return navigation.NopSpeaker{}
	}
	return s
}

func resolveDestination(geocoder *geocoding.Geocoder, query string) (*models.Destination, error) {
	if query == "default" {
		d := models.DefaultDestination
		return &d, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	place, err := geocoder.Geocode(ctx, query)
	if errors.Is(err, geocoding.ErrNotFound) {
		return nil, errors.New(geocoding.NotFoundMessage(query))
	}
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}
	d := place.Destination()
	return &d, nil
}
