package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime settings
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Traffic   TrafficConfig   `mapstructure:"traffic"`
	GPS       GPSConfig       `mapstructure:"gps"`
	Poll      PollConfig      `mapstructure:"poll"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Emergency EmergencyConfig `mapstructure:"emergency"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ports     PortsConfig     `mapstructure:"ports"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type BackendConfig struct {
	URL          string `mapstructure:"url"` // empty disables predictions
	TruckDensity int    `mapstructure:"truck_density"`
}

type RoutingConfig struct {
	URL      string        `mapstructure:"url"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type GeocodingConfig struct {
	URL             string        `mapstructure:"url"`
	SuggestDebounce time.Duration `mapstructure:"suggest_debounce"`
	SuggestLimit    int           `mapstructure:"suggest_limit"`
}

type TrafficConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"` // empty disables the overlay
}

type GPSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	GPSDAddr string `mapstructure:"gpsd_addr"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type SpeechConfig struct {
	Command string `mapstructure:"command"` // e.g. "espeak-ng" or "say"; empty mutes voice output
}

type EmergencyConfig struct {
	Phone     string        `mapstructure:"phone"`
	CallDelay time.Duration `mapstructure:"call_delay"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type PortsConfig struct {
	Shapefile string `mapstructure:"shapefile"` // optional World Port Index .shp to import
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// TrafficEnabled reports whether the optional traffic overlay can be used
func (c *Config) TrafficEnabled() bool {
	return c.Traffic.APIKey != ""
}

// PredictionsEnabled reports whether a backend is configured
func (c *Config) PredictionsEnabled() bool {
	return c.Backend.URL != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.truck_density", 120)
	v.SetDefault("routing.url", "https://router.project-osrm.org")
	v.SetDefault("routing.debounce", 300*time.Millisecond)
	v.SetDefault("geocoding.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.suggest_debounce", 400*time.Millisecond)
	v.SetDefault("geocoding.suggest_limit", 6)
	v.SetDefault("traffic.url", "https://api.tomtom.com")
	v.SetDefault("traffic.api_key", "")
	v.SetDefault("gps.enabled", true)
	v.SetDefault("gps.gpsd_addr", "localhost:2947")
	v.SetDefault("poll.interval", 15*time.Second)
	v.SetDefault("speech.command", "")
	v.SetDefault("emergency.phone", "8848932872")
	v.SetDefault("emergency.call_delay", 500*time.Millisecond)
	v.SetDefault("database.path", filepath.Join("data", "port-navigator.db"))
	v.SetDefault("ports.shapefile", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "port-navigator.log")
}

// Load reads configuration from defaults, an optional YAML file, a .env file and
// PORTNAV_* environment variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("port-navigator")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PORTNAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// GetConfigPath returns the config file named by PORTNAV_CONFIG, or "" to search defaults
func GetConfigPath() string {
	return os.Getenv("PORTNAV_CONFIG")
}

// Default returns the built-in settings without reading files or the environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &cfg
}
