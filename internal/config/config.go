package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	GRPC    GRPCConfig    `envPrefix:"GRPC_"`
	Sources SourcesConfig
	Scoring ScoringConfig `envPrefix:"SCORE_"`
	Heatmap HeatmapConfig `envPrefix:"HEATMAP_"`
	DB      DatabaseConfig
	Logging LoggingConfig `envPrefix:"LOG_"`
	Tracing TracingConfig `envPrefix:"OTEL_"`
}

type ServerConfig struct {
	Host          string  `env:"HOST" envDefault:"localhost"`
	Port          int     `env:"PORT" envDefault:"8080"`
	RateLimit     int     `env:"RATE_LIMIT" envDefault:"5"`
	DefaultRadius float64 `env:"DEFAULT_RADIUS_KM" envDefault:"100"`
}

type GRPCConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"true"`
	Port    int  `env:"PORT" envDefault:"50051"`
}

type SourcesConfig struct {
	USGSEnabled      bool          `env:"USGS_ENABLED" envDefault:"true"`
	USGSURL          string        `env:"USGS_URL" envDefault:"https://earthquake.usgs.gov/fdsnws/event/1/query"`
	USGSMinMagnitude float64       `env:"USGS_MIN_MAGNITUDE" envDefault:"4.0"`
	USGSWindow       time.Duration `env:"USGS_WINDOW" envDefault:"720h"`

	OpenWeatherEnabled bool   `env:"OPENWEATHER_ENABLED" envDefault:"true"`
	OpenWeatherURL     string `env:"OPENWEATHER_URL" envDefault:"https://api.openweathermap.org/data/2.5"`
	OpenWeatherAPIKey  string `env:"OPENWEATHER_API_KEY"`
	CitiesPerRegion    int    `env:"WEATHER_CITIES_PER_REGION" envDefault:"20"`
	RegionWorkers      int    `env:"WEATHER_REGION_WORKERS" envDefault:"4"`

	EONETEnabled bool   `env:"EONET_ENABLED" envDefault:"true"`
	EONETURL     string `env:"EONET_URL" envDefault:"https://eonet.gsfc.nasa.gov/api/v3/events"`

	ReportsEnabled bool          `env:"REPORTS_ENABLED" envDefault:"true"`
	ReportsWindow  time.Duration `env:"REPORTS_WINDOW" envDefault:"168h"`

	SourceTimeout    time.Duration `env:"SOURCE_TIMEOUT" envDefault:"10s"`
	AggregateTimeout time.Duration `env:"AGGREGATE_TIMEOUT" envDefault:"15s"`
}

// ScoringConfig holds the safety score heuristics. The defaults are the
// historical values; nothing derives them.
type ScoringConfig struct {
	RadiusKm         float64 `env:"RADIUS_KM" envDefault:"200"`
	EarthquakeWeight float64 `env:"EARTHQUAKE_WEIGHT" envDefault:"0.4"`
	WeatherWeight    float64 `env:"WEATHER_WEIGHT" envDefault:"0.4"`
	LandslideWeight  float64 `env:"LANDSLIDE_WEIGHT" envDefault:"0.2"`
	EarthquakeFactor float64 `env:"EARTHQUAKE_FACTOR" envDefault:"10"`
	LandslideFactor  float64 `env:"LANDSLIDE_FACTOR" envDefault:"100"`
	WeatherPenalty   float64 `env:"WEATHER_PENALTY" envDefault:"15"`
}

type HeatmapConfig struct {
	DefaultRadius  float64 `env:"DEFAULT_RADIUS_KM" envDefault:"500"`
	LatStep        float64 `env:"LAT_STEP" envDefault:"0.5"`
	Noise          float64 `env:"NOISE" envDefault:"15"`
	MaxCells       int     `env:"MAX_CELLS" envDefault:"10000"`
	Mode           string  `env:"MODE" envDefault:"noise"`
	KernelRadiusKm float64 `env:"KERNEL_RADIUS_KM" envDefault:"100"`
	Seed           uint64  `env:"SEED" envDefault:"0"`
}

type DatabaseConfig struct {
	Path string `env:"DB_PATH" envDefault:"./data/resqmap.db"`
}

type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type TracingConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Endpoint string `env:"ENDPOINT"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}
	if c.Server.DefaultRadius <= 0 {
		return fmt.Errorf("default search radius must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Sources.SourceTimeout <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}
	if c.Sources.AggregateTimeout < c.Sources.SourceTimeout {
		return fmt.Errorf("aggregate timeout (%s) must not be shorter than source timeout (%s)",
			c.Sources.AggregateTimeout, c.Sources.SourceTimeout)
	}
	if c.Sources.USGSWindow <= 0 {
		return fmt.Errorf("USGS window must be positive")
	}
	if c.Sources.CitiesPerRegion < 1 || c.Sources.CitiesPerRegion > 50 {
		return fmt.Errorf("weather cities per region must be between 1 and 50")
	}
	if c.Sources.RegionWorkers < 1 {
		return fmt.Errorf("weather region workers must be at least 1")
	}

	s := c.Scoring
	if s.RadiusKm <= 0 {
		return fmt.Errorf("scoring radius must be positive")
	}
	if s.EarthquakeWeight < 0 || s.WeatherWeight < 0 || s.LandslideWeight < 0 {
		return fmt.Errorf("scoring weights must not be negative")
	}
	if s.EarthquakeWeight+s.WeatherWeight+s.LandslideWeight <= 0 {
		return fmt.Errorf("scoring weights must not all be zero")
	}

	h := c.Heatmap
	if h.DefaultRadius <= 0 || h.LatStep <= 0 {
		return fmt.Errorf("heatmap radius and step must be positive")
	}
	if h.MaxCells < 1 {
		return fmt.Errorf("heatmap max cells must be at least 1")
	}
	if h.Mode != "noise" && h.Mode != "kernel" {
		return fmt.Errorf("invalid heatmap mode: %s", h.Mode)
	}
	if h.Noise < 0 {
		return fmt.Errorf("heatmap noise must not be negative")
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("OTEL_ENABLED is true but OTEL_ENDPOINT is not set")
	}

	return nil
}
