package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/annwhocodes/ResQMap/internal/models"
	"github.com/annwhocodes/ResQMap/internal/worker"
)

// NearbyCityFinder returns weather snapshots for cities around a point.
type NearbyCityFinder interface {
	NearbyCities(ctx context.Context, lat, lng float64, count int) ([]models.CityWeather, error)
}

// Region is a coarse sampling point for global weather scanning.
type Region struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// DefaultRegions cover the populated continents at a coarse resolution.
var DefaultRegions = []Region{
	{"north-america", 40.0, -100.0},
	{"central-america", 17.0, -90.0},
	{"south-america", -15.0, -60.0},
	{"europe", 50.0, 10.0},
	{"africa", 5.0, 20.0},
	{"middle-east", 28.0, 45.0},
	{"south-asia", 22.0, 79.0},
	{"east-asia", 35.0, 115.0},
	{"southeast-asia", 5.0, 110.0},
	{"oceania", -25.0, 135.0},
}

var adverseKeywords = []string{
	"extreme", "storm", "rain", "snow", "thunder", "tornado", "drizzle", "mist", "fog",
}

type WeatherDisasterConfig struct {
	Regions         []Region
	CitiesPerRegion int
	Workers         int
}

// WeatherDisasterSource scans a fixed set of regions for cities reporting
// adverse weather.
type WeatherDisasterSource struct {
	finder NearbyCityFinder
	cfg    WeatherDisasterConfig
}

func NewWeatherDisasterSource(finder NearbyCityFinder, cfg WeatherDisasterConfig) *WeatherDisasterSource {
	if len(cfg.Regions) == 0 {
		cfg.Regions = DefaultRegions
	}
	if cfg.CitiesPerRegion < 1 {
		cfg.CitiesPerRegion = 20
	}
	return &WeatherDisasterSource{
		finder: finder,
		cfg:    cfg,
	}
}

func (s *WeatherDisasterSource) Name() string { return SourceWeather }

type regionResult struct {
	done   bool
	cities []models.CityWeather
	err    error
}

func (s *WeatherDisasterSource) Fetch(ctx context.Context) ([]models.Hazard, error) {
	var (
		mu      sync.Mutex
		results = make([]regionResult, len(s.cfg.Regions))
	)

	jobs := make([]int, len(s.cfg.Regions))
	for i := range jobs {
		jobs[i] = i
	}

	worker.Run(ctx, "weather-regions", s.cfg.Workers, jobs, func(ctx context.Context, i int) error {
		r := s.cfg.Regions[i]
		cities, err := s.finder.NearbyCities(ctx, r.Latitude, r.Longitude, s.cfg.CitiesPerRegion)
		if err != nil {
			err = fmt.Errorf("region %s: %w", r.Name, err)
		}
		mu.Lock()
		results[i] = regionResult{done: true, cities: cities, err: err}
		mu.Unlock()
		return err
	})

	// Regions the pool never reached because ctx ended count as failed.
	var errs []error
	failed := 0
	seen := make(map[int64]bool)
	var hazards []models.Hazard

	for i, res := range results {
		if !res.done {
			res.err = fmt.Errorf("region %s: %w", s.cfg.Regions[i].Name, context.Cause(ctx))
		}
		if res.err != nil {
			failed++
			errs = append(errs, res.err)
			continue
		}
		for _, c := range res.cities {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			if h, ok := weatherHazard(c); ok {
				hazards = append(hazards, h)
			}
		}
	}

	if failed > 0 && failed == len(results) {
		return nil, fmt.Errorf("weather: all regions failed: %w", errors.Join(errs...))
	}
	if failed > 0 {
		slog.Warn("weather scan partially failed", "failed_regions", failed, "regions", len(results), "error", errors.Join(errs...))
	}

	return hazards, nil
}

func weatherHazard(c models.CityWeather) (models.Hazard, bool) {
	condition := strings.ToLower(c.Snapshot.Condition)
	if !IsAdverseCondition(condition) {
		return models.Hazard{}, false
	}

	return models.Hazard{
		ID:          fmt.Sprintf("weather_%d", c.ID),
		Source:      SourceWeather,
		Type:        models.HazardTypeWeather,
		Severity:    WeatherConditionSeverity(condition),
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		Description: fmt.Sprintf("%s in %s, %s", c.Snapshot.Condition, c.Name, c.Country),
		Timestamp:   c.Snapshot.Timestamp,
		Details: models.WeatherDetails{
			Condition:    c.Snapshot.Condition,
			TemperatureC: c.Snapshot.TemperatureC,
			WindSpeed:    c.Snapshot.WindSpeed,
			Location:     c.Name,
			Country:      c.Country,
		},
	}, true
}

// IsAdverseCondition reports whether a condition text names adverse weather.
func IsAdverseCondition(condition string) bool {
	condition = strings.ToLower(condition)
	for _, k := range adverseKeywords {
		if strings.Contains(condition, k) {
			return true
		}
	}
	return false
}

// WeatherConditionSeverity classifies a condition text.
func WeatherConditionSeverity(condition string) models.Severity {
	condition = strings.ToLower(condition)
	switch {
	case containsAny(condition, "extreme", "tornado", "hurricane"):
		return models.SeverityHigh
	case containsAny(condition, "storm", "thunder", "heavy"):
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
