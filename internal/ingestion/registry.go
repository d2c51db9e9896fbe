package ingestion

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/annwhocodes/ResQMap/internal/config"
	"github.com/annwhocodes/ResQMap/internal/repository"
)

// Registry is the set of sources built from configuration. Weather is nil
// when no OpenWeatherMap key is configured.
type Registry struct {
	Sources []Source
	Weather *OpenWeatherClient
}

// Names returns the source names in query order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		names[i] = s.Name()
	}
	return names
}

// FromConfig builds every enabled source. reports may be nil, which
// disables the community report source.
func FromConfig(cfg config.SourcesConfig, reports repository.ReportRepository, clock clockwork.Clock) *Registry {
	reg := &Registry{}

	if cfg.USGSEnabled {
		reg.Sources = append(reg.Sources, NewEarthquakeSource(USGSConfig{
			URL:          cfg.USGSURL,
			MinMagnitude: cfg.USGSMinMagnitude,
			Window:       cfg.USGSWindow,
			Timeout:      cfg.SourceTimeout,
		}, clock))
	}

	if cfg.OpenWeatherAPIKey != "" {
		reg.Weather = NewOpenWeatherClient(OpenWeatherConfig{
			URL:     cfg.OpenWeatherURL,
			APIKey:  cfg.OpenWeatherAPIKey,
			Timeout: cfg.SourceTimeout,
		})
	} else {
		slog.Warn("OPENWEATHER_API_KEY not set, weather data disabled")
	}
	if cfg.OpenWeatherEnabled && reg.Weather != nil {
		reg.Sources = append(reg.Sources, NewWeatherDisasterSource(reg.Weather, WeatherDisasterConfig{
			CitiesPerRegion: cfg.CitiesPerRegion,
			Workers:         cfg.RegionWorkers,
		}))
	}

	if cfg.EONETEnabled {
		reg.Sources = append(reg.Sources, NewLandslideSource(EONETConfig{
			URL:     cfg.EONETURL,
			Timeout: cfg.SourceTimeout,
		}))
	}

	if cfg.ReportsEnabled && reports != nil {
		reg.Sources = append(reg.Sources, NewReportSource(reports, cfg.ReportsWindow, clock))
	}

	slog.Info("hazard sources configured", "sources", reg.Names(), "weather", reg.Weather != nil)
	return reg
}
