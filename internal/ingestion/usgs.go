package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/annwhocodes/ResQMap/internal/models"
)

const usgsTimeFormat = "2006-01-02T15:04:05"

type usgsResponse struct {
	Features []usgsFeature `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   usgsGeometry   `json:"geometry"`
}
type usgsProperties struct {
	Mag     *float64 `json:"mag"`
	Place   string   `json:"place"`
	Time    int64    `json:"time"` // unix millis
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Tsunami int      `json:"tsunami"` // 0 or 1
}
type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

type USGSConfig struct {
	URL          string
	MinMagnitude float64
	Window       time.Duration
	Timeout      time.Duration
}

// EarthquakeSource queries the USGS FDSN event service for recent quakes.
type EarthquakeSource struct {
	cfg    USGSConfig
	client *http.Client
	clock  clockwork.Clock
}

func NewEarthquakeSource(cfg USGSConfig, clock clockwork.Clock) *EarthquakeSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &EarthquakeSource{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		clock:  clock,
	}
}

func (s *EarthquakeSource) Name() string { return SourceEarthquake }

func (s *EarthquakeSource) Fetch(ctx context.Context) ([]models.Hazard, error) {
	end := s.clock.Now().UTC()
	start := end.Add(-s.cfg.Window)

	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {start.Format(usgsTimeFormat)},
		"endtime":      {end.Format(usgsTimeFormat)},
		"minmagnitude": {strconv.FormatFloat(s.cfg.MinMagnitude, 'f', -1, 64)},
		"orderby":      {"time"},
	}

	var data usgsResponse
	if err := getJSON(ctx, s.client, s.cfg.URL+"?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("usgs: %w", err)
	}

	hazards := make([]models.Hazard, 0, len(data.Features))
	for _, f := range data.Features {
		if len(f.Geometry.Coordinates) < 2 || f.Properties.Mag == nil {
			slog.Warn("USGS feature skipped", "id", f.ID, "reason", "missing geometry or magnitude")
			continue
		}

		mag := *f.Properties.Mag
		var depth float64
		if len(f.Geometry.Coordinates) > 2 {
			depth = f.Geometry.Coordinates[2]
		}

		description := f.Properties.Title
		if description == "" {
			description = fmt.Sprintf("M %.1f - %s", mag, f.Properties.Place)
		}

		hazards = append(hazards, models.Hazard{
			ID:          "usgs_" + f.ID,
			Source:      SourceEarthquake,
			Type:        models.HazardTypeEarthquake,
			Severity:    EarthquakeSeverity(mag),
			Longitude:   f.Geometry.Coordinates[0],
			Latitude:    f.Geometry.Coordinates[1],
			Description: description,
			Timestamp:   time.UnixMilli(f.Properties.Time).UTC(),
			Details: models.EarthquakeDetails{
				Magnitude: mag,
				DepthKm:   depth,
				Place:     f.Properties.Place,
				Tsunami:   f.Properties.Tsunami == 1,
				URL:       f.Properties.URL,
			},
		})
	}

	return hazards, nil
}

// EarthquakeSeverity classifies a quake by magnitude.
func EarthquakeSeverity(mag float64) models.Severity {
	switch {
	case mag >= 6.0:
		return models.SeverityHigh
	case mag >= 5.0:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
