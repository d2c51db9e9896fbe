package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/annwhocodes/ResQMap/internal/models"
)

type eonetResponse struct {
	Events []eonetEvent `json:"events"`
}

type eonetEvent struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Sources  []eonetSource   `json:"sources"`
	Geometry []eonetGeometry `json:"geometry"`
}

type eonetSource struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type eonetGeometry struct {
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"` // [lng, lat] for points
}

type EONETConfig struct {
	URL     string
	Timeout time.Duration
}

// LandslideSource lists open landslide events from NASA EONET.
type LandslideSource struct {
	cfg    EONETConfig
	client *http.Client
}

func NewLandslideSource(cfg EONETConfig) *LandslideSource {
	return &LandslideSource{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
	}
}

func (s *LandslideSource) Name() string { return SourceLandslide }

func (s *LandslideSource) Fetch(ctx context.Context) ([]models.Hazard, error) {
	params := url.Values{
		"category": {"landslides"},
		"status":   {"open"},
	}

	var data eonetResponse
	if err := getJSON(ctx, s.client, s.cfg.URL+"?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("eonet: %w", err)
	}

	hazards := make([]models.Hazard, 0, len(data.Events))
	for _, e := range data.Events {
		if len(e.Geometry) == 0 {
			continue
		}
		g := e.Geometry[0]

		var point []float64
		if err := json.Unmarshal(g.Coordinates, &point); err != nil || len(point) < 2 {
			slog.Warn("EONET event skipped", "id", e.ID, "geometry_type", g.Type)
			continue
		}

		sources := make([]string, 0, len(e.Sources))
		for _, src := range e.Sources {
			if src.URL != "" {
				sources = append(sources, src.URL)
			} else {
				sources = append(sources, src.ID)
			}
		}

		hazards = append(hazards, models.Hazard{
			ID:     "eonet_" + e.ID,
			Source: SourceLandslide,
			Type:   models.HazardTypeLandslide,
			// EONET carries no per-event intensity for landslides.
			Severity:    models.SeverityMedium,
			Latitude:    point[1],
			Longitude:   point[0],
			Description: e.Title,
			Timestamp:   g.Date,
			Details: models.LandslideDetails{
				Title:   e.Title,
				Date:    g.Date,
				Sources: sources,
			},
		})
	}

	return hazards, nil
}
