package api

import (
	"github.com/annwhocodes/ResQMap/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	// Sources is a foreign member listing what each feed returned.
	Sources []models.SourceStatus `json:"sources,omitempty"`
}
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(hazards []models.Hazard, sources []models.SourceStatus) FeatureCollection {
	features := make([]Feature, 0, len(hazards))

	for _, h := range hazards {
		props := map[string]any{
			"id":          h.ID,
			"source":      h.Source,
			"type":        h.Type,
			"severity":    h.Severity,
			"description": h.Description,
			"timestamp":   h.Timestamp,
		}
		if h.DistanceKm != nil {
			props["distanceFromReference"] = *h.DistanceKm
		}
		if h.Details != nil {
			props["details"] = h.Details
		}

		features = append(features, Feature{
			Type: "Feature",
			ID:   h.ID,
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{h.Longitude, h.Latitude},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Sources:  sources,
	}
}
