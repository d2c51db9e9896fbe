package analysis

import (
	"fmt"
	"math"

	"github.com/annwhocodes/ResQMap/internal/config"
	"github.com/annwhocodes/ResQMap/internal/models"
)

const NoWeatherWarnings = "No severe weather warnings"

// Scorer turns nearby hazards and the current weather into a SafetyScore.
type Scorer struct {
	cfg config.ScoringConfig
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// RadiusKm is the hazard search radius the scorer expects its input to be
// filtered to.
func (s *Scorer) RadiusKm() float64 {
	return s.cfg.RadiusKm
}

// Score computes the three category sub-scores and the weighted overall
// score. Hazards without a distance are ignored.
func (s *Scorer) Score(hazards []models.Hazard, weather models.WeatherSnapshot) models.SafetyScore {
	earthquake, weatherScore, landslide := 100.0, 100.0, 100.0
	var explanations []string

	for i := range hazards {
		h := &hazards[i]
		if h.Type != models.HazardTypeEarthquake || h.DistanceKm == nil {
			continue
		}
		mag, ok := h.Magnitude()
		if !ok {
			continue
		}
		d := *h.DistanceKm
		impact := mag * s.cfg.EarthquakeFactor / math.Max(d, 1)
		earthquake -= impact

		switch {
		case impact > 10:
			explanations = append(explanations, fmt.Sprintf("Recent major earthquake (M%.1f) %.0f km away: %s", mag, d, quakePlace(h)))
		case impact > 5:
			explanations = append(explanations, fmt.Sprintf("Moderate earthquake activity (M%.1f) %.0f km away", mag, d))
		}
	}

	assessment := AnalyzeWeather(weather)
	weatherScore -= float64(len(assessment.Warnings)) * s.cfg.WeatherPenalty
	if len(assessment.Warnings) == 0 {
		explanations = append(explanations, NoWeatherWarnings)
	} else {
		explanations = append(explanations, assessment.Warnings...)
	}

	for i := range hazards {
		h := &hazards[i]
		if h.Type != models.HazardTypeLandslide || h.DistanceKm == nil {
			continue
		}
		d := *h.DistanceKm
		impact := s.cfg.LandslideFactor / math.Max(d, 1)
		landslide -= impact

		if impact > 10 {
			explanations = append(explanations, fmt.Sprintf("Landslide risk %.0f km away: %s", d, h.Description))
		}
	}

	score := models.SafetyScore{
		Earthquake:   clampScore(earthquake),
		Weather:      clampScore(weatherScore),
		Landslide:    clampScore(landslide),
		Explanations: explanations,
	}
	score.Overall = s.Overall(score.Earthquake, score.Weather, score.Landslide)
	return score
}

// Overall combines sub-scores with the configured weights.
func (s *Scorer) Overall(earthquake, weather, landslide int) int {
	v := s.cfg.EarthquakeWeight*float64(earthquake) +
		s.cfg.WeatherWeight*float64(weather) +
		s.cfg.LandslideWeight*float64(landslide)
	return clampScore(v)
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Min(100, math.Max(0, v))))
}

func quakePlace(h *models.Hazard) string {
	if d, ok := h.Details.(models.EarthquakeDetails); ok && d.Place != "" {
		return d.Place
	}
	return h.Description
}
