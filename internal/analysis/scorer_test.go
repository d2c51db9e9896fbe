package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annwhocodes/ResQMap/internal/config"
	"github.com/annwhocodes/ResQMap/internal/models"
)

func defaultScoring() config.ScoringConfig {
	return config.ScoringConfig{
		RadiusKm:         200,
		EarthquakeWeight: 0.4,
		WeatherWeight:    0.4,
		LandslideWeight:  0.2,
		EarthquakeFactor: 10,
		LandslideFactor:  100,
		WeatherPenalty:   15,
	}
}

func quake(mag, distance float64) models.Hazard {
	return models.Hazard{
		ID:      "q",
		Type:    models.HazardTypeEarthquake,
		Details: models.EarthquakeDetails{Magnitude: mag, Place: "Somewhere"},
	}.WithDistance(distance)
}

func slide(distance float64) models.Hazard {
	return models.Hazard{
		ID:          "l",
		Type:        models.HazardTypeLandslide,
		Description: "Landslide near the pass",
	}.WithDistance(distance)
}

func TestScorer_Overall(t *testing.T) {
	s := NewScorer(defaultScoring())
	assert.Equal(t, 76, s.Overall(80, 60, 100))
	assert.Equal(t, 100, s.Overall(100, 100, 100))
	assert.Equal(t, 0, s.Overall(0, 0, 0))
}

func TestScorer_NoHazardsCalmWeather(t *testing.T) {
	s := NewScorer(defaultScoring())
	score := s.Score(nil, calm())

	assert.Equal(t, models.SafetyScore{
		Overall:      100,
		Earthquake:   100,
		Weather:      100,
		Landslide:    100,
		Explanations: []string{NoWeatherWarnings},
	}, score)
}

func TestScorer_EarthquakeImpact(t *testing.T) {
	s := NewScorer(defaultScoring())

	// 6.0 * 10 / 4 = 15 -> major
	score := s.Score([]models.Hazard{quake(6.0, 4)}, calm())
	assert.Equal(t, 85, score.Earthquake)
	require.NotEmpty(t, score.Explanations)
	assert.True(t, strings.HasPrefix(score.Explanations[0], "Recent major earthquake"))

	// 5.0 * 10 / 7 ~= 7.14 -> moderate
	score = s.Score([]models.Hazard{quake(5.0, 7)}, calm())
	assert.Equal(t, 93, score.Earthquake)
	assert.True(t, strings.HasPrefix(score.Explanations[0], "Moderate earthquake activity"))

	// 4.0 * 10 / 100 = 0.4 -> no explanation
	score = s.Score([]models.Hazard{quake(4.0, 100)}, calm())
	assert.Equal(t, 100, score.Earthquake)
	assert.Equal(t, []string{NoWeatherWarnings}, score.Explanations)
}

func TestScorer_EarthquakeImpactsAccumulate(t *testing.T) {
	s := NewScorer(defaultScoring())

	// Distances below 1 km count as 1 km: 7.0 * 10 / 1 = 70 each.
	score := s.Score([]models.Hazard{quake(7.0, 0.2), quake(7.0, 0.5)}, calm())
	assert.Equal(t, 0, score.Earthquake)
	assert.Equal(t, 60, score.Overall)
}

func TestScorer_IgnoresHazardsWithoutDistanceOrMagnitude(t *testing.T) {
	s := NewScorer(defaultScoring())
	hazards := []models.Hazard{
		{Type: models.HazardTypeEarthquake, Details: models.EarthquakeDetails{Magnitude: 8}},
		models.Hazard{Type: models.HazardTypeEarthquake}.WithDistance(1),
		{Type: models.HazardTypeLandslide},
	}

	score := s.Score(hazards, calm())
	assert.Equal(t, 100, score.Earthquake)
	assert.Equal(t, 100, score.Landslide)
}

func TestScorer_WeatherPenalty(t *testing.T) {
	s := NewScorer(defaultScoring())
	w := models.WeatherSnapshot{TemperatureC: 46, WindSpeed: 21, RainfallMmH: 0, VisibilityKm: 10}

	score := s.Score(nil, w)
	assert.Equal(t, 70, score.Weather)
	assert.Len(t, score.Explanations, 2)
	assert.NotContains(t, score.Explanations, NoWeatherWarnings)
	assert.Equal(t, 88, score.Overall)
}

func TestScorer_Landslide(t *testing.T) {
	s := NewScorer(defaultScoring())

	// 100 / 5 = 20 -> explanation
	score := s.Score([]models.Hazard{slide(5)}, calm())
	assert.Equal(t, 80, score.Landslide)
	assert.Contains(t, score.Explanations[len(score.Explanations)-1], "Landslide risk")

	// 100 / 50 = 2 -> no explanation
	score = s.Score([]models.Hazard{slide(50)}, calm())
	assert.Equal(t, 98, score.Landslide)
	assert.Equal(t, []string{NoWeatherWarnings}, score.Explanations)
}

func TestScorer_ClampedToRange(t *testing.T) {
	s := NewScorer(defaultScoring())
	hazards := []models.Hazard{quake(9, 0), quake(9, 0), slide(0), slide(0)}
	w := models.WeatherSnapshot{TemperatureC: 50, WindSpeed: 30, RainfallMmH: 80, VisibilityKm: 0.1}

	score := s.Score(hazards, w)
	for _, v := range []int{score.Overall, score.Earthquake, score.Weather, score.Landslide} {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}
	assert.Equal(t, 0, score.Earthquake)
	assert.Equal(t, 40, score.Weather)
	assert.Equal(t, 0, score.Landslide)
	assert.Equal(t, 16, score.Overall)
}

func TestScorer_ConfigurableConstants(t *testing.T) {
	cfg := defaultScoring()
	cfg.WeatherPenalty = 50
	cfg.EarthquakeWeight, cfg.WeatherWeight, cfg.LandslideWeight = 0, 1, 0
	s := NewScorer(cfg)

	w := calm()
	w.WindSpeed = 16
	score := s.Score(nil, w)
	assert.Equal(t, 50, score.Weather)
	assert.Equal(t, 50, score.Overall)
}
