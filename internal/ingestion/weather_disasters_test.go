package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annwhocodes/ResQMap/internal/models"
)

type fakeFinder struct {
	mu     sync.Mutex
	cities map[string][]models.CityWeather // keyed by "lat,lng"
	fail   map[string]bool
	calls  int
}

func key(lat, lng float64) string {
	return fmt.Sprintf("%.1f,%.1f", lat, lng)
}

func (f *fakeFinder) NearbyCities(_ context.Context, lat, lng float64, count int) ([]models.CityWeather, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	k := key(lat, lng)
	if f.fail[k] {
		return nil, errors.New("find: 429 too many requests")
	}
	cities := f.cities[k]
	if len(cities) > count {
		cities = cities[:count]
	}
	return cities, nil
}

func city(id int64, name, condition string, lat, lng float64) models.CityWeather {
	return models.CityWeather{
		ID:        id,
		Name:      name,
		Country:   "XX",
		Latitude:  lat,
		Longitude: lng,
		Snapshot:  models.WeatherSnapshot{Condition: condition, TemperatureC: 20},
	}
}

var testRegions = []Region{
	{"west", 10, -10},
	{"east", 10, 10},
	{"south", -10, 0},
}

func TestWeatherDisasterSource_Fetch(t *testing.T) {
	finder := &fakeFinder{cities: map[string][]models.CityWeather{
		key(10, -10): {
			city(1, "Alpha", "thunderstorm with heavy rain", 10.2, -9.8),
			city(2, "Bravo", "clear sky", 10.4, -10.1),
		},
		key(10, 10): {
			city(3, "Charlie", "Tornado", 9.9, 10.2),
			// Overlaps the west region.
			city(1, "Alpha", "thunderstorm with heavy rain", 10.2, -9.8),
		},
		key(-10, 0): {
			city(4, "Delta", "light drizzle", -10.1, 0.3),
			city(5, "Echo", "Mist", -9.7, 0.1),
		},
	}}

	src := NewWeatherDisasterSource(finder, WeatherDisasterConfig{Regions: testRegions, CitiesPerRegion: 10, Workers: 2})
	assert.Equal(t, SourceWeather, src.Name())

	hazards, err := src.Fetch(context.Background())
	require.NoError(t, err)

	byID := map[string]models.Hazard{}
	for _, h := range hazards {
		_, dup := byID[h.ID]
		assert.False(t, dup, "duplicate hazard %s", h.ID)
		byID[h.ID] = h
	}
	require.Len(t, byID, 4)

	assert.Equal(t, models.SeverityMedium, byID["weather_1"].Severity)
	assert.Equal(t, models.SeverityHigh, byID["weather_3"].Severity)
	assert.Equal(t, models.SeverityLow, byID["weather_4"].Severity)
	assert.Equal(t, models.SeverityLow, byID["weather_5"].Severity)
	assert.NotContains(t, byID, "weather_2")

	d, ok := byID["weather_3"].Details.(models.WeatherDetails)
	require.True(t, ok)
	assert.Equal(t, "Charlie", d.Location)
	assert.Equal(t, models.HazardTypeWeather, byID["weather_3"].Type)
	assert.Equal(t, 3, finder.calls)
}

func TestWeatherDisasterSource_PartialFailure(t *testing.T) {
	finder := &fakeFinder{
		cities: map[string][]models.CityWeather{
			key(10, 10): {city(3, "Charlie", "snow", 9.9, 10.2)},
		},
		fail: map[string]bool{key(10, -10): true, key(-10, 0): true},
	}

	src := NewWeatherDisasterSource(finder, WeatherDisasterConfig{Regions: testRegions, CitiesPerRegion: 10, Workers: 3})
	hazards, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, hazards, 1)
	assert.Equal(t, "weather_3", hazards[0].ID)
}

func TestWeatherDisasterSource_AllRegionsFail(t *testing.T) {
	finder := &fakeFinder{fail: map[string]bool{
		key(10, -10): true, key(10, 10): true, key(-10, 0): true,
	}}

	src := NewWeatherDisasterSource(finder, WeatherDisasterConfig{Regions: testRegions, Workers: 2})
	hazards, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, hazards)
	assert.Contains(t, err.Error(), "all regions failed")
}

func TestWeatherDisasterSource_CancelledContext(t *testing.T) {
	finder := &fakeFinder{}
	src := NewWeatherDisasterSource(finder, WeatherDisasterConfig{Regions: testRegions, Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Regions the pool never reached count as failed; whichever it did reach
	// returned no adverse weather.
	hazards, err := src.Fetch(ctx)
	assert.Empty(t, hazards)
	if finder.calls == 0 {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestWeatherConditionClassification(t *testing.T) {
	tests := []struct {
		condition string
		adverse   bool
		severity  models.Severity
	}{
		{"clear sky", false, models.SeverityLow},
		{"overcast clouds", false, models.SeverityLow},
		{"light rain", true, models.SeverityLow},
		{"Fog", true, models.SeverityLow},
		{"heavy snow", true, models.SeverityMedium},
		{"thunderstorm", true, models.SeverityMedium},
		{"extreme rain", true, models.SeverityHigh},
		{"tornado", true, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			assert.Equal(t, tt.adverse, IsAdverseCondition(tt.condition))
			assert.Equal(t, tt.severity, WeatherConditionSeverity(tt.condition))
		})
	}
}
