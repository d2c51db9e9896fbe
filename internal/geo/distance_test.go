package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annwhocodes/ResQMap/internal/models"
)

const (
	delhiLat, delhiLng   = 28.6448, 77.2167
	mumbaiLat, mumbaiLng = 18.9667, 72.8333
)

func TestDistance_DelhiMumbai(t *testing.T) {
	d := Distance(delhiLat, delhiLng, mumbaiLat, mumbaiLng)
	assert.GreaterOrEqual(t, d, 1160.0)
	assert.LessOrEqual(t, d, 1170.0)
}

func TestDistance_Symmetric(t *testing.T) {
	points := [][2]float64{
		{delhiLat, delhiLng},
		{mumbaiLat, mumbaiLng},
		{-33.8688, 151.2093},
		{64.1466, -21.9426},
		{0, 179.9},
		{0, -179.9},
	}
	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t, Distance(a[0], a[1], b[0], b[1]), Distance(b[0], b[1], a[0], a[1]), 1e-9)
		}
		assert.Equal(t, 0.0, Distance(a[0], a[1], a[0], a[1]))
	}
}

func TestDistance_AcrossAntimeridian(t *testing.T) {
	// 0.2 degrees of longitude at the equator.
	assert.InDelta(t, 22.2, Distance(0, 179.9, 0, -179.9), 0.1)
}

func TestDistance_Antipodal(t *testing.T) {
	d := Distance(0, 0, 0, 180)
	assert.InDelta(t, EarthRadiusKm*3.141592653589793, d, 1e-6)
}

func TestFilterByDistance(t *testing.T) {
	hazards := []models.Hazard{
		{ID: "mumbai", Latitude: mumbaiLat, Longitude: mumbaiLng},
		{ID: "pune", Latitude: 18.5204, Longitude: 73.8567},
		{ID: "delhi", Latitude: delhiLat, Longitude: delhiLng},
		{ID: "thane", Latitude: 19.2183, Longitude: 72.9781},
	}

	got := FilterByDistance(hazards, mumbaiLat, mumbaiLng, 200)
	require.Len(t, got, 3)

	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	assert.Equal(t, []string{"mumbai", "thane", "pune"}, ids)

	prev := -1.0
	for _, h := range got {
		require.NotNil(t, h.DistanceKm)
		assert.LessOrEqual(t, *h.DistanceKm, 200.0)
		assert.GreaterOrEqual(t, *h.DistanceKm, prev)
		prev = *h.DistanceKm
	}

	for _, h := range hazards {
		assert.Nil(t, h.DistanceKm, "input must not be annotated")
	}
}

func TestFilterByDistance_StableTies(t *testing.T) {
	hazards := []models.Hazard{
		{ID: "a", Latitude: 10, Longitude: 10},
		{ID: "b", Latitude: 10, Longitude: 10},
		{ID: "c", Latitude: 10, Longitude: 10},
	}
	got := FilterByDistance(hazards, 10, 10, 1)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestFilterByDistance_Empty(t *testing.T) {
	assert.Empty(t, FilterByDistance(nil, 0, 0, 100))
	assert.Empty(t, FilterByDistance([]models.Hazard{{Latitude: 50, Longitude: 50}}, 0, 0, 100))
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(90, 180))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, -181))
}
