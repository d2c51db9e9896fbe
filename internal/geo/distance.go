// Package geo holds the great-circle helpers used to place hazards relative
// to a reference location.
package geo

import (
	"math"
	"slices"

	"github.com/annwhocodes/ResQMap/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// KmPerDegreeLat is the approximate length of one degree of latitude.
const KmPerDegreeLat = 111.0

// Distance returns the haversine great-circle distance in kilometres.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push a slightly past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FilterByDistance annotates every hazard with its distance from the
// reference point and returns those within radiusKm, nearest first. Ties keep
// their input order. The input slice is not modified.
func FilterByDistance(hazards []models.Hazard, refLat, refLng, radiusKm float64) []models.Hazard {
	out := make([]models.Hazard, 0, len(hazards))
	for _, h := range hazards {
		d := Distance(refLat, refLng, h.Latitude, h.Longitude)
		if d <= radiusKm {
			out = append(out, h.WithDistance(d))
		}
	}

	slices.SortStableFunc(out, func(a, b models.Hazard) int {
		switch {
		case *a.DistanceKm < *b.DistanceKm:
			return -1
		case *a.DistanceKm > *b.DistanceKm:
			return 1
		default:
			return 0
		}
	})
	return out
}

// ValidCoordinates reports whether lat/lng are within the WGS84 ranges.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lng)
}
