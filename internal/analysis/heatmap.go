package analysis

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/annwhocodes/ResQMap/internal/config"
	"github.com/annwhocodes/ResQMap/internal/geo"
	"github.com/annwhocodes/ResQMap/internal/models"
)

const (
	HeatmapModeNoise  = "noise"
	HeatmapModeKernel = "kernel"

	// minCosLat keeps the longitude step finite near the poles.
	minCosLat = 0.01
)

// Heatmap samples a grid around a point and assigns each cell a risk
// intensity that decays with distance from the centre. In noise mode a
// uniform jitter is added; in kernel mode the jitter is replaced by the
// decayed contribution of real hazards.
type Heatmap struct {
	cfg config.HeatmapConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeatmap builds a synthesizer. A nil rng is seeded from cfg.Seed, or
// from the clock when the seed is zero.
func NewHeatmap(cfg config.HeatmapConfig, rng *rand.Rand) *Heatmap {
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &Heatmap{
		cfg: cfg,
		rng: rng,
	}
}

func (h *Heatmap) DefaultRadius() float64 {
	return h.cfg.DefaultRadius
}

// UsesHazards reports whether Generate reads its hazards argument.
func (h *Heatmap) UsesHazards() bool {
	return h.cfg.Mode == HeatmapModeKernel
}

// Step returns the latitude step used for a radius once the cell cap is
// applied.
func (h *Heatmap) Step(radiusKm float64) float64 {
	step := h.cfg.LatStep
	span := radiusKm / geo.KmPerDegreeLat
	side := 2*math.Floor(span/step) + 1
	if cells := side * side; cells > float64(h.cfg.MaxCells) {
		step *= math.Sqrt(cells / float64(h.cfg.MaxCells))
	}
	return step
}

// Generate returns the grid points within radiusKm of the centre.
func (h *Heatmap) Generate(lat, lng, radiusKm float64, hazards []models.Hazard) []models.HeatmapPoint {
	if radiusKm <= 0 {
		radiusKm = h.cfg.DefaultRadius
	}

	step := h.Step(radiusKm)
	rows := int(math.Floor(radiusKm / geo.KmPerDegreeLat / step))

	h.mu.Lock()
	defer h.mu.Unlock()

	points := make([]models.HeatmapPoint, 0, (2*rows+1)*(2*rows+1))
	for i := -rows; i <= rows; i++ {
		pLat := lat + float64(i)*step
		if pLat < -90 || pLat > 90 {
			continue
		}

		cosLat := math.Max(math.Cos(pLat*math.Pi/180), minCosLat)
		lngStep := step / cosLat
		lngSpan := math.Min(radiusKm/(geo.KmPerDegreeLat*cosLat), 180)
		cols := int(math.Floor(lngSpan / lngStep))

		for j := -cols; j <= cols; j++ {
			if len(points) >= h.cfg.MaxCells {
				return points
			}
			pLng := normalizeLng(lng + float64(j)*lngStep)

			d := geo.Distance(lat, lng, pLat, pLng)
			if d > radiusKm {
				continue
			}

			points = append(points, models.HeatmapPoint{
				Latitude:  pLat,
				Longitude: pLng,
				Intensity: h.intensity(pLat, pLng, d, radiusKm, hazards),
			})
		}
	}
	return points
}

func (h *Heatmap) intensity(lat, lng, d, radiusKm float64, hazards []models.Hazard) float64 {
	decay := 1 - d/radiusKm

	if h.cfg.Mode != HeatmapModeKernel {
		noise := (h.rng.Float64()*2 - 1) * h.cfg.Noise
		return clampIntensity(100*decay + noise)
	}

	v := 50 * decay
	for i := range hazards {
		hz := &hazards[i]
		dh := geo.Distance(lat, lng, hz.Latitude, hz.Longitude)
		if dh >= h.cfg.KernelRadiusKm {
			continue
		}
		v += severityWeight(hz.Severity) * 50 * (1 - dh/h.cfg.KernelRadiusKm)
	}
	return clampIntensity(v)
}

func severityWeight(s models.Severity) float64 {
	switch s {
	case models.SeverityHigh:
		return 1
	case models.SeverityMedium:
		return 0.6
	default:
		return 0.3
	}
}

func clampIntensity(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func normalizeLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}
