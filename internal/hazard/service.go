package hazard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/annwhocodes/ResQMap/internal/analysis"
	"github.com/annwhocodes/ResQMap/internal/geo"
	"github.com/annwhocodes/ResQMap/internal/ingestion"
	"github.com/annwhocodes/ResQMap/internal/models"
	"github.com/annwhocodes/ResQMap/internal/observability"
)

var (
	ErrWeatherUnavailable = errors.New("weather provider not configured")
	ErrAllSourcesFailed   = errors.New("every hazard source failed")
)

// WeatherProvider returns point weather. ingestion.OpenWeatherClient
// satisfies it.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (models.WeatherSnapshot, error)
	Forecast(ctx context.Context, lat, lng float64) ([]models.ForecastEntry, error)
}

// Aggregation is the result of one fan-out: the hazards within the radius,
// nearest first, and what happened to each source.
type Aggregation struct {
	Hazards []models.Hazard       `json:"hazards"`
	Sources []models.SourceStatus `json:"sources"`
}

// Service answers location queries. None of its methods return an error:
// failures degrade to partial data or to documented defaults.
type Service struct {
	aggregator *Aggregator
	weather    WeatherProvider
	scorer     *analysis.Scorer
	heatmap    *analysis.Heatmap
	metrics    *observability.Metrics
}

// NewService wires the service. weather and metrics may be nil.
func NewService(aggregator *Aggregator, weather WeatherProvider, scorer *analysis.Scorer, heatmap *analysis.Heatmap, metrics *observability.Metrics) *Service {
	return &Service{
		aggregator: aggregator,
		weather:    weather,
		scorer:     scorer,
		heatmap:    heatmap,
		metrics:    metrics,
	}
}

func (s *Service) Aggregate(ctx context.Context, lat, lng, radiusKm float64) Aggregation {
	ctx, span := observability.Tracer().Start(ctx, "hazard.aggregate")
	defer span.End()

	hazards, statuses := s.aggregator.Fetch(ctx)
	return Aggregation{
		Hazards: geo.FilterByDistance(hazards, lat, lng, radiusKm),
		Sources: statuses,
	}
}

func (s *Service) GetHazardsNearLocation(ctx context.Context, lat, lng, radiusKm float64) []models.Hazard {
	return s.Aggregate(ctx, lat, lng, radiusKm).Hazards
}

// GetWeatherData fetches current conditions and the forecast concurrently.
// A forecast failure leaves the forecast empty; a failure of the current
// conditions marks the whole result unavailable.
func (s *Service) GetWeatherData(ctx context.Context, lat, lng float64) models.WeatherData {
	if s.weather == nil {
		return models.WeatherData{}
	}

	var (
		current  models.WeatherSnapshot
		forecast []models.ForecastEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.weather.Current(gctx, lat, lng)
		return err
	})
	g.Go(func() error {
		f, err := s.weather.Forecast(gctx, lat, lng)
		if err != nil {
			slog.Warn("forecast unavailable", "lat", lat, "lng", lng, "error", err)
			return nil
		}
		forecast = f
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("weather unavailable", "lat", lat, "lng", lng, "error", err)
		return models.WeatherData{}
	}

	assessment := analysis.AnalyzeWeather(current)
	if forecast == nil {
		forecast = []models.ForecastEntry{}
	}
	return models.WeatherData{
		Available: true,
		Current:   current,
		Forecast:  forecast,
		Warnings:  assessment.Warnings,
		Severity:  assessment.Severity,
	}
}

// CalculateSafetyScore scores the location from hazards within the scoring
// radius and the current weather. Any failure, including a panic, yields
// models.DefaultSafetyScore.
func (s *Service) CalculateSafetyScore(ctx context.Context, lat, lng float64) (score models.SafetyScore) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("safety score panicked", "lat", lat, "lng", lng, "panic", r)
			score = s.scoreFailed()
		}
	}()

	score, err := s.safetyScore(ctx, lat, lng)
	if err != nil {
		slog.Error("error calculating safety score", "lat", lat, "lng", lng, "error", err)
		return s.scoreFailed()
	}
	if s.metrics != nil {
		s.metrics.SafetyScores.Observe(float64(score.Overall))
	}
	return score
}

func (s *Service) safetyScore(ctx context.Context, lat, lng float64) (models.SafetyScore, error) {
	if s.weather == nil {
		return models.SafetyScore{}, ErrWeatherUnavailable
	}

	var (
		agg     Aggregation
		weather models.WeatherSnapshot
	)
	// A weather failure must not cancel the feeds mid-fetch.
	var g errgroup.Group
	g.Go(func() error {
		agg = s.Aggregate(ctx, lat, lng, s.scorer.RadiusKm())
		if upstreamFailed(agg.Sources) {
			return ErrAllSourcesFailed
		}
		return nil
	})
	g.Go(func() error {
		var err error
		weather, err = s.weather.Current(ctx, lat, lng)
		if err != nil {
			return fmt.Errorf("error fetching weather: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.SafetyScore{}, err
	}

	return s.scorer.Score(agg.Hazards, weather), nil
}

func (s *Service) scoreFailed() models.SafetyScore {
	if s.metrics != nil {
		s.metrics.ScoreFailures.Inc()
	}
	return models.DefaultSafetyScore()
}

// GetHeatmapData returns the risk grid around a point. In kernel mode the
// grid is shaped by the hazards within the radius.
func (s *Service) GetHeatmapData(ctx context.Context, lat, lng, radiusKm float64) (points []models.HeatmapPoint) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("heatmap panicked", "lat", lat, "lng", lng, "panic", r)
			points = []models.HeatmapPoint{}
		}
	}()

	if radiusKm <= 0 {
		radiusKm = s.heatmap.DefaultRadius()
	}

	var hazards []models.Hazard
	if s.heatmap.UsesHazards() {
		hazards = s.GetHazardsNearLocation(ctx, lat, lng, radiusKm)
	}

	points = s.heatmap.Generate(lat, lng, radiusKm, hazards)
	if s.metrics != nil {
		s.metrics.HeatmapCells.Observe(float64(len(points)))
	}
	return points
}

// upstreamFailed reports whether every network feed failed. Community
// reports are read from the local database and do not count.
func upstreamFailed(statuses []models.SourceStatus) bool {
	upstream := 0
	for _, st := range statuses {
		if st.Source == ingestion.SourceReports {
			continue
		}
		if st.OK() {
			return false
		}
		upstream++
	}
	return upstream > 0
}
