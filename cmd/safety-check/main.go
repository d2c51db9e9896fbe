// Command safety-check runs one query against the live feeds and prints the
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/annwhocodes/ResQMap/internal/analysis"
	"github.com/annwhocodes/ResQMap/internal/config"
	"github.com/annwhocodes/ResQMap/internal/geo"
	"github.com/annwhocodes/ResQMap/internal/hazard"
	"github.com/annwhocodes/ResQMap/internal/ingestion"
	"github.com/annwhocodes/ResQMap/internal/logging"
	"github.com/annwhocodes/ResQMap/internal/repository"
)

func main() {
	var (
		lat    = flag.Float64("lat", 0, "latitude of the reference point")
		lng    = flag.Float64("lng", 0, "longitude of the reference point")
		radius = flag.Float64("radius", 0, "search radius in km (0 uses the configured default)")
		mode   = flag.String("mode", "score", "one of: score, hazards, weather, heatmap")
		db     = flag.Bool("reports", false, "include community reports from the local database")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	// stdout carries the result.
	logging.SetupTo(os.Stderr, cfg.Logging.Level, "text")

	if !geo.ValidCoordinates(*lat, *lng) {
		logging.Fatalf("invalid coordinates: %v, %v", *lat, *lng)
	}

	var reports repository.ReportRepository
	if *db {
		store, err := repository.NewSQLiteDB(cfg.DB.Path)
		if err != nil {
			logging.Fatalf("Failed to open database: %v", err)
		}
		defer store.Close()
		reports = store
	}

	registry := ingestion.FromConfig(cfg.Sources, reports, clockwork.NewRealClock())
	aggregator := hazard.NewAggregator(registry.Sources, hazard.AggregatorConfig{
		SourceTimeout: cfg.Sources.SourceTimeout,
		Timeout:       cfg.Sources.AggregateTimeout,
	}, nil)

	var weather hazard.WeatherProvider
	if registry.Weather != nil {
		weather = registry.Weather
	}
	svc := hazard.NewService(aggregator, weather,
		analysis.NewScorer(cfg.Scoring),
		analysis.NewHeatmap(cfg.Heatmap, nil),
		nil,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var out any
	switch *mode {
	case "score":
		out = svc.CalculateSafetyScore(ctx, *lat, *lng)
	case "hazards":
		r := *radius
		if r <= 0 {
			r = cfg.Server.DefaultRadius
		}
		out = svc.Aggregate(ctx, *lat, *lng, r)
	case "weather":
		out = svc.GetWeatherData(ctx, *lat, *lng)
	case "heatmap":
		out = svc.GetHeatmapData(ctx, *lat, *lng, *radius)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		flag.Usage()
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logging.Fatalf("encode result: %v", err)
	}
}
