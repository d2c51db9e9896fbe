package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/annwhocodes/ResQMap/internal/analysis"
	"github.com/annwhocodes/ResQMap/internal/api"
	"github.com/annwhocodes/ResQMap/internal/config"
	internalgrpc "github.com/annwhocodes/ResQMap/internal/grpc"
	"github.com/annwhocodes/ResQMap/internal/hazard"
	"github.com/annwhocodes/ResQMap/internal/ingestion"
	"github.com/annwhocodes/ResQMap/internal/logging"
	"github.com/annwhocodes/ResQMap/internal/observability"
	"github.com/annwhocodes/ResQMap/internal/repository"
	"github.com/annwhocodes/ResQMap/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing, "resqmap-hazard-service")
	if err != nil {
		logging.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	clock := clockwork.NewRealClock()
	registry := ingestion.FromConfig(cfg.Sources, db, clock)
	metrics := observability.NewMetrics()

	observers := hazard.Observers{metrics}
	var grpcServer *internalgrpc.Server
	if cfg.GRPC.Enabled {
		grpcServer = internalgrpc.NewServer(registry.Names())
		observers = append(observers, grpcServer)
		go func() {
			grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
			if err := grpcServer.Start(grpcAddr); err != nil {
				logging.Fatalf("gRPC server error: %v", err)
			}
		}()
	}

	aggregator := hazard.NewAggregator(registry.Sources, hazard.AggregatorConfig{
		SourceTimeout: cfg.Sources.SourceTimeout,
		Timeout:       cfg.Sources.AggregateTimeout,
	}, observers)

	var weather hazard.WeatherProvider
	if registry.Weather != nil {
		weather = registry.Weather
	}
	svc := hazard.NewService(
		aggregator,
		weather,
		analysis.NewScorer(cfg.Scoring),
		analysis.NewHeatmap(cfg.Heatmap, nil),
		metrics,
	)

	// Create broadcaster for live report streaming
	broadcaster := stream.NewBroadcaster(stream.DefaultBuffer)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit))

	handler := api.NewHandler(svc, db, broadcaster, cfg.Server.DefaultRadius)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	broadcaster.Close() // Close all streams gracefully
	if grpcServer != nil {
		grpcServer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
