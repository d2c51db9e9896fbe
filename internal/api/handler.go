package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annwhocodes/ResQMap/internal/hazard"
	"github.com/annwhocodes/ResQMap/internal/models"
	"github.com/annwhocodes/ResQMap/internal/repository"
	"github.com/annwhocodes/ResQMap/internal/stream"
)

// HazardService is the query side the handlers need. *hazard.Service
// implements it.
type HazardService interface {
	Aggregate(ctx context.Context, lat, lng, radiusKm float64) hazard.Aggregation
	GetWeatherData(ctx context.Context, lat, lng float64) models.WeatherData
	CalculateSafetyScore(ctx context.Context, lat, lng float64) models.SafetyScore
	GetHeatmapData(ctx context.Context, lat, lng, radiusKm float64) []models.HeatmapPoint
}

type Handler struct {
	svc           HazardService
	reports       repository.ReportRepository
	broadcaster   *stream.Broadcaster
	clock         clockwork.Clock
	defaultRadius float64
}

func NewHandler(svc HazardService, reports repository.ReportRepository, broadcaster *stream.Broadcaster, defaultRadius float64) *Handler {
	return &Handler{
		svc:           svc,
		reports:       reports,
		broadcaster:   broadcaster,
		clock:         clockwork.NewRealClock(),
		defaultRadius: defaultRadius,
	}
}

// WithClock replaces the clock used to stamp new reports.
func (h *Handler) WithClock(c clockwork.Clock) *Handler {
	h.clock = c
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := r.Group("/api")
	g.GET("/hazards", h.getHazards)
	g.GET("/weather", h.getWeather)
	g.GET("/safety-score", h.getSafetyScore)
	g.GET("/heatmap", h.getHeatmap)

	g.POST("/reports", h.createReport)
	g.GET("/reports", h.listReports)
	g.GET("/reports/stream", h.streamReports)
	g.GET("/reports/:id", h.getReport)
}

type pointQuery struct {
	Lat *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng *float64 `form:"lng" binding:"required,min=-180,max=180"`
}

type areaQuery struct {
	Lat    *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng    *float64 `form:"lng" binding:"required,min=-180,max=180"`
	Radius *float64 `form:"radius" binding:"omitempty,gt=0,max=5000"`
}

func (q *areaQuery) radius(def float64) float64 {
	if q.Radius == nil {
		return def
	}
	return *q.Radius
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) getHazards(c *gin.Context) {
	var q areaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	agg := h.svc.Aggregate(c.Request.Context(), *q.Lat, *q.Lng, q.radius(h.defaultRadius))

	fc := toGeoJSON(agg.Hazards, agg.Sources)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getWeather(c *gin.Context) {
	var q pointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	data := h.svc.GetWeatherData(c.Request.Context(), *q.Lat, *q.Lng)
	if !data.Available {
		c.JSON(http.StatusServiceUnavailable, data)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getSafetyScore(c *gin.Context) {
	var q pointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.CalculateSafetyScore(c.Request.Context(), *q.Lat, *q.Lng))
}

func (h *Handler) getHeatmap(c *gin.Context) {
	var q areaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	// Zero lets the synthesizer pick its own default.
	points := h.svc.GetHeatmapData(c.Request.Context(), *q.Lat, *q.Lng, q.radius(0))
	c.JSON(http.StatusOK, gin.H{
		"points": points,
		"count":  len(points),
	})
}

type createReportRequest struct {
	Type        string   `json:"type" binding:"required"`
	Severity    string   `json:"severity" binding:"required,oneof=low medium high"`
	Lat         *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng         *float64 `json:"lng" binding:"required,min=-180,max=180"`
	Description string   `json:"description" binding:"required,max=1000"`
	Reporter    string   `json:"reporter" binding:"max=100"`
}

func (h *Handler) createReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	hazardType := models.ReportHazardType(req.Type)
	severity, err := models.ParseSeverity(req.Severity)
	if err != nil {
		badRequest(c, err)
		return
	}

	report := &models.Report{
		ID:          uuid.NewString(),
		Type:        hazardType,
		Severity:    severity,
		Latitude:    *req.Lat,
		Longitude:   *req.Lng,
		Description: req.Description,
		Reporter:    req.Reporter,
		CreatedAt:   h.clock.Now().UTC(),
	}

	if err := h.reports.AddReport(c.Request.Context(), report); err != nil {
		slog.Error("error adding report", "id", report.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save report"})
		return
	}

	if h.broadcaster != nil {
		n := h.broadcaster.Broadcast(report)
		slog.Debug("report broadcast", "id", report.ID, "subscribers", n)
	}

	slog.Info("added report", "id", report.ID, "type", report.Type, "severity", report.Severity)
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) listReports(c *gin.Context) {
	filter := repository.Filter{
		Limit: 20, // Default to 20 reports if limit param not supplied
	}

	if t := c.Query("type"); t != "" {
		ht, err := models.ParseHazardType(t)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Type = &ht
	}
	if s := c.Query("since"); s != "" {
		since, err := parseSince(s)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Since = &since
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	reports, err := h.reports.ListReports(c.Request.Context(), filter)
	if err != nil {
		slog.Error("error listing reports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("since must be RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

func (h *Handler) getReport(c *gin.Context) {
	report, err := h.reports.GetReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		slog.Error("error getting report", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// streamReports pushes every newly created report as a server-sent event
// until the client goes away or the broadcaster is closed.
func (h *Handler) streamReports(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming disabled"})
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	slog.Debug("report stream opened", "subscriber", id)
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("report stream closed", "subscriber", id)
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("report", r)
			c.Writer.Flush()
		}
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.broadcaster != nil {
		resp["subscribers"] = h.broadcaster.SubscriberCount()
	}

	if p, ok := h.reports.(pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			slog.Error("database ping failed", "error", err)
			resp["status"] = "degraded"
			resp["database"] = "unavailable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}
	c.JSON(http.StatusOK, resp)
}
