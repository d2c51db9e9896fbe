package models

import (
	"fmt"
	"strings"
	"time"
)

type HazardType string

const (
	HazardTypeEarthquake HazardType = "earthquake"
	HazardTypeWeather    HazardType = "weather"
	HazardTypeLandslide  HazardType = "landslide"
	HazardTypeFlood      HazardType = "flood"
	HazardTypeFire       HazardType = "fire"
	HazardTypeOther      HazardType = "other"
)

// ParseHazardType maps a user supplied string onto a known hazard type.
func ParseHazardType(s string) (HazardType, error) {
	switch t := HazardType(strings.ToLower(strings.TrimSpace(s))); t {
	case HazardTypeEarthquake, HazardTypeWeather, HazardTypeLandslide,
		HazardTypeFlood, HazardTypeFire, HazardTypeOther:
		return t, nil
	default:
		return "", fmt.Errorf("unknown hazard type %q", s)
	}
}

// ReportHazardType is ParseHazardType for free-form community labels such as
// "debris": anything unrecognised is filed as HazardTypeOther.
func ReportHazardType(s string) HazardType {
	t, err := ParseHazardType(s)
	if err != nil {
		return HazardTypeOther
	}
	return t
}

// Hazard is a normalized danger event from any source feed. Adapters create
// hazards per query; the only field set afterwards is DistanceKm.
type Hazard struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Type        HazardType `json:"type"`
	Severity    Severity   `json:"severity"`
	Latitude    float64    `json:"lat"`
	Longitude   float64    `json:"lng"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
	DistanceKm  *float64   `json:"distanceFromReference,omitempty"`
	Details     Details    `json:"details,omitempty"`
}

// WithDistance returns a copy of h annotated with its distance from a
// reference point.
func (h Hazard) WithDistance(km float64) Hazard {
	h.DistanceKm = &km
	return h
}

// Details is the type specific payload of a hazard. The set of
// implementations is closed: EarthquakeDetails, WeatherDetails,
// LandslideDetails and ReportDetails.
type Details interface {
	Kind() HazardType
	details()
}

type EarthquakeDetails struct {
	Magnitude float64 `json:"magnitude"`
	DepthKm   float64 `json:"depth"`
	Place     string  `json:"place"`
	Tsunami   bool    `json:"tsunami"`
	URL       string  `json:"url,omitempty"`
}

type WeatherDetails struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature"`
	WindSpeed    float64 `json:"windSpeed"`
	Location     string  `json:"location"`
	Country      string  `json:"country"`
}

type LandslideDetails struct {
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Sources []string  `json:"sources,omitempty"`
}

// ReportDetails carries the provenance of a community submitted hazard.
type ReportDetails struct {
	ReportID string `json:"reportId"`
	Reporter string `json:"reporter,omitempty"`
}

func (EarthquakeDetails) Kind() HazardType { return HazardTypeEarthquake }
func (WeatherDetails) Kind() HazardType    { return HazardTypeWeather }
func (LandslideDetails) Kind() HazardType  { return HazardTypeLandslide }
func (ReportDetails) Kind() HazardType     { return HazardTypeOther }

func (EarthquakeDetails) details() {}
func (WeatherDetails) details()    {}
func (LandslideDetails) details()  {}
func (ReportDetails) details()     {}

// Magnitude returns the earthquake magnitude when the hazard carries one.
func (h *Hazard) Magnitude() (float64, bool) {
	switch d := h.Details.(type) {
	case EarthquakeDetails:
		return d.Magnitude, true
	case *EarthquakeDetails:
		if d != nil {
			return d.Magnitude, true
		}
	}
	return 0, false
}

// SourceStatus is the outcome of one source during one aggregation. It lets
// callers tell an empty feed apart from an unreachable one.
type SourceStatus struct {
	Source     string `json:"source"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
	TimedOut   bool   `json:"timedOut,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

func (s SourceStatus) OK() bool {
	return s.Error == ""
}
