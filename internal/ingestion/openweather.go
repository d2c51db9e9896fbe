package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/annwhocodes/ResQMap/internal/models"
)

// defaultVisibilityKm is used when OpenWeatherMap omits visibility, which it
// does for clear conditions at or beyond its 10 km ceiling.
const defaultVisibilityKm = 10.0

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type owmMain struct {
	Temp     float64 `json:"temp"`
	Pressure float64 `json:"pressure"`
	Humidity float64 `json:"humidity"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
}

type owmPrecip struct {
	OneHour   float64 `json:"1h"`
	ThreeHour float64 `json:"3h"`
}

type owmObservation struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Dt         int64          `json:"dt"`
	Coord      owmCoord       `json:"coord"`
	Weather    []owmCondition `json:"weather"`
	Main       owmMain        `json:"main"`
	Wind       owmWind        `json:"wind"`
	Rain       *owmPrecip     `json:"rain"`
	Visibility *float64       `json:"visibility"` // metres
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type owmCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type owmFindResponse struct {
	List []owmObservation `json:"list"`
}

type owmForecastResponse struct {
	List []owmObservation `json:"list"`
}

type OpenWeatherConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// OpenWeatherClient talks to the OpenWeatherMap 2.5 API in metric units.
type OpenWeatherClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewOpenWeatherClient(cfg OpenWeatherConfig) *OpenWeatherClient {
	return &OpenWeatherClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  newHTTPClient(cfg.Timeout),
	}
}

func (c *OpenWeatherClient) endpoint(path string, lat, lng float64, extra url.Values) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(lng, 'f', 4, 64)},
		"units": {"metric"},
		"appid": {c.apiKey},
	}
	for k, v := range extra {
		params[k] = v
	}
	return c.baseURL + "/" + path + "?" + params.Encode(), nil
}

// Current returns the weather snapshot at a point.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lng float64) (models.WeatherSnapshot, error) {
	u, err := c.endpoint("weather", lat, lng, nil)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("openweather current: %w", err)
	}

	var obs owmObservation
	if err := getJSON(ctx, c.client, u, &obs); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("openweather current: %w", err)
	}
	return obs.snapshot(), nil
}

// Forecast returns the multi-step forecast at a point.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lng float64) ([]models.ForecastEntry, error) {
	u, err := c.endpoint("forecast", lat, lng, nil)
	if err != nil {
		return nil, fmt.Errorf("openweather forecast: %w", err)
	}

	var data owmForecastResponse
	if err := getJSON(ctx, c.client, u, &data); err != nil {
		return nil, fmt.Errorf("openweather forecast: %w", err)
	}

	entries := make([]models.ForecastEntry, 0, len(data.List))
	for _, obs := range data.List {
		s := obs.snapshot()
		entries = append(entries, models.ForecastEntry{
			Time:         s.Timestamp,
			TemperatureC: s.TemperatureC,
			Condition:    s.Condition,
			WindSpeed:    s.WindSpeed,
			RainfallMmH:  s.RainfallMmH,
		})
	}
	return entries, nil
}

// NearbyCities returns snapshots for up to count cities around a point.
func (c *OpenWeatherClient) NearbyCities(ctx context.Context, lat, lng float64, count int) ([]models.CityWeather, error) {
	u, err := c.endpoint("find", lat, lng, url.Values{"cnt": {strconv.Itoa(count)}})
	if err != nil {
		return nil, fmt.Errorf("openweather find: %w", err)
	}

	var data owmFindResponse
	if err := getJSON(ctx, c.client, u, &data); err != nil {
		return nil, fmt.Errorf("openweather find: %w", err)
	}

	cities := make([]models.CityWeather, 0, len(data.List))
	for _, obs := range data.List {
		cities = append(cities, models.CityWeather{
			ID:        obs.ID,
			Name:      obs.Name,
			Country:   obs.Sys.Country,
			Latitude:  obs.Coord.Lat,
			Longitude: obs.Coord.Lon,
			Snapshot:  obs.snapshot(),
		})
	}
	return cities, nil
}

func (o *owmObservation) snapshot() models.WeatherSnapshot {
	s := models.WeatherSnapshot{
		TemperatureC: o.Main.Temp,
		Condition:    o.condition(),
		WindSpeed:    o.Wind.Speed,
		PressureHpa:  o.Main.Pressure,
		HumidityPct:  o.Main.Humidity,
		VisibilityKm: defaultVisibilityKm,
		Timestamp:    time.Unix(o.Dt, 0).UTC(),
	}
	if o.Visibility != nil {
		s.VisibilityKm = *o.Visibility / 1000
	}
	if o.Rain != nil {
		s.RainfallMmH = o.Rain.hourly()
	}
	return s
}

func (p *owmPrecip) hourly() float64 {
	if p.OneHour > 0 {
		return p.OneHour
	}
	return p.ThreeHour / 3
}

// condition prefers the detailed description ("heavy intensity rain") and
// falls back to the group name ("Rain").
func (o *owmObservation) condition() string {
	if len(o.Weather) == 0 {
		return ""
	}
	if d := o.Weather[0].Description; d != "" {
		return d
	}
	return o.Weather[0].Main
}
