package models

import "time"

// WeatherSnapshot is the current weather at one point.
type WeatherSnapshot struct {
	TemperatureC float64   `json:"temperature"`
	Condition    string    `json:"condition"`
	WindSpeed    float64   `json:"windSpeed"` // m/s
	RainfallMmH  float64   `json:"rainfall"`
	PressureHpa  float64   `json:"pressure"`
	HumidityPct  float64   `json:"humidity"`
	VisibilityKm float64   `json:"visibility"`
	Timestamp    time.Time `json:"timestamp"`
}

// ForecastEntry is one step of a multi-step forecast.
type ForecastEntry struct {
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperature"`
	Condition    string    `json:"condition"`
	WindSpeed    float64   `json:"windSpeed"`
	RainfallMmH  float64   `json:"rainfall"`
}

// CityWeather is a snapshot for a named city, as returned by a nearby-city
// weather search.
type CityWeather struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Country   string          `json:"country"`
	Latitude  float64         `json:"lat"`
	Longitude float64         `json:"lng"`
	Snapshot  WeatherSnapshot `json:"snapshot"`
}

// WeatherData is the weather view handed to callers. Available is false when
// the weather feed could not be reached; the other fields are then empty.
type WeatherData struct {
	Available bool            `json:"available"`
	Current   WeatherSnapshot `json:"current"`
	Forecast  []ForecastEntry `json:"forecast"`
	Warnings  []string        `json:"warnings"`
	Severity  Severity        `json:"severity"`
}
