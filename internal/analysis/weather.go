// Package analysis holds the pure risk computations: weather classification,
// safety scoring and heatmap synthesis. Nothing here performs I/O.
package analysis

import (
	"fmt"

	"github.com/annwhocodes/ResQMap/internal/models"
)

// WeatherAssessment is the outcome of classifying one weather snapshot.
type WeatherAssessment struct {
	Warnings []string
	Severity models.Severity
}

type weatherRule struct {
	high   func(models.WeatherSnapshot) bool
	medium func(models.WeatherSnapshot) bool
	format func(s models.WeatherSnapshot, level models.Severity) string
}

var weatherRules = []weatherRule{
	{
		high:   func(s models.WeatherSnapshot) bool { return s.TemperatureC >= 45 },
		medium: func(s models.WeatherSnapshot) bool { return s.TemperatureC >= 40 },
		format: func(s models.WeatherSnapshot, level models.Severity) string {
			if level == models.SeverityHigh {
				return fmt.Sprintf("Extreme heat warning: %.1f°C", s.TemperatureC)
			}
			return fmt.Sprintf("High temperature warning: %.1f°C", s.TemperatureC)
		},
	},
	{
		high:   func(s models.WeatherSnapshot) bool { return s.TemperatureC <= 5 },
		medium: func(s models.WeatherSnapshot) bool { return s.TemperatureC <= 10 },
		format: func(s models.WeatherSnapshot, level models.Severity) string {
			if level == models.SeverityHigh {
				return fmt.Sprintf("Extreme cold warning: %.1f°C", s.TemperatureC)
			}
			return fmt.Sprintf("Low temperature warning: %.1f°C", s.TemperatureC)
		},
	},
	{
		high:   func(s models.WeatherSnapshot) bool { return s.WindSpeed >= 20 },
		medium: func(s models.WeatherSnapshot) bool { return s.WindSpeed >= 15 },
		format: func(s models.WeatherSnapshot, level models.Severity) string {
			if level == models.SeverityHigh {
				return fmt.Sprintf("Dangerous wind warning: %.1f m/s", s.WindSpeed)
			}
			return fmt.Sprintf("Strong wind warning: %.1f m/s", s.WindSpeed)
		},
	},
	{
		high:   func(s models.WeatherSnapshot) bool { return s.RainfallMmH >= 50 },
		medium: func(s models.WeatherSnapshot) bool { return s.RainfallMmH >= 20 },
		format: func(s models.WeatherSnapshot, level models.Severity) string {
			if level == models.SeverityHigh {
				return fmt.Sprintf("Extreme rainfall warning: %.1f mm/h", s.RainfallMmH)
			}
			return fmt.Sprintf("Heavy rainfall warning: %.1f mm/h", s.RainfallMmH)
		},
	},
	{
		high:   func(s models.WeatherSnapshot) bool { return s.VisibilityKm < 1 },
		medium: func(s models.WeatherSnapshot) bool { return s.VisibilityKm < 2 },
		format: func(s models.WeatherSnapshot, level models.Severity) string {
			if level == models.SeverityHigh {
				return fmt.Sprintf("Very poor visibility warning: %.1f km", s.VisibilityKm)
			}
			return fmt.Sprintf("Poor visibility warning: %.1f km", s.VisibilityKm)
		},
	},
}

// AnalyzeWeather evaluates every threshold rule independently. Each rule
// that fires adds one warning; the assessment severity is the highest level
// reached, or low when nothing fires.
func AnalyzeWeather(s models.WeatherSnapshot) WeatherAssessment {
	a := WeatherAssessment{
		Warnings: []string{},
		Severity: models.SeverityLow,
	}

	for _, r := range weatherRules {
		var level models.Severity
		switch {
		case r.high(s):
			level = models.SeverityHigh
		case r.medium(s):
			level = models.SeverityMedium
		default:
			continue
		}
		a.Warnings = append(a.Warnings, r.format(s, level))
		a.Severity = models.MaxSeverity(a.Severity, level)
	}

	return a
}
