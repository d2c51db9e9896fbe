package models

// SafetyScore is a composite 0-100 index of the aggregate risk at a location.
// Higher is safer.
type SafetyScore struct {
	Overall      int      `json:"overall"`
	Earthquake   int      `json:"earthquake"`
	Weather      int      `json:"weather"`
	Landslide    int      `json:"landslide"`
	Explanations []string `json:"explanations"`
}

const ScoreErrorExplanation = "Error calculating safety score"

// DefaultSafetyScore is the neutral score reported when scoring fails.
func DefaultSafetyScore() SafetyScore {
	return SafetyScore{
		Overall:      50,
		Earthquake:   50,
		Weather:      50,
		Landslide:    50,
		Explanations: []string{ScoreErrorExplanation},
	}
}

type HeatmapPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Intensity float64 `json:"intensity"` // 0-100
}
