package models

import "time"

// Report is a hazard submitted by a user of the map.
type Report struct {
	ID          string     `json:"id" db:"id"`
	Type        HazardType `json:"type" db:"type"`
	Severity    Severity   `json:"severity" db:"severity"`
	Latitude    float64    `json:"lat" db:"latitude"`
	Longitude   float64    `json:"lng" db:"longitude"`
	Description string     `json:"description" db:"description"`
	Reporter    string     `json:"reporter,omitempty" db:"reporter"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// Hazard converts the report into the common hazard schema.
func (r *Report) Hazard() Hazard {
	return Hazard{
		ID:          "report_" + r.ID,
		Source:      "reports",
		Type:        r.Type,
		Severity:    r.Severity,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Description: r.Description,
		Timestamp:   r.CreatedAt,
		Details: ReportDetails{
			ReportID: r.ID,
			Reporter: r.Reporter,
		},
	}
}
