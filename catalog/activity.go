// Package catalog records exported activities in a local SQLite database so
// repeated runs over the same watch directory can skip logs already handled.
package catalog

import "time"

// Activity is one exported OMD log.
type Activity struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	SourceName   string    `json:"source_name"`
	SourceSHA256 string    `json:"source_sha256" gorm:"uniqueIndex"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	AnchorSource string    `json:"anchor_source"`
	Samples      int       `json:"samples"`
	DistanceKm   float64   `json:"distance_km"`
	DurationSec  float64   `json:"duration_sec"`
	AvgHeartRate float64   `json:"avg_heart_rate"`
	MaxHeartRate float64   `json:"max_heart_rate"`
	OutputGPX    string    `json:"output_gpx"`
	CreatedAt    time.Time `json:"created_at"`
}
