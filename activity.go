package onmove

import (
	"fmt"
	"time"
)

// Sample is one decoded track point from an OMD log.
type Sample struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DistanceM      uint32    `json:"distance_m"`
	ElapsedSeconds uint16    `json:"elapsed_s"`
	Speed          float64   `json:"speed"` // raw / 100, unit as reported by the device
	Calories       uint16    `json:"calories"`
	HeartRate      uint8     `json:"heart_rate"`
	Altitude       float64   `json:"altitude,omitempty"` // reserved; the OMD layout carries no decoded altitude
	Timestamp      time.Time `json:"timestamp"`
}

// DeviceClock is the zone-less wall-clock minute written by the watch.
type DeviceClock struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Day    int        `json:"day"`
	Hour   int        `json:"hour"`
	Minute int        `json:"minute"`
}

// In places the wall-clock reading in loc.
func (c DeviceClock) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, 0, 0, loc)
}

func (c DeviceClock) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", c.Year, int(c.Month), c.Day, c.Hour, c.Minute)
}

// ActivitySummary holds the aggregate statistics of an OMH summary file.
type ActivitySummary struct {
	TotalDistanceKm    float64     `json:"total_distance_km"`
	DurationSec        uint16      `json:"duration_s"`
	AvgSpeed           float64     `json:"avg_speed"`
	MaxSpeed           float64     `json:"max_speed"`
	TotalCalories      uint16      `json:"total_calories"`
	AvgHeartRate       uint8       `json:"avg_heart_rate"`
	MaxHeartRate       uint8       `json:"max_heart_rate"`
	EndDate            DeviceClock `json:"end_date"`
	FileNumber         uint8       `json:"file_number"`
	HeartRateLimitLow  uint8       `json:"heart_rate_limit_low"`
	HeartRateLimitHigh uint8       `json:"heart_rate_limit_high"`
	Reserved           []byte      `json:"-"`
}

// Track is a reconstructed activity: samples stamped with absolute times.
type Track struct {
	Name         string           `json:"name"`
	Samples      []Sample         `json:"samples"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
	AnchorSource AnchorKind       `json:"anchor_source"`
	Summary      *ActivitySummary `json:"summary,omitempty"`
}

// Duration is the elapsed time between the first reconstructed start and the anchor.
func (t *Track) Duration() time.Duration {
	if t == nil {
		return 0
	}
	return t.EndDate.Sub(t.StartDate)
}
