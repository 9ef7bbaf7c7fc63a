package onmove

import (
	"math"
	"time"
)

const earthRadiusMeters = 6371000.0

// Analysis contains metrics derived from a reconstructed track.
type Analysis struct {
	Name              string         `json:"name"`
	AnchorSource      AnchorKind     `json:"anchor_source"`
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time"`
	ElapsedSeconds    float64        `json:"elapsed_seconds"`
	SampleCount       int            `json:"sample_count"`
	DistanceMeters    float64        `json:"distance_meters"`
	DistanceSource    string         `json:"distance_source"`
	GPSDistanceMeters float64        `json:"gps_distance_meters"`
	Calories          int            `json:"calories"`
	AvgSpeed          float64        `json:"avg_speed"`
	MaxSpeed          float64        `json:"max_speed"`
	AvgHeartRate      float64        `json:"avg_heart_rate_bpm"`
	MaxHeartRate      float64        `json:"max_heart_rate_bpm"`
	HeartRateLimits   *HeartRateBand `json:"heart_rate_limits,omitempty"`
	HeartRateZones    []ZoneDuration `json:"heart_rate_zones,omitempty"`
	Splits            []Split        `json:"splits,omitempty"`
	Notes             string         `json:"notes"`
}

// HeartRateBand is the target band programmed on the watch.
type HeartRateBand struct {
	Low  float64 `json:"low_bpm"`
	High float64 `json:"high_bpm"`
}

// ZoneDuration stores time spent relative to the heart-rate band.
type ZoneDuration struct {
	Zone       string  `json:"zone"`
	MinBPM     float64 `json:"min_bpm"`
	MaxBPM     float64 `json:"max_bpm"`
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// Analyze derives summary metrics from a track. Values recorded in the OMH
// summary take precedence over values recomputed from samples.
func Analyze(t *Track) *Analysis {
	if t == nil {
		return nil
	}

	a := &Analysis{
		Name:           t.Name,
		AnchorSource:   t.AnchorSource,
		StartTime:      t.StartDate,
		EndTime:        t.EndDate,
		ElapsedSeconds: t.Duration().Seconds(),
		SampleCount:    len(t.Samples),
	}

	hr := make([]float64, 0, len(t.Samples))
	speed := make([]float64, 0, len(t.Samples))
	maxCalories := uint16(0)
	for _, s := range t.Samples {
		if s.HeartRate > 0 {
			hr = append(hr, float64(s.HeartRate))
		}
		speed = append(speed, s.Speed)
		if s.Calories > maxCalories {
			maxCalories = s.Calories
		}
	}

	a.GPSDistanceMeters = pathDistance(t.Samples)
	a.DistanceMeters, a.DistanceSource = a.GPSDistanceMeters, "gps"
	if d := lastDeviceDistance(t.Samples); d > 0 {
		a.DistanceMeters, a.DistanceSource = d, "device"
	}

	a.AvgSpeed = average(speed)
	a.MaxSpeed = maxValue(speed)
	a.AvgHeartRate = average(hr)
	a.MaxHeartRate = maxValue(hr)
	a.Calories = int(maxCalories)

	if s := t.Summary; s != nil {
		if s.TotalDistanceKm > 0 {
			a.DistanceMeters, a.DistanceSource = s.TotalDistanceKm*1000.0, "summary"
		}
		if s.DurationSec > 0 {
			a.ElapsedSeconds = float64(s.DurationSec)
		}
		if s.AvgSpeed > 0 {
			a.AvgSpeed = s.AvgSpeed
		}
		if s.MaxSpeed > 0 {
			a.MaxSpeed = s.MaxSpeed
		}
		if s.TotalCalories > 0 {
			a.Calories = int(s.TotalCalories)
		}
		if s.AvgHeartRate > 0 {
			a.AvgHeartRate = float64(s.AvgHeartRate)
		}
		if s.MaxHeartRate > 0 {
			a.MaxHeartRate = float64(s.MaxHeartRate)
		}
		if s.HeartRateLimitLow > 0 && s.HeartRateLimitHigh > s.HeartRateLimitLow {
			a.HeartRateLimits = &HeartRateBand{
				Low:  float64(s.HeartRateLimitLow),
				High: float64(s.HeartRateLimitHigh),
			}
		}
	}

	a.HeartRateZones = buildHeartRateZones(t.Samples, a.HeartRateLimits)
	a.Splits = BuildSplits(t.Samples, 1000)
	a.Notes = BuildNotes(a)
	return a
}

// buildHeartRateZones attributes the time since the previous sample to the
// zone of the current sample's heart rate.
func buildHeartRateZones(samples []Sample, band *HeartRateBand) []ZoneDuration {
	if band == nil || len(samples) < 2 {
		return nil
	}

	zones := []ZoneDuration{
		{Zone: "below", MinBPM: 0, MaxBPM: band.Low},
		{Zone: "within", MinBPM: band.Low, MaxBPM: band.High},
		{Zone: "above", MinBPM: band.High, MaxBPM: 255},
	}

	total := 0.0
	for i := 1; i < len(samples); i++ {
		cur := samples[i]
		if cur.HeartRate == 0 || cur.ElapsedSeconds < samples[i-1].ElapsedSeconds {
			continue
		}
		dt := float64(cur.ElapsedSeconds - samples[i-1].ElapsedSeconds)
		bpm := float64(cur.HeartRate)
		switch {
		case bpm < band.Low:
			zones[0].Seconds += dt
		case bpm <= band.High:
			zones[1].Seconds += dt
		default:
			zones[2].Seconds += dt
		}
		total += dt
	}
	if total == 0 {
		return nil
	}
	for i := range zones {
		zones[i].Percentage = (zones[i].Seconds / total) * 100.0
	}
	return zones
}

func lastDeviceDistance(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return float64(samples[len(samples)-1].DistanceM)
}

func pathDistance(samples []Sample) float64 {
	total := 0.0
	for i := 1; i < len(samples); i++ {
		total += haversine(samples[i-1], samples[i])
	}
	return total
}

// haversine returns the great-circle distance in metres.
func haversine(p1, p2 Sample) float64 {
	lat1 := p1.Latitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	dLat := (p2.Latitude - p1.Latitude) * math.Pi / 180
	dLon := (p2.Longitude - p1.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if h > 1 {
		h = 1
	}
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	max := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return max
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
