package onmove

// Split summarizes one fixed-distance section of a track.
type Split struct {
	Index              int     `json:"index"`
	StartOffsetSeconds float64 `json:"start_offset_seconds"`
	EndOffsetSeconds   float64 `json:"end_offset_seconds"`
	DurationSeconds    float64 `json:"duration_seconds"`
	DistanceMeters     float64 `json:"distance_meters"`
	PaceSecondsPerKm   float64 `json:"pace_seconds_per_km"`
	AvgHeartRate       float64 `json:"avg_heart_rate_bpm"`
	MaxHeartRate       float64 `json:"max_heart_rate_bpm"`
	Partial            bool    `json:"partial,omitempty"`
}

// BuildSplits cuts the track every splitMeters of cumulative distance. The
// device odometer is used when the log carries one, otherwise the distance
// is accumulated from the positions. A trailing partial split is kept.
func BuildSplits(samples []Sample, splitMeters float64) []Split {
	if len(samples) < 2 || splitMeters <= 0 {
		return nil
	}

	cumulative := cumulativeDistance(samples)
	splits := make([]Split, 0, int(cumulative[len(cumulative)-1]/splitMeters)+1)

	startIdx := 0
	for i := 1; i < len(samples); i++ {
		if cumulative[i]-cumulative[startIdx] < splitMeters && i != len(samples)-1 {
			continue
		}
		split := buildSplit(samples[startIdx:i+1], cumulative[i]-cumulative[startIdx])
		split.Index = len(splits) + 1
		split.Partial = split.DistanceMeters < splitMeters
		if split.DistanceMeters > 0 {
			splits = append(splits, split)
		}
		startIdx = i
	}
	return splits
}

func buildSplit(window []Sample, distance float64) Split {
	first := window[0]
	last := window[len(window)-1]

	hr := make([]float64, 0, len(window))
	for _, s := range window[1:] {
		if s.HeartRate > 0 {
			hr = append(hr, float64(s.HeartRate))
		}
	}

	split := Split{
		StartOffsetSeconds: float64(first.ElapsedSeconds),
		EndOffsetSeconds:   float64(last.ElapsedSeconds),
		DistanceMeters:     distance,
		AvgHeartRate:       average(hr),
		MaxHeartRate:       maxValue(hr),
	}
	split.DurationSeconds = split.EndOffsetSeconds - split.StartOffsetSeconds
	if split.DurationSeconds < 0 {
		split.DurationSeconds = 0
	}
	if distance > 0 {
		split.PaceSecondsPerKm = split.DurationSeconds / (distance / 1000.0)
	}
	return split
}

func cumulativeDistance(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	if lastDeviceDistance(samples) > 0 {
		for i, s := range samples {
			out[i] = float64(s.DistanceM)
		}
		return out
	}
	for i := 1; i < len(samples); i++ {
		out[i] = out[i-1] + haversine(samples[i-1], samples[i])
	}
	return out
}
