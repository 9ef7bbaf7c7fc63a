package onmove

import (
	"math"
	"strings"
	"testing"
	"time"
)

func buildTestTrack(t *testing.T, summary *ActivitySummary) *Track {
	t.Helper()

	samples := make([]Sample, 0, 31)
	for i := 0; i <= 30; i++ {
		hr := uint8(110 + i*2)
		samples = append(samples, Sample{
			Latitude:       45.0 + float64(i)*0.001,
			Longitude:      6.0,
			DistanceM:      uint32(i * 100),
			ElapsedSeconds: uint16(i * 30),
			Speed:          12.0,
			Calories:       uint16(i * 2),
			HeartRate:      hr,
		})
	}

	end := time.Date(2024, 5, 4, 10, 15, 0, 0, time.UTC)
	anchor := FallbackAnchor(end, time.UTC)
	if summary != nil {
		summary.EndDate = DeviceClock{Year: 2024, Month: time.May, Day: 4, Hour: 10, Minute: 15}
		anchor = SummaryAnchor(summary, time.UTC)
	}
	track, err := NewTrack("run", anchor, samples)
	if err != nil {
		t.Fatalf("NewTrack error: %v", err)
	}
	return track
}

func TestAnalyzeFromSamples(t *testing.T) {
	a := Analyze(buildTestTrack(t, nil))

	if a.SampleCount != 31 {
		t.Fatalf("sample count: got %d", a.SampleCount)
	}
	if a.ElapsedSeconds != 900 {
		t.Fatalf("elapsed: got %v", a.ElapsedSeconds)
	}
	if a.DistanceSource != "device" || a.DistanceMeters != 3000 {
		t.Fatalf("distance: got %v (%s)", a.DistanceMeters, a.DistanceSource)
	}
	// 30 steps of 0.001 deg latitude is roughly 3.3 km.
	if math.Abs(a.GPSDistanceMeters-3335.8) > 5 {
		t.Fatalf("gps distance: got %v", a.GPSDistanceMeters)
	}
	if a.MaxHeartRate != 170 || a.AvgHeartRate != 140 {
		t.Fatalf("heart rate: avg %v max %v", a.AvgHeartRate, a.MaxHeartRate)
	}
	if a.Calories != 60 {
		t.Fatalf("calories: got %d", a.Calories)
	}
	if a.HeartRateZones != nil {
		t.Fatal("zones require summary heart-rate limits")
	}
	if len(a.Splits) != 3 {
		t.Fatalf("expected 3 km splits, got %d", len(a.Splits))
	}
	if a.Splits[0].DurationSeconds != 300 || a.Splits[0].PaceSecondsPerKm != 300 {
		t.Fatalf("first split: %+v", a.Splits[0])
	}
	if !strings.Contains(a.Notes, "Splits") {
		t.Fatalf("notes missing splits section:\n%s", a.Notes)
	}
}

func TestAnalyzePrefersSummaryValues(t *testing.T) {
	summary := &ActivitySummary{
		TotalDistanceKm:    3.2,
		DurationSec:        905,
		AvgSpeed:           12.7,
		MaxSpeed:           15.1,
		TotalCalories:      240,
		AvgHeartRate:       141,
		MaxHeartRate:       171,
		HeartRateLimitLow:  120,
		HeartRateLimitHigh: 150,
	}
	a := Analyze(buildTestTrack(t, summary))

	if a.DistanceSource != "summary" || a.DistanceMeters != 3200 {
		t.Fatalf("distance: got %v (%s)", a.DistanceMeters, a.DistanceSource)
	}
	if a.ElapsedSeconds != 905 || a.Calories != 240 || a.MaxSpeed != 15.1 {
		t.Fatalf("summary totals not applied: %+v", a)
	}
	if a.HeartRateLimits == nil || a.HeartRateLimits.Low != 120 {
		t.Fatalf("heart rate limits: %+v", a.HeartRateLimits)
	}
	if len(a.HeartRateZones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(a.HeartRateZones))
	}
	total := 0.0
	for _, z := range a.HeartRateZones {
		total += z.Seconds
	}
	if total != 900 {
		t.Fatalf("zone seconds should cover the track: got %v", total)
	}
	// HR 112..118 below 120: samples 1..4 -> 4 * 30s.
	if a.HeartRateZones[0].Seconds != 120 {
		t.Fatalf("below zone: got %v", a.HeartRateZones[0].Seconds)
	}
	if !strings.Contains(a.Notes, "Heart Rate Band 120-150") {
		t.Fatalf("notes missing band:\n%s", a.Notes)
	}
}

func TestBuildSplitsFallsBackToGPSDistance(t *testing.T) {
	samples := []Sample{
		{Latitude: 0, Longitude: 0, ElapsedSeconds: 0},
		{Latitude: 0.006, Longitude: 0, ElapsedSeconds: 200},
		{Latitude: 0.012, Longitude: 0, ElapsedSeconds: 400},
		{Latitude: 0.015, Longitude: 0, ElapsedSeconds: 500},
	}
	splits := BuildSplits(samples, 1000)
	if len(splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(splits))
	}
	if splits[0].Partial {
		t.Fatal("first split should be complete")
	}
	if !splits[1].Partial {
		t.Fatal("trailing split should be partial")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[float64]string{
		0:    "0s",
		45:   "45s",
		125:  "2m05s",
		3725: "1h02m05s",
	}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Fatalf("formatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
