package onmove

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestNewTrackBackComputesStartFromLastSample(t *testing.T) {
	loc := time.FixedZone("+02:00", 2*3600)
	summary := &ActivitySummary{
		EndDate: DeviceClock{Year: 2023, Month: time.June, Day: 12, Hour: 20, Minute: 25},
	}

	track, err := NewTrack("ACT_0001", SummaryAnchor(summary, loc), []Sample{
		{ElapsedSeconds: 0, HeartRate: 120},
		{ElapsedSeconds: 10, HeartRate: 125},
	})
	if err != nil {
		t.Fatalf("NewTrack error: %v", err)
	}

	wantStart := time.Date(2023, 6, 12, 20, 24, 50, 0, loc)
	if !track.StartDate.Equal(wantStart) {
		t.Fatalf("start date: got %s want %s", track.StartDate, wantStart)
	}
	if got := track.Samples[0].Timestamp.Format(time.RFC3339); got != "2023-06-12T20:24:50+02:00" {
		t.Fatalf("first timestamp: got %s", got)
	}
	if got := track.Samples[1].Timestamp.Format(time.RFC3339); got != "2023-06-12T20:25:00+02:00" {
		t.Fatalf("last timestamp: got %s", got)
	}
	if track.AnchorSource != AnchorSummary {
		t.Fatalf("anchor source: got %q", track.AnchorSource)
	}
	if track.Summary != summary {
		t.Fatal("expected summary to be carried on the track")
	}
}

func TestNewTrackEmptySequence(t *testing.T) {
	_, err := NewTrack("ACT_0002", FallbackAnchor(time.Now(), time.UTC), nil)
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected ErrEmptySequence, got %v", err)
	}
}

func TestNewTrackRequiresAnchor(t *testing.T) {
	if _, err := NewTrack("ACT_0003", Anchor{}, []Sample{{ElapsedSeconds: 1}}); err == nil {
		t.Fatal("expected error for zero anchor")
	}
}

func TestNewTrackTimestampsIndependentOfOrder(t *testing.T) {
	end := time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)
	samples := make([]Sample, 50)
	for i := range samples {
		samples[i] = Sample{ElapsedSeconds: uint16(i * 7)}
	}
	last := samples[len(samples)-1].ElapsedSeconds

	// Shuffle all but the final sample; the last sample in file order anchors the start.
	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	r := rand.New(rand.NewSource(42))
	r.Shuffle(len(shuffled)-1, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	track, err := NewTrack("shuffled", FallbackAnchor(end, time.UTC), shuffled)
	if err != nil {
		t.Fatalf("NewTrack error: %v", err)
	}

	start := end.Add(-time.Duration(last) * time.Second)
	if !track.StartDate.Equal(start) {
		t.Fatalf("start: got %s want %s", track.StartDate, start)
	}
	for _, s := range track.Samples {
		want := start.Add(time.Duration(s.ElapsedSeconds) * time.Second)
		if !s.Timestamp.Equal(want) {
			t.Fatalf("sample at %ds: got %s want %s", s.ElapsedSeconds, s.Timestamp, want)
		}
	}
}

func TestNewTrackCopiesSamples(t *testing.T) {
	samples := []Sample{{ElapsedSeconds: 0}, {ElapsedSeconds: 5}}
	track, err := NewTrack("copy", FallbackAnchor(time.Unix(1700000000, 0), time.UTC), samples)
	if err != nil {
		t.Fatalf("NewTrack error: %v", err)
	}
	if !samples[0].Timestamp.IsZero() {
		t.Fatal("input samples must not be stamped")
	}
	track.Samples[0].HeartRate = 99
	if samples[0].HeartRate == 99 {
		t.Fatal("track must own its samples")
	}
}

func TestFallbackAnchorUsesLocation(t *testing.T) {
	loc := time.FixedZone("-05:00", -5*3600)
	mod := time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)
	a := FallbackAnchor(mod, loc)
	if a.Kind() != AnchorFallback {
		t.Fatalf("kind: got %q", a.Kind())
	}
	if got := a.End().Format("2006-01-02T15:04:05-07:00"); got != "2022-01-01T22:04:05-05:00" {
		t.Fatalf("end: got %s", got)
	}
}
