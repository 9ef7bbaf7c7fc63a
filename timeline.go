package onmove

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptySequence is returned when a track has no samples to anchor.
var ErrEmptySequence = errors.New("empty sample sequence")

// AnchorKind names where a track's end date came from.
type AnchorKind string

const (
	// AnchorSummary means the end date was read from the OMH summary.
	AnchorSummary AnchorKind = "summary"
	// AnchorFallback means no summary existed and the log's modification time was used.
	AnchorFallback AnchorKind = "file_mtime"
)

// Anchor is the absolute end-of-activity time used to back-compute sample times.
// Build one with SummaryAnchor or FallbackAnchor.
type Anchor struct {
	kind    AnchorKind
	end     time.Time
	summary *ActivitySummary
}

// SummaryAnchor anchors on the end date recorded in an OMH summary,
// read as wall-clock time in loc.
func SummaryAnchor(s *ActivitySummary, loc *time.Location) Anchor {
	if s == nil {
		return Anchor{}
	}
	return Anchor{kind: AnchorSummary, end: s.EndDate.In(loc), summary: s}
}

// FallbackAnchor anchors on a timestamp supplied by the caller, usually the
// log file's modification time. Seconds are kept.
func FallbackAnchor(t time.Time, loc *time.Location) Anchor {
	if loc == nil {
		loc = time.UTC
	}
	return Anchor{kind: AnchorFallback, end: t.In(loc)}
}

// Kind reports which source the anchor was resolved from.
func (a Anchor) Kind() AnchorKind { return a.kind }

// End is the absolute end of the activity in the configured zone.
func (a Anchor) End() time.Time { return a.end }

// Summary returns the OMH summary behind the anchor, or nil for a fallback.
func (a Anchor) Summary() *ActivitySummary { return a.summary }

// IsZero reports whether the anchor was never resolved.
func (a Anchor) IsZero() bool { return a.kind == "" }

// NewTrack stamps every sample with start + elapsed, where start is the anchor
// minus the elapsed offset of the last sample in file order. The samples are
// copied so the track owns its sequence.
func NewTrack(name string, anchor Anchor, samples []Sample) (*Track, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("reconstruct %s: %w", name, ErrEmptySequence)
	}
	if anchor.IsZero() {
		return nil, fmt.Errorf("reconstruct %s: anchor is not set", name)
	}

	owned := make([]Sample, len(samples))
	copy(owned, samples)

	last := owned[len(owned)-1]
	start := anchor.End().Add(-seconds(last.ElapsedSeconds))
	for i := range owned {
		owned[i].Timestamp = start.Add(seconds(owned[i].ElapsedSeconds))
	}

	return &Track{
		Name:         name,
		Samples:      owned,
		StartDate:    start,
		EndDate:      anchor.End(),
		AnchorSource: anchor.Kind(),
		Summary:      anchor.Summary(),
	}, nil
}

func seconds(v uint16) time.Duration {
	return time.Duration(v) * time.Second
}
