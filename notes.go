package onmove

import (
	"fmt"
	"math"
	"strings"
)

// BuildNotes turns analysis metrics into a readable activity report.
func BuildNotes(a *Analysis) string {
	if a == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Activity: %s (%d samples, anchor %s)\n", a.Name, a.SampleCount, a.AnchorSource)
	if !a.StartTime.IsZero() {
		fmt.Fprintf(
			&b,
			"Start: %s | End: %s\n",
			a.StartTime.Format("2006-01-02 15:04:05"),
			a.EndTime.Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Fprintf(
		&b,
		"Duration %s | Distance %.2f km (%s) | GPS path %.2f km\n",
		formatDuration(a.ElapsedSeconds),
		a.DistanceMeters/1000.0,
		a.DistanceSource,
		a.GPSDistanceMeters/1000.0,
	)
	fmt.Fprintf(
		&b,
		"Speed %.2f avg / %.2f max | HR %.0f avg / %.0f max bpm | Calories %d\n",
		a.AvgSpeed,
		a.MaxSpeed,
		a.AvgHeartRate,
		a.MaxHeartRate,
		a.Calories,
	)

	if a.HeartRateLimits != nil && len(a.HeartRateZones) > 0 {
		fmt.Fprintf(&b, "\nHeart Rate Band %.0f-%.0f bpm\n", a.HeartRateLimits.Low, a.HeartRateLimits.High)
		for _, z := range a.HeartRateZones {
			fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", z.Zone, formatDuration(z.Seconds), z.Percentage)
		}
	}

	if len(a.Splits) > 0 {
		b.WriteString("\nSplits\n")
		for _, s := range a.Splits {
			label := "km"
			if s.Partial {
				label = fmt.Sprintf("%.0f m", s.DistanceMeters)
			}
			fmt.Fprintf(
				&b,
				"- %02d %-6s | %s | pace %s/km | HR %.0f avg / %.0f max\n",
				s.Index,
				label,
				formatDuration(s.DurationSeconds),
				formatPace(s.PaceSecondsPerKm),
				s.AvgHeartRate,
				s.MaxHeartRate,
			)
		}
	}

	return strings.TrimSpace(b.String())
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func formatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 || !isFinite(secondsPerKm) {
		return "--:--"
	}
	s := int(math.Round(secondsPerKm))
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
