package pipeline

import (
	"fmt"
	"strings"
	"time"
)

const maxOffset = 14 * time.Hour

// ParseOffset turns a fixed UTC offset such as "+02:00" or "-0530" into a
// location. "Z" and "UTC" mean zero offset.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "Z" || strings.EqualFold(s, "UTC") {
		return time.FixedZone("+00:00", 0), nil
	}

	layout := "-07:00"
	if !strings.Contains(s, ":") {
		layout = "-0700"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: expected +HH:MM", ErrInvalidOffset, s)
	}
	_, offset := t.Zone()
	if d := time.Duration(offset) * time.Second; d > maxOffset || d < -maxOffset {
		return nil, fmt.Errorf("%w %q: out of range", ErrInvalidOffset, s)
	}
	return time.FixedZone(t.Format("-07:00"), offset), nil
}

// ParseFormats validates format names. Blank names are ignored and an empty
// list selects GPX only.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]struct{}, len(names))
	out := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case "":
			continue
		case FormatGPX, FormatTSV, FormatParquet, FormatFIT, FormatJSON:
		default:
			return nil, fmt.Errorf("%w %q (expected gpx|tsv|parquet|fit|json)", ErrUnknownFormat, name)
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(out) == 0 {
		return []Format{FormatGPX}, nil
	}
	return out, nil
}
