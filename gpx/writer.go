package gpx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	onmove "github.com/lucasjlepore/onmove-export"
)

const (
	timeLayout = "2006-01-02T15:04:05-07:00"
	nameLayout = "2006-01-02 15:04"
)

// Options controls document level fields of a generated GPX.
type Options struct {
	Creator string
	// Name prefixes the formatted end date in <metadata><name>.
	Name string
	// Location overrides the zone used for <time>. Nil keeps the zone the
	// track timestamps were reconstructed in.
	Location *time.Location
}

// FromTrack builds a GPX document with one track and one segment holding a
// point per sample.
func FromTrack(t *onmove.Track, opts Options) *GPX {
	if opts.Creator == "" {
		opts.Creator = DefaultCreator
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}

	points := make([]Point, 0, len(t.Samples))
	for _, s := range t.Samples {
		points = append(points, buildPoint(s, opts.Location))
	}

	end := t.EndDate
	if opts.Location != nil {
		end = end.In(opts.Location)
	}

	return &GPX{
		Version:     Version,
		Creator:     opts.Creator,
		XMLNS:       Namespace,
		XMLNSGPXTPX: TrackPointExtensionNamespace,
		Metadata:    Metadata{Name: opts.Name + " " + end.Format(nameLayout)},
		Tracks: []Track{
			{Segments: []TrackSegment{{Points: points}}},
		},
	}
}

func buildPoint(s onmove.Sample, loc *time.Location) Point {
	ts := s.Timestamp
	if loc != nil {
		ts = ts.In(loc)
	}
	p := Point{
		Lat:  formatDegrees(s.Latitude),
		Lon:  formatDegrees(s.Longitude),
		Time: ts.Format(timeLayout),
		Extensions: &Extensions{
			TrackPoint: TrackPointExtension{HeartRate: s.HeartRate},
		},
	}
	if s.Altitude != 0 {
		p.Elevation = strconv.FormatFloat(s.Altitude, 'f', -1, 64)
	}
	return p
}

// formatDegrees prints the shortest decimal that parses back to v.
func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Marshal renders the document with an XML declaration.
func (g *GPX) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes the document to w.
func (g *GPX) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}

	_, err := io.WriteString(w, "\n")
	return err
}
