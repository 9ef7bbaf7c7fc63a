package gpx

import "encoding/xml"

const (
	// Namespace is the GPX 1.1 default namespace.
	Namespace = "http://www.topografix.com/GPX/1/1"
	// TrackPointExtensionNamespace carries per-point heart rate.
	TrackPointExtensionNamespace = "http://www.garmin.com/xmlschemas/TrackPointExtension/v1"

	Version        = "1.1"
	DefaultCreator = "onmove-export"
	DefaultName    = "ONmove 200"
)

// GPX is the document written for one track. Coordinates and times are kept
// as preformatted strings so the encoded bytes depend only on the input track.
type GPX struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`

	XMLNS       string `xml:"xmlns,attr"`
	XMLNSGPXTPX string `xml:"xmlns:gpxtpx,attr"`

	Metadata Metadata `xml:"metadata"`
	Tracks   []Track  `xml:"trk"`
}

// Metadata holds the human readable activity name.
type Metadata struct {
	Name string `xml:"name"`
}

// Track is a single GPX track.
type Track struct {
	Segments []TrackSegment `xml:"trkseg"`
}

// TrackSegment holds the points of a track in sample order.
type TrackSegment struct {
	Points []Point `xml:"trkpt"`
}

// Point is one trkpt element.
type Point struct {
	Lat        string      `xml:"lat,attr"`
	Lon        string      `xml:"lon,attr"`
	Elevation  string      `xml:"ele,omitempty"`
	Time       string      `xml:"time"`
	Extensions *Extensions `xml:"extensions,omitempty"`
}

// Extensions wraps the Garmin track point extension.
type Extensions struct {
	TrackPoint TrackPointExtension `xml:"gpxtpx:TrackPointExtension"`
}

// TrackPointExtension carries heart rate in the gpxtpx namespace.
type TrackPointExtension struct {
	HeartRate uint8 `xml:"gpxtpx:hr"`
}

// PointCount returns the number of trkpt elements across all segments.
func (g *GPX) PointCount() int {
	n := 0
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			n += len(seg.Points)
		}
	}
	return n
}
