package gpx

import (
	"errors"
	"fmt"

	gpxgo "github.com/tkrajina/gpxgo/gpx"
)

// ErrVerify is returned when an encoded document does not read back as expected.
var ErrVerify = errors.New("gpx verification failed")

// Verify parses data with an independent GPX reader and checks the document
// version and that it holds exactly wantPoints track points.
func Verify(data []byte, wantPoints int) error {
	doc, err := gpxgo.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if doc.Version != Version {
		return fmt.Errorf("%w: version %q", ErrVerify, doc.Version)
	}

	got := 0
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			got += len(seg.Points)
		}
	}
	if got != wantPoints {
		return fmt.Errorf("%w: %d track points, want %d", ErrVerify, got, wantPoints)
	}
	return nil
}
