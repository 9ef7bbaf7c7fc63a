package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	onmove "github.com/lucasjlepore/onmove-export"
	"github.com/lucasjlepore/onmove-export/gpx"
	"github.com/lucasjlepore/onmove-export/omd"
)

const baseNameLayout = "20060102-1504"

// ExportBytes decodes one in-memory log pair and renders every requested
// artifact. It touches no filesystem; a returned error means no artifact
// should be written.
func ExportBytes(in Input, opts ExportOptions) (*Export, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []Format{FormatGPX}
	}

	anchor, err := resolveAnchor(in, loc)
	if err != nil {
		return nil, err
	}
	samples, err := omd.DecodeRecords(in.OMD)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", in.Name, err)
	}
	track, err := onmove.NewTrack(in.Name, anchor, samples)
	if err != nil {
		return nil, err
	}

	out := &Export{
		BaseName:     OutputPrefix + track.EndDate.Format(baseNameLayout),
		SourceSHA256: digest(in.OMD),
		Track:        track,
		Analysis:     onmove.Analyze(track),
		Files:        make(map[string][]byte, len(formats)),
	}

	for _, f := range formats {
		data, err := render(f, out, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s for %s: %w", f, in.Name, err)
		}
		out.Files[out.BaseName+"."+string(f)] = data
	}
	return out, nil
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// resolveAnchor prefers the OMH end date and falls back to the log's
// modification time when no summary was supplied.
func resolveAnchor(in Input, loc *time.Location) (onmove.Anchor, error) {
	if in.OMH == nil {
		if in.ModTime.IsZero() {
			return onmove.Anchor{}, fmt.Errorf("%s: no summary and no modification time to anchor on", in.Name)
		}
		return onmove.FallbackAnchor(in.ModTime, loc), nil
	}
	summary, err := omd.DecodeSummary(in.OMH)
	if err != nil {
		return onmove.Anchor{}, fmt.Errorf("decode summary for %s: %w", in.Name, err)
	}
	return onmove.SummaryAnchor(summary, loc), nil
}

func render(f Format, e *Export, opts ExportOptions) ([]byte, error) {
	switch f {
	case FormatGPX:
		data, err := gpx.FromTrack(e.Track, gpx.Options{Creator: opts.Creator}).Marshal()
		if err != nil {
			return nil, err
		}
		if opts.Verify {
			if err := gpx.Verify(data, len(e.Track.Samples)); err != nil {
				return nil, err
			}
		}
		return data, nil
	case FormatTSV:
		return marshalTSV(e.Track.Samples)
	case FormatParquet:
		return marshalParquet(e.Track.Samples)
	case FormatFIT:
		return marshalFIT(e.Track, e.Analysis)
	case FormatJSON:
		data, err := json.MarshalIndent(e.Analysis, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}
