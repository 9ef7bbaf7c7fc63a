package omd

import (
	"errors"

	onmove "github.com/lucasjlepore/onmove-export"
)

const (
	// ChunkSize is the length of a chunk holding two samples.
	ChunkSize = 60
	// TrailerChunkSize is the length of a final chunk holding one sample.
	TrailerChunkSize = 40
	// SummarySize is the minimum length of an OMH summary buffer.
	SummarySize = 52

	coordBlockSize     = 20
	telemetryBlockSize = 10

	// DumpFormatVersion identifies the on-disk schema of Inspect bundles.
	DumpFormatVersion = "omd_jsonl_v1"
)

var (
	// ErrMalformedSummary is returned when an OMH buffer is shorter than SummarySize.
	ErrMalformedSummary = errors.New("malformed summary")
	// ErrTruncatedRecord is returned when an OMD buffer ends in a chunk that is
	// neither ChunkSize nor TrailerChunkSize bytes long.
	ErrTruncatedRecord = errors.New("truncated record")
)

// Dump is the lossless inspection view of an OMD log.
type Dump struct {
	FormatVersion   string           `json:"format_version"`
	SourceSHA256    string           `json:"source_sha256"`
	SourceSizeBytes int64            `json:"source_size_bytes"`
	ChunkCount      int              `json:"chunk_count"`
	HasTrailer      bool             `json:"has_trailer"`
	Records         []RecordEnvelope `json:"-"`
}

// RecordEnvelope is one JSONL line of an inspection bundle.
// The stream preserves original sample order.
type RecordEnvelope struct {
	FormatVersion        string        `json:"format_version"`
	RecordIndex          int           `json:"record_index"`
	ChunkIndex           int           `json:"chunk_index"`
	Slot                 int           `json:"slot"` // 0 or 1 within a two-sample chunk
	CoordOffset          int64         `json:"coord_offset"`
	TelemetryOffset      int64         `json:"telemetry_offset"`
	Sample               onmove.Sample `json:"sample"`
	CoordReservedHex     string        `json:"coord_reserved_hex"`
	TelemetryReservedHex string        `json:"telemetry_reserved_hex"`
	RawCoordHex          string        `json:"raw_coord_hex"`
	RawTelemetryHex      string        `json:"raw_telemetry_hex"`
}
