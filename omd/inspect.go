package omd

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Inspect decodes an OMD buffer into a lossless dump. Every sample is
// accompanied by its raw blocks and the bytes the decoder does not interpret.
func Inspect(b []byte) (*Dump, error) {
	pairs, err := layout(b)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(b)
	dump := &Dump{
		FormatVersion:   DumpFormatVersion,
		SourceSHA256:    hex.EncodeToString(sum[:]),
		SourceSizeBytes: int64(len(b)),
		ChunkCount:      len(b) / ChunkSize,
		HasTrailer:      len(b)%ChunkSize == TrailerChunkSize,
		Records:         make([]RecordEnvelope, 0, len(pairs)),
	}
	if dump.HasTrailer {
		dump.ChunkCount++
	}

	for i, p := range pairs {
		coord := b[p.coord : p.coord+coordBlockSize]
		telem := b[p.telemetry : p.telemetry+telemetryBlockSize]
		dump.Records = append(dump.Records, RecordEnvelope{
			FormatVersion:        DumpFormatVersion,
			RecordIndex:          i,
			ChunkIndex:           p.chunk,
			Slot:                 p.slot,
			CoordOffset:          int64(p.coord),
			TelemetryOffset:      int64(p.telemetry),
			Sample:               decodeSample(b, p),
			CoordReservedHex:     hex.EncodeToString(coord[14:]),
			TelemetryReservedHex: hex.EncodeToString(telem[0:2]) + hex.EncodeToString(telem[7:]),
			RawCoordHex:          hex.EncodeToString(coord),
			RawTelemetryHex:      hex.EncodeToString(telem),
		})
	}
	return dump, nil
}

// Manifest describes an inspection bundle written by WriteBundle.
type Manifest struct {
	FormatVersion   string    `json:"format_version"`
	GeneratedAt     time.Time `json:"generated_at"`
	SourceFile      string    `json:"source_file"`
	SourceSHA256    string    `json:"source_sha256"`
	SourceSizeBytes int64     `json:"source_size_bytes"`
	ChunkCount      int       `json:"chunk_count"`
	HasTrailer      bool      `json:"has_trailer"`
	RecordsPath     string    `json:"records_path"`
	RecordCount     int       `json:"record_count"`
	Notes           []string  `json:"notes,omitempty"`
}

// WriteBundle writes manifest.json and records.jsonl for dump into dir.
// The directory must be empty unless overwrite is set.
func WriteBundle(dir, sourceFile string, dump *Dump, overwrite bool) (*Manifest, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if dump == nil {
		return nil, fmt.Errorf("dump is required")
	}
	if err := ensureOutputDir(dir, overwrite); err != nil {
		return nil, err
	}

	records, err := MarshalJSONL(dump.Records)
	if err != nil {
		return nil, fmt.Errorf("encode records.jsonl: %w", err)
	}
	recordsPath := filepath.Join(dir, "records.jsonl")
	if err := os.WriteFile(recordsPath, records, 0o644); err != nil {
		return nil, fmt.Errorf("write records.jsonl: %w", err)
	}

	manifest := &Manifest{
		FormatVersion:   DumpFormatVersion,
		GeneratedAt:     time.Now().UTC(),
		SourceFile:      sourceFile,
		SourceSHA256:    dump.SourceSHA256,
		SourceSizeBytes: dump.SourceSizeBytes,
		ChunkCount:      dump.ChunkCount,
		HasTrailer:      dump.HasTrailer,
		RecordsPath:     filepath.Base(recordsPath),
		RecordCount:     len(dump.Records),
		Notes: []string{
			"One JSONL line per sample in file order.",
			"Offsets are absolute byte positions of the coordinate and telemetry blocks.",
			"Reserved bytes are kept as hex; coordinate bytes 14..19 are the unused altitude slot.",
		},
	}
	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), append(out, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}
	return manifest, nil
}

// MarshalJSONL renders record envelopes as JSONL bytes.
func MarshalJSONL(records []RecordEnvelope) ([]byte, error) {
	var buf bytes.Buffer
	w := bufio.NewWriterSize(&buf, 1<<20)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}
