package omd

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	onmove "github.com/lucasjlepore/onmove-export"
)

type rawSample struct {
	lat, lon float64
	dist     uint32
	elapsed  uint16
	speed    float64
	calories uint16
	hr       uint8
}

func buildCoord(s rawSample) []byte {
	c := make([]byte, coordBlockSize)
	binary.LittleEndian.PutUint32(c[0:4], uint32(int32(math.Round(s.lat*1e6))))
	binary.LittleEndian.PutUint32(c[4:8], uint32(int32(math.Round(s.lon*1e6))))
	binary.LittleEndian.PutUint32(c[8:12], s.dist)
	binary.LittleEndian.PutUint16(c[12:14], s.elapsed)
	copy(c[14:], []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01})
	return c
}

func buildTelemetry(s rawSample) []byte {
	t := make([]byte, telemetryBlockSize)
	t[0], t[1] = 0xaa, 0xbb
	binary.LittleEndian.PutUint16(t[2:4], uint16(math.Round(s.speed*100)))
	binary.LittleEndian.PutUint16(t[4:6], s.calories)
	t[6] = s.hr
	t[7] = 0xcc
	return t
}

func buildChunk(a, b rawSample) []byte {
	out := make([]byte, 0, ChunkSize)
	out = append(out, buildCoord(a)...)
	out = append(out, buildCoord(b)...)
	out = append(out, buildTelemetry(a)...)
	return append(out, buildTelemetry(b)...)
}

func buildTrailer(s rawSample) []byte {
	out := make([]byte, 0, TrailerChunkSize)
	out = append(out, buildCoord(s)...)
	out = append(out, buildTelemetry(s)...)
	return append(out, make([]byte, TrailerChunkSize-coordBlockSize-telemetryBlockSize)...)
}

func buildSummary(t *testing.T) []byte {
	t.Helper()

	b := make([]byte, SummarySize)
	binary.LittleEndian.PutUint32(b[0:4], 10234)
	binary.LittleEndian.PutUint16(b[4:6], 3605)
	binary.LittleEndian.PutUint16(b[6:8], 1022)
	binary.LittleEndian.PutUint16(b[8:10], 1750)
	binary.LittleEndian.PutUint16(b[10:12], 612)
	b[12], b[13] = 142, 178
	b[14], b[15], b[16], b[17], b[18] = 23, 6, 12, 20, 25
	b[19] = 7
	b[20] = 0x5a
	b[50], b[51] = 120, 165
	return b
}

func TestDecodeRecordsLengthFormula(t *testing.T) {
	s := rawSample{lat: 1, lon: 2}
	cases := []struct {
		name  string
		data  []byte
		count int
	}{
		{name: "empty", data: nil, count: 0},
		{name: "one chunk", data: buildChunk(s, s), count: 2},
		{name: "trailer only", data: buildTrailer(s), count: 1},
		{name: "chunk and trailer", data: append(buildChunk(s, s), buildTrailer(s)...), count: 3},
		{name: "three chunks", data: append(append(buildChunk(s, s), buildChunk(s, s)...), buildChunk(s, s)...), count: 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			samples, err := DecodeRecords(tc.data)
			if err != nil {
				t.Fatalf("DecodeRecords error: %v", err)
			}
			if len(samples) != tc.count {
				t.Fatalf("got %d samples, want %d", len(samples), tc.count)
			}
			if got := SampleCount(len(tc.data)); got != tc.count {
				t.Fatalf("SampleCount(%d) = %d, want %d", len(tc.data), got, tc.count)
			}
		})
	}
}

func TestDecodeRecordsRejectsTruncatedRemainder(t *testing.T) {
	s := rawSample{lat: 1, lon: 2}
	for _, tail := range []int{1, 25, 39, 41, 59} {
		data := append(buildChunk(s, s), make([]byte, tail)...)
		samples, err := DecodeRecords(data)
		if !errors.Is(err, ErrTruncatedRecord) {
			t.Fatalf("tail %d: expected ErrTruncatedRecord, got %v", tail, err)
		}
		if samples != nil {
			t.Fatalf("tail %d: expected no samples, got %d", tail, len(samples))
		}
	}
}

func TestDecodeRecordsInterleavedBlocks(t *testing.T) {
	first := rawSample{lat: 48.856613, lon: 2.352222, dist: 120, elapsed: 30, speed: 11.25, calories: 4, hr: 131}
	second := rawSample{lat: -33.856784, lon: -151.215297, dist: 245, elapsed: 60, speed: 12.5, calories: 9, hr: 137}
	last := rawSample{lat: 0.000001, lon: -0.000001, dist: 300, elapsed: 75, speed: 0.01, calories: 11, hr: 255}

	data := append(buildChunk(first, second), buildTrailer(last)...)
	samples, err := DecodeRecords(data)
	if err != nil {
		t.Fatalf("DecodeRecords error: %v", err)
	}
	want := []rawSample{first, second, last}
	for i, s := range samples {
		w := want[i]
		if s.Latitude != w.lat || s.Longitude != w.lon {
			t.Fatalf("sample %d position: got %v,%v want %v,%v", i, s.Latitude, s.Longitude, w.lat, w.lon)
		}
		if s.DistanceM != w.dist || s.ElapsedSeconds != w.elapsed {
			t.Fatalf("sample %d kinematics: %+v", i, s)
		}
		if s.Speed != w.speed || s.Calories != w.calories || s.HeartRate != w.hr {
			t.Fatalf("sample %d telemetry: %+v", i, s)
		}
		if !s.Timestamp.IsZero() || s.Altitude != 0 {
			t.Fatalf("sample %d: decoder must not set timestamp or altitude", i)
		}
	}
}

func TestDecodeRecordsCoordinateScaleRoundTrip(t *testing.T) {
	for _, raw := range []int32{0, 1, -1, 45123456, -45123456, 180000000, -180000000, math.MaxInt32, math.MinInt32} {
		c := make([]byte, ChunkSize)
		binary.LittleEndian.PutUint32(c[0:4], uint32(raw))
		binary.LittleEndian.PutUint32(c[24:28], uint32(raw))
		samples, err := DecodeRecords(c)
		if err != nil {
			t.Fatalf("DecodeRecords error: %v", err)
		}
		if got := int32(math.Round(samples[0].Latitude * 1e6)); got != raw {
			t.Fatalf("latitude round trip: got %d want %d", got, raw)
		}
		if got := int32(math.Round(samples[1].Longitude * 1e6)); got != raw {
			t.Fatalf("longitude round trip: got %d want %d", got, raw)
		}
	}
}

func TestDecodeSummary(t *testing.T) {
	s, err := DecodeSummary(buildSummary(t))
	if err != nil {
		t.Fatalf("DecodeSummary error: %v", err)
	}
	if s.TotalDistanceKm != 10.234 || s.DurationSec != 3605 {
		t.Fatalf("distance/duration: %+v", s)
	}
	if s.AvgSpeed != 10.22 || s.MaxSpeed != 17.5 || s.TotalCalories != 612 {
		t.Fatalf("speed/calories: %+v", s)
	}
	if s.AvgHeartRate != 142 || s.MaxHeartRate != 178 {
		t.Fatalf("heart rate: %+v", s)
	}
	want := onmove.DeviceClock{Year: 2023, Month: time.June, Day: 12, Hour: 20, Minute: 25}
	if s.EndDate != want {
		t.Fatalf("end date: got %+v want %+v", s.EndDate, want)
	}
	if s.FileNumber != 7 || s.HeartRateLimitLow != 120 || s.HeartRateLimitHigh != 165 {
		t.Fatalf("trailer fields: %+v", s)
	}
	if len(s.Reserved) != 30 || s.Reserved[0] != 0x5a {
		t.Fatalf("reserved bytes: %x", s.Reserved)
	}
}

func TestDecodeSummaryAcceptsLongBuffer(t *testing.T) {
	b := append(buildSummary(t), 1, 2, 3)
	if _, err := DecodeSummary(b); err != nil {
		t.Fatalf("DecodeSummary error: %v", err)
	}
}

func TestDecodeSummaryRejectsShortBuffer(t *testing.T) {
	for _, n := range []int{0, 20, SummarySize - 1} {
		s, err := DecodeSummary(buildSummary(t)[:n])
		if !errors.Is(err, ErrMalformedSummary) {
			t.Fatalf("len %d: expected ErrMalformedSummary, got %v", n, err)
		}
		if s != nil {
			t.Fatalf("len %d: expected nil summary", n)
		}
	}
}

func TestInspectPreservesOffsetsAndReservedBytes(t *testing.T) {
	a := rawSample{lat: 10, lon: 20, elapsed: 1, hr: 100}
	b := rawSample{lat: 11, lon: 21, elapsed: 2, hr: 101}
	data := append(buildChunk(a, b), buildTrailer(a)...)

	dump, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if dump.ChunkCount != 2 || !dump.HasTrailer || len(dump.Records) != 3 {
		t.Fatalf("dump shape: chunks %d trailer %v records %d", dump.ChunkCount, dump.HasTrailer, len(dump.Records))
	}
	second := dump.Records[1]
	if second.ChunkIndex != 0 || second.Slot != 1 || second.CoordOffset != 20 || second.TelemetryOffset != 50 {
		t.Fatalf("second record offsets: %+v", second)
	}
	trailer := dump.Records[2]
	if trailer.ChunkIndex != 1 || trailer.CoordOffset != 60 || trailer.TelemetryOffset != 80 {
		t.Fatalf("trailer offsets: %+v", trailer)
	}
	if second.CoordReservedHex != "deadbeef0001" {
		t.Fatalf("coord reserved: %s", second.CoordReservedHex)
	}
	if second.TelemetryReservedHex != "aabbcc0000" {
		t.Fatalf("telemetry reserved: %s", second.TelemetryReservedHex)
	}
	if second.Sample.HeartRate != 101 {
		t.Fatalf("sample: %+v", second.Sample)
	}

	if _, err := Inspect(data[:len(data)-1]); !errors.Is(err, ErrTruncatedRecord) {
		t.Fatalf("expected ErrTruncatedRecord, got %v", err)
	}
}

func TestWriteBundle(t *testing.T) {
	s := rawSample{lat: 1, lon: 2}
	dump, err := Inspect(append(buildChunk(s, s), buildChunk(s, s)...))
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "dump")
	manifest, err := WriteBundle(dir, "ACT_0001.OMD", dump, false)
	if err != nil {
		t.Fatalf("WriteBundle error: %v", err)
	}
	if manifest.RecordCount != 4 {
		t.Fatalf("record count: %d", manifest.RecordCount)
	}

	manifestData, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var decoded Manifest
	if err := json.Unmarshal(manifestData, &decoded); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if decoded.SourceSHA256 != dump.SourceSHA256 || decoded.FormatVersion != DumpFormatVersion {
		t.Fatalf("manifest: %+v", decoded)
	}

	recordsData, err := os.ReadFile(filepath.Join(dir, "records.jsonl"))
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(recordsData)), "\n")
	if len(lines) != 4 {
		t.Fatalf("records line count: %d", len(lines))
	}

	if _, err := WriteBundle(dir, "ACT_0001.OMD", dump, false); err == nil {
		t.Fatal("expected error for non-empty output directory")
	}
}
