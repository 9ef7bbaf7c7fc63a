package omd

import (
	"encoding/binary"
	"fmt"

	onmove "github.com/lucasjlepore/onmove-export"
)

// blockPair locates the coordinate and telemetry blocks of one sample.
type blockPair struct {
	chunk     int
	slot      int
	coord     int
	telemetry int
}

// layout maps an OMD buffer onto its sample blocks without decoding them.
func layout(b []byte) ([]blockPair, error) {
	full := len(b) / ChunkSize
	rest := len(b) % ChunkSize
	if rest != 0 && rest != TrailerChunkSize {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d chunks", ErrTruncatedRecord, rest, full)
	}

	pairs := make([]blockPair, 0, SampleCount(len(b)))
	for i := 0; i < full; i++ {
		base := i * ChunkSize
		pairs = append(pairs,
			blockPair{chunk: i, slot: 0, coord: base, telemetry: base + 2*coordBlockSize},
			blockPair{chunk: i, slot: 1, coord: base + coordBlockSize, telemetry: base + 2*coordBlockSize + telemetryBlockSize},
		)
	}
	if rest == TrailerChunkSize {
		base := full * ChunkSize
		pairs = append(pairs, blockPair{chunk: full, slot: 0, coord: base, telemetry: base + coordBlockSize})
	}
	return pairs, nil
}

// SampleCount returns how many samples a well-formed buffer of n bytes holds.
func SampleCount(n int) int {
	count := 2 * (n / ChunkSize)
	if n%ChunkSize == TrailerChunkSize {
		count++
	}
	return count
}

// DecodeRecords splits an OMD buffer into samples in file order. Timestamps
// are left zero; they are assigned when the track is reconstructed.
func DecodeRecords(b []byte) ([]onmove.Sample, error) {
	pairs, err := layout(b)
	if err != nil {
		return nil, err
	}
	samples := make([]onmove.Sample, 0, len(pairs))
	for _, p := range pairs {
		samples = append(samples, decodeSample(b, p))
	}
	return samples, nil
}

func decodeSample(b []byte, p blockPair) onmove.Sample {
	var s onmove.Sample
	decodeCoord(b[p.coord:p.coord+coordBlockSize], &s)
	decodeTelemetry(b[p.telemetry:p.telemetry+telemetryBlockSize], &s)
	return s
}

// Coordinate block: lat, lon (signed microdegrees), distance, elapsed, 6 reserved.
func decodeCoord(c []byte, s *onmove.Sample) {
	s.Latitude = float64(int32(binary.LittleEndian.Uint32(c[0:4]))) / 1e6
	s.Longitude = float64(int32(binary.LittleEndian.Uint32(c[4:8]))) / 1e6
	s.DistanceM = binary.LittleEndian.Uint32(c[8:12])
	s.ElapsedSeconds = binary.LittleEndian.Uint16(c[12:14])
}

// Telemetry block: 2 reserved, speed (1/100), calories, heart rate, 1 reserved.
func decodeTelemetry(t []byte, s *onmove.Sample) {
	s.Speed = float64(binary.LittleEndian.Uint16(t[2:4])) / 100.0
	s.Calories = binary.LittleEndian.Uint16(t[4:6])
	s.HeartRate = t[6]
}
