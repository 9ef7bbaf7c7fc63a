package omd

import (
	"encoding/binary"
	"fmt"
	"time"

	onmove "github.com/lucasjlepore/onmove-export"
)

// Field offsets inside an OMH summary buffer.
const (
	sumDistance    = 0
	sumDuration    = 4
	sumAvgSpeed    = 6
	sumMaxSpeed    = 8
	sumCalories    = 10
	sumAvgHR       = 12
	sumMaxHR       = 13
	sumYear        = 14
	sumMonth       = 15
	sumDay         = 16
	sumHour        = 17
	sumMinute      = 18
	sumFileNumber  = 19
	sumReserved    = 20
	sumHRLimitLow  = 50
	sumHRLimitHigh = 51

	yearBase = 2000
)

// DecodeSummary parses the fixed layout of an OMH summary file. Buffers
// longer than SummarySize are accepted; the trailing bytes are ignored.
func DecodeSummary(b []byte) (*onmove.ActivitySummary, error) {
	if len(b) < SummarySize {
		return nil, fmt.Errorf("%w: have %d bytes, need at least %d", ErrMalformedSummary, len(b), SummarySize)
	}

	reserved := make([]byte, sumHRLimitLow-sumReserved)
	copy(reserved, b[sumReserved:sumHRLimitLow])

	return &onmove.ActivitySummary{
		TotalDistanceKm: float64(binary.LittleEndian.Uint32(b[sumDistance:sumDistance+4])) / 1000.0,
		DurationSec:     binary.LittleEndian.Uint16(b[sumDuration : sumDuration+2]),
		AvgSpeed:        float64(binary.LittleEndian.Uint16(b[sumAvgSpeed:sumAvgSpeed+2])) / 100.0,
		MaxSpeed:        float64(binary.LittleEndian.Uint16(b[sumMaxSpeed:sumMaxSpeed+2])) / 100.0,
		TotalCalories:   binary.LittleEndian.Uint16(b[sumCalories : sumCalories+2]),
		AvgHeartRate:    b[sumAvgHR],
		MaxHeartRate:    b[sumMaxHR],
		EndDate: onmove.DeviceClock{
			Year:   yearBase + int(b[sumYear]),
			Month:  time.Month(b[sumMonth]),
			Day:    int(b[sumDay]),
			Hour:   int(b[sumHour]),
			Minute: int(b[sumMinute]),
		},
		FileNumber:         b[sumFileNumber],
		HeartRateLimitLow:  b[sumHRLimitLow],
		HeartRateLimitHigh: b[sumHRLimitHigh],
		Reserved:           reserved,
	}, nil
}
