package pipeline

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/tormoder/fit"

	onmove "github.com/lucasjlepore/onmove-export"
)

// marshalFIT encodes the track as a FIT activity with one record per sample
// and a single running session. Sample speed is read as km/h here because
// FIT requires m/s.
func marshalFIT(t *onmove.Track, a *onmove.Analysis) ([]byte, error) {
	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		return nil, err
	}
	file.FileId.Manufacturer = fit.ManufacturerDevelopment
	file.FileId.TimeCreated = t.StartDate

	activity, err := file.Activity()
	if err != nil {
		return nil, err
	}

	start := fit.NewEventMsg()
	start.Timestamp = t.StartDate
	start.Event = fit.EventTimer
	start.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, start)

	for _, s := range t.Samples {
		record := fit.NewRecordMsg()
		record.Timestamp = s.Timestamp
		record.PositionLat = fit.NewLatitudeDegrees(s.Latitude)
		record.PositionLong = fit.NewLongitudeDegrees(s.Longitude)
		record.Distance = s.DistanceM * 100
		record.Speed = speedToFIT(s.Speed)
		record.HeartRate = s.HeartRate
		record.Calories = s.Calories
		activity.Records = append(activity.Records, record)
	}

	stop := fit.NewEventMsg()
	stop.Timestamp = t.EndDate
	stop.Event = fit.EventTimer
	stop.EventType = fit.EventTypeStopAll
	activity.Events = append(activity.Events, stop)

	elapsed := secondsToFIT(a.ElapsedSeconds)
	session := fit.NewSessionMsg()
	session.Timestamp = t.EndDate
	session.StartTime = t.StartDate
	session.Sport = fit.SportRunning
	session.TotalElapsedTime = elapsed
	session.TotalTimerTime = elapsed
	session.TotalDistance = uint32(math.Round(a.DistanceMeters * 100))
	session.TotalCalories = clampU16(float64(a.Calories))
	session.AvgHeartRate = clampU8(a.AvgHeartRate)
	session.MaxHeartRate = clampU8(a.MaxHeartRate)
	session.AvgSpeed = speedToFIT(a.AvgSpeed)
	session.MaxSpeed = speedToFIT(a.MaxSpeed)
	activity.Sessions = append(activity.Sessions, session)

	summary := fit.NewActivityMsg()
	summary.Timestamp = t.EndDate
	summary.TotalTimerTime = elapsed
	summary.NumSessions = 1
	summary.Type = fit.ActivityModeManual
	summary.LocalTimestamp = localTimestamp(t.EndDate)
	activity.Activity = summary

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// speedToFIT converts km/h to FIT's mm/s.
func speedToFIT(kmh float64) uint16 {
	return clampU16(kmh / 3.6 * 1000)
}

func secondsToFIT(s float64) uint32 {
	if s <= 0 || !isFinite(s) {
		return 0
	}
	return uint32(math.Round(s * 1000))
}

// localTimestamp mirrors the wall clock the device displayed, as FIT expects.
func localTimestamp(t time.Time) time.Time {
	_, offset := t.Zone()
	return t.UTC().Add(time.Duration(offset) * time.Second)
}

func clampU16(v float64) uint16 {
	if v <= 0 || !isFinite(v) {
		return 0
	}
	if v >= math.MaxUint16-1 {
		return math.MaxUint16 - 1
	}
	return uint16(math.Round(v))
}

func clampU8(v float64) uint8 {
	if v <= 0 || !isFinite(v) {
		return 0
	}
	if v >= math.MaxUint8-1 {
		return math.MaxUint8 - 1
	}
	return uint8(math.Round(v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
