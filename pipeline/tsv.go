package pipeline

import (
	"bytes"
	"encoding/csv"
	"strconv"

	onmove "github.com/lucasjlepore/onmove-export"
)

const timestampLayout = "2006-01-02T15:04:05-07:00"

var tsvHeader = []string{
	"timestamp", "elapsed_s", "latitude", "longitude", "distance_m", "speed", "calories", "heart_rate",
}

func marshalTSV(samples []onmove.Sample) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'

	if err := w.Write(tsvHeader); err != nil {
		return nil, err
	}
	for _, s := range samples {
		row := []string{
			s.Timestamp.Format(timestampLayout),
			strconv.Itoa(int(s.ElapsedSeconds)),
			formatFloat(s.Latitude),
			formatFloat(s.Longitude),
			strconv.FormatUint(uint64(s.DistanceM), 10),
			formatFloat(s.Speed),
			strconv.Itoa(int(s.Calories)),
			strconv.Itoa(int(s.HeartRate)),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
