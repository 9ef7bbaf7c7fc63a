//go:build !js

package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	onmove "github.com/lucasjlepore/onmove-export"
)

type sampleParquetRow struct {
	Timestamp  string  `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	UnixMillis int64   `parquet:"name=unix_ms, type=INT64"`
	ElapsedS   int32   `parquet:"name=elapsed_s, type=INT32"`
	Latitude   float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude  float64 `parquet:"name=longitude, type=DOUBLE"`
	DistanceM  int64   `parquet:"name=distance_m, type=INT64"`
	Speed      float64 `parquet:"name=speed, type=DOUBLE"`
	Calories   int32   `parquet:"name=calories, type=INT32"`
	HeartRate  int32   `parquet:"name=heart_rate, type=INT32"`
}

func marshalParquet(samples []onmove.Sample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := sampleParquetRow{
			Timestamp:  s.Timestamp.Format(timestampLayout),
			UnixMillis: s.Timestamp.UnixMilli(),
			ElapsedS:   int32(s.ElapsedSeconds),
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			DistanceM:  int64(s.DistanceM),
			Speed:      s.Speed,
			Calories:   int32(s.Calories),
			HeartRate:  int32(s.HeartRate),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
