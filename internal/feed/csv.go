// Package feed loads candle data into the engine, either from CSV files
// or from an exchange WebSocket stream.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"futures-sim-lab/internal/domain"
)

// LoadCSV reads OHLC candles for one symbol from a CSV file with header
// timestamp,open,high,low,close. Timestamps are RFC3339 and must be
// strictly increasing.
func LoadCSV(path, symbol string) ([]domain.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle file: %w", err)
	}
	defer f.Close()

	candles, err := ReadCSV(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return candles, nil
}

// ReadCSV parses candles from r. See LoadCSV for the expected format.
func ReadCSV(r io.Reader, symbol string) ([]domain.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != "timestamp" {
		return nil, fmt.Errorf("unexpected header %q, want timestamp,open,high,low,close", header[0])
	}

	var candles []domain.Candle
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		ts, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse timestamp: %w", line, err)
		}

		var vals [4]float64
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse %s: %w", line, header[i+1], err)
			}
			vals[i] = v
		}

		c := domain.Candle{
			Symbol:    symbol,
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
		}
		if err := validateCandle(c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(candles); n > 0 && !ts.After(candles[n-1].Timestamp) {
			return nil, fmt.Errorf("line %d: timestamp %s not after previous %s",
				line, ts.Format(time.RFC3339), candles[n-1].Timestamp.Format(time.RFC3339))
		}
		candles = append(candles, c)
	}

	return candles, nil
}

func validateCandle(c domain.Candle) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("non-positive price")
	}
	if c.High < c.Low {
		return fmt.Errorf("high %v below low %v", c.High, c.Low)
	}
	if c.Open > c.High || c.Open < c.Low || c.Close > c.High || c.Close < c.Low {
		return fmt.Errorf("open/close outside high/low range")
	}
	return nil
}
