package clickhouse

import (
	"context"
	"fmt"
	"time"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

const candleColumns = `
	symbol, ts,
	open, high, low, close,
	trend_high, trend_low, rev_high, rev_low,
	chop_high, chop_low, tp_high, tp_low,
	norm, ema_spread, trend, conf
`

// InsertBulk appends candles via a prepared batch.
func (s *CandleStore) InsertBulk(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	for _, c := range candles {
		if c.Symbol == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO candles (`+candleColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.Symbol, c.Timestamp,
			c.Open, c.High, c.Low, c.Close,
			c.TrendHigh, c.TrendLow, c.RevHigh, c.RevLow,
			c.ChopHigh, c.ChopLow, c.TPHigh, c.TPLow,
			c.Norm, c.EMASpread, int8(c.Trend), c.Conf,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetRange retrieves candles for a symbol within [start, end] inclusive,
// ordered by timestamp ASC.
func (s *CandleStore) GetRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Candle, error) {
	query := `
		SELECT ` + candleColumns + `
		FROM candles
		WHERE symbol = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query candle range: %w", err)
	}
	defer rows.Close()

	var out []domain.Candle
	for rows.Next() {
		var c domain.Candle
		var trend int8
		err := rows.Scan(
			&c.Symbol, &c.Timestamp,
			&c.Open, &c.High, &c.Low, &c.Close,
			&c.TrendHigh, &c.TrendLow, &c.RevHigh, &c.RevLow,
			&c.ChopHigh, &c.ChopLow, &c.TPHigh, &c.TPLow,
			&c.Norm, &c.EMASpread, &trend, &c.Conf,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		c.Trend = int(trend)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}
	return out, nil
}
