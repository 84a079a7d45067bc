package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"futures-sim-lab/internal/domain"
)

// StreamConfig configures WebSocket stream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Stream subscribes to an exchange's hourly candle topic and emits closed
// bars. It reconnects with exponential backoff and resubscribes on
// reconnect.
type Stream struct {
	endpoint string
	symbol   string
	config   StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out  chan domain.Candle
	done chan struct{}
	wg   sync.WaitGroup

	lastSeen time.Time // close time of the last emitted bar
}

// wire format of the candle topic.
type streamMessage struct {
	Table string      `json:"table"`
	Data  []candleRow `json:"data"`
}

type candleRow struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

type subscribeRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

const candleTopic = "tradeBin1h"

// NewStream connects to the endpoint and subscribes to the symbol's
// candle topic. Bars arrive on Candles until Close is called or the
// context is cancelled.
func NewStream(ctx context.Context, endpoint, symbol string, config *StreamConfig) (*Stream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &Stream{
		endpoint: endpoint,
		symbol:   symbol,
		config:   cfg,
		out:      make(chan domain.Candle, 16),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	if err := s.subscribe(); err != nil {
		s.closeConn()
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop(ctx)

	return s, nil
}

// Candles returns the channel of closed bars. It is closed when the
// stream shuts down.
func (s *Stream) Candles() <-chan domain.Candle {
	return s.out
}

// Close shuts the stream down and waits for the reader to exit.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)
	s.closeConn()
	s.wg.Wait()
	return nil
}

func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

func (s *Stream) subscribe() error {
	req := subscribeRequest{
		Op:   "subscribe",
		Args: []string{candleTopic + ":" + s.symbol},
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	return nil
}

func (s *Stream) closeConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

// readLoop reads messages until shutdown, reconnecting on errors.
func (s *Stream) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.out)

	delay := s.config.ReconnectDelay

	for {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.backoff(ctx, &delay) {
				return
			}
			if err := s.connect(ctx); err != nil {
				continue
			}
			if err := s.subscribe(); err != nil {
				s.closeConn()
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			s.closeConn()
			continue
		}
		delay = s.config.ReconnectDelay

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // not a candle payload
		}
		if msg.Table != candleTopic {
			continue
		}

		for _, row := range msg.Data {
			if row.Symbol != s.symbol {
				continue
			}
			// Skip bars already seen after a resubscribe.
			if !row.Timestamp.After(s.lastSeen) {
				continue
			}
			c := domain.Candle{
				Symbol:    s.symbol,
				Timestamp: row.Timestamp,
				Open:      row.Open,
				High:      row.High,
				Low:       row.Low,
				Close:     row.Close,
			}
			if validateCandle(c) != nil {
				continue
			}
			s.lastSeen = row.Timestamp

			select {
			case s.out <- c:
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// backoff waits for the current delay, doubling it up to the max.
// Returns false when the stream is shutting down.
func (s *Stream) backoff(ctx context.Context, delay *time.Duration) bool {
	timer := time.NewTimer(*delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}

	*delay *= 2
	if *delay > s.config.MaxReconnectDelay {
		*delay = s.config.MaxReconnectDelay
	}
	return true
}
