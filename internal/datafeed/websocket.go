package datafeed

import (
	"context"
	"encoding/json"
	"iter"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadTimeout      = 90 * time.Second
	wsMaxReconnectWait = 30 * time.Second
)

// subscribeMessage is sent once per connection to select symbols.
type subscribeMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
}

// barMessage is one bar pushed by the market data server.
type barMessage struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// WebsocketFeed streams live bars from a market data websocket. Connection
// loss triggers exponential-backoff reconnects; the iterator only fails
// once the context is cancelled or Close is called.
type WebsocketFeed struct {
	url       string
	watchlist []string
	log       *logger.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWebsocketFeed creates a feed for the given endpoint and watchlist. No
// connection happens until Bars is iterated.
func NewWebsocketFeed(url string, watchlist []string, log *logger.Logger) *WebsocketFeed {
	return &WebsocketFeed{url: url, watchlist: watchlist, log: log}
}

// Bars connects and streams bars, reconnecting on failure.
func (f *WebsocketFeed) Bars(ctx context.Context) iter.Seq2[types.PriceBar, error] {
	return func(yield func(types.PriceBar, error) bool) {
		for {
			if err := f.connect(ctx); err != nil {
				yield(types.PriceBar{}, err)

				return
			}

			if !f.stream(ctx, yield) {
				return
			}

			// stream returned because the connection dropped; reconnect
			// unless the feed is shutting down.
			f.mu.Lock()
			closed := f.closed
			f.mu.Unlock()

			if closed || ctx.Err() != nil {
				return
			}

			f.log.Warn("Feed connection lost, reconnecting")
		}
	}
}

// connect dials with exponential backoff and subscribes the watchlist.
func (f *WebsocketFeed) connect(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = wsMaxReconnectWait
	policy.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}

		conn, _, err := dialer.DialContext(ctx, f.url, nil)
		if err != nil {
			f.log.Warn("Feed dial failed", zap.String("url", f.url), zap.Error(err))

			return err
		}

		sub := subscribeMessage{Action: "subscribe", Symbols: f.watchlist}
		if err := conn.WriteJSON(sub); err != nil {
			conn.Close()

			return err
		}

		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()

		f.log.Info("Feed connected", zap.String("url", f.url))

		return nil
	}, backoff.WithContext(policy, ctx))
}

// stream reads bars until the connection fails. It returns false when the
// consumer stopped iterating, true when the caller should reconnect.
func (f *WebsocketFeed) stream(ctx context.Context, yield func(types.PriceBar, error) bool) bool {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()

	if conn == nil {
		return false
	}

	for {
		if ctx.Err() != nil {
			return false
		}

		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()

			return true
		}

		var msg barMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if !yield(types.PriceBar{}, errors.Wrap(errors.ErrCodeFeedCorrupted,
				"failed to decode bar message", err)) {
				return false
			}

			continue
		}

		bar := types.PriceBar{
			Symbol:    msg.Symbol,
			Timestamp: time.UnixMilli(msg.Timestamp).UTC(),
			Open:      msg.Open,
			High:      msg.High,
			Low:       msg.Low,
			Close:     msg.Close,
			Volume:    msg.Volume,
		}

		if !yield(bar, nil) {
			return false
		}
	}
}

// Close terminates the current connection and stops reconnecting.
func (f *WebsocketFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	if f.conn != nil {
		return f.conn.Close()
	}

	return nil
}
