//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumenquant/tradestream/internal/transport"
	"github.com/lumenquant/tradestream/internal/trade"
)

// polygonEvent is a single server->client event from Polygon's WebSocket
// API. Events arrive as a JSON array of these; the "ev" field discriminates
// trade ("T") events from connection/status events.
type polygonEvent struct {
	Ev         string  `json:"ev"`
	Symbol     string  `json:"sym"`
	Price      float64 `json:"p"`
	Size       float64 `json:"s"`
	Timestamp  int64   `json:"t"` // nanoseconds since epoch
	Conditions []int   `json:"c"`
	Status     string  `json:"status"`
	Message    string  `json:"message"`
}

type polygonAction struct {
	Action string `json:"action"`
	Params string `json:"params"`
}

// Polygon streams real-time trades from a Polygon-compatible WebSocket
// endpoint. It authenticates with an auth frame before subscribing, and
// reports timestamps in nanoseconds (converted to milliseconds on decode).
type Polygon struct {
	APIKey string
	URL    string // e.g. wss://socket.polygon.io/stocks
	Log    *logrus.Logger

	conn *transport.Conn
}

// NewPolygon returns a Polygon provider for the given API key and
// WebSocket URL.
func NewPolygon(apiKey, url string, log *logrus.Logger) *Polygon {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Polygon{APIKey: apiKey, URL: url, Log: log}
}

// Authenticate dials the WebSocket endpoint and sends the auth frame. The
// initial connection-status frame sent by the server on accept is
// deliberately not consumed here — Subscribe's Listen loop treats it like
// any other informational status event.
func (p *Polygon) Authenticate(ctx context.Context) error {
	if p.APIKey == "" {
		return &ErrUnauthenticated{Provider: "polygon", Reason: "no API key configured"}
	}

	conn, err := transport.Dial(ctx, p.URL)
	if err != nil {
		return &ErrConnectFailed{Provider: "polygon", Cause: err}
	}

	if err := conn.WriteJSON(polygonAction{Action: "auth", Params: p.APIKey}); err != nil {
		conn.Close()
		return &ErrConnectFailed{Provider: "polygon", Cause: err}
	}

	p.conn = conn
	return nil
}

// Subscribe sends a single subscribe frame covering all requested symbols
// (e.g. "T.AAPL,T.MSFT") and returns a channel of decoded trades. Status
// events are informational only and never close the stream.
func (p *Polygon) Subscribe(ctx context.Context, symbols []trade.Symbol) (<-chan trade.Record, error) {
	if p.conn == nil {
		return nil, &ErrConnectFailed{Provider: "polygon", Cause: fmt.Errorf("not authenticated")}
	}

	params := make([]string, len(symbols))
	for i, s := range symbols {
		params[i] = "T." + string(s)
	}

	if err := p.conn.WriteJSON(polygonAction{Action: "subscribe", Params: strings.Join(params, ",")}); err != nil {
		return nil, &ErrConnectFailed{Provider: "polygon", Cause: err}
	}

	out := make(chan trade.Record, 256)

	go func() {
		defer close(out)
		defer p.conn.Close()

		err := p.conn.Listen(ctx, func(raw []byte) {
			p.handleFrame(raw, out)
		})
		if err != nil {
			p.Log.WithError(err).Warn("polygon: stream terminated")
		}
	}()

	return out, nil
}

func (p *Polygon) handleFrame(raw []byte, out chan<- trade.Record) {
	var events []polygonEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		p.Log.WithError(&ParseError{Provider: "polygon", Cause: err}).Debug("polygon: dropping malformed frame")
		return
	}

	now := time.Now().UnixMilli()

	for _, ev := range events {
		switch ev.Ev {
		case "T":
			conditions := make([]trade.Condition, 0, len(ev.Conditions))
			for _, c := range ev.Conditions {
				conditions = append(conditions, trade.Condition(fmt.Sprintf("%d", c)))
			}
			sourceMs := ev.Timestamp / int64(time.Millisecond/time.Nanosecond)
			rec, err := trade.New(trade.Symbol(ev.Symbol), ev.Price, ev.Size, sourceMs, now, conditions)
			if err != nil {
				p.Log.WithError(err).Debug("polygon: dropping invalid trade record")
				continue
			}
			out <- rec
		case "status":
			p.Log.WithFields(logrus.Fields{"status": ev.Status, "message": ev.Message}).Debug("polygon: status event")
		default:
			p.Log.WithField("ev", ev.Ev).Debug("polygon: ignoring unhandled event type")
		}
	}
}
