//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumenquant/tradestream/internal/transport"
	"github.com/lumenquant/tradestream/internal/trade"
)

// finnhubTradeFrame is a single server->client frame from Finnhub's
// WebSocket API: {"type":"trade","data":[...]}, {"type":"ping"}, or
// {"type":"error","msg":"..."}.
type finnhubTradeFrame struct {
	Type string               `json:"type"`
	Data []finnhubTradeRecord `json:"data"`
	Msg  string               `json:"msg"`
}

// finnhubTradeRecord is one element of a trade frame's data array.
type finnhubTradeRecord struct {
	Symbol     string   `json:"s"`
	Price      float64  `json:"p"`
	Volume     float64  `json:"v"`
	Timestamp  int64    `json:"t"`
	Conditions []string `json:"c"`
}

type finnhubSubscribe struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// Finnhub streams real-time trades from wss://ws.finnhub.io.
type Finnhub struct {
	Token string
	URL   string // defaults to wss://ws.finnhub.io if empty
	Log   *logrus.Logger

	conn *transport.Conn
}

// NewFinnhub returns a Finnhub provider for the given API token and
// WebSocket base URL. If url is empty the production endpoint is used.
func NewFinnhub(token, url string, log *logrus.Logger) *Finnhub {
	if url == "" {
		url = "wss://ws.finnhub.io"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Finnhub{Token: token, URL: url, Log: log}
}

// Authenticate dials the WebSocket endpoint with the token as a query
// parameter. Finnhub accepts or rejects the token only once the first
// frame is exchanged, so a successful dial here does not guarantee a
// valid token — an invalid token surfaces as an immediate close from the
// server, observed as end-of-stream by Subscribe's caller.
func (f *Finnhub) Authenticate(ctx context.Context) error {
	if f.Token == "" {
		return &ErrUnauthenticated{Provider: "finnhub", Reason: "no token configured"}
	}

	url := fmt.Sprintf("%s?token=%s", f.URL, f.Token)
	conn, err := transport.Dial(ctx, url)
	if err != nil {
		return &ErrConnectFailed{Provider: "finnhub", Cause: err}
	}

	f.conn = conn
	return nil
}

// Subscribe sends one {"type":"subscribe","symbol":S} frame per symbol and
// returns a channel of decoded trades. Ping frames are ignored; error
// frames are logged and the stream continues; malformed JSON is logged as
// a ParseError and the frame is dropped without ending the stream.
func (f *Finnhub) Subscribe(ctx context.Context, symbols []trade.Symbol) (<-chan trade.Record, error) {
	if f.conn == nil {
		return nil, &ErrConnectFailed{Provider: "finnhub", Cause: fmt.Errorf("not authenticated")}
	}

	for _, s := range symbols {
		if err := f.conn.WriteJSON(finnhubSubscribe{Type: "subscribe", Symbol: string(s)}); err != nil {
			return nil, &ErrConnectFailed{Provider: "finnhub", Cause: err}
		}
	}

	out := make(chan trade.Record, 256)

	go func() {
		defer close(out)
		defer f.conn.Close()

		err := f.conn.Listen(ctx, func(raw []byte) {
			f.handleFrame(raw, out)
		})
		if err != nil {
			f.Log.WithError(err).Warn("finnhub: stream terminated")
		}
	}()

	return out, nil
}

func (f *Finnhub) handleFrame(raw []byte, out chan<- trade.Record) {
	var frame finnhubTradeFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		f.Log.WithError(&ParseError{Provider: "finnhub", Cause: err}).Debug("finnhub: dropping malformed frame")
		return
	}

	switch frame.Type {
	case "trade":
		now := time.Now().UnixMilli()
		for _, d := range frame.Data {
			conditions := make([]trade.Condition, 0, len(d.Conditions))
			for _, c := range d.Conditions {
				conditions = append(conditions, trade.Condition(c))
			}
			rec, err := trade.New(trade.Symbol(d.Symbol), d.Price, d.Volume, d.Timestamp, now, conditions)
			if err != nil {
				f.Log.WithError(err).Debug("finnhub: dropping invalid trade record")
				continue
			}
			out <- rec
		}
	case "ping":
		// No-op: keepalive, nothing to emit.
	case "error":
		f.Log.WithField("msg", frame.Msg).Warn("finnhub: provider reported an error")
	default:
		f.Log.WithField("type", frame.Type).Debug("finnhub: ignoring unknown frame type")
	}
}
