//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/lumenquant/tradestream/internal/trade"
)

// DefaultSubjectPrefix is prepended to a trade's symbol to form its NATS
// subject, e.g. "trades.AAPL".
const DefaultSubjectPrefix = "trades."

// NATS publishes each trade as JSON to a per-symbol subject. A failed
// connection at construction, or a failed publish at runtime, is logged
// and treated as a no-op — downstream publishing never blocks or
// terminates the core pipeline.
type NATS struct {
	conn          *nats.Conn
	subjectPrefix string
	log           *logrus.Logger
}

// NewNATS connects to url and returns a ready NATS publisher. If the
// connection attempt fails, it returns a publisher that logs once and
// then silently no-ops every subsequent Publish call, rather than an
// error the caller would need to route around.
func NewNATS(url string, log *logrus.Logger) *NATS {
	conn, err := nats.Connect(url)
	if err != nil {
		if log != nil {
			log.WithError(err).WithField("url", url).Warn("publisher: failed to connect to NATS, publishing degrades to no-op")
		}
		return &NATS{subjectPrefix: DefaultSubjectPrefix, log: log}
	}
	return &NATS{conn: conn, subjectPrefix: DefaultSubjectPrefix, log: log}
}

// Publish implements Publisher.
func (n *NATS) Publish(ctx context.Context, t trade.Record) error {
	if n.conn == nil {
		return nil
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("publisher: marshal trade: %w", err)
	}
	subject := n.subjectPrefix + string(t.Symbol)
	if err := n.conn.Publish(subject, body); err != nil {
		if n.log != nil {
			n.log.WithError(err).WithField("subject", subject).Warn("publisher: failed to publish trade")
		}
		return nil
	}
	return nil
}

// Close releases the underlying NATS connection, if one was made.
func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
