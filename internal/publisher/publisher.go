//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package publisher implements downstream broadcast publishing: an
// ordinary broker subscriber task that re-publishes every trade it sees
// onto another transport for external consumers.
package publisher

import (
	"context"

	"github.com/lumenquant/tradestream/internal/trade"
)

// Publisher is the downstream broadcast sink contract. Publish is called
// once per trade; a Publisher that cannot reach its transport should
// degrade gracefully (log and continue) rather than block the pipeline,
// since downstream publishing is a best-effort consumer, not a
// pipeline-critical stage.
type Publisher interface {
	Publish(ctx context.Context, t trade.Record) error
}

// Run drains sub and calls pub.Publish for every trade, until sub closes
// or ctx is cancelled. It is the glue between a Publisher and the
// broker, grounded on the same subscribe/range/Close shape every other
// broker consumer in this core uses.
func Run(ctx context.Context, sub interface{ C() <-chan trade.Record }, pub Publisher, onError func(trade.Record, error)) {
	for {
		select {
		case t, ok := <-sub.C():
			if !ok {
				return
			}
			if err := pub.Publish(ctx, t); err != nil && onError != nil {
				onError(t, err)
			}
		case <-ctx.Done():
			return
		}
	}
}
