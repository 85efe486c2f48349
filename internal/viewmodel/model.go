//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package viewmodel

import (
	"context"
	"time"

	"github.com/lumenquant/tradestream/internal/broker"
	"github.com/lumenquant/tradestream/internal/stats"
	"github.com/lumenquant/tradestream/internal/trade"
)

// DefaultInterval is the default view-model snapshot cadence.
const DefaultInterval = 100 * time.Millisecond

// DefaultMaxTrades is the default cap on the recent-trades ring.
const DefaultMaxTrades = 20

// Snapshot is the exported view-model value a UI adapter renders.
type Snapshot struct {
	Symbols      []trade.Symbol
	RecentTrades []trade.Record // newest-first, capped at the Model's maxTrades
	Statistics   map[trade.Symbol]stats.State
}

// Model periodically merges a Collector's stats snapshot with its own
// capped feed of recent trades into a single Snapshot.
type Model struct {
	collector *Collector
	maxTrades int
	interval  time.Duration
}

// NewModel constructs a Model reading from collector. maxTrades <= 0
// falls back to DefaultMaxTrades; interval <= 0 falls back to
// DefaultInterval.
func NewModel(collector *Collector, maxTrades int, interval time.Duration) *Model {
	if maxTrades <= 0 {
		maxTrades = DefaultMaxTrades
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Model{collector: collector, maxTrades: maxTrades, interval: interval}
}

// Run consumes sub for recent trades and emits a Snapshot onto the
// returned channel every interval, until sub closes or ctx is cancelled.
// A trade update replaces the recent-trades ring; a timer tick replaces
// the statistics map — the two streams are combined by this single scan.
func (m *Model) Run(ctx context.Context, sub *broker.Subscription) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		recent := make([]trade.Record, 0, m.maxTrades)
		symbols := make(map[trade.Symbol]struct{})

		for {
			select {
			case t, ok := <-sub.C():
				if !ok {
					return
				}
				recent = prependCapped(recent, t, m.maxTrades)
				symbols[t.Symbol] = struct{}{}
			case <-ticker.C:
				snap := Snapshot{
					Symbols:      symbolList(symbols),
					RecentTrades: append([]trade.Record(nil), recent...),
					Statistics:   m.collector.Snapshot(),
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// prependCapped inserts t at the front of recent (newest-first) and
// drops the oldest entries past maxTrades.
func prependCapped(recent []trade.Record, t trade.Record, maxTrades int) []trade.Record {
	recent = append(recent, trade.Record{})
	copy(recent[1:], recent)
	recent[0] = t
	if len(recent) > maxTrades {
		recent = recent[:maxTrades]
	}
	return recent
}

func symbolList(symbols map[trade.Symbol]struct{}) []trade.Symbol {
	out := make([]trade.Symbol, 0, len(symbols))
	for s := range symbols {
		out = append(out, s)
	}
	return out
}
