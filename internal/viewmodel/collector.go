//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package viewmodel implements the UI-facing ingest side: a
// StatsCollector that keeps one stats.State per symbol, and a Model that
// periodically merges the stats map with a capped feed of recent trades
// into a single Snapshot for a UI adapter to render.
package viewmodel

import (
	"context"
	"sync"

	"github.com/lumenquant/tradestream/internal/broker"
	"github.com/lumenquant/tradestream/internal/stats"
	"github.com/lumenquant/tradestream/internal/trade"
)

// Collector subscribes to the broker and owns a map of per-symbol
// stats.State, guarded for read-modify-write. It has no output side
// effects of its own — Model reads its Snapshot on its own cadence.
type Collector struct {
	mu     sync.RWMutex
	states map[trade.Symbol]stats.State
	config stats.WindowConfig
}

// NewCollector constructs an empty Collector under the given window
// policy — every symbol first seen gets its own stats.State built from
// config.
func NewCollector(config stats.WindowConfig) *Collector {
	return &Collector{
		states: make(map[trade.Symbol]stats.State),
		config: config,
	}
}

// Run consumes sub until it closes or ctx is cancelled, folding each
// trade into its symbol's stats.State.
func (c *Collector) Run(ctx context.Context, sub *broker.Subscription) {
	for {
		select {
		case t, ok := <-sub.C():
			if !ok {
				return
			}
			c.update(t)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Collector) update(t trade.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[t.Symbol]
	if !ok {
		state = stats.NewState(c.config)
	}
	c.states[t.Symbol] = stats.Update(state, t.Price, t.Volume, t.SourceTimestamp)
}

// Snapshot returns a shallow copy of the current per-symbol stats map,
// safe for the caller to read without holding the Collector's lock.
func (c *Collector) Snapshot() map[trade.Symbol]stats.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[trade.Symbol]stats.State, len(c.states))
	for sym, st := range c.states {
		out[sym] = st
	}
	return out
}
