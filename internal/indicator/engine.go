//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package indicator implements the pluggable indicator family: each
// concrete indicator consumes a channel of trades for one symbol and
// emits a channel of its own State, maps a State to a Signal, and
// evaluates TriggerConditions against its current observation.
package indicator

import (
	"context"

	"github.com/lumenquant/tradestream/internal/trade"
)

// Engine is the contract every concrete indicator satisfies.
type Engine interface {
	// ID is a stable, machine-readable identifier (e.g. "sma-20-AAPL").
	ID() string
	// Name is a human-readable label (e.g. "SMA(20)").
	Name() string
	// Process filters in to this indicator's configured symbol and runs
	// a stateful scan over it, emitting at most one State per input
	// trade. It emits nothing during warm-up. The returned channel
	// closes when in closes or ctx is cancelled.
	Process(ctx context.Context, in <-chan trade.Record) <-chan State
	// Signal maps a State to a consensus-ready Buy/Sell/Hold judgment.
	Signal(s State) Signal
	// CheckTrigger evaluates cond against s's current observation.
	CheckTrigger(s State, cond TriggerCondition) bool
}

// State is one indicator's observation at a point in time. Metadata
// holds indicator-specific derived values (every indicator sets "price"
// and "volume"; Bollinger adds "upper", "lower", "percentB",
// "bandwidth"; Volatility adds "volatility", "trend") that CheckTrigger
// and richer consumers can read without widening the Engine interface
// per indicator.
type State struct {
	ID         string
	Name       string
	Symbol     trade.Symbol
	LastUpdate int64
	Value      float64
	Metadata   map[string]float64
}

// SignalKind is the tag of the Signal sum type.
type SignalKind int

const (
	Hold SignalKind = iota
	Buy
	Sell
)

// Signal is the sum type Buy{strength,timestamp,reason} /
// Sell{strength,timestamp,reason} / Hold{timestamp}, rendered as a
// tagged struct. Strength is always 0 for Hold, per spec.
type Signal struct {
	Kind      SignalKind
	Strength  float64
	Timestamp int64
	Reason    string
}

// TriggerKind is the tag of the TriggerCondition sum type.
type TriggerKind int

const (
	PriceAbove TriggerKind = iota
	PriceBelow
	VolumeAbove
	VolatilityAbove
	CrossOver
)

// TriggerCondition is the sum type PriceAbove{t}/PriceBelow{t}/
// VolumeAbove{t}/VolatilityAbove{t}/CrossOver{fastPeriod,slowPeriod},
// rendered as a tagged struct.
type TriggerCondition struct {
	Kind       TriggerKind
	Threshold  float64
	FastPeriod int
	SlowPeriod int
}

// checkTrigger is the shared evaluation shared by every concrete
// indicator's CheckTrigger method: each indicator's State.Metadata
// carries the fields a trigger reads, so the evaluation logic itself
// does not vary per indicator. CrossOver compares the "fast" and "slow"
// metadata entries and ignores FastPeriod/SlowPeriod; no indicator in this
// package sets those entries, so CrossOver reports false for all of them.
func checkTrigger(s State, cond TriggerCondition) bool {
	switch cond.Kind {
	case PriceAbove:
		return s.Metadata["price"] > cond.Threshold
	case PriceBelow:
		return s.Metadata["price"] < cond.Threshold
	case VolumeAbove:
		return s.Metadata["volume"] > cond.Threshold
	case VolatilityAbove:
		return s.Metadata["volatility"] > cond.Threshold
	case CrossOver:
		return s.Metadata["fast"] > s.Metadata["slow"]
	default:
		return false
	}
}
