//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package trade defines the canonical validated trade value that flows
// through the rest of the pipeline: every provider decodes into it, the
// broker fans it out unchanged, and every consumer (stats, indicators,
// view model) reads it.
package trade

import (
	"fmt"
	"math"
)

// Symbol is a ticker or pair identifier, branded as its own type so broker
// and indicator filter APIs don't take bare strings.
type Symbol string

// Condition is a venue-supplied trade condition code (e.g. "T", "F").
type Condition string

// Record is an immutable, validated trade report. Construct it with New —
// a zero-value Record should never be passed downstream.
type Record struct {
	Symbol            Symbol
	Price             float64
	Volume            float64
	SourceTimestamp   int64 // ms since epoch, exchange wall clock
	ReceivedTimestamp int64 // ms since epoch, local wall clock at decode time
	LatencyMs         int64
	Conditions        []Condition
}

// ValidationError reports that a field of a Record (or another domain
// value) failed its construction invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// New validates and constructs a Record. sourceTimestamp and
// receivedTimestamp are both ms-since-epoch; latency is derived, never
// supplied directly, so it can never disagree with the two timestamps it
// is computed from.
func New(symbol Symbol, price, volume float64, sourceTimestamp, receivedTimestamp int64, conditions []Condition) (Record, error) {
	if symbol == "" {
		return Record{}, &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return Record{}, &ValidationError{Field: "price", Reason: "must be finite and >= 0"}
	}
	if math.IsNaN(volume) || math.IsInf(volume, 0) || volume < 0 {
		return Record{}, &ValidationError{Field: "volume", Reason: "must be finite and >= 0"}
	}
	if sourceTimestamp <= 0 {
		return Record{}, &ValidationError{Field: "sourceTimestamp", Reason: "must be a positive integer"}
	}
	if receivedTimestamp <= 0 {
		return Record{}, &ValidationError{Field: "receivedTimestamp", Reason: "must be a positive integer"}
	}
	latency := receivedTimestamp - sourceTimestamp
	if latency < 0 {
		return Record{}, &ValidationError{Field: "latencyMs", Reason: "receivedTimestamp must not precede sourceTimestamp"}
	}

	return Record{
		Symbol:            symbol,
		Price:             price,
		Volume:            volume,
		SourceTimestamp:   sourceTimestamp,
		ReceivedTimestamp: receivedTimestamp,
		LatencyMs:         latency,
		Conditions:        conditions,
	}, nil
}
