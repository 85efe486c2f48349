//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package stats

// PricePoint is one retained observation in a symbol's window.
type PricePoint struct {
	Price     float64
	Volume    float64
	Timestamp int64 // ms since epoch, trade's sourceTimestamp
}

// State is the per-symbol rolling statistics value. The zero State is a
// valid starting point (an empty window); Update never mutates a State in
// place, it returns the next one.
type State struct {
	Config WindowConfig

	Count      int64
	Sum        float64
	SumSquares float64
	// AllTimeMin/AllTimeMax track the minimum/maximum since Count started
	// at 0; unlike Min()/Max(), the window policy never truncates them.
	// Debug-only per the window semantics — accessors read the ring.
	AllTimeMin float64
	AllTimeMax float64

	PricePoints    []PricePoint
	LastUpdateTime int64
}

// NewState constructs an empty State under the given window policy.
func NewState(cfg WindowConfig) State {
	return State{Config: cfg}
}

// Update folds one new observation into state and returns the next state.
// It is pure: state is never mutated, and calling Update twice with the
// same arguments from the same starting state yields equal results.
func Update(state State, price, volume float64, timestamp int64) State {
	next := state
	next.Count = state.Count + 1
	next.Sum = state.Sum + price
	next.SumSquares = state.SumSquares + price*price
	next.LastUpdateTime = timestamp

	if state.Count == 0 || price < state.AllTimeMin {
		next.AllTimeMin = price
	} else {
		next.AllTimeMin = state.AllTimeMin
	}
	if state.Count == 0 || price > state.AllTimeMax {
		next.AllTimeMax = price
	} else {
		next.AllTimeMax = state.AllTimeMax
	}

	points := make([]PricePoint, len(state.PricePoints), len(state.PricePoints)+1)
	copy(points, state.PricePoints)
	points = append(points, PricePoint{Price: price, Volume: volume, Timestamp: timestamp})

	next.PricePoints = retain(points, state.Config, timestamp)
	return next
}

// retain applies the window policy's truncation rule to a ring that has
// just had one point appended.
func retain(points []PricePoint, cfg WindowConfig, now int64) []PricePoint {
	switch cfg.Kind {
	case EventBased:
		return tailTruncate(points, cfg.Size)
	case TimeBased:
		return dropOlderThan(points, cfg.DurationMs, now)
	case Hybrid:
		filtered := dropOlderThan(points, cfg.DurationMs, now)
		return tailTruncate(filtered, cfg.Size)
	default:
		return points
	}
}

// tailTruncate keeps only the last n points, dropping from the front —
// the oldest point is always the first to go.
func tailTruncate(points []PricePoint, n int) []PricePoint {
	if n <= 0 || len(points) <= n {
		return points
	}
	start := len(points) - n
	return append([]PricePoint(nil), points[start:]...)
}

// dropOlderThan keeps every point with timestamp >= now - durationMs.
func dropOlderThan(points []PricePoint, durationMs, now int64) []PricePoint {
	cutoff := now - durationMs
	kept := points[:0:0]
	for _, p := range points {
		if p.Timestamp >= cutoff {
			kept = append(kept, p)
		}
	}
	return kept
}
