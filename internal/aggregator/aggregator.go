//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package aggregator implements the signal aggregator: a pure scoring
// function that reduces a batch of indicator signals to one consensus
// signal.
package aggregator

import (
	"strings"

	"github.com/lumenquant/tradestream/internal/indicator"
)

// consensusThreshold is the 0.3 fraction-of-signal-count bar a score
// must clear before it is trusted over Hold.
const consensusThreshold = 0.3

// Aggregate reduces signals to a consensus Signal: Buy when its score
// dominates and clears the threshold, Sell symmetrically, Hold
// otherwise (including the empty-input case). Pure function; the caller
// owns whatever loop gathers signals (e.g. a per-tick snapshot across
// an engine's running indicators).
func Aggregate(signals []indicator.Signal) indicator.Signal {
	if len(signals) == 0 {
		return indicator.Signal{Kind: indicator.Hold}
	}

	var buyScore, sellScore float64
	var latest int64
	var buyReasons, sellReasons []string

	for _, s := range signals {
		if s.Timestamp > latest {
			latest = s.Timestamp
		}
		switch s.Kind {
		case indicator.Buy:
			buyScore += s.Strength
			if s.Reason != "" {
				buyReasons = append(buyReasons, s.Reason)
			}
		case indicator.Sell:
			sellScore += s.Strength
			if s.Reason != "" {
				sellReasons = append(sellReasons, s.Reason)
			}
		}
	}

	threshold := consensusThreshold * float64(len(signals))

	switch {
	case buyScore > sellScore && buyScore > threshold:
		strength := buyScore / float64(len(signals))
		if strength > 1 {
			strength = 1
		}
		return indicator.Signal{Kind: indicator.Buy, Strength: strength, Timestamp: latest, Reason: strings.Join(buyReasons, "; ")}
	case sellScore > buyScore && sellScore > threshold:
		strength := sellScore / float64(len(signals))
		if strength > 1 {
			strength = 1
		}
		return indicator.Signal{Kind: indicator.Sell, Strength: strength, Timestamp: latest, Reason: strings.Join(sellReasons, "; ")}
	default:
		return indicator.Signal{Kind: indicator.Hold, Timestamp: latest}
	}
}
