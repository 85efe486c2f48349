//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package aggregator

import (
	"math"
	"testing"

	"github.com/lumenquant/tradestream/internal/indicator"
)

// TestAggregateMatchesLiteralScenario is the literal scenario: Buy 0.8,
// Buy 0.6, Sell 0.3 aggregate to Buy with strength ≈ 0.467.
func TestAggregateMatchesLiteralScenario(t *testing.T) {
	signals := []indicator.Signal{
		{Kind: indicator.Buy, Strength: 0.8, Timestamp: 1},
		{Kind: indicator.Buy, Strength: 0.6, Timestamp: 2},
		{Kind: indicator.Sell, Strength: 0.3, Timestamp: 3},
	}

	got := Aggregate(signals)
	if got.Kind != indicator.Buy {
		t.Fatalf("expected Buy, got %v", got.Kind)
	}
	want := (0.8 + 0.6) / 3
	if diff := math.Abs(got.Strength - want); diff > 1e-9 {
		t.Errorf("expected strength %.6f, got %.6f", want, got.Strength)
	}
}

func TestAggregateEmptyInputIsHold(t *testing.T) {
	got := Aggregate(nil)
	if got.Kind != indicator.Hold {
		t.Errorf("expected Hold for empty input, got %v", got.Kind)
	}
	if got.Strength != 0 {
		t.Errorf("expected strength 0 for Hold, got %v", got.Strength)
	}
}

func TestAggregateBelowThresholdIsHold(t *testing.T) {
	// Single weak Buy: buyScore=0.1, threshold=0.3*1=0.3, 0.1 does not clear it.
	signals := []indicator.Signal{{Kind: indicator.Buy, Strength: 0.1, Timestamp: 1}}
	got := Aggregate(signals)
	if got.Kind != indicator.Hold {
		t.Errorf("expected Hold below consensus threshold, got %v", got.Kind)
	}
}

func TestAggregateTiedScoresAreHold(t *testing.T) {
	signals := []indicator.Signal{
		{Kind: indicator.Buy, Strength: 0.5, Timestamp: 1},
		{Kind: indicator.Sell, Strength: 0.5, Timestamp: 2},
	}
	got := Aggregate(signals)
	if got.Kind != indicator.Hold {
		t.Errorf("expected Hold on tied scores, got %v", got.Kind)
	}
}

func TestAggregateUsesLatestTimestamp(t *testing.T) {
	signals := []indicator.Signal{
		{Kind: indicator.Hold, Timestamp: 5},
		{Kind: indicator.Hold, Timestamp: 9},
		{Kind: indicator.Hold, Timestamp: 2},
	}
	got := Aggregate(signals)
	if got.Timestamp != 9 {
		t.Errorf("expected latest timestamp 9, got %d", got.Timestamp)
	}
}
