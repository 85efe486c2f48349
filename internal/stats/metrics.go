//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package stats

import "math"

// tradingYearDays is the annualization convention: 252 trading days.
const tradingYearDays = 252

// Mean returns the arithmetic mean of the retained ring. Zero when the
// ring is empty.
func (s State) Mean() float64 {
	if len(s.PricePoints) == 0 {
		return 0
	}
	var sum float64
	for _, p := range s.PricePoints {
		sum += p.Price
	}
	return sum / float64(len(s.PricePoints))
}

// StdDev returns the population standard deviation of prices in the
// retained ring. Zero when the ring holds fewer than 2 points.
func (s State) StdDev() float64 {
	n := len(s.PricePoints)
	if n < 2 {
		return 0
	}
	mean := s.Mean()
	var sumSq float64
	for _, p := range s.PricePoints {
		d := p.Price - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}

// Volatility computes log-returns between consecutive retained points and
// annualizes their standard deviation as stddev(returns) ×
// √(tradingYear/elapsed) × 100, tradingYear = 252 days. Returns 0 when the
// ring holds fewer than 2 points or the elapsed window is non-positive.
func (s State) Volatility() float64 {
	n := len(s.PricePoints)
	if n < 2 {
		return 0
	}
	elapsedMs := s.PricePoints[n-1].Timestamp - s.PricePoints[0].Timestamp
	if elapsedMs <= 0 {
		return 0
	}

	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev := s.PricePoints[i-1].Price
		cur := s.PricePoints[i].Price
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	stdDev := math.Sqrt(sumSq / float64(len(returns)))

	elapsedDays := float64(elapsedMs) / float64(24*60*60*1000)
	if elapsedDays <= 0 {
		return 0
	}
	return stdDev * math.Sqrt(tradingYearDays/elapsedDays) * 100
}

// Momentum returns the percent rate of change between the first and last
// retained points: (last - first) / first × 100. Zero when the ring holds
// fewer than 2 points or the first price is 0.
func (s State) Momentum() float64 {
	n := len(s.PricePoints)
	if n < 2 {
		return 0
	}
	first := s.PricePoints[0].Price
	if first == 0 {
		return 0
	}
	last := s.PricePoints[n-1].Price
	return (last - first) / first * 100
}

// TradeVelocity returns the retained point count per second:
// |ring|/elapsedMs × 1000. Zero when the ring holds fewer than 2 points
// or the elapsed window is non-positive.
func (s State) TradeVelocity() float64 {
	n := len(s.PricePoints)
	if n < 2 {
		return 0
	}
	elapsedMs := s.PricePoints[n-1].Timestamp - s.PricePoints[0].Timestamp
	if elapsedMs <= 0 {
		return 0
	}
	return float64(n) / float64(elapsedMs) * 1000
}

// Min returns the lowest price in the retained ring. Zero when the ring
// is empty. This is distinct from the all-time State.AllTimeMin field,
// which is never truncated by the window policy; accessors read the
// ring, per the window semantics.
func (s State) Min() float64 {
	if len(s.PricePoints) == 0 {
		return 0
	}
	min := s.PricePoints[0].Price
	for _, p := range s.PricePoints {
		if p.Price < min {
			min = p.Price
		}
	}
	return min
}

// Max returns the highest price in the retained ring. Zero when the ring
// is empty. See Min for why this reads the ring rather than the all-time
// State.AllTimeMax field.
func (s State) Max() float64 {
	if len(s.PricePoints) == 0 {
		return 0
	}
	max := s.PricePoints[0].Price
	for _, p := range s.PricePoints {
		if p.Price > max {
			max = p.Price
		}
	}
	return max
}

// VWAP returns the volume-weighted average price over the retained ring:
// Σ(price·volume) / Σvolume. Zero when Σvolume is 0.
func (s State) VWAP() float64 {
	var pv, v float64
	for _, p := range s.PricePoints {
		pv += p.Price * p.Volume
		v += p.Volume
	}
	if v == 0 {
		return 0
	}
	return pv / v
}

// SpreadApprox returns the proxy (max-min)/mid × 100 over the retained
// ring's observed min/max. Zero when the ring is empty or min+max is 0.
func (s State) SpreadApprox() float64 {
	if len(s.PricePoints) == 0 {
		return 0
	}
	min, max := s.Min(), s.Max()
	mid := (min + max) / 2
	if mid == 0 {
		return 0
	}
	return (max - min) / mid * 100
}
