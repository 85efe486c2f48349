//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package indicator

import (
	"context"
	"fmt"
	"math"

	"github.com/lumenquant/tradestream/internal/trade"
)

// SMA is the simple moving average indicator: a ring of the last Period
// prices, ready once the ring is full.
type SMA struct {
	Symbol trade.Symbol
	Period int
}

// NewSMA constructs an SMA indicator for symbol over period prices.
func NewSMA(symbol trade.Symbol, period int) *SMA {
	return &SMA{Symbol: symbol, Period: period}
}

func (s *SMA) ID() string   { return fmt.Sprintf("sma-%d-%s", s.Period, s.Symbol) }
func (s *SMA) Name() string { return fmt.Sprintf("SMA(%d)", s.Period) }

func (s *SMA) Process(ctx context.Context, in <-chan trade.Record) <-chan State {
	out := make(chan State)
	go func() {
		defer close(out)
		ring := make([]float64, 0, s.Period)
		for {
			select {
			case t, ok := <-in:
				if !ok {
					return
				}
				if t.Symbol != s.Symbol {
					continue
				}
				ring = appendTail(ring, t.Price, s.Period)
				if len(ring) < s.Period {
					continue // warm-up
				}
				value := mean(ring)
				st := State{
					ID:         s.ID(),
					Name:       s.Name(),
					Symbol:     s.Symbol,
					LastUpdate: t.SourceTimestamp,
					Value:      value,
					Metadata: map[string]float64{
						"price":  t.Price,
						"volume": t.Volume,
					},
				}
				select {
				case out <- st:
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

func (s *SMA) Signal(st State) Signal {
	return smaLikeSignal(st)
}

func (s *SMA) CheckTrigger(st State, cond TriggerCondition) bool {
	return checkTrigger(st, cond)
}

// smaLikeSignal is the Buy-above/Sell-below-threshold-percent signal
// rule shared by SMA and EMA ("otherwise identical to SMA" per spec).
func smaLikeSignal(st State) Signal {
	price := st.Metadata["price"]
	switch {
	case price > st.Value*1.02:
		return Signal{Kind: Buy, Strength: 0.6, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("%s: price %.4f above value %.4f", st.Name, price, st.Value)}
	case price < st.Value*0.98:
		return Signal{Kind: Sell, Strength: 0.6, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("%s: price %.4f below value %.4f", st.Name, price, st.Value)}
	default:
		return Signal{Kind: Hold, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("%s: price within band of value", st.Name)}
	}
}

// appendTail appends v to ring and truncates from the front to keep at
// most n elements — the same tail-truncate shape as stats.tailTruncate,
// duplicated here since indicator rings are plain float64 slices rather
// than stats.PricePoint values.
func appendTail(ring []float64, v float64, n int) []float64 {
	ring = append(ring, v)
	if len(ring) <= n {
		return ring
	}
	return ring[len(ring)-n:]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDevOf(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}
