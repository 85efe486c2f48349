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

// Bollinger is the Bollinger Bands indicator: an SMA centerline with
// upper/lower bands K standard deviations away.
type Bollinger struct {
	Symbol trade.Symbol
	Period int
	K      float64
}

// NewBollinger constructs a Bollinger(period, k=2) indicator.
func NewBollinger(symbol trade.Symbol, period int) *Bollinger {
	return &Bollinger{Symbol: symbol, Period: period, K: 2}
}

func (b *Bollinger) ID() string   { return fmt.Sprintf("bollinger-%d-%s", b.Period, b.Symbol) }
func (b *Bollinger) Name() string { return fmt.Sprintf("Bollinger(%d)", b.Period) }

func (b *Bollinger) Process(ctx context.Context, in <-chan trade.Record) <-chan State {
	out := make(chan State)
	go func() {
		defer close(out)
		ring := make([]float64, 0, b.Period)
		for {
			select {
			case t, ok := <-in:
				if !ok {
					return
				}
				if t.Symbol != b.Symbol {
					continue
				}
				ring = appendTail(ring, t.Price, b.Period)
				if len(ring) < b.Period {
					continue // warm-up
				}

				sma := mean(ring)
				sigma := stdDevOf(ring)
				upper := sma + b.K*sigma
				lower := sma - b.K*sigma

				var percentB float64
				if upper != lower {
					percentB = (t.Price - lower) / (upper - lower)
				}
				var bandwidth float64
				if sma != 0 {
					bandwidth = (upper - lower) / sma * 100
				}

				st := State{
					ID:         b.ID(),
					Name:       b.Name(),
					Symbol:     b.Symbol,
					LastUpdate: t.SourceTimestamp,
					Value:      sma,
					Metadata: map[string]float64{
						"price":     t.Price,
						"volume":    t.Volume,
						"upper":     upper,
						"lower":     lower,
						"percentB":  percentB,
						"bandwidth": bandwidth,
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

func (b *Bollinger) Signal(st State) Signal {
	price := st.Metadata["price"]
	lower := st.Metadata["lower"]
	upper := st.Metadata["upper"]
	percentB := st.Metadata["percentB"]

	switch {
	case price <= lower:
		strength := math.Abs(percentB)
		if strength > 1 {
			strength = 1
		}
		return Signal{Kind: Buy, Strength: strength, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("price %.4f at/below lower band %.4f", price, lower)}
	case price >= upper:
		strength := percentB
		if strength > 1 {
			strength = 1
		}
		return Signal{Kind: Sell, Strength: strength, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("price %.4f at/above upper band %.4f", price, upper)}
	default:
		return Signal{Kind: Hold, Timestamp: st.LastUpdate, Reason: "price within bands"}
	}
}

func (b *Bollinger) CheckTrigger(st State, cond TriggerCondition) bool {
	return checkTrigger(st, cond)
}
