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

// VolatilityMethod selects which volatility estimator to report. atr and
// parkinson both require OHLC inputs this core does not have (the trade
// stream carries price/volume, not bar highs/lows) and so fall back to
// stdDev, per spec.
type VolatilityMethod int

const (
	StdDev VolatilityMethod = iota
	ATR
	Parkinson
)

// Volatility is the rolling volatility indicator: simple returns over
// the last Period+1 prices (Period returns once the ring is full; the
// first state, at Period prices, uses Period-1 returns), annualized at
// √252.
type Volatility struct {
	Symbol        trade.Symbol
	Period        int
	Method        VolatilityMethod
	HighThreshold float64
}

// NewVolatility constructs a Volatility(period, method, highThreshold)
// indicator.
func NewVolatility(symbol trade.Symbol, period int, method VolatilityMethod, highThreshold float64) *Volatility {
	return &Volatility{Symbol: symbol, Period: period, Method: method, HighThreshold: highThreshold}
}

func (v *Volatility) ID() string   { return fmt.Sprintf("volatility-%d-%s", v.Period, v.Symbol) }
func (v *Volatility) Name() string { return fmt.Sprintf("Volatility(%d)", v.Period) }

func (v *Volatility) Process(ctx context.Context, in <-chan trade.Record) <-chan State {
	out := make(chan State)
	go func() {
		defer close(out)

		ring := make([]float64, 0, v.Period+1)
		prevVol := -1.0 // sentinel: no prior observation yet

		for {
			select {
			case t, ok := <-in:
				if !ok {
					return
				}
				if t.Symbol != v.Symbol {
					continue
				}
				ring = appendTail(ring, t.Price, v.Period+1)
				if len(ring) < v.Period {
					continue // warm-up: no states until |ring| >= period
				}
				if len(ring) < 2 {
					continue // need at least one return
				}

				returns := make([]float64, 0, len(ring)-1)
				for i := 1; i < len(ring); i++ {
					if ring[i-1] == 0 {
						continue
					}
					returns = append(returns, (ring[i]-ring[i-1])/ring[i-1])
				}

				// Every method reduces to the annualized stddev of
				// simple returns in this core; see VolatilityMethod.
				vol := stdDevOf(returns) * math.Sqrt(252) * 100

				trend := 0.0 // flat
				if prevVol >= 0 {
					if vol > prevVol {
						trend = 1 // rising
					} else if vol < prevVol {
						trend = -1 // falling
					}
				}
				prevVol = vol

				st := State{
					ID:         v.ID(),
					Name:       v.Name(),
					Symbol:     v.Symbol,
					LastUpdate: t.SourceTimestamp,
					Value:      vol,
					Metadata: map[string]float64{
						"price":      t.Price,
						"volume":     t.Volume,
						"volatility": vol,
						"trend":      trend,
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

func (v *Volatility) Signal(st State) Signal {
	vol := st.Value
	trend := st.Metadata["trend"]
	switch {
	case vol > v.HighThreshold && trend > 0:
		return Signal{Kind: Sell, Strength: math.Min(1, vol/v.HighThreshold-1), Timestamp: st.LastUpdate, Reason: fmt.Sprintf("volatility %.4f above threshold %.4f and rising", vol, v.HighThreshold)}
	case vol < v.HighThreshold/2 && trend < 0:
		strength := 1.0
		if v.HighThreshold > 0 {
			strength = math.Min(1, 1-(vol/(v.HighThreshold/2)))
		}
		return Signal{Kind: Buy, Strength: math.Max(0, strength), Timestamp: st.LastUpdate, Reason: fmt.Sprintf("volatility %.4f below half-threshold and falling", vol)}
	default:
		return Signal{Kind: Hold, Timestamp: st.LastUpdate, Reason: "volatility within neutral band"}
	}
}

func (v *Volatility) CheckTrigger(st State, cond TriggerCondition) bool {
	return checkTrigger(st, cond)
}
