//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package indicator

import (
	"context"
	"fmt"

	"github.com/lumenquant/tradestream/internal/trade"
)

// RSI is the relative strength index indicator: average gain/loss over
// Period price deltas, Wilder-smoothed after the warm-up window.
type RSI struct {
	Symbol     trade.Symbol
	Period     int
	Oversold   float64
	Overbought float64
}

// NewRSI constructs an RSI(period) indicator with the conventional
// oversold=30/overbought=70 thresholds.
func NewRSI(symbol trade.Symbol, period int) *RSI {
	return &RSI{Symbol: symbol, Period: period, Oversold: 30, Overbought: 70}
}

func (r *RSI) ID() string   { return fmt.Sprintf("rsi-%d-%s", r.Period, r.Symbol) }
func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.Period) }

func (r *RSI) Process(ctx context.Context, in <-chan trade.Record) <-chan State {
	out := make(chan State)
	go func() {
		defer close(out)

		var (
			havePrev  bool
			prevPrice float64
			gainSum   float64
			lossSum   float64
			avgGain   float64
			avgLoss   float64
			deltas    int
		)

		for {
			select {
			case t, ok := <-in:
				if !ok {
					return
				}
				if t.Symbol != r.Symbol {
					continue
				}
				if !havePrev {
					prevPrice = t.Price
					havePrev = true
					continue
				}

				delta := t.Price - prevPrice
				prevPrice = t.Price
				gain, loss := 0.0, 0.0
				if delta > 0 {
					gain = delta
				} else {
					loss = -delta
				}
				deltas++

				if deltas <= r.Period {
					gainSum += gain
					lossSum += loss
					if deltas < r.Period {
						continue // warm-up
					}
					avgGain = gainSum / float64(r.Period)
					avgLoss = lossSum / float64(r.Period)
				} else {
					avgGain = (avgGain*float64(r.Period-1) + gain) / float64(r.Period)
					avgLoss = (avgLoss*float64(r.Period-1) + loss) / float64(r.Period)
				}

				rsi := 100.0
				if avgLoss != 0 {
					rs := avgGain / avgLoss
					rsi = 100 - 100/(1+rs)
				}

				st := State{
					ID:         r.ID(),
					Name:       r.Name(),
					Symbol:     r.Symbol,
					LastUpdate: t.SourceTimestamp,
					Value:      rsi,
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

func (r *RSI) Signal(st State) Signal {
	rsi := st.Value
	switch {
	case rsi < r.Oversold:
		strength := (r.Oversold - rsi) / r.Oversold
		if strength > 1 {
			strength = 1
		}
		return Signal{Kind: Buy, Strength: strength, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("RSI %.2f below oversold %.0f", rsi, r.Oversold)}
	case rsi > r.Overbought:
		strength := (rsi - r.Overbought) / (100 - r.Overbought)
		if strength > 1 {
			strength = 1
		}
		return Signal{Kind: Sell, Strength: strength, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("RSI %.2f above overbought %.0f", rsi, r.Overbought)}
	default:
		return Signal{Kind: Hold, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("RSI %.2f within neutral band", rsi)}
	}
}

func (r *RSI) CheckTrigger(st State, cond TriggerCondition) bool {
	return checkTrigger(st, cond)
}
