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

// EMA is the exponential moving average indicator. Its first Period
// prices are accumulated exactly like SMA to seed the initial average;
// every price after that updates it via the standard EMA recurrence.
type EMA struct {
	Symbol trade.Symbol
	Period int
}

// NewEMA constructs an EMA indicator for symbol over period prices.
func NewEMA(symbol trade.Symbol, period int) *EMA {
	return &EMA{Symbol: symbol, Period: period}
}

func (e *EMA) ID() string   { return fmt.Sprintf("ema-%d-%s", e.Period, e.Symbol) }
func (e *EMA) Name() string { return fmt.Sprintf("EMA(%d)", e.Period) }

func (e *EMA) Process(ctx context.Context, in <-chan trade.Record) <-chan State {
	out := make(chan State)
	go func() {
		defer close(out)

		alpha := 2 / (float64(e.Period) + 1)
		seed := make([]float64, 0, e.Period)
		var ema float64
		seeded := false

		for {
			select {
			case t, ok := <-in:
				if !ok {
					return
				}
				if t.Symbol != e.Symbol {
					continue
				}

				if !seeded {
					seed = append(seed, t.Price)
					if len(seed) < e.Period {
						continue // warm-up
					}
					ema = mean(seed)
					seeded = true
				} else {
					ema = t.Price*alpha + ema*(1-alpha)
				}

				st := State{
					ID:         e.ID(),
					Name:       e.Name(),
					Symbol:     e.Symbol,
					LastUpdate: t.SourceTimestamp,
					Value:      ema,
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

func (e *EMA) Signal(st State) Signal {
	return smaLikeSignal(st)
}

func (e *EMA) CheckTrigger(st State, cond TriggerCondition) bool {
	return checkTrigger(st, cond)
}
