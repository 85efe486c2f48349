//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package indicator

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenquant/tradestream/internal/trade"
)

// VWAP is the volume-weighted average price indicator: a running ΣPV/ΣV
// accumulator, optionally reset at each UTC calendar-day boundary.
type VWAP struct {
	Symbol     trade.Symbol
	ResetDaily bool
}

// NewVWAP constructs a VWAP indicator for symbol.
func NewVWAP(symbol trade.Symbol, resetDaily bool) *VWAP {
	return &VWAP{Symbol: symbol, ResetDaily: resetDaily}
}

func (v *VWAP) ID() string   { return fmt.Sprintf("vwap-%s", v.Symbol) }
func (v *VWAP) Name() string { return "VWAP" }

func (v *VWAP) Process(ctx context.Context, in <-chan trade.Record) <-chan State {
	out := make(chan State)
	go func() {
		defer close(out)

		var sumPV, sumV float64
		var lastDate string

		for {
			select {
			case t, ok := <-in:
				if !ok {
					return
				}
				if t.Symbol != v.Symbol {
					continue
				}

				date := tradeDate(t.SourceTimestamp)
				if v.ResetDaily && lastDate != "" && date != lastDate {
					sumPV, sumV = 0, 0
				}
				lastDate = date

				sumPV += t.Price * t.Volume
				sumV += t.Volume

				vwap := t.Price
				if sumV != 0 {
					vwap = sumPV / sumV
				}

				st := State{
					ID:         v.ID(),
					Name:       v.Name(),
					Symbol:     v.Symbol,
					LastUpdate: t.SourceTimestamp,
					Value:      vwap,
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

func (v *VWAP) Signal(st State) Signal {
	price := st.Metadata["price"]
	vwap := st.Value
	switch {
	case price > vwap*1.015:
		return Signal{Kind: Buy, Strength: 0.6, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("price %.4f above vwap %.4f", price, vwap)}
	case price < vwap*0.985:
		return Signal{Kind: Sell, Strength: 0.6, Timestamp: st.LastUpdate, Reason: fmt.Sprintf("price %.4f below vwap %.4f", price, vwap)}
	default:
		return Signal{Kind: Hold, Timestamp: st.LastUpdate, Reason: "price within vwap band"}
	}
}

func (v *VWAP) CheckTrigger(st State, cond TriggerCondition) bool {
	return checkTrigger(st, cond)
}

func tradeDate(sourceTimestampMs int64) string {
	return time.UnixMilli(sourceTimestampMs).UTC().Format("2006-01-02")
}
