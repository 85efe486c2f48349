//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package broker

import (
	"context"

	"github.com/lumenquant/tradestream/internal/trade"
)

// FilterSymbol returns a channel that emits only trades for symbol, drawn
// from sub's underlying channel. The returned channel closes when sub's
// channel closes or ctx is cancelled.
func FilterSymbol(ctx context.Context, sub *Subscription, symbol trade.Symbol) <-chan trade.Record {
	return FilterSymbols(ctx, sub, map[trade.Symbol]struct{}{symbol: {}})
}

// FilterSymbols returns a channel that emits only trades whose symbol is
// in the given set, drawn from sub's underlying channel.
func FilterSymbols(ctx context.Context, sub *Subscription, symbols map[trade.Symbol]struct{}) <-chan trade.Record {
	out := make(chan trade.Record)
	go func() {
		defer close(out)
		for {
			select {
			case t, ok := <-sub.C():
				if !ok {
					return
				}
				if _, match := symbols[t.Symbol]; !match {
					continue
				}
				select {
				case out <- t:
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

// Tap returns a channel that mirrors every trade from sub without
// consuming it for any other observer — it is itself a full consumer of
// sub's channel, intended for an observer that wants visibility (logging,
// metrics) without participating in the main consumption path.
func Tap(ctx context.Context, sub *Subscription, observe func(trade.Record)) <-chan trade.Record {
	out := make(chan trade.Record)
	go func() {
		defer close(out)
		for {
			select {
			case t, ok := <-sub.C():
				if !ok {
					return
				}
				if observe != nil {
					observe(t)
				}
				select {
				case out <- t:
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
