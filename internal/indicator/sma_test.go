//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package indicator

import (
	"context"
	"testing"

	"github.com/lumenquant/tradestream/internal/trade"
)

func TestSMAEmitsOnlyAfterWarmUp(t *testing.T) {
	sma := NewSMA("AAPL", 3)
	in := make(chan trade.Record)
	out := sma.Process(context.Background(), in)

	prices := []float64{10, 20, 30, 40}
	go func() {
		defer close(in)
		for i, p := range prices {
			in <- mustTrade(t, "AAPL", p, int64(i+1)*1000)
		}
	}()

	var states []State
	for st := range out {
		states = append(states, st)
	}

	// warm-up consumes the first 2 trades; emits on trades 3 and 4.
	if len(states) != 2 {
		t.Fatalf("expected 2 emitted states, got %d", len(states))
	}
	if states[0].Value != 20 { // mean(10,20,30)
		t.Errorf("expected first SMA 20, got %v", states[0].Value)
	}
	if states[1].Value != 30 { // mean(20,30,40)
		t.Errorf("expected second SMA 30, got %v", states[1].Value)
	}
}

func TestSMASignalThresholds(t *testing.T) {
	sma := NewSMA("AAPL", 3)
	base := State{Value: 100, Metadata: map[string]float64{"price": 103}}
	if sig := sma.Signal(base); sig.Kind != Buy {
		t.Errorf("expected Buy above 2%% threshold, got %v", sig.Kind)
	}
	base.Metadata["price"] = 97
	if sig := sma.Signal(base); sig.Kind != Sell {
		t.Errorf("expected Sell below 2%% threshold, got %v", sig.Kind)
	}
	base.Metadata["price"] = 100
	if sig := sma.Signal(base); sig.Kind != Hold {
		t.Errorf("expected Hold within threshold, got %v", sig.Kind)
	}
}

func TestBollingerSignalAtBands(t *testing.T) {
	// With period 6 the last ring is [100,100,100,100,100,130]: sma 105,
	// sigma ≈ 11.18, upper ≈ 127.36, so price 130 sits above the upper band.
	// (With a period of 3 and k=2 a price can never reach the upper band.)
	b := NewBollinger("AAPL", 6)
	in := make(chan trade.Record)
	out := b.Process(context.Background(), in)

	prices := []float64{100, 100, 100, 100, 100, 130}
	go func() {
		defer close(in)
		for i, p := range prices {
			in <- mustTrade(t, "AAPL", p, int64(i+1)*1000)
		}
	}()

	var last State
	for st := range out {
		last = st
	}

	sig := b.Signal(last)
	if sig.Kind != Sell {
		t.Errorf("expected Sell at/above upper band, got %v (metadata=%+v)", sig.Kind, last.Metadata)
	}
}

func TestVWAPFallsBackToPriceWhenVolumeZero(t *testing.T) {
	v := NewVWAP("AAPL", false)
	in := make(chan trade.Record)
	out := v.Process(context.Background(), in)

	go func() {
		defer close(in)
		rec, err := trade.New("AAPL", 50, 0, 1000, 1000, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		in <- rec
	}()

	st := <-out
	if st.Value != 50 {
		t.Errorf("expected vwap to fall back to price 50, got %v", st.Value)
	}
}

func TestVWAPMatchesLiteralScenario(t *testing.T) {
	v := NewVWAP("AAPL", false)
	in := make(chan trade.Record)
	out := v.Process(context.Background(), in)

	go func() {
		defer close(in)
		in <- mustTradeWithVolume(t, "AAPL", 100, 100, 1000)
		in <- mustTradeWithVolume(t, "AAPL", 110, 200, 2000)
		in <- mustTradeWithVolume(t, "AAPL", 120, 100, 3000)
	}()

	var last State
	for st := range out {
		last = st
	}
	if last.Value != 110 {
		t.Errorf("expected vwap 110, got %v", last.Value)
	}
}

func mustTradeWithVolume(t *testing.T, symbol trade.Symbol, price, volume float64, ts int64) trade.Record {
	t.Helper()
	rec, err := trade.New(symbol, price, volume, ts, ts, nil)
	if err != nil {
		t.Fatalf("unexpected error constructing trade: %v", err)
	}
	return rec
}
