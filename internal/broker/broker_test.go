//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumenquant/tradestream/internal/trade"
)

func mustTrade(t *testing.T, symbol trade.Symbol, price float64, ts int64) trade.Record {
	t.Helper()
	rec, err := trade.New(symbol, price, 1, ts, ts, nil)
	require.NoError(t, err)
	return rec
}

// TestSubscribeBeforePublishBothObserveAll is spec.md's scenario 1: two
// subscribers attach, then three trades are published; both observe the
// full sequence in publish order.
func TestSubscribeBeforePublishBothObserveAll(t *testing.T) {
	b := New()
	defer b.Close()

	ctx := context.Background()

	subA, err := b.Subscribe()
	require.NoError(t, err)
	defer subA.Close()

	subB, err := b.Subscribe()
	require.NoError(t, err)
	defer subB.Close()

	trades := []trade.Record{
		mustTrade(t, "AAPL", 150, 1),
		mustTrade(t, "GOOGL", 2800, 2),
		mustTrade(t, "MSFT", 350, 3),
	}
	for _, tr := range trades {
		require.NoError(t, b.Publish(ctx, tr))
	}

	for _, sub := range []*Subscription{subA, subB} {
		for i, want := range trades {
			select {
			case got := <-sub.C():
				require.Equal(t, want.Symbol, got.Symbol, "trade %d", i)
			case <-time.After(time.Second):
				t.Fatalf("timed out waiting for trade %d", i)
			}
		}
	}
}

// TestSubscriberOnlySeesPublishesAfterSubscribe verifies the
// subscribe-before-publish semantic: a trade published before Subscribe
// returns is never observed by that subscription.
func TestSubscriberOnlySeesPublishesAfterSubscribe(t *testing.T) {
	b := New()
	defer b.Close()
	ctx := context.Background()

	early, err := b.Subscribe()
	require.NoError(t, err)
	defer early.Close()

	require.NoError(t, b.Publish(ctx, mustTrade(t, "AAPL", 1, 1)))

	late, err := b.Subscribe()
	require.NoError(t, err)
	defer late.Close()

	require.NoError(t, b.Publish(ctx, mustTrade(t, "MSFT", 2, 2)))

	select {
	case got := <-late.C():
		require.Equal(t, trade.Symbol("MSFT"), got.Symbol)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trade")
	}

	select {
	case got := <-late.C():
		t.Fatalf("expected only one trade for the late subscriber, got extra: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestFilterSymbols is spec.md's scenario 2: a subscriber filtered to
// {AAPL, GOOGL} observes only matching trades, in order.
func TestFilterSymbols(t *testing.T) {
	b := New()
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := b.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	filtered := FilterSymbols(ctx, sub, map[trade.Symbol]struct{}{"AAPL": {}, "GOOGL": {}})

	symbols := []trade.Symbol{"AAPL", "MSFT", "GOOGL", "TSLA", "AAPL"}
	go func() {
		for i, s := range symbols {
			b.Publish(ctx, mustTrade(t, s, float64(i), int64(i+1)))
		}
	}()

	want := []trade.Symbol{"AAPL", "GOOGL", "AAPL"}
	for i, w := range want {
		select {
		case got := <-filtered:
			require.Equal(t, w, got.Symbol, "filtered trade %d", i)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for filtered trade %d", i)
		}
	}
}

// TestPublishBackpressureBlocksOnFullQueue verifies that Publish blocks
// when a subscriber's queue is full, rather than dropping the trade —
// the no-silent-drop invariant.
func TestPublishBackpressureBlocksOnFullQueue(t *testing.T) {
	b := New(WithCapacity(1))
	defer b.Close()

	sub, err := b.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, mustTrade(t, "AAPL", 1, 1))) // fills the queue

	published := make(chan error, 1)
	go func() {
		published <- b.Publish(ctx, mustTrade(t, "AAPL", 2, 2))
	}()

	select {
	case <-published:
		t.Fatal("expected Publish to block while the subscriber queue is full")
	case <-time.After(100 * time.Millisecond):
	}

	<-sub.C() // drain one slot

	select {
	case err := <-published:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected Publish to unblock once the queue had room")
	}
}

// TestOneSlowSubscriberDoesNotStarveOthersEventually verifies that a
// subscriber that never reads does not keep a second subscriber from
// receiving a published trade from its own queue.
func TestOneSlowSubscriberDoesNotStarveOthersEventually(t *testing.T) {
	b := New(WithCapacity(1))
	defer b.Close()
	ctx := context.Background()

	slow, err := b.Subscribe()
	require.NoError(t, err)
	defer slow.Close()

	fast, err := b.Subscribe()
	require.NoError(t, err)
	defer fast.Close()

	require.NoError(t, b.Publish(ctx, mustTrade(t, "AAPL", 1, 1)))

	// fast's queue has the trade waiting; drain it to prove delivery
	// happened independently of slow's queue being full.
	select {
	case got := <-fast.C():
		require.Equal(t, trade.Symbol("AAPL"), got.Symbol)
	case <-time.After(time.Second):
		t.Fatal("fast subscriber never received the trade")
	}
}

// TestCloseEndsAllSubscriptionsNormally verifies that closing the broker
// closes every subscription's channel without an error — end-of-stream,
// not a failure.
func TestCloseEndsAllSubscriptionsNormally(t *testing.T) {
	b := New()

	sub, err := b.Subscribe()
	require.NoError(t, err)

	require.NoError(t, b.Close())

	select {
	case _, ok := <-sub.C():
		require.False(t, ok, "expected channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel to close")
	}
}

// TestPublishAfterCloseFails verifies that Publish returns an error once
// the broker is closed.
func TestPublishAfterCloseFails(t *testing.T) {
	b := New()
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), mustTrade(t, "AAPL", 1, 1))
	require.Error(t, err)
}

// TestSubscribeAfterCloseFails verifies that Subscribe returns an error
// once the broker is closed.
func TestSubscribeAfterCloseFails(t *testing.T) {
	b := New()
	require.NoError(t, b.Close())

	_, err := b.Subscribe()
	require.Error(t, err)
}

// TestSubscriptionCloseReleasesQueueIndependently verifies that closing
// one subscription does not affect another subscriber's stream.
func TestSubscriptionCloseReleasesQueueIndependently(t *testing.T) {
	b := New()
	defer b.Close()
	ctx := context.Background()

	a, err := b.Subscribe()
	require.NoError(t, err)

	other, err := b.Subscribe()
	require.NoError(t, err)
	defer other.Close()

	a.Close()
	require.Equal(t, 1, b.SubscriberCount())

	require.NoError(t, b.Publish(ctx, mustTrade(t, "AAPL", 1, 1)))

	select {
	case got := <-other.C():
		require.Equal(t, trade.Symbol("AAPL"), got.Symbol)
	case <-time.After(time.Second):
		t.Fatal("expected remaining subscriber to still receive trades")
	}
}

// TestWithTimestampSortOrdersWithinBatch verifies that, with
// WithTimestampSort enabled, trades published out of source-timestamp
// order within one flush window are delivered in sourceTimestamp order.
func TestWithTimestampSortOrdersWithinBatch(t *testing.T) {
	b := New(WithTimestampSort(30 * time.Millisecond))
	defer b.Close()
	ctx := context.Background()

	sub, err := b.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, mustTrade(t, "C", 3, 30)))
	require.NoError(t, b.Publish(ctx, mustTrade(t, "A", 1, 10)))
	require.NoError(t, b.Publish(ctx, mustTrade(t, "B", 2, 20)))

	want := []trade.Symbol{"A", "B", "C"}
	for i, w := range want {
		select {
		case got := <-sub.C():
			require.Equal(t, w, got.Symbol, "sorted trade %d", i)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for sorted trade %d", i)
		}
	}
}
