//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package broker implements the trade broadcast multicast: every published
// trade reaches every currently attached subscriber, each subscriber reads
// at its own pace from its own bounded queue, and a subscriber that falls
// behind backpressures only the broker's path to that one subscriber.
package broker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lumenquant/tradestream/internal/trade"
)

// DefaultCapacity is the default bounded size of each subscriber's queue.
const DefaultCapacity = 1024

// state is the broker's lifecycle: Open accepts new subscribers and
// publishes; Closed rejects both.
type state int

const (
	stateOpen state = iota
	stateClosed
)

// Broker fans trades out to independent subscribers with bounded,
// per-subscriber queues. The zero value is not usable — construct with
// New.
type Broker struct {
	mu          sync.Mutex
	state       state
	capacity    int
	subscribers map[*Subscription]struct{}

	sortByTimestamp bool
	batchWindow     time.Duration
	pending         []trade.Record
	flushTimer      *time.Timer
}

// Option configures a Broker at construction time.
type Option func(*Broker)

// WithCapacity overrides the default per-subscriber queue capacity.
func WithCapacity(n int) Option {
	return func(b *Broker) { b.capacity = n }
}

// WithTimestampSort enables the best-effort chunk-local reordering
// described by spec.md's sortByTimestamp flag: trades are held for at most
// window before being flushed to subscribers in sourceTimestamp order.
// Reordering is local to each window only; there is no global ordering
// guarantee.
func WithTimestampSort(window time.Duration) Option {
	return func(b *Broker) {
		b.sortByTimestamp = true
		b.batchWindow = window
	}
}

// New constructs an open Broker.
func New(opts ...Option) *Broker {
	b := &Broker{
		capacity:    DefaultCapacity,
		subscribers: make(map[*Subscription]struct{}),
		batchWindow: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is a scoped handle to one subscriber's queue. Call Close
// when done to release the queue; the broker stops delivering to a closed
// subscription immediately.
type Subscription struct {
	ch     chan trade.Record
	broker *Broker
	once   sync.Once
}

// C returns the channel of trades for this subscription. It closes when
// the subscription is closed or the broker closes.
func (s *Subscription) C() <-chan trade.Record { return s.ch }

// Close releases the subscription's queue. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.ch)
	})
}

// Subscribe acquires a new subscriber handle. The returned subscription
// observes only trades published after Subscribe returns — past trades
// are never replayed. Callers must Close the subscription when done.
func (b *Broker) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateClosed {
		return nil, fmt.Errorf("broker: closed")
	}

	sub := &Subscription{
		ch:     make(chan trade.Record, b.capacity),
		broker: b,
	}
	b.subscribers[sub] = struct{}{}
	return sub, nil
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub)
}

// Publish enqueues t onto every currently attached subscriber's queue. It
// blocks on any one full subscriber queue — that block IS the backpressure
// primitive; a slow subscriber never causes trades to be silently dropped.
// When WithTimestampSort is active, Publish buffers t and flushes a
// timestamp-sorted batch to subscribers after at most the configured
// window.
func (b *Broker) Publish(ctx context.Context, t trade.Record) error {
	if b.sortByTimestamp {
		return b.publishBuffered(ctx, t)
	}
	return b.publishDirect(ctx, t)
}

func (b *Broker) publishDirect(ctx context.Context, t trade.Record) error {
	b.mu.Lock()
	if b.state == stateClosed {
		b.mu.Unlock()
		return fmt.Errorf("broker: closed")
	}
	targets := make([]*Subscription, 0, len(b.subscribers))
	for sub := range b.subscribers {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *Broker) publishBuffered(ctx context.Context, t trade.Record) error {
	b.mu.Lock()
	if b.state == stateClosed {
		b.mu.Unlock()
		return fmt.Errorf("broker: closed")
	}

	b.pending = append(b.pending, t)
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.batchWindow, func() { b.flush(context.Background()) })
	}
	b.mu.Unlock()
	return nil
}

func (b *Broker) flush(ctx context.Context) {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.flushTimer = nil
	closed := b.state == stateClosed
	targets := make([]*Subscription, 0, len(b.subscribers))
	for sub := range b.subscribers {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	if closed || len(batch) == 0 {
		return
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].SourceTimestamp < batch[j].SourceTimestamp
	})

	for _, t := range batch {
		for _, sub := range targets {
			select {
			case sub.ch <- t:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close transitions the broker to Closed: no further Subscribe or Publish
// calls succeed, and every existing subscription's channel is closed,
// which its consumer observes as a normal end-of-stream (never an error).
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.state == stateClosed {
		b.mu.Unlock()
		return nil
	}
	b.state = stateClosed
	subs := make([]*Subscription, 0, len(b.subscribers))
	for sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.subscribers = make(map[*Subscription]struct{})
	b.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
	return nil
}

// SubscriberCount reports the number of currently attached subscribers.
// An observability hook (a value for a gauge such as
// metrics.Registry.SetActiveSubscribers); nothing outside the tests calls
// it.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
