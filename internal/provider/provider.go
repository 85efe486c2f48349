//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

// Package provider abstracts the external market-data WebSocket source.
// Every concrete provider (Finnhub, Polygon) authenticates, subscribes to a
// symbol set, and emits trade.Record values onto a channel — a finite,
// non-restartable stream that only ends on terminal error or context
// cancellation.
package provider

import (
	"context"
	"fmt"

	"github.com/lumenquant/tradestream/internal/trade"
)

// Provider authenticates against an external market-data source and
// streams validated trades for a set of symbols. Subscribe is not
// restartable: once its returned channel closes, a fresh Provider (or a
// fresh call after re-authenticating) is required.
type Provider interface {
	// Authenticate establishes the connection. Returns ErrUnauthenticated
	// (non-retryable) or a wrapped ErrConnectFailed (retryable) on failure.
	Authenticate(ctx context.Context) error

	// Subscribe sends the provider's subscription request(s) for symbols
	// (Finnhub: one frame per symbol; Polygon: one combined frame) and
	// returns a channel of trades. The channel closes when ctx is cancelled or the
	// connection terminates; it is never restarted.
	Subscribe(ctx context.Context, symbols []trade.Symbol) (<-chan trade.Record, error)
}

// ErrUnauthenticated indicates the provider rejected the supplied
// credentials. Non-retryable: reopening the connection with the same
// credentials will fail again.
type ErrUnauthenticated struct {
	Provider string
	Reason   string
}

func (e *ErrUnauthenticated) Error() string {
	return fmt.Sprintf("%s: authentication failed: %s", e.Provider, e.Reason)
}

// ErrConnectFailed indicates a transport-level failure establishing the
// WebSocket connection. Retryable: a fresh attempt may succeed.
type ErrConnectFailed struct {
	Provider string
	Cause    error
}

func (e *ErrConnectFailed) Error() string {
	return fmt.Sprintf("%s: connect failed: %v", e.Provider, e.Cause)
}

func (e *ErrConnectFailed) Unwrap() error { return e.Cause }

// ParseError reports a malformed frame from the provider. It is always
// recovered locally — the frame is dropped and the stream continues.
type ParseError struct {
	Provider string
	Cause    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse frame: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }
