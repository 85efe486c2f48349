//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package transport is a thin, provider-agnostic WebSocket dialer shared by
// every internal/provider implementation. It owns the connection lifecycle
// (dial, write, listen, close) so each provider only has to know its own
// wire format.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn manages a single WebSocket connection. All write operations are
// protected by a mutex to ensure thread safety when a caller both writes
// subscribe frames and reads in a Listen loop concurrently.
type Conn struct {
	url  string
	conn *websocket.Conn
	done chan struct{}
	mu   sync.Mutex
}

// Dial establishes a WebSocket connection to url. The provided context
// bounds the handshake; cancelling it after Dial returns has no effect on
// the connection — use Close instead.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	return &Conn{
		url:  url,
		conn: conn,
		done: make(chan struct{}),
	}, nil
}

// WriteJSON marshals v and sends it as a text frame. Safe to call
// concurrently with Listen.
func (c *Conn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("websocket connection is not established")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// ReadMessage reads a single frame, blocking until one arrives or the
// connection closes. It is not safe to call concurrently with itself or
// with Listen — callers own one read loop per connection.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return message, nil
}

// Listen reads frames from the connection in a loop and passes each raw
// message to handler. The loop terminates when the connection is closed
// (either by the server or by calling Close), when a read error occurs, or
// when ctx is cancelled.
func (c *Conn) Listen(ctx context.Context, handler func([]byte)) error {
	// Unblock a pending read when ctx is cancelled by expiring its deadline.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.SetReadDeadline(time.Now())
		case <-c.done:
		case <-stop:
		}
	}()

	for {
		select {
		case <-c.done:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			select {
			case <-c.done:
				return nil
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("read error: %w", err)
			}
		}

		handler(message)
	}
}

// Close gracefully closes the WebSocket connection by sending a close
// message to the server and then closing the underlying connection. Safe
// to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		// Already closed.
	default:
		close(c.done)
	}

	if c.conn == nil {
		return nil
	}

	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to send close message: %w", err)
	}

	return c.conn.Close()
}
