//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader is the WebSocket upgrader used by mock servers in tests. It
// accepts all origins to simplify test setup.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TestDialToMockServer verifies that Dial successfully establishes a
// WebSocket connection to a mock server.
func TestDialToMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}
	defer conn.Close()

	if conn.conn == nil {
		t.Error("expected connection to be established, got nil")
	}
}

// TestDialFailsWithBadURL verifies that Dial returns an error when given
// an address that cannot be reached.
func TestDialFailsWithBadURL(t *testing.T) {
	_, err := Dial(context.Background(), "ws://localhost:1")
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
}

// TestWriteJSONSendsMessage verifies that WriteJSON marshals and sends a
// message that the server receives as-written.
func TestWriteJSONSendsMessage(t *testing.T) {
	receivedCh := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		receivedCh <- msg

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}
	defer conn.Close()

	type action struct {
		Action string `json:"action"`
		Symbol string `json:"symbol"`
	}

	if err := conn.WriteJSON(action{Action: "subscribe", Symbol: "AAPL"}); err != nil {
		t.Fatalf("unexpected error writing: %v", err)
	}

	select {
	case msg := <-receivedCh:
		var got action
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("failed to parse message: %v", err)
		}
		if got.Action != "subscribe" || got.Symbol != "AAPL" {
			t.Errorf("unexpected message contents: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

// TestWriteJSONWithoutConnection verifies that WriteJSON returns an error
// when called on a Conn whose underlying socket is nil.
func TestWriteJSONWithoutConnection(t *testing.T) {
	conn := &Conn{done: make(chan struct{})}

	err := conn.WriteJSON(map[string]string{"action": "subscribe"})
	if err == nil {
		t.Fatal("expected error when writing without connection, got nil")
	}
	if !strings.Contains(err.Error(), "not established") {
		t.Errorf("expected error about connection not established, got: %s", err.Error())
	}
}

// TestListenReceivesMessages verifies that Listen correctly reads frames
// from the connection and delivers each one to the provided handler.
func TestListenReceivesMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		messages := []string{
			`{"type":"trade","data":[{"s":"MSFT","p":420.50}]}`,
			`{"type":"trade","data":[{"s":"AAPL","p":185.25}]}`,
			`{"type":"trade","data":[{"s":"GOOG","p":140.00}]}`,
		}

		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}

		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}
	defer conn.Close()

	var mu sync.Mutex
	var received []string

	err = conn.Listen(context.Background(), func(msg []byte) {
		mu.Lock()
		received = append(received, string(msg))
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("unexpected error from Listen: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(received) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(received))
	}
	if !strings.Contains(received[0], "MSFT") {
		t.Errorf("expected first message to contain MSFT, got %s", received[0])
	}
}

// TestListenStopsOnClose verifies that the Listen loop terminates cleanly
// when Close is called, allowing the caller to shut down without hanging.
func TestListenStopsOnClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}

	listenDone := make(chan error, 1)
	go func() {
		listenDone <- conn.Listen(context.Background(), func(msg []byte) {})
	}()

	time.Sleep(100 * time.Millisecond)

	if err := conn.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	select {
	case err := <-listenDone:
		if err != nil {
			t.Fatalf("expected Listen to return nil after close, got: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for Listen to return after Close")
	}
}

// TestListenStopsOnContextCancel verifies that the Listen loop terminates
// cleanly when its context is cancelled, without requiring Close.
func TestListenStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())

	listenDone := make(chan error, 1)
	go func() {
		listenDone <- conn.Listen(ctx, func(msg []byte) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-listenDone:
		if err != nil {
			t.Fatalf("expected Listen to return nil after cancel, got: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for Listen to return after cancel")
	}
}

// TestCloseWithoutDial verifies that Close returns nil without error when
// called on a Conn that was never dialed.
func TestCloseWithoutDial(t *testing.T) {
	conn := &Conn{done: make(chan struct{})}

	if err := conn.Close(); err != nil {
		t.Fatalf("expected nil error when closing without connection, got: %v", err)
	}
}

// TestCloseCalledTwice verifies that calling Close multiple times does
// not panic or return an unexpected error.
func TestCloseCalledTwice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, err := Dial(context.Background(), wsURL)
	if err != nil {
		t.Fatalf("unexpected error dialing: %v", err)
	}

	conn.Close()
	conn.Close()
}
