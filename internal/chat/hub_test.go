package chat

import (
	"strconv"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestHub_Register(t *testing.T) {
	h := NewHub()
	conn := &websocket.Conn{}

	h.Register("session-1", conn)

	if got := h.Connected(); got != 1 {
		t.Errorf("expected 1 connection, got %d", got)
	}
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub()
	conn := &websocket.Conn{}

	h.Register("session-1", conn)
	h.Unregister("session-1", conn)

	if got := h.Connected(); got != 0 {
		t.Errorf("expected 0 connections, got %d", got)
	}
}

func TestHub_UnregisterStale(t *testing.T) {
	h := NewHub()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	h.Register("session-1", conn1)

	// Unregistering with a connection that is not current must not drop
	// the live one.
	h.Unregister("session-1", conn2)

	if got := h.Connected(); got != 1 {
		t.Errorf("expected 1 connection, got %d", got)
	}
}

func TestHub_SendToUnknownSessionIsNoOp(t *testing.T) {
	h := NewHub()
	h.Send("nobody", Event{Kind: KindSystem, Message: "hello"})
	h.SendAll([]string{"nobody", "nobody-else"}, Event{Kind: KindSystem})
}

func TestHub_ConcurrentAccess(t *testing.T) {
	h := NewHub()

	go func() {
		for i := 0; i < 1000; i++ {
			h.Register("session-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()

	go func() {
		for i := 0; i < 1000; i++ {
			h.Connected()
		}
	}()

	time.Sleep(100 * time.Millisecond)
}
