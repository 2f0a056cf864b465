package match

import (
	"sync"
	"testing"
	"time"

	"github.com/srt/randomchat/internal/domain"
)

func TestSweepAssignsAgentToStaleWaiters(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Register("a", domain.GenderMale, domain.PreferenceFemale)
	e.RequestMatch("a")
	time.Sleep(5 * time.Millisecond)

	var mu sync.Mutex
	assigned := make(map[string]string)
	sweepWaiting(e, time.Millisecond, func() bool { return true }, func(sessionID, roomID string) {
		mu.Lock()
		defer mu.Unlock()
		assigned[sessionID] = roomID
	})

	mu.Lock()
	roomID, ok := assigned["a"]
	mu.Unlock()
	if !ok || roomID == "" {
		t.Fatalf("expected agent assignment for a, got %v", assigned)
	}
	if !e.IsAgentRoom(roomID) {
		t.Fatal("assigned room should be an agent room")
	}
}

func TestSweepSkipsWhenDisabled(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Register("a", domain.GenderMale, domain.PreferenceFemale)
	e.RequestMatch("a")
	time.Sleep(5 * time.Millisecond)

	called := false
	sweepWaiting(e, time.Millisecond, func() bool { return false }, func(string, string) {
		called = true
	})

	if called {
		t.Fatal("disabled pipeline must not receive assignments")
	}
	if _, ok := e.GetRoom("a"); ok {
		t.Fatal("waiter should remain unassigned")
	}
}

func TestSweepIgnoresFreshWaiters(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Register("a", domain.GenderMale, domain.PreferenceFemale)
	e.RequestMatch("a")

	sweepWaiting(e, time.Hour, func() bool { return true }, func(string, string) {
		t.Error("fresh waiter should not be assigned")
	})
}
