package bot

import (
	"strconv"
	"sync"
	"testing"
)

func TestMemoryClampLow(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(3)
	for i := 0; i < 20; i++ {
		s.Append("s", RoleUser, "msg "+strconv.Itoa(i))
	}
	got := s.GetRecent("s")
	if len(got) != 10 {
		t.Fatalf("limit 3 should clamp to 10 entries, got %d", len(got))
	}
	if got[0].Content != "msg 10" {
		t.Fatalf("expected oldest surviving entry msg 10, got %q", got[0].Content)
	}
}

func TestMemoryClampHigh(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(50)
	for i := 0; i < 20; i++ {
		s.Append("s", RoleUser, "msg "+strconv.Itoa(i))
	}
	if got := len(s.GetRecent("s")); got != 15 {
		t.Fatalf("limit 50 should clamp to 15 entries, got %d", got)
	}
}

func TestMemoryAppendIgnoresBlankArguments(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(12)
	s.Append("", RoleUser, "hello")
	s.Append("s", "", "hello")
	s.Append("s", RoleUser, "")
	if got := len(s.GetRecent("s")); got != 0 {
		t.Fatalf("expected no entries, got %d", got)
	}
}

func TestMemoryOrderAndClear(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(12)
	s.Append("s", RoleUser, "hi")
	s.Append("s", RoleBot, "hey")
	s.Append("s", RoleUser, "how are you")

	got := s.GetRecent("s")
	if len(got) != 3 || got[0].Content != "hi" || got[2].Content != "how are you" {
		t.Fatalf("unexpected order: %+v", got)
	}

	s.Clear("s")
	if got := s.GetRecent("s"); len(got) != 0 {
		t.Fatalf("expected empty after clear, got %d", len(got))
	}
}

func TestMemoryLastBotReply(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(12)
	if _, ok := s.LastBotReply("s"); ok {
		t.Fatal("expected no bot reply yet")
	}
	s.Append("s", RoleUser, "hi")
	s.Append("s", RoleBot, "hey")
	s.Append("s", RoleUser, "ok")

	got, ok := s.LastBotReply("s")
	if !ok || got != "hey" {
		t.Fatalf("expected hey, got %q (ok=%v)", got, ok)
	}
}

func TestMemoryConcurrentSessions(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(12)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			session := "s" + strconv.Itoa(n)
			for j := 0; j < 100; j++ {
				s.Append(session, RoleUser, "m"+strconv.Itoa(j))
				s.GetRecent(session)
			}
		}(i)
	}
	wg.Wait()
}
