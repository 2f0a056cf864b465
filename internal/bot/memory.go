package bot

import (
	"sync"
	"time"
)

const (
	// RoleUser marks a turn sent by the human participant.
	RoleUser = "user"
	// RoleBot marks a turn produced by the agent.
	RoleBot = "bot"

	minMemoryEntries = 10
	maxMemoryEntries = 15
)

// MemoryEntry is one turn in a session's conversation log.
type MemoryEntry struct {
	Role    string
	Content string
	At      time.Time
}

type sessionMemory struct {
	mu      sync.Mutex
	entries []MemoryEntry
}

// MemoryStore keeps a bounded, per-session ordered log of turns. The
// configured limit is clamped to [10,15]; oldest entries are evicted first.
// Each session's log has its own lock, so sessions never contend.
type MemoryStore struct {
	mu        sync.RWMutex
	limit     int
	bySession map[string]*sessionMemory
}

// NewMemoryStore creates a store with the configured entry limit.
func NewMemoryStore(limit int) *MemoryStore {
	if limit < minMemoryEntries {
		limit = minMemoryEntries
	}
	if limit > maxMemoryEntries {
		limit = maxMemoryEntries
	}
	return &MemoryStore{
		limit:     limit,
		bySession: make(map[string]*sessionMemory),
	}
}

// Append records a turn. Ignored if any argument is empty.
func (s *MemoryStore) Append(sessionID, role, content string) {
	if sessionID == "" || role == "" || content == "" {
		return
	}
	mem := s.session(sessionID)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.entries = append(mem.entries, MemoryEntry{Role: role, Content: content, At: time.Now()})
	if n := len(mem.entries) - s.limit; n > 0 {
		mem.entries = append(mem.entries[:0:0], mem.entries[n:]...)
	}
}

// GetRecent returns the session's turns, oldest first.
func (s *MemoryStore) GetRecent(sessionID string) []MemoryEntry {
	s.mu.RLock()
	mem, ok := s.bySession[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	out := make([]MemoryEntry, len(mem.entries))
	copy(out, mem.entries)
	return out
}

// LastBotReply returns the most recent agent turn, if any.
func (s *MemoryStore) LastBotReply(sessionID string) (string, bool) {
	entries := s.GetRecent(sessionID)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == RoleBot {
			return entries[i].Content, true
		}
	}
	return "", false
}

// Clear discards the session's log.
func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySession, sessionID)
}

func (s *MemoryStore) session(sessionID string) *sessionMemory {
	s.mu.RLock()
	mem, ok := s.bySession[sessionID]
	s.mu.RUnlock()
	if ok {
		return mem
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if mem, ok = s.bySession[sessionID]; ok {
		return mem
	}
	mem = &sessionMemory{}
	s.bySession[sessionID] = mem
	return mem
}
