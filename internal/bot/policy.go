package bot

import (
	"strings"
	"sync"
	"sync/atomic"
)

// PolicyTracker counts consecutive agent replies without a question mark,
// per session, to decide when the next reply must be a question.
type PolicyTracker struct {
	maxNoQuestionTurns int
	counters           sync.Map // sessionID -> *atomic.Int32
}

// NewPolicyTracker creates a tracker that forces a question once the
// no-question streak reaches the given threshold.
func NewPolicyTracker(maxNoQuestionTurns int) *PolicyTracker {
	return &PolicyTracker{maxNoQuestionTurns: maxNoQuestionTurns}
}

// ShouldForceQuestion reports whether the next reply must contain a
// question: always for blank user messages, otherwise once the streak
// reaches the threshold.
func (t *PolicyTracker) ShouldForceQuestion(sessionID, userMessage string) bool {
	if strings.TrimSpace(userMessage) == "" {
		return true
	}
	return int(t.counter(sessionID).Load()) >= t.maxNoQuestionTurns
}

// Update adjusts the streak from a finalized reply: reset on a question,
// increment otherwise.
func (t *PolicyTracker) Update(sessionID, reply string) {
	c := t.counter(sessionID)
	if strings.Contains(reply, "?") {
		c.Store(0)
		return
	}
	c.Add(1)
}

// Streak returns the session's current no-question streak.
func (t *PolicyTracker) Streak(sessionID string) int {
	return int(t.counter(sessionID).Load())
}

// Clear drops the session's counter.
func (t *PolicyTracker) Clear(sessionID string) {
	t.counters.Delete(sessionID)
}

func (t *PolicyTracker) counter(sessionID string) *atomic.Int32 {
	if v, ok := t.counters.Load(sessionID); ok {
		return v.(*atomic.Int32)
	}
	v, _ := t.counters.LoadOrStore(sessionID, new(atomic.Int32))
	return v.(*atomic.Int32)
}
