package bot

import (
	"strings"
	"sync"
)

// Plan is the planner's directive for one reply.
type Plan struct {
	Mood          string
	ForceQuestion bool
	CuriosityHook bool
}

type planState struct {
	messageCount  int
	questionCount int
	lastReply     string
}

func (s *planState) mood() string {
	switch {
	case s.messageCount <= 3:
		return "casual"
	case s.messageCount <= 5:
		return "playful"
	case s.messageCount <= 8:
		return "personal"
	default:
		return "deep"
	}
}

// Planner steers the arc of a conversation: the mood deepens as the
// exchange grows, short user messages get a question back, and after a few
// turns the agent starts probing with curiosity hooks.
type Planner struct {
	mu        sync.Mutex
	bySession map[string]*planState
}

// NewPlanner creates an empty planner.
func NewPlanner() *Planner {
	return &Planner{bySession: make(map[string]*planState)}
}

// PlanFor produces the directive for the next reply and advances the
// session's message count.
func (p *Planner) PlanFor(sessionID, userMessage string, noQuestionStreak int) Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := p.state(sessionID)
	state.messageCount++

	return Plan{
		Mood:          state.mood(),
		ForceQuestion: isShortMessage(userMessage) || noQuestionStreak >= 2,
		CuriosityHook: state.messageCount > 6,
	}
}

// OnReply records a finalized agent reply.
func (p *Planner) OnReply(sessionID, reply string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := p.state(sessionID)
	state.lastReply = reply
	if strings.Contains(reply, "?") {
		state.questionCount++
	}
}

// Clear drops the session's planning state.
func (p *Planner) Clear(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.bySession, sessionID)
}

func (p *Planner) state(sessionID string) *planState {
	state, ok := p.bySession[sessionID]
	if !ok {
		state = &planState{}
		p.bySession[sessionID] = state
	}
	return state
}

func isShortMessage(message string) bool {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return true
	}
	return len(strings.Fields(trimmed)) <= 3
}
