package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// ErrUnavailable signals that the reply pipeline could not produce a reply.
// The caller is expected to dissolve the agent room and re-enter matching.
var ErrUnavailable = errors.New("reply pipeline unavailable")

const minUnavailableFor = 5 * time.Second

// ServiceConfig holds reply pipeline settings.
type ServiceConfig struct {
	Enabled             bool
	SimilarityThreshold float64
	MaxWords            int
	UnavailableFor      time.Duration
	TypingBase          time.Duration
	TypingPerChar       time.Duration
	Workers             int
}

// Service is the reply pipeline: it turns an inbound user turn into a
// short agent reply, applying similarity and question-forcing retries, and
// trips an availability breaker when the backend fails.
type Service struct {
	cfg       ServiceConfig
	gen       Generator
	personas  *PersonaAssigner
	memory    *MemoryStore
	policy    *PolicyTracker
	planner   *Planner
	questions *QuestionBank
	prompts   *PromptBuilder

	// Breaker: unix-milli timestamp before which the pipeline reports
	// itself disabled. Self-clears once the time passes.
	unavailableUntil atomic.Int64

	// Bounds concurrent backend calls so one slow generation cannot
	// monopolize the process.
	slots chan struct{}
}

// NewService wires the reply pipeline over its collaborators.
func NewService(cfg ServiceConfig, gen Generator, personas *PersonaAssigner, memory *MemoryStore, policy *PolicyTracker, planner *Planner, questions *QuestionBank) *Service {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Service{
		cfg:       cfg,
		gen:       gen,
		personas:  personas,
		memory:    memory,
		policy:    policy,
		planner:   planner,
		questions: questions,
		prompts:   NewPromptBuilder(personas, memory),
		slots:     make(chan struct{}, workers),
	}
}

// IsEnabled reports whether the pipeline can currently produce replies:
// administratively enabled, a backend configured, and the breaker window
// elapsed.
func (s *Service) IsEnabled() bool {
	if !s.cfg.Enabled || s.gen == nil {
		return false
	}
	return time.Now().UnixMilli() >= s.unavailableUntil.Load()
}

// BotSenderID is the public sender identity of agent replies.
func (s *Service) BotSenderID() string {
	return "anon-bot"
}

// GenerateReply runs the full pipeline for one user turn. On success the
// delivered reply has been recorded in memory, the policy counter updated,
// and the typing pace applied. ErrUnavailable means the breaker tripped and
// no reply will come.
func (s *Service) GenerateReply(ctx context.Context, sessionID, userMessage string) (string, error) {
	if !s.IsEnabled() {
		return "", ErrUnavailable
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	streak := s.policy.Streak(sessionID)
	plan := s.planner.PlanFor(sessionID, userMessage, streak)
	forceQuestion := s.policy.ShouldForceQuestion(sessionID, userMessage) || plan.ForceQuestion

	prompt := s.prompts.BuildPrompt(sessionID, userMessage, forceQuestion, plan)
	reply, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Generation failed, tripping breaker", "session_id", sessionID, "error", err)
		s.markUnavailable()
		return "", ErrUnavailable
	}

	if last, ok := s.memory.LastBotReply(sessionID); ok {
		if sim := lexicalSimilarity(last, reply); sim > s.cfg.SimilarityThreshold {
			slog.Debug("Reply too similar to previous, regenerating", "session_id", sessionID, "similarity", sim)
			if retry, retryErr := s.gen.Generate(ctx, prompt); retryErr == nil && strings.TrimSpace(retry) != "" {
				reply = retry
			}
		}
	}

	if forceQuestion && !strings.Contains(reply, "?") {
		questionPrompt := s.prompts.BuildPrompt(sessionID, userMessage, true, plan)
		if retry, retryErr := s.gen.Generate(ctx, questionPrompt); retryErr == nil && strings.TrimSpace(retry) != "" {
			reply = retry
		}
		if !strings.Contains(reply, "?") {
			reply = s.questions.Pick()
		}
	}

	if strings.TrimSpace(reply) == "" {
		s.markUnavailable()
		return "", ErrUnavailable
	}

	reply = TrimToShortReply(reply, s.cfg.MaxWords)
	s.memory.Append(sessionID, RoleUser, userMessage)
	s.memory.Append(sessionID, RoleBot, reply)
	s.policy.Update(sessionID, reply)
	s.planner.OnReply(sessionID, reply)

	s.applyTypingDelay(ctx, reply)
	return reply, nil
}

// Probe requests a single throwaway completion, bypassing session state.
// Used by the diagnostic endpoint.
func (s *Service) Probe(ctx context.Context) (string, error) {
	if !s.IsEnabled() {
		return "", ErrUnavailable
	}
	reply, err := s.gen.Generate(ctx, "Say hello casually")
	if err != nil {
		return "", err
	}
	return reply, nil
}

// EndSession discards all per-session conversation state: persona, memory,
// policy counter, and plan.
func (s *Service) EndSession(sessionID string) {
	s.personas.Clear(sessionID)
	s.memory.Clear(sessionID)
	s.policy.Clear(sessionID)
	s.planner.Clear(sessionID)
}

func (s *Service) markUnavailable() {
	cooldown := s.cfg.UnavailableFor
	if cooldown < minUnavailableFor {
		cooldown = minUnavailableFor
	}
	s.unavailableUntil.Store(time.Now().Add(cooldown).UnixMilli())
	slog.Warn("Reply pipeline marked unavailable", "cooldown", cooldown)
}

// applyTypingDelay paces the reply like a human typist: a fixed base plus a
// per-character increment. Deliberate product behavior, not backend latency.
func (s *Service) applyTypingDelay(ctx context.Context, reply string) {
	delay := s.cfg.TypingBase + time.Duration(len(reply))*s.cfg.TypingPerChar
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// lexicalSimilarity compares two replies by shared lowercase tokens:
// shared / max(1, |a| + |b| - shared). Each token of a counts at most once.
func lexicalSimilarity(a, b string) float64 {
	aw := strings.Fields(strings.ToLower(a))
	bw := strings.Fields(strings.ToLower(b))
	shared := 0
	for _, w := range aw {
		for _, v := range bw {
			if w == v {
				shared++
				break
			}
		}
	}
	total := len(aw) + len(bw) - shared
	if total < 1 {
		total = 1
	}
	return float64(shared) / float64(total)
}
