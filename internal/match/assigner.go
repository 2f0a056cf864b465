package match

import (
	"context"
	"log/slog"
	"time"
)

const assignerInterval = 2 * time.Second

// AssignedCallback is invoked after the assigner pairs a waiting session
// with the agent, outside the engine's critical section.
type AssignedCallback func(sessionID, roomID string)

// StartAgentAssigner runs a background goroutine that periodically sweeps
// the waiting pool and pairs sessions stuck waiting longer than waitFor with
// the conversational agent, so a search never stalls indefinitely. The
// enabled check is consulted on every sweep because the reply pipeline can
// trip its availability breaker at any time.
func StartAgentAssigner(ctx context.Context, engine *Engine, waitFor time.Duration, enabled func() bool, onAssigned AssignedCallback) {
	ticker := time.NewTicker(assignerInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Agent assigner started", "interval", assignerInterval, "wait_for", waitFor)

		for {
			select {
			case <-ticker.C:
				sweepWaiting(engine, waitFor, enabled, onAssigned)
			case <-ctx.Done():
				slog.Info("Agent assigner shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepWaiting(engine *Engine, waitFor time.Duration, enabled func() bool, onAssigned AssignedCallback) {
	stale := engine.StaleWaiting(waitFor)
	if len(stale) == 0 {
		return
	}
	if !enabled() {
		return
	}

	for _, sessionID := range stale {
		roomID, ok := engine.AssignAgentRoom(sessionID)
		if !ok {
			// Matched or disconnected between the snapshot and now.
			continue
		}
		if onAssigned != nil {
			onAssigned(sessionID, roomID)
		}
	}
}
