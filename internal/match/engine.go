// Package match implements the matchmaking engine: registered participants,
// an insertion-ordered waiting pool, active room pairings, and preemption of
// agent rooms when a compatible human becomes available.
package match

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/srt/randomchat/internal/domain"
)

// AgentSessionID is the reserved member slot for the conversational agent.
// It is never indexed in the session-to-room map.
const AgentSessionID = "AGENT"

type room struct {
	sessionA string
	sessionB string
}

func (r room) other(sessionID string) string {
	switch sessionID {
	case r.sessionA:
		return r.sessionB
	case r.sessionB:
		return r.sessionA
	}
	return ""
}

type waitingEntry struct {
	sessionID string
	since     time.Time
}

// Engine owns all matchmaking state. Every mutating operation runs under a
// single mutex so the waiting pool, room directory, and agent-room index are
// always observed in a consistent state; a partially applied match could
// otherwise pair one session into two rooms.
type Engine struct {
	mu sync.Mutex

	profiles      map[string]domain.UserProfile
	waiting       []waitingEntry
	roomBySession map[string]string
	rooms         map[string]room

	// Insertion-ordered view of agent rooms keyed by the human occupant,
	// so preemption scans are deterministic.
	agentOrder         []string
	agentRoomBySession map[string]string
}

// NewEngine creates an empty matchmaking engine.
func NewEngine() *Engine {
	return &Engine{
		profiles:           make(map[string]domain.UserProfile),
		roomBySession:      make(map[string]string),
		rooms:              make(map[string]room),
		agentRoomBySession: make(map[string]string),
	}
}

// Register creates or updates the profile for a session and returns its
// anonymous ID. Re-registration updates gender and preference in place but
// always returns the anonymous ID minted on first registration.
func (e *Engine) Register(sessionID string, gender domain.Gender, preference domain.Preference) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.profiles[sessionID]; ok {
		e.profiles[sessionID] = domain.UserProfile{
			Gender:      gender,
			Preference:  preference,
			AnonymousID: existing.AnonymousID,
		}
		return existing.AnonymousID
	}

	anonymousID := "anon-" + uuid.NewString()[:8]
	e.profiles[sessionID] = domain.UserProfile{
		Gender:      gender,
		Preference:  preference,
		AnonymousID: anonymousID,
	}
	slog.Info("Session registered", "session_id", sessionID, "anonymous_id", anonymousID)
	return anonymousID
}

// RequestMatch tries to pair the session with a partner. Candidates are
// scanned in FIFO order: first the waiting pool under strict mutual
// compatibility, then (for directional preferences only) the pool with
// gender relaxed, then agent-room occupants strictly, then relaxed. If
// nothing qualifies the session joins the tail of the waiting pool and the
// second return value is false.
func (e *Engine) RequestMatch(sessionID string) (domain.MatchOutcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	profile, ok := e.profiles[sessionID]
	if !ok {
		return domain.MatchOutcome{}, false
	}
	if _, inRoom := e.roomBySession[sessionID]; inRoom {
		return domain.MatchOutcome{}, false
	}

	e.removeWaiting(sessionID)

	if result, ok := e.scanWaiting(sessionID, profile, domain.Compatible); ok {
		return domain.MatchOutcome{Result: result}, true
	}
	if profile.Preference != domain.PreferenceBoth {
		if result, ok := e.scanWaiting(sessionID, profile, anyGender); ok {
			return domain.MatchOutcome{Result: result}, true
		}
	}

	if outcome, ok := e.scanAgentRooms(sessionID, profile, domain.Compatible); ok {
		return outcome, true
	}
	if profile.Preference != domain.PreferenceBoth {
		if outcome, ok := e.scanAgentRooms(sessionID, profile, anyGender); ok {
			return outcome, true
		}
	}

	e.waiting = append(e.waiting, waitingEntry{sessionID: sessionID, since: time.Now()})
	return domain.MatchOutcome{}, false
}

// AssignAgentRoom pairs a registered, roomless session with the agent
// placeholder and returns the new room ID.
func (e *Engine) AssignAgentRoom(sessionID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.profiles[sessionID]; !ok {
		return "", false
	}
	if _, inRoom := e.roomBySession[sessionID]; inRoom {
		return "", false
	}

	e.removeWaiting(sessionID)
	roomID := "agent-" + uuid.NewString()
	e.rooms[roomID] = room{sessionA: sessionID, sessionB: AgentSessionID}
	e.roomBySession[sessionID] = roomID
	e.agentRoomBySession[sessionID] = roomID
	e.agentOrder = append(e.agentOrder, sessionID)
	slog.Info("Agent room assigned", "session_id", sessionID, "room_id", roomID)
	return roomID, true
}

// LeaveRoom removes the session's room. If the partner was a real session
// its mapping is cleared too and its ID returned for notification; agent
// rooms yield no partner.
func (e *Engine) LeaveRoom(sessionID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaveRoomLocked(sessionID)
}

func (e *Engine) leaveRoomLocked(sessionID string) (string, bool) {
	roomID, ok := e.roomBySession[sessionID]
	if !ok {
		return "", false
	}
	delete(e.roomBySession, sessionID)
	rm, ok := e.rooms[roomID]
	if !ok {
		// The reverse index pointed at a room the directory does not know.
		// That means the two structures diverged under the engine mutex,
		// which should be impossible.
		panic("match: room directory missing entry for " + roomID)
	}
	delete(e.rooms, roomID)
	e.removeAgentRoom(sessionID)

	partnerID := rm.other(sessionID)
	if partnerID != "" && partnerID != AgentSessionID {
		delete(e.roomBySession, partnerID)
		return partnerID, true
	}
	return "", false
}

// CancelSearch removes the session from the waiting pool. No-op if the
// session is absent or already roomed.
func (e *Engine) CancelSearch(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeWaiting(sessionID)
}

// HandleDisconnect tears down all state for a session: waiting-pool entry,
// room membership, and profile. Returns the abandoned human partner, if any.
func (e *Engine) HandleDisconnect(sessionID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.removeWaiting(sessionID)
	partnerID, hadPartner := "", false
	if _, inRoom := e.roomBySession[sessionID]; inRoom {
		partnerID, hadPartner = e.leaveRoomLocked(sessionID)
	}
	delete(e.profiles, sessionID)
	e.removeAgentRoom(sessionID)
	return partnerID, hadPartner
}

// GetRoom returns the room the session currently occupies.
func (e *Engine) GetRoom(sessionID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	roomID, ok := e.roomBySession[sessionID]
	return roomID, ok
}

// IsAgentRoom reports whether one member of the room is the agent.
func (e *Engine) IsAgentRoom(roomID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	rm, ok := e.rooms[roomID]
	if !ok {
		return false
	}
	return rm.sessionA == AgentSessionID || rm.sessionB == AgentSessionID
}

// IsInRoom reports whether the session is a member of the given room.
func (e *Engine) IsInRoom(roomID, sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	rm, ok := e.rooms[roomID]
	if !ok {
		return false
	}
	return rm.sessionA == sessionID || rm.sessionB == sessionID
}

// RoomMembers returns the human members of a room.
func (e *Engine) RoomMembers(roomID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	rm, ok := e.rooms[roomID]
	if !ok {
		return nil
	}
	members := make([]string, 0, 2)
	if rm.sessionA != AgentSessionID {
		members = append(members, rm.sessionA)
	}
	if rm.sessionB != AgentSessionID {
		members = append(members, rm.sessionB)
	}
	return members
}

// IsRegistered reports whether the session has a profile.
func (e *Engine) IsRegistered(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.profiles[sessionID]
	return ok
}

// GetAnonymousID returns the session's public identity.
func (e *Engine) GetAnonymousID(sessionID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	profile, ok := e.profiles[sessionID]
	if !ok {
		return "", false
	}
	return profile.AnonymousID, true
}

// GetStats returns a snapshot of engine counters.
func (e *Engine) GetStats() domain.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Stats{
		Registered:  len(e.profiles),
		Waiting:     len(e.waiting),
		ActiveRooms: len(e.rooms),
	}
}

// StaleWaiting returns sessions that have been waiting longer than the given
// duration, oldest first.
func (e *Engine) StaleWaiting(olderThan time.Duration) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var stale []string
	for _, entry := range e.waiting {
		if entry.since.Before(cutoff) {
			stale = append(stale, entry.sessionID)
		}
	}
	return stale
}

func anyGender(domain.UserProfile, domain.UserProfile) bool { return true }

func (e *Engine) removeWaiting(sessionID string) {
	for i, entry := range e.waiting {
		if entry.sessionID == sessionID {
			e.waiting = append(e.waiting[:i], e.waiting[i+1:]...)
			return
		}
	}
}

func (e *Engine) removeAgentRoom(sessionID string) {
	if _, ok := e.agentRoomBySession[sessionID]; !ok {
		return
	}
	delete(e.agentRoomBySession, sessionID)
	for i, id := range e.agentOrder {
		if id == sessionID {
			e.agentOrder = append(e.agentOrder[:i], e.agentOrder[i+1:]...)
			return
		}
	}
}

func (e *Engine) scanWaiting(sessionID string, profile domain.UserProfile, compatible func(domain.UserProfile, domain.UserProfile) bool) (domain.MatchResult, bool) {
	for i := 0; i < len(e.waiting); i++ {
		otherID := e.waiting[i].sessionID
		if otherID == sessionID {
			continue
		}
		other, ok := e.profiles[otherID]
		if !ok {
			// Profile vanished while queued; drop the stale entry.
			e.waiting = append(e.waiting[:i], e.waiting[i+1:]...)
			i--
			continue
		}
		if !compatible(profile, other) {
			continue
		}
		e.waiting = append(e.waiting[:i], e.waiting[i+1:]...)
		roomID := uuid.NewString()
		e.roomBySession[sessionID] = roomID
		e.roomBySession[otherID] = roomID
		e.rooms[roomID] = room{sessionA: sessionID, sessionB: otherID}
		slog.Info("Match formed", "room_id", roomID, "session_a", sessionID, "session_b", otherID)
		return domain.MatchResult{RoomID: roomID, SessionA: sessionID, SessionB: otherID}, true
	}
	return domain.MatchResult{}, false
}

func (e *Engine) scanAgentRooms(sessionID string, profile domain.UserProfile, compatible func(domain.UserProfile, domain.UserProfile) bool) (domain.MatchOutcome, bool) {
	for i := 0; i < len(e.agentOrder); i++ {
		otherID := e.agentOrder[i]
		if otherID == sessionID {
			continue
		}
		other, ok := e.profiles[otherID]
		if !ok {
			oldRoomID := e.agentRoomBySession[otherID]
			delete(e.agentRoomBySession, otherID)
			delete(e.roomBySession, otherID)
			delete(e.rooms, oldRoomID)
			e.agentOrder = append(e.agentOrder[:i], e.agentOrder[i+1:]...)
			i--
			continue
		}
		if !compatible(profile, other) {
			continue
		}

		oldRoomID := e.agentRoomBySession[otherID]
		delete(e.rooms, oldRoomID)
		delete(e.roomBySession, otherID)
		delete(e.agentRoomBySession, otherID)
		e.agentOrder = append(e.agentOrder[:i], e.agentOrder[i+1:]...)

		roomID := uuid.NewString()
		e.roomBySession[sessionID] = roomID
		e.roomBySession[otherID] = roomID
		e.rooms[roomID] = room{sessionA: sessionID, sessionB: otherID}
		slog.Info("Agent room preempted", "old_room_id", oldRoomID, "room_id", roomID, "session_a", sessionID, "session_b", otherID)
		return domain.MatchOutcome{
			Result:             domain.MatchResult{RoomID: roomID, SessionA: sessionID, SessionB: otherID},
			DisplacedSessionID: otherID,
			DisplacedRoomID:    oldRoomID,
		}, true
	}
	return domain.MatchOutcome{}, false
}
