package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/srt/randomchat/internal/bot"
	"github.com/srt/randomchat/internal/domain"
	"github.com/srt/randomchat/internal/match"
)

// Handler owns the WebSocket endpoint. Each accepted connection becomes one
// anonymous chat session; the read loop dispatches hello/join/message/next/
// leave commands against the matching engine and the reply pipeline.
type Handler struct {
	engine        *match.Engine
	hub           *Hub
	bot           *bot.Service
	allowedOrigin string
	isDev         bool
}

// NewHandler creates the chat WebSocket handler.
func NewHandler(engine *match.Engine, hub *Hub, botSvc *bot.Service, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		engine:        engine,
		hub:           hub,
		bot:           botSvc,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP upgrades the connection and runs the session's read loop until
// the client goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}

	sessionID := uuid.NewString()
	slog.Info("Chat connection accepted", "session_id", sessionID, "ip", r.RemoteAddr)

	h.hub.Register(sessionID, ws)
	defer func() {
		h.handleDisconnect(sessionID)
		h.hub.Unregister(sessionID, ws)
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.readLoop(ctx, ws, sessionID)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "session_id", sessionID)
			} else {
				slog.Debug("WebSocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(sessionID, "Malformed message.")
			continue
		}

		switch msg.Type {
		case "hello":
			h.handleHello(sessionID, msg)
		case "join":
			h.handleJoin(sessionID, msg)
		case "message":
			h.handleMessage(sessionID, msg)
		case "next":
			h.handleNext(sessionID)
		case "leave":
			h.handleLeave(sessionID)
		default:
			slog.Debug("Ignoring unknown message type", "type", msg.Type, "session_id", sessionID)
		}
	}
}

func (h *Handler) handleHello(sessionID string, msg clientMessage) {
	if strings.TrimSpace(msg.ClientID) == "" {
		return
	}
	h.hub.Send(sessionID, Event{Kind: KindHello, Sender: sessionID, Message: msg.ClientID})
}

func (h *Handler) handleJoin(sessionID string, msg clientMessage) {
	gender, genderErr := domain.ParseGender(msg.Gender)
	preference, prefErr := domain.ParsePreference(msg.Preference)
	if genderErr != nil || prefErr != nil {
		h.sendError(sessionID, "Invalid join payload. Provide gender and preference.")
		return
	}

	anonymousID := h.engine.Register(sessionID, gender, preference)
	h.hub.Send(sessionID, Event{Kind: KindIdentity, Message: anonymousID})

	if outcome, ok := h.engine.RequestMatch(sessionID); ok {
		h.notifyMatched(outcome)
	}
}

func (h *Handler) handleMessage(sessionID string, msg clientMessage) {
	if !h.engine.IsRegistered(sessionID) {
		h.sendError(sessionID, "Join first before sending messages.")
		return
	}
	if msg.RoomID == "" || strings.TrimSpace(msg.Message) == "" {
		h.sendError(sessionID, "Invalid message payload.")
		return
	}

	roomID, ok := h.engine.GetRoom(sessionID)
	if !ok || roomID != msg.RoomID {
		h.sendError(sessionID, "You are not in this room.")
		return
	}

	sender, ok := h.engine.GetAnonymousID(sessionID)
	if !ok {
		sender = "anon"
	}
	h.broadcastRoom(roomID, Event{Kind: KindChat, RoomID: roomID, Sender: sender, Message: msg.Message})

	if h.engine.IsAgentRoom(roomID) && h.bot.IsEnabled() {
		h.broadcastRoom(roomID, Event{Kind: KindTyping, RoomID: roomID, Message: "typing..."})
		go h.generateAgentReply(sessionID, roomID, msg.Message)
	}
}

func (h *Handler) handleNext(sessionID string) {
	if !h.engine.IsRegistered(sessionID) {
		h.sendError(sessionID, "Join first before requesting next match.")
		return
	}

	roomID, _ := h.engine.GetRoom(sessionID)
	wasAgentRoom := roomID != "" && h.engine.IsAgentRoom(roomID)

	if partnerID, ok := h.engine.LeaveRoom(sessionID); ok {
		h.hub.Send(partnerID, Event{Kind: KindPartnerNext, RoomID: roomID})
		h.rematch(partnerID)
	}
	if wasAgentRoom {
		h.bot.EndSession(sessionID)
	}

	h.rematch(sessionID)
}

func (h *Handler) handleLeave(sessionID string) {
	if !h.engine.IsRegistered(sessionID) {
		h.sendError(sessionID, "Join first before leaving.")
		return
	}

	h.engine.CancelSearch(sessionID)
	roomID, _ := h.engine.GetRoom(sessionID)
	wasAgentRoom := roomID != "" && h.engine.IsAgentRoom(roomID)

	if partnerID, ok := h.engine.LeaveRoom(sessionID); ok {
		h.hub.Send(partnerID, Event{Kind: KindPartnerLeft, RoomID: roomID})
	}
	if wasAgentRoom {
		h.bot.EndSession(sessionID)
	}
}

// handleDisconnect is the full teardown on connection loss. An abandoned
// human partner is notified and re-matched; if no human is available and
// the reply pipeline is up, the partner is handed to the agent instead.
func (h *Handler) handleDisconnect(sessionID string) {
	roomID, _ := h.engine.GetRoom(sessionID)

	partnerID, hadPartner := h.engine.HandleDisconnect(sessionID)
	h.bot.EndSession(sessionID)
	if !hadPartner {
		return
	}

	h.hub.Send(partnerID, Event{Kind: KindPartnerLeft, RoomID: roomID})
	if outcome, ok := h.engine.RequestMatch(partnerID); ok {
		h.notifyMatched(outcome)
		return
	}
	if h.bot.IsEnabled() {
		if agentRoomID, ok := h.engine.AssignAgentRoom(partnerID); ok {
			h.NotifyAgentAssigned(partnerID, agentRoomID)
		}
	}
}

// NotifyAgentAssigned announces a fresh agent pairing to its human occupant.
// Also used as the agent assigner's callback.
func (h *Handler) NotifyAgentAssigned(sessionID, roomID string) {
	h.hub.Send(sessionID, Event{Kind: KindMatched, RoomID: roomID})
	h.hub.Send(sessionID, Event{Kind: KindSystem, RoomID: roomID, Message: matchFoundNotice})
}

func (h *Handler) rematch(sessionID string) {
	if outcome, ok := h.engine.RequestMatch(sessionID); ok {
		h.notifyMatched(outcome)
	}
}

func (h *Handler) notifyMatched(outcome domain.MatchOutcome) {
	if outcome.Displaced() {
		h.hub.Send(outcome.DisplacedSessionID, Event{Kind: KindPartnerLeft, RoomID: outcome.DisplacedRoomID})
		h.bot.EndSession(outcome.DisplacedSessionID)
	}

	result := outcome.Result
	matched := Event{Kind: KindMatched, RoomID: result.RoomID}
	h.hub.Send(result.SessionA, matched)
	h.hub.Send(result.SessionB, matched)
	h.broadcastRoom(result.RoomID, Event{Kind: KindSystem, RoomID: result.RoomID, Message: matchFoundNotice})
}

// generateAgentReply runs off the read loop so a slow backend never blocks
// other traffic. There is no cancellation tied to the requesting session: a
// reply that completes after the room dissolved is simply dropped because
// the room has no members left to deliver to.
func (h *Handler) generateAgentReply(sessionID, roomID, userMessage string) {
	reply, err := h.bot.GenerateReply(context.Background(), sessionID, userMessage)
	if err != nil {
		h.handleBotFailure(sessionID, roomID)
		return
	}
	h.broadcastRoom(roomID, Event{Kind: KindChat, RoomID: roomID, Sender: h.bot.BotSenderID(), Message: reply})
}

func (h *Handler) handleBotFailure(sessionID, roomID string) {
	slog.Warn("Agent reply failed, dissolving room", "session_id", sessionID, "room_id", roomID)
	h.engine.LeaveRoom(sessionID)
	h.bot.EndSession(sessionID)
	h.hub.Send(sessionID, Event{Kind: KindPartnerLeft, RoomID: roomID})
	h.rematch(sessionID)
	h.sendError(sessionID, "Bot unavailable. Searching for a partner...")
}

func (h *Handler) broadcastRoom(roomID string, event Event) {
	h.hub.SendAll(h.engine.RoomMembers(roomID), event)
}

func (h *Handler) sendError(sessionID, message string) {
	h.hub.Send(sessionID, Event{Kind: KindError, Message: message})
}
