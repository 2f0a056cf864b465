// Package chat provides the WebSocket transport for the matchmaking chat:
// a per-session connection hub and the message-loop handler that drives the
// matching engine and the fallback conversation engine.
package chat

// EventKind identifies an outbound event.
type EventKind string

const (
	KindMatched     EventKind = "MATCHED"
	KindPartnerLeft EventKind = "PARTNER_LEFT"
	KindPartnerNext EventKind = "PARTNER_NEXT"
	KindSystem      EventKind = "SYSTEM"
	KindError       EventKind = "ERROR"
	KindIdentity    EventKind = "IDENTITY"
	KindTyping      EventKind = "TYPING"
	KindChat        EventKind = "CHAT"
	KindHello       EventKind = "HELLO"
)

// Event is the wire envelope for everything the server pushes to a client.
type Event struct {
	Kind    EventKind `json:"kind"`
	RoomID  string    `json:"roomId,omitempty"`
	Sender  string    `json:"sender,omitempty"`
	Message string    `json:"message,omitempty"`
}

// clientMessage is the wire envelope for everything a client sends.
type clientMessage struct {
	Type       string `json:"type"`
	ClientID   string `json:"clientId,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Preference string `json:"preference,omitempty"`
	RoomID     string `json:"roomId,omitempty"`
	Message    string `json:"message,omitempty"`
}

const matchFoundNotice = "Match found. Say hi!"
