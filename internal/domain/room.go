package domain

// MatchResult is a freshly formed human-human pairing.
type MatchResult struct {
	RoomID   string
	SessionA string
	SessionB string
}

// MatchOutcome is the full result of a match request. When the partner was
// preempted out of an agent room, DisplacedSessionID and DisplacedRoomID
// identify the party that lost its agent pairing so it can be notified.
type MatchOutcome struct {
	Result             MatchResult
	DisplacedSessionID string
	DisplacedRoomID    string
}

// Displaced reports whether this outcome preempted an agent room.
func (o MatchOutcome) Displaced() bool {
	return o.DisplacedSessionID != "" && o.DisplacedRoomID != ""
}

// Stats is a point-in-time snapshot of matchmaking state.
type Stats struct {
	Registered  int `json:"registered"`
	Waiting     int `json:"waiting"`
	ActiveRooms int `json:"activeRooms"`
}
