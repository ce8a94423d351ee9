package model

import "time"

// SessionStatus represents the lifecycle state of a live scoring session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusFinalized SessionStatus = "finalized"
	SessionStatusStopped   SessionStatus = "stopped"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// Terminal reports whether no further transitions are permitted.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusFinalized, SessionStatusStopped, SessionStatusAbandoned:
		return true
	}
	return false
}

// GameSide distinguishes the two sides of a team game.
type GameSide string

const (
	SideHome GameSide = "home"
	SideAway GameSide = "away"
)

// Valid reports whether the side is one of the two known values.
func (s GameSide) Valid() bool { return s == SideHome || s == SideAway }

// RoundScoreEntry is the API view of one recorded hole.
type RoundScoreEntry struct {
	Hole      int       `json:"hole"`
	Strokes   int       `json:"strokes"`
	EnteredBy string    `json:"entered_by"`
	EnteredAt time.Time `json:"entered_at"`
}

// RoundSnapshot is the full public state of a live round session.
type RoundSnapshot struct {
	SessionID    string            `json:"session_id"`
	AccountID    string            `json:"account_id"`
	Status       SessionStatus     `json:"status"`
	CourseID     string            `json:"course_id"`
	TeeID        string            `json:"tee_id"`
	CurrentHole  int               `json:"current_hole"`
	StartingHole int               `json:"starting_hole"`
	HolesPlayed  int               `json:"holes_played"`
	DateRecorded time.Time         `json:"date_recorded"`
	StartedBy    string            `json:"started_by"`
	StartedAt    time.Time         `json:"started_at"`
	Scores       []RoundScoreEntry `json:"scores"`
	ViewerCount  int               `json:"viewer_count"`
}

// GameScoreEntry is the API view of one recorded inning for a side.
type GameScoreEntry struct {
	Inning    int       `json:"inning"`
	Side      GameSide  `json:"side"`
	Runs      int       `json:"runs"`
	EnteredBy string    `json:"entered_by"`
	EnteredAt time.Time `json:"entered_at"`
}

// GameSnapshot is the full public state of a live team game session.
type GameSnapshot struct {
	SessionID     string           `json:"session_id"`
	GameID        string           `json:"game_id"`
	Status        SessionStatus    `json:"status"`
	CurrentInning int              `json:"current_inning"`
	Innings       int              `json:"innings"`
	DateRecorded  time.Time        `json:"date_recorded"`
	StartedBy     string           `json:"started_by"`
	StartedAt     time.Time        `json:"started_at"`
	Scores        []GameScoreEntry `json:"scores"`
	ViewerCount   int              `json:"viewer_count"`
}

// StatusSummary is the unauthenticated status read for an entity.
type StatusSummary struct {
	HasActiveSession bool   `json:"has_active_session"`
	SessionID        string `json:"session_id,omitempty"`
	ViewerCount      int    `json:"viewer_count,omitempty"`
}

// StartRoundRequest is the body for POST /live/rounds/:account_id/start.
type StartRoundRequest struct {
	ActorID      string    `json:"actor_id" binding:"required"`
	CourseID     string    `json:"course_id" binding:"required"`
	TeeID        string    `json:"tee_id" binding:"required"`
	StartingHole int       `json:"starting_hole"`
	HolesPlayed  int       `json:"holes_played" binding:"required"`
	DateRecorded time.Time `json:"date_recorded"`
}

// SubmitRoundScoreRequest is the body for POST /live/rounds/:account_id/scores.
type SubmitRoundScoreRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Hole    int    `json:"hole" binding:"required"`
	Strokes int    `json:"strokes" binding:"required"`
}

// AdvanceRequest moves the current position marker.
type AdvanceRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Unit    int    `json:"unit" binding:"required"`
}

// ActorRequest carries only the acting user (pause, resume, finalize, stop).
type ActorRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// StartGameRequest is the body for POST /live/games/:game_id/start.
type StartGameRequest struct {
	ActorID      string    `json:"actor_id" binding:"required"`
	Innings      int       `json:"innings" binding:"required"`
	DateRecorded time.Time `json:"date_recorded"`
}

// SubmitGameScoreRequest is the body for POST /live/games/:game_id/scores.
type SubmitGameScoreRequest struct {
	ActorID string   `json:"actor_id" binding:"required"`
	Inning  int      `json:"inning" binding:"required"`
	Side    GameSide `json:"side" binding:"required"`
	Runs    int      `json:"runs"`
}

// IssueTicketRequest is the body for POST /live/tickets.
type IssueTicketRequest struct {
	ChannelKind string `json:"channel_kind" binding:"required"`
	ChannelKey  string `json:"channel_key" binding:"required"`
	Role        string `json:"role" binding:"required"`
	ActorID     string `json:"actor_id" binding:"required"`
}

// IssueTicketResponse returns the single-use ticket and the WS URL to attach.
type IssueTicketResponse struct {
	Ticket    string `json:"ticket"`
	WSURL     string `json:"ws_url"`
	ExpiresIn int    `json:"expires_in"`
}
