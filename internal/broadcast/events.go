package broadcast

import (
	"encoding/json"
	"time"
)

// Payload is one variant of the closed event vocabulary. Every payload is
// immutable once constructed and is serialized exactly once per broadcast.
type Payload interface {
	Event() string
}

// Envelope is the wire shape pushed to clients: {"event": ..., "data": ...}.
type Envelope struct {
	Event string  `json:"event"`
	Data  Payload `json:"data"`
}

// Encode serializes a payload into its wire envelope.
func Encode(p Payload) ([]byte, error) {
	return json.Marshal(Envelope{Event: p.Event(), Data: p})
}

// ConnectedPayload is pushed to a newly attached connection only.
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
	ChannelKey   string `json:"channel_key"`
}

func (ConnectedPayload) Event() string { return "connected" }

// PingPayload is the periodic liveness probe.
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

func (PingPayload) Event() string { return "ping" }

// ViewerCountPayload announces the channel's current connection count.
type ViewerCountPayload struct {
	Count int `json:"count"`
}

func (ViewerCountPayload) Event() string { return "viewer_count" }

// ScorerCountPayload announces the channel's current scorer-role count.
type ScorerCountPayload struct {
	Count int `json:"count"`
}

func (ScorerCountPayload) Event() string { return "scorer_count" }

// SessionStartedPayload announces a new live session on the entity's channel.
type SessionStartedPayload struct {
	SessionID string    `json:"session_id"`
	EntityID  string    `json:"entity_id"`
	StartedBy string    `json:"started_by"`
	StartedAt time.Time `json:"started_at"`
}

func (SessionStartedPayload) Event() string { return "session_started" }

// ScoreUpdatePayload announces a recorded (or replaced) score value.
// Side is set for team games only.
type ScoreUpdatePayload struct {
	Unit      int       `json:"unit"`
	Value     int       `json:"value"`
	Side      string    `json:"side,omitempty"`
	EnteredBy string    `json:"entered_by"`
	Timestamp time.Time `json:"timestamp"`
}

func (ScoreUpdatePayload) Event() string { return "score_update" }

// HoleAdvancedPayload announces the scorer moving to another hole.
type HoleAdvancedPayload struct {
	Unit       int       `json:"unit"`
	AdvancedBy string    `json:"advanced_by"`
	Timestamp  time.Time `json:"timestamp"`
}

func (HoleAdvancedPayload) Event() string { return "hole_advanced" }

// InningAdvancedPayload announces the scorer moving to another inning.
type InningAdvancedPayload struct {
	Unit       int       `json:"unit"`
	AdvancedBy string    `json:"advanced_by"`
	Timestamp  time.Time `json:"timestamp"`
}

func (InningAdvancedPayload) Event() string { return "inning_advanced" }

// SessionPausedPayload announces a paused session.
type SessionPausedPayload struct {
	SessionID string    `json:"session_id"`
	EntityID  string    `json:"entity_id"`
	PausedBy  string    `json:"paused_by"`
	PausedAt  time.Time `json:"paused_at"`
}

func (SessionPausedPayload) Event() string { return "session_paused" }

// SessionResumedPayload announces a resumed session.
type SessionResumedPayload struct {
	SessionID string    `json:"session_id"`
	EntityID  string    `json:"entity_id"`
	ResumedBy string    `json:"resumed_by"`
	ResumedAt time.Time `json:"resumed_at"`
}

func (SessionResumedPayload) Event() string { return "session_resumed" }

// SessionFinalizedPayload announces a finalized session with a persisted
// result.
type SessionFinalizedPayload struct {
	SessionID   string    `json:"session_id"`
	EntityID    string    `json:"entity_id"`
	FinalizedBy string    `json:"finalized_by"`
	FinalizedAt time.Time `json:"finalized_at"`
}

func (SessionFinalizedPayload) Event() string { return "session_finalized" }

// SessionStoppedPayload announces a stopped session (no result persisted).
type SessionStoppedPayload struct {
	SessionID string    `json:"session_id"`
	EntityID  string    `json:"entity_id"`
	StoppedBy string    `json:"stopped_by"`
	StoppedAt time.Time `json:"stopped_at"`
}

func (SessionStoppedPayload) Event() string { return "session_stopped" }

// ShutdownPayload is the terminal event pushed to every connection when the
// process stops.
type ShutdownPayload struct {
	Message string `json:"message"`
}

func (ShutdownPayload) Event() string { return "shutdown" }
