package service

import (
	"context"
	"time"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/model"
)

// Broadcaster is the slice of the connection registry the session managers
// use. Session managers never touch registry internals.
type Broadcaster interface {
	Broadcast(kind broadcast.ChannelKind, key string, p broadcast.Payload)
	ViewerCount(kind broadcast.ChannelKind, key string) int
}

// Authorizer answers the single-writer rule: is this actor the designated
// scorer for the owning entity? Consulted on every mutation, never cached, so
// a revoked privilege takes effect on the next call.
type Authorizer interface {
	IsAuthorizedOwner(ctx context.Context, entityID, actorID string) (bool, error)
}

// RoundStore persists live round sessions and their score entries.
type RoundStore interface {
	// Current returns the latest session row for the account, or
	// errs.ErrSessionNotFound.
	Current(ctx context.Context, accountID string) (*model.LiveRoundSession, error)
	DeleteByAccount(ctx context.Context, accountID string) error
	Create(ctx context.Context, sess *model.LiveRoundSession) error
	UpdateStatus(ctx context.Context, sessionID string, status model.SessionStatus, endedAt *time.Time) error
	UpdateCurrentHole(ctx context.Context, sessionID string, hole int) error
	// UpsertScore replaces by (session, hole).
	UpsertScore(ctx context.Context, score *model.LiveRoundScore) error
	// Scores returns the session's entries ordered by hole.
	Scores(ctx context.Context, sessionID string) ([]model.LiveRoundScore, error)
	// AbandonOlderThan marks non-terminal sessions started before cutoff as
	// abandoned; a nil cutoff abandons all non-terminal sessions.
	AbandonOlderThan(ctx context.Context, cutoff *time.Time) (int64, error)
}

// GameStore persists live team game sessions and their score entries.
type GameStore interface {
	Current(ctx context.Context, gameID string) (*model.LiveGameSession, error)
	DeleteByGame(ctx context.Context, gameID string) error
	Create(ctx context.Context, sess *model.LiveGameSession) error
	UpdateStatus(ctx context.Context, sessionID string, status model.SessionStatus, endedAt *time.Time) error
	UpdateCurrentInning(ctx context.Context, sessionID string, inning int) error
	// UpsertScore replaces by (session, inning, side).
	UpsertScore(ctx context.Context, score *model.LiveGameScore) error
	// Scores returns the session's entries ordered by inning then side.
	Scores(ctx context.Context, sessionID string) ([]model.LiveGameScore, error)
	AbandonOlderThan(ctx context.Context, cutoff *time.Time) (int64, error)
}

// CourseStore looks up static course data for Start validation.
type CourseStore interface {
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	GetTee(ctx context.Context, id string) (*model.CourseTee, error)
}

// GameLookup looks up the scheduled game for Start validation.
type GameLookup interface {
	GetScheduledGame(ctx context.Context, id string) (*model.ScheduledGame, error)
}

// RoundResultStore persists the permanent scorecard built by Finalize.
// Called exactly once per finalized session.
type RoundResultStore interface {
	SaveScorecard(ctx context.Context, card *model.Scorecard) error
}

// GameResultStore persists the permanent game result built by Finalize.
type GameResultStore interface {
	SaveGameResult(ctx context.Context, result *model.GameResult) error
}

// RoundSessionManager is the handler-facing contract of RoundService.
type RoundSessionManager interface {
	Start(ctx context.Context, accountID, actorID string, p RoundParams) (*model.RoundSnapshot, error)
	SubmitScore(ctx context.Context, accountID, actorID string, hole, strokes int) (*model.RoundScoreEntry, error)
	Advance(ctx context.Context, accountID, actorID string, hole int) error
	Pause(ctx context.Context, accountID, actorID string) error
	Resume(ctx context.Context, accountID, actorID string) error
	Finalize(ctx context.Context, accountID, actorID string) error
	Stop(ctx context.Context, accountID, actorID string) error
	Status(ctx context.Context, accountID string) (*model.StatusSummary, error)
	State(ctx context.Context, accountID string) (*model.RoundSnapshot, error)
}

// GameSessionManager is the handler-facing contract of GameService.
type GameSessionManager interface {
	Start(ctx context.Context, gameID, actorID string, p GameParams) (*model.GameSnapshot, error)
	SubmitScore(ctx context.Context, gameID, actorID string, inning int, side model.GameSide, runs int) (*model.GameScoreEntry, error)
	Advance(ctx context.Context, gameID, actorID string, inning int) error
	Finalize(ctx context.Context, gameID, actorID string) error
	Stop(ctx context.Context, gameID, actorID string) error
	Status(ctx context.Context, gameID string) (*model.StatusSummary, error)
	State(ctx context.Context, gameID string) (*model.GameSnapshot, error)
}

// RoundParams are the Start inputs for an individual round.
type RoundParams struct {
	CourseID     string
	TeeID        string
	StartingHole int
	HolesPlayed  int
	DateRecorded time.Time
}

// GameParams are the Start inputs for a team game.
type GameParams struct {
	Innings      int
	DateRecorded time.Time
}
