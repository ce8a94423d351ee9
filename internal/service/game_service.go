package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubgreens/live-scoring-service/internal/broadcast"
	"github.com/clubgreens/live-scoring-service/internal/errs"
	"github.com/clubgreens/live-scoring-service/internal/model"
)

const (
	maxInnings = 30
	maxRuns    = 99
)

// GameService manages live team-game scoring sessions. One entity is one
// scheduled game; broadcasts go out on the game channel. Authorization is
// against the organizing account's admins. Team sessions have no pause.
type GameService struct {
	store   GameStore
	games   GameLookup
	results GameResultStore
	auth    Authorizer
	bus     Broadcaster
	log     *zap.Logger
	locks   *keyedMutex
}

// NewGameService creates the team-game session manager.
func NewGameService(store GameStore, games GameLookup, results GameResultStore, auth Authorizer, bus Broadcaster, log *zap.Logger) *GameService {
	return &GameService{
		store:   store,
		games:   games,
		results: results,
		auth:    auth,
		bus:     bus,
		log:     log,
		locks:   newKeyedMutex(),
	}
}

func (s *GameService) authorize(ctx context.Context, gameID, actorID string) error {
	ok, err := s.auth.IsAuthorizedOwner(ctx, gameID, actorID)
	if err != nil {
		return fmt.Errorf("authorization check: %w", err)
	}
	if !ok {
		return errs.ErrUnauthorized
	}
	return nil
}

// Start creates a new live session for the scheduled game.
func (s *GameService) Start(ctx context.Context, gameID, actorID string, p GameParams) (*model.GameSnapshot, error) {
	if err := s.authorize(ctx, gameID, actorID); err != nil {
		return nil, err
	}
	if p.Innings < 1 || p.Innings > maxInnings {
		return nil, fmt.Errorf("%w: innings must be 1-%d", errs.ErrOutOfRange, maxInnings)
	}
	if _, err := s.games.GetScheduledGame(ctx, gameID); err != nil {
		return nil, err
	}
	if p.DateRecorded.IsZero() {
		p.DateRecorded = time.Now()
	}

	unlock := s.locks.lock(gameID)
	defer unlock()

	cur, err := s.store.Current(ctx, gameID)
	switch {
	case err == nil:
		if !model.SessionStatus(cur.Status).Terminal() {
			return nil, errs.ErrAlreadyActive
		}
		if err := s.store.DeleteByGame(ctx, gameID); err != nil {
			return nil, fmt.Errorf("delete superseded session: %w", err)
		}
	case errors.Is(err, errs.ErrSessionNotFound):
		// first session for this game
	default:
		return nil, err
	}

	sess := &model.LiveGameSession{
		ID:            uuid.New().String(),
		GameID:        gameID,
		Status:        string(model.SessionStatusActive),
		CurrentInning: 1,
		Innings:       p.Innings,
		DateRecorded:  p.DateRecorded,
		StartedBy:     actorID,
		StartedAt:     time.Now(),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelGame, gameID, broadcast.SessionStartedPayload{
		SessionID: sess.ID,
		EntityID:  gameID,
		StartedBy: actorID,
		StartedAt: sess.StartedAt,
	})
	s.log.Info("game session started",
		zap.String("session_id", sess.ID),
		zap.String("game_id", gameID),
		zap.String("started_by", actorID))

	return s.snapshot(sess, nil), nil
}

// SubmitScore upserts the runs for one inning and side of the active session.
// Resubmission replaces the prior value for that (inning, side).
func (s *GameService) SubmitScore(ctx context.Context, gameID, actorID string, inning int, side model.GameSide, runs int) (*model.GameScoreEntry, error) {
	if err := s.authorize(ctx, gameID, actorID); err != nil {
		return nil, err
	}
	if !side.Valid() {
		return nil, fmt.Errorf("%w: side must be home or away", errs.ErrOutOfRange)
	}

	unlock := s.locks.lock(gameID)
	defer unlock()

	sess, err := s.active(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if inning < 1 || inning > sess.Innings {
		return nil, fmt.Errorf("%w: inning must be 1-%d", errs.ErrOutOfRange, sess.Innings)
	}
	if runs < 0 || runs > maxRuns {
		return nil, fmt.Errorf("%w: runs must be 0-%d", errs.ErrOutOfRange, maxRuns)
	}

	entry := &model.LiveGameScore{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Inning:    inning,
		Side:      string(side),
		Runs:      runs,
		EnteredBy: actorID,
		EnteredAt: time.Now(),
	}
	if err := s.store.UpsertScore(ctx, entry); err != nil {
		return nil, fmt.Errorf("upsert score: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelGame, gameID, broadcast.ScoreUpdatePayload{
		Unit:      inning,
		Value:     runs,
		Side:      string(side),
		EnteredBy: actorID,
		Timestamp: entry.EnteredAt,
	})
	return &model.GameScoreEntry{
		Inning:    entry.Inning,
		Side:      side,
		Runs:      entry.Runs,
		EnteredBy: entry.EnteredBy,
		EnteredAt: entry.EnteredAt,
	}, nil
}

// Advance moves the current-inning marker and broadcasts inning_advanced.
func (s *GameService) Advance(ctx context.Context, gameID, actorID string, inning int) error {
	if err := s.authorize(ctx, gameID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(gameID)
	defer unlock()

	sess, err := s.active(ctx, gameID)
	if err != nil {
		return err
	}
	if inning < 1 || inning > sess.Innings {
		return fmt.Errorf("%w: inning must be 1-%d", errs.ErrOutOfRange, sess.Innings)
	}
	if err := s.store.UpdateCurrentInning(ctx, sess.ID, inning); err != nil {
		return fmt.Errorf("advance inning: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelGame, gameID, broadcast.InningAdvancedPayload{
		Unit:       inning,
		AdvancedBy: actorID,
		Timestamp:  time.Now(),
	})
	return nil
}

// Finalize assembles a full line score (missing inning/side entries default
// to zero runs), persists the game result, and transitions the session to
// finalized. If persistence fails the session stays active.
func (s *GameService) Finalize(ctx context.Context, gameID, actorID string) error {
	if err := s.authorize(ctx, gameID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(gameID)
	defer unlock()

	sess, err := s.active(ctx, gameID)
	if err != nil {
		return err
	}
	scores, err := s.store.Scores(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("load scores: %w", err)
	}
	type lineKey struct {
		inning int
		side   string
	}
	byLine := make(map[lineKey]model.LiveGameScore, len(scores))
	for _, sc := range scores {
		byLine[lineKey{sc.Inning, sc.Side}] = sc
	}

	result := &model.GameResult{
		ID:         uuid.New().String(),
		GameID:     gameID,
		Innings:    sess.Innings,
		RecordedBy: actorID,
	}
	for inning := 1; inning <= sess.Innings; inning++ {
		for _, side := range []model.GameSide{model.SideHome, model.SideAway} {
			runs := 0
			if sc, ok := byLine[lineKey{inning, string(side)}]; ok {
				runs = sc.Runs
			}
			if side == model.SideHome {
				result.HomeRuns += runs
			} else {
				result.AwayRuns += runs
			}
			result.Lines = append(result.Lines, model.GameResultLine{
				ID:       uuid.New().String(),
				ResultID: result.ID,
				Inning:   inning,
				Side:     string(side),
				Runs:     runs,
			})
		}
	}

	if err := s.results.SaveGameResult(ctx, result); err != nil {
		return fmt.Errorf("persist final result: %w", err)
	}

	now := time.Now()
	if err := s.store.UpdateStatus(ctx, sess.ID, model.SessionStatusFinalized, &now); err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelGame, gameID, broadcast.SessionFinalizedPayload{
		SessionID:   sess.ID,
		EntityID:    gameID,
		FinalizedBy: actorID,
		FinalizedAt: now,
	})
	s.log.Info("game session finalized",
		zap.String("session_id", sess.ID),
		zap.String("game_id", gameID),
		zap.Int("home_runs", result.HomeRuns),
		zap.Int("away_runs", result.AwayRuns))
	return nil
}

// Stop terminates an active session without persisting a result.
func (s *GameService) Stop(ctx context.Context, gameID, actorID string) error {
	if err := s.authorize(ctx, gameID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(gameID)
	defer unlock()

	sess, err := s.store.Current(ctx, gameID)
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			return errs.ErrNoActiveSession
		}
		return err
	}
	if model.SessionStatus(sess.Status).Terminal() {
		return errs.ErrNoActiveSession
	}
	now := time.Now()
	if err := s.store.UpdateStatus(ctx, sess.ID, model.SessionStatusStopped, &now); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	s.bus.Broadcast(broadcast.ChannelGame, gameID, broadcast.SessionStoppedPayload{
		SessionID: sess.ID,
		EntityID:  gameID,
		StoppedBy: actorID,
		StoppedAt: now,
	})
	return nil
}

// Status is the public, unauthenticated summary read.
func (s *GameService) Status(ctx context.Context, gameID string) (*model.StatusSummary, error) {
	sess, err := s.store.Current(ctx, gameID)
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			return &model.StatusSummary{}, nil
		}
		return nil, err
	}
	if model.SessionStatus(sess.Status).Terminal() {
		return &model.StatusSummary{}, nil
	}
	return &model.StatusSummary{
		HasActiveSession: true,
		SessionID:        sess.ID,
		ViewerCount:      s.bus.ViewerCount(broadcast.ChannelGame, gameID),
	}, nil
}

// State is the public, unauthenticated full snapshot read. Returns nil when
// no non-terminal session exists.
func (s *GameService) State(ctx context.Context, gameID string) (*model.GameSnapshot, error) {
	sess, err := s.store.Current(ctx, gameID)
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if model.SessionStatus(sess.Status).Terminal() {
		return nil, nil
	}
	scores, err := s.store.Scores(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	return s.snapshot(sess, scores), nil
}

// CleanupStaleSessions marks non-terminal sessions older than the threshold
// as abandoned and returns the count. A zero threshold abandons all
// non-terminal sessions.
func (s *GameService) CleanupStaleSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	var cutoff *time.Time
	if olderThan > 0 {
		t := time.Now().Add(-olderThan)
		cutoff = &t
	}
	n, err := s.store.AbandonOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("abandon stale game sessions: %w", err)
	}
	if n > 0 {
		s.log.Info("abandoned stale game sessions", zap.Int64("count", n))
	}
	return n, nil
}

func (s *GameService) active(ctx context.Context, gameID string) (*model.LiveGameSession, error) {
	sess, err := s.store.Current(ctx, gameID)
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			return nil, errs.ErrNoActiveSession
		}
		return nil, err
	}
	if model.SessionStatus(sess.Status) != model.SessionStatusActive {
		return nil, errs.ErrNoActiveSession
	}
	return sess, nil
}

func (s *GameService) snapshot(sess *model.LiveGameSession, scores []model.LiveGameScore) *model.GameSnapshot {
	snap := &model.GameSnapshot{
		SessionID:     sess.ID,
		GameID:        sess.GameID,
		Status:        model.SessionStatus(sess.Status),
		CurrentInning: sess.CurrentInning,
		Innings:       sess.Innings,
		DateRecorded:  sess.DateRecorded,
		StartedBy:     sess.StartedBy,
		StartedAt:     sess.StartedAt,
		Scores:        make([]model.GameScoreEntry, 0, len(scores)),
		ViewerCount:   s.bus.ViewerCount(broadcast.ChannelGame, sess.GameID),
	}
	for _, sc := range scores {
		snap.Scores = append(snap.Scores, model.GameScoreEntry{
			Inning:    sc.Inning,
			Side:      model.GameSide(sc.Side),
			Runs:      sc.Runs,
			EnteredBy: sc.EnteredBy,
			EnteredAt: sc.EnteredAt,
		})
	}
	return snap
}
