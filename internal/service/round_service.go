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
	minStrokes = 1
	maxStrokes = 20
	maxHoles   = 18
)

// RoundService manages live individual-round scoring sessions. One entity is
// one golfer account; broadcasts go out on the account channel.
type RoundService struct {
	store   RoundStore
	courses CourseStore
	results RoundResultStore
	auth    Authorizer
	bus     Broadcaster
	log     *zap.Logger
	locks   *keyedMutex
}

// NewRoundService creates the individual-round session manager.
func NewRoundService(store RoundStore, courses CourseStore, results RoundResultStore, auth Authorizer, bus Broadcaster, log *zap.Logger) *RoundService {
	return &RoundService{
		store:   store,
		courses: courses,
		results: results,
		auth:    auth,
		bus:     bus,
		log:     log,
		locks:   newKeyedMutex(),
	}
}

func (s *RoundService) authorize(ctx context.Context, accountID, actorID string) error {
	ok, err := s.auth.IsAuthorizedOwner(ctx, accountID, actorID)
	if err != nil {
		return fmt.Errorf("authorization check: %w", err)
	}
	if !ok {
		return errs.ErrUnauthorized
	}
	return nil
}

// Start creates a new live round session for the account. A non-terminal
// session for the same account rejects the start; a leftover terminal session
// is deleted first.
func (s *RoundService) Start(ctx context.Context, accountID, actorID string, p RoundParams) (*model.RoundSnapshot, error) {
	if err := s.authorize(ctx, accountID, actorID); err != nil {
		return nil, err
	}
	if p.HolesPlayed < 1 || p.HolesPlayed > maxHoles {
		return nil, fmt.Errorf("%w: holes played must be 1-%d", errs.ErrOutOfRange, maxHoles)
	}

	course, err := s.courses.GetCourse(ctx, p.CourseID)
	if err != nil {
		return nil, err
	}
	tee, err := s.courses.GetTee(ctx, p.TeeID)
	if err != nil {
		return nil, err
	}
	if tee.CourseID != course.ID {
		return nil, fmt.Errorf("%w: tee does not belong to course", errs.ErrNotFound)
	}
	if p.StartingHole == 0 {
		p.StartingHole = 1
	}
	if p.StartingHole < 1 || p.StartingHole > course.Holes {
		return nil, fmt.Errorf("%w: starting hole must be 1-%d", errs.ErrOutOfRange, course.Holes)
	}
	if p.DateRecorded.IsZero() {
		p.DateRecorded = time.Now()
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	cur, err := s.store.Current(ctx, accountID)
	switch {
	case err == nil:
		if !model.SessionStatus(cur.Status).Terminal() {
			return nil, errs.ErrAlreadyActive
		}
		if err := s.store.DeleteByAccount(ctx, accountID); err != nil {
			return nil, fmt.Errorf("delete superseded session: %w", err)
		}
	case errors.Is(err, errs.ErrSessionNotFound):
		// first session for this account
	default:
		return nil, err
	}

	sess := &model.LiveRoundSession{
		ID:           uuid.New().String(),
		AccountID:    accountID,
		CourseID:     p.CourseID,
		TeeID:        p.TeeID,
		Status:       string(model.SessionStatusActive),
		CurrentHole:  1,
		StartingHole: p.StartingHole,
		HolesPlayed:  p.HolesPlayed,
		DateRecorded: p.DateRecorded,
		StartedBy:    actorID,
		StartedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelAccount, accountID, broadcast.SessionStartedPayload{
		SessionID: sess.ID,
		EntityID:  accountID,
		StartedBy: actorID,
		StartedAt: sess.StartedAt,
	})
	s.log.Info("round session started",
		zap.String("session_id", sess.ID),
		zap.String("account_id", accountID),
		zap.String("started_by", actorID))

	return s.snapshot(sess, nil), nil
}

// SubmitScore upserts the strokes for one hole of the active session and
// broadcasts the update. Resubmission replaces the prior value.
func (s *RoundService) SubmitScore(ctx context.Context, accountID, actorID string, hole, strokes int) (*model.RoundScoreEntry, error) {
	if err := s.authorize(ctx, accountID, actorID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	sess, err := s.active(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if hole < 1 || hole > sess.HolesPlayed {
		return nil, fmt.Errorf("%w: hole must be 1-%d", errs.ErrOutOfRange, sess.HolesPlayed)
	}
	if strokes < minStrokes || strokes > maxStrokes {
		return nil, fmt.Errorf("%w: strokes must be %d-%d", errs.ErrOutOfRange, minStrokes, maxStrokes)
	}

	entry := &model.LiveRoundScore{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Hole:      hole,
		Strokes:   strokes,
		EnteredBy: actorID,
		EnteredAt: time.Now(),
	}
	if err := s.store.UpsertScore(ctx, entry); err != nil {
		return nil, fmt.Errorf("upsert score: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelAccount, accountID, broadcast.ScoreUpdatePayload{
		Unit:      hole,
		Value:     strokes,
		EnteredBy: actorID,
		Timestamp: entry.EnteredAt,
	})
	return &model.RoundScoreEntry{
		Hole:      entry.Hole,
		Strokes:   entry.Strokes,
		EnteredBy: entry.EnteredBy,
		EnteredAt: entry.EnteredAt,
	}, nil
}

// Advance moves the current-hole marker and broadcasts hole_advanced.
func (s *RoundService) Advance(ctx context.Context, accountID, actorID string, hole int) error {
	if err := s.authorize(ctx, accountID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	sess, err := s.active(ctx, accountID)
	if err != nil {
		return err
	}
	if hole < 1 || hole > sess.HolesPlayed {
		return fmt.Errorf("%w: hole must be 1-%d", errs.ErrOutOfRange, sess.HolesPlayed)
	}
	if err := s.store.UpdateCurrentHole(ctx, sess.ID, hole); err != nil {
		return fmt.Errorf("advance hole: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelAccount, accountID, broadcast.HoleAdvancedPayload{
		Unit:       hole,
		AdvancedBy: actorID,
		Timestamp:  time.Now(),
	})
	return nil
}

// Pause suspends an active session.
func (s *RoundService) Pause(ctx context.Context, accountID, actorID string) error {
	if err := s.authorize(ctx, accountID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	sess, err := s.active(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, sess.ID, model.SessionStatusPaused, nil); err != nil {
		return fmt.Errorf("pause session: %w", err)
	}
	s.bus.Broadcast(broadcast.ChannelAccount, accountID, broadcast.SessionPausedPayload{
		SessionID: sess.ID,
		EntityID:  accountID,
		PausedBy:  actorID,
		PausedAt:  time.Now(),
	})
	return nil
}

// Resume reactivates a paused session.
func (s *RoundService) Resume(ctx context.Context, accountID, actorID string) error {
	if err := s.authorize(ctx, accountID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	sess, err := s.store.Current(ctx, accountID)
	if err != nil {
		return err
	}
	if model.SessionStatus(sess.Status) != model.SessionStatusPaused {
		return errs.ErrSessionNotPaused
	}
	if err := s.store.UpdateStatus(ctx, sess.ID, model.SessionStatusActive, nil); err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	s.bus.Broadcast(broadcast.ChannelAccount, accountID, broadcast.SessionResumedPayload{
		SessionID: sess.ID,
		EntityID:  accountID,
		ResumedBy: actorID,
		ResumedAt: time.Now(),
	})
	return nil
}

// Finalize assembles the recorded holes into a permanent scorecard (missing
// holes default to zero strokes), persists it, and transitions the session to
// finalized. If persistence fails the session stays active and the error is
// surfaced.
func (s *RoundService) Finalize(ctx context.Context, accountID, actorID string) error {
	if err := s.authorize(ctx, accountID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	sess, err := s.active(ctx, accountID)
	if err != nil {
		return err
	}
	scores, err := s.store.Scores(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("load scores: %w", err)
	}
	byHole := make(map[int]model.LiveRoundScore, len(scores))
	for _, sc := range scores {
		byHole[sc.Hole] = sc
	}

	card := &model.Scorecard{
		ID:           uuid.New().String(),
		AccountID:    accountID,
		CourseID:     sess.CourseID,
		TeeID:        sess.TeeID,
		DateRecorded: sess.DateRecorded,
		HolesPlayed:  sess.HolesPlayed,
		RecordedBy:   actorID,
	}
	for hole := 1; hole <= sess.HolesPlayed; hole++ {
		strokes := 0
		if sc, ok := byHole[hole]; ok {
			strokes = sc.Strokes
		}
		card.TotalStrokes += strokes
		card.Holes = append(card.Holes, model.ScorecardHole{
			ID:          uuid.New().String(),
			ScorecardID: card.ID,
			Hole:        hole,
			Strokes:     strokes,
		})
	}

	if err := s.results.SaveScorecard(ctx, card); err != nil {
		return fmt.Errorf("persist final result: %w", err)
	}

	now := time.Now()
	if err := s.store.UpdateStatus(ctx, sess.ID, model.SessionStatusFinalized, &now); err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}

	s.bus.Broadcast(broadcast.ChannelAccount, accountID, broadcast.SessionFinalizedPayload{
		SessionID:   sess.ID,
		EntityID:    accountID,
		FinalizedBy: actorID,
		FinalizedAt: now,
	})
	s.log.Info("round session finalized",
		zap.String("session_id", sess.ID),
		zap.String("account_id", accountID),
		zap.Int("total_strokes", card.TotalStrokes))
	return nil
}

// Stop terminates an active or paused session without persisting a result.
func (s *RoundService) Stop(ctx context.Context, accountID, actorID string) error {
	if err := s.authorize(ctx, accountID, actorID); err != nil {
		return err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	sess, err := s.store.Current(ctx, accountID)
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
	s.bus.Broadcast(broadcast.ChannelAccount, accountID, broadcast.SessionStoppedPayload{
		SessionID: sess.ID,
		EntityID:  accountID,
		StoppedBy: actorID,
		StoppedAt: now,
	})
	return nil
}

// Status is the public, unauthenticated summary read.
func (s *RoundService) Status(ctx context.Context, accountID string) (*model.StatusSummary, error) {
	sess, err := s.store.Current(ctx, accountID)
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
		ViewerCount:      s.bus.ViewerCount(broadcast.ChannelAccount, accountID),
	}, nil
}

// State is the public, unauthenticated full snapshot read. Returns nil when
// no non-terminal session exists.
func (s *RoundService) State(ctx context.Context, accountID string) (*model.RoundSnapshot, error) {
	sess, err := s.store.Current(ctx, accountID)
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
// non-terminal sessions. Independent of the connection-liveness sweep.
func (s *RoundService) CleanupStaleSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	var cutoff *time.Time
	if olderThan > 0 {
		t := time.Now().Add(-olderThan)
		cutoff = &t
	}
	n, err := s.store.AbandonOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("abandon stale round sessions: %w", err)
	}
	if n > 0 {
		s.log.Info("abandoned stale round sessions", zap.Int64("count", n))
	}
	return n, nil
}

// active loads the account's session and requires it to be active.
func (s *RoundService) active(ctx context.Context, accountID string) (*model.LiveRoundSession, error) {
	sess, err := s.store.Current(ctx, accountID)
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

func (s *RoundService) snapshot(sess *model.LiveRoundSession, scores []model.LiveRoundScore) *model.RoundSnapshot {
	snap := &model.RoundSnapshot{
		SessionID:    sess.ID,
		AccountID:    sess.AccountID,
		Status:       model.SessionStatus(sess.Status),
		CourseID:     sess.CourseID,
		TeeID:        sess.TeeID,
		CurrentHole:  sess.CurrentHole,
		StartingHole: sess.StartingHole,
		HolesPlayed:  sess.HolesPlayed,
		DateRecorded: sess.DateRecorded,
		StartedBy:    sess.StartedBy,
		StartedAt:    sess.StartedAt,
		Scores:       make([]model.RoundScoreEntry, 0, len(scores)),
		ViewerCount:  s.bus.ViewerCount(broadcast.ChannelAccount, sess.AccountID),
	}
	for _, sc := range scores {
		snap.Scores = append(snap.Scores, model.RoundScoreEntry{
			Hole:      sc.Hole,
			Strokes:   sc.Strokes,
			EnteredBy: sc.EnteredBy,
			EnteredAt: sc.EnteredAt,
		})
	}
	return snap
}
