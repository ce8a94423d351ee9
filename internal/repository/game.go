package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubgreens/live-scoring-service/internal/errs"
	"github.com/clubgreens/live-scoring-service/internal/model"
)

// GameRepository implements service.GameStore over PostgreSQL.
type GameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates the live game session store.
func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// Current returns the latest session row for the scheduled game.
func (r *GameRepository) Current(ctx context.Context, gameID string) (*model.LiveGameSession, error) {
	var sess model.LiveGameSession
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("started_at DESC").
		First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// DeleteByGame removes the game's session rows and their scores.
func (r *GameRepository) DeleteByGame(ctx context.Context, gameID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.LiveGameSession{}).Select("id").Where("game_id = ?", gameID)
		if err := tx.Where("session_id IN (?)", sub).Delete(&model.LiveGameScore{}).Error; err != nil {
			return err
		}
		return tx.Where("game_id = ?", gameID).Delete(&model.LiveGameSession{}).Error
	})
}

// Create inserts a new session row.
func (r *GameRepository) Create(ctx context.Context, sess *model.LiveGameSession) error {
	return r.db.WithContext(ctx).Create(sess).Error
}

// UpdateStatus transitions the session's status, optionally stamping ended_at.
func (r *GameRepository) UpdateStatus(ctx context.Context, sessionID string, status model.SessionStatus, endedAt *time.Time) error {
	updates := map[string]interface{}{"status": string(status)}
	if endedAt != nil {
		updates["ended_at"] = *endedAt
	}
	return r.db.WithContext(ctx).
		Model(&model.LiveGameSession{}).
		Where("id = ?", sessionID).
		Updates(updates).Error
}

// UpdateCurrentInning moves the position marker.
func (r *GameRepository) UpdateCurrentInning(ctx context.Context, sessionID string, inning int) error {
	return r.db.WithContext(ctx).
		Model(&model.LiveGameSession{}).
		Where("id = ?", sessionID).
		Update("current_inning", inning).Error
}

// UpsertScore replaces by (session, inning, side).
func (r *GameRepository) UpsertScore(ctx context.Context, score *model.LiveGameScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "inning"}, {Name: "side"}},
			DoUpdates: clause.AssignmentColumns([]string{"runs", "entered_by", "entered_at"}),
		}).
		Create(score).Error
}

// Scores returns the session's entries ordered by inning then side.
func (r *GameRepository) Scores(ctx context.Context, sessionID string) ([]model.LiveGameScore, error) {
	var scores []model.LiveGameScore
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("inning ASC, side ASC").
		Find(&scores).Error
	return scores, err
}

// AbandonOlderThan marks non-terminal sessions started before cutoff as
// abandoned. A nil cutoff abandons all non-terminal sessions.
func (r *GameRepository) AbandonOlderThan(ctx context.Context, cutoff *time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.LiveGameSession{}).
		Where("status IN ?", []string{string(model.SessionStatusActive), string(model.SessionStatusPaused)})
	if cutoff != nil {
		tx = tx.Where("started_at < ?", *cutoff)
	}
	res := tx.Update("status", string(model.SessionStatusAbandoned))
	return res.RowsAffected, res.Error
}
