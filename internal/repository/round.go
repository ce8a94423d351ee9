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

// RoundRepository implements service.RoundStore over PostgreSQL.
type RoundRepository struct {
	db *gorm.DB
}

// NewRoundRepository creates the live round session store.
func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// Current returns the latest session row for the account.
func (r *RoundRepository) Current(ctx context.Context, accountID string) (*model.LiveRoundSession, error) {
	var sess model.LiveRoundSession
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
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

// DeleteByAccount removes the account's session rows and their scores.
func (r *RoundRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.LiveRoundSession{}).Select("id").Where("account_id = ?", accountID)
		if err := tx.Where("session_id IN (?)", sub).Delete(&model.LiveRoundScore{}).Error; err != nil {
			return err
		}
		return tx.Where("account_id = ?", accountID).Delete(&model.LiveRoundSession{}).Error
	})
}

// Create inserts a new session row.
func (r *RoundRepository) Create(ctx context.Context, sess *model.LiveRoundSession) error {
	return r.db.WithContext(ctx).Create(sess).Error
}

// UpdateStatus transitions the session's status, optionally stamping ended_at.
func (r *RoundRepository) UpdateStatus(ctx context.Context, sessionID string, status model.SessionStatus, endedAt *time.Time) error {
	updates := map[string]interface{}{"status": string(status)}
	if endedAt != nil {
		updates["ended_at"] = *endedAt
	}
	return r.db.WithContext(ctx).
		Model(&model.LiveRoundSession{}).
		Where("id = ?", sessionID).
		Updates(updates).Error
}

// UpdateCurrentHole moves the position marker.
func (r *RoundRepository) UpdateCurrentHole(ctx context.Context, sessionID string, hole int) error {
	return r.db.WithContext(ctx).
		Model(&model.LiveRoundSession{}).
		Where("id = ?", sessionID).
		Update("current_hole", hole).Error
}

// UpsertScore replaces by (session, hole).
func (r *RoundRepository) UpsertScore(ctx context.Context, score *model.LiveRoundScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "hole"}},
			DoUpdates: clause.AssignmentColumns([]string{"strokes", "entered_by", "entered_at"}),
		}).
		Create(score).Error
}

// Scores returns the session's entries ordered by hole.
func (r *RoundRepository) Scores(ctx context.Context, sessionID string) ([]model.LiveRoundScore, error) {
	var scores []model.LiveRoundScore
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("hole ASC").
		Find(&scores).Error
	return scores, err
}

// AbandonOlderThan marks non-terminal sessions started before cutoff as
// abandoned. A nil cutoff abandons all non-terminal sessions.
func (r *RoundRepository) AbandonOlderThan(ctx context.Context, cutoff *time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.LiveRoundSession{}).
		Where("status IN ?", []string{string(model.SessionStatusActive), string(model.SessionStatusPaused)})
	if cutoff != nil {
		tx = tx.Where("started_at < ?", *cutoff)
	}
	res := tx.Update("status", string(model.SessionStatusAbandoned))
	return res.RowsAffected, res.Error
}
