package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clubgreens/live-scoring-service/internal/errs"
	"github.com/clubgreens/live-scoring-service/internal/model"
)

// StaticRepository looks up the static entities referenced when starting a
// session: courses, tees, scheduled games.
type StaticRepository struct {
	db *gorm.DB
}

// NewStaticRepository creates the static entity lookup.
func NewStaticRepository(db *gorm.DB) *StaticRepository {
	return &StaticRepository{db: db}
}

// GetCourse returns a course by id.
func (r *StaticRepository) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: course %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &course, nil
}

// GetTee returns a tee set by id.
func (r *StaticRepository) GetTee(ctx context.Context, id string) (*model.CourseTee, error) {
	var tee model.CourseTee
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tee %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &tee, nil
}

// GetScheduledGame returns a scheduled game by id.
func (r *StaticRepository) GetScheduledGame(ctx context.Context, id string) (*model.ScheduledGame, error) {
	var game model.ScheduledGame
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &game, nil
}

// AccountAuthorizer answers the single-writer rule for individual rounds:
// the actor must be the account's owner or hold its admin role. Queried on
// every mutation, never cached.
type AccountAuthorizer struct {
	db *gorm.DB
}

// NewAccountAuthorizer creates the account-level authorizer.
func NewAccountAuthorizer(db *gorm.DB) *AccountAuthorizer {
	return &AccountAuthorizer{db: db}
}

// IsAuthorizedOwner reports whether actorID may mutate the account's live
// sessions.
func (a *AccountAuthorizer) IsAuthorizedOwner(ctx context.Context, accountID, actorID string) (bool, error) {
	var account model.Account
	if err := a.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: account %s", errs.ErrNotFound, accountID)
		}
		return false, err
	}
	if account.OwnerUserID == actorID {
		return true, nil
	}
	return a.isAdmin(ctx, accountID, actorID)
}

func (a *AccountAuthorizer) isAdmin(ctx context.Context, accountID, actorID string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&model.AccountAdmin{}).
		Where("account_id = ? AND user_id = ?", accountID, actorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GameAuthorizer answers the single-writer rule for team games: the actor
// must be the owner or an admin of the game's organizing account.
type GameAuthorizer struct {
	db       *gorm.DB
	accounts *AccountAuthorizer
}

// NewGameAuthorizer creates the game-level authorizer.
func NewGameAuthorizer(db *gorm.DB) *GameAuthorizer {
	return &GameAuthorizer{db: db, accounts: NewAccountAuthorizer(db)}
}

// IsAuthorizedOwner reports whether actorID may mutate the game's live
// sessions.
func (a *GameAuthorizer) IsAuthorizedOwner(ctx context.Context, gameID, actorID string) (bool, error) {
	var game model.ScheduledGame
	if err := a.db.WithContext(ctx).Where("id = ?", gameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: game %s", errs.ErrNotFound, gameID)
		}
		return false, err
	}
	return a.accounts.IsAuthorizedOwner(ctx, game.AccountID, actorID)
}
