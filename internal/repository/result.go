package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/clubgreens/live-scoring-service/internal/model"
)

// ResultRepository persists permanent results built by Finalize. Each save is
// a single transaction: the header row and its lines commit together.
type ResultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates the result store.
func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveScorecard writes a finalized round's scorecard and hole lines.
func (r *ResultRepository) SaveScorecard(ctx context.Context, card *model.Scorecard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holes := card.Holes
		card.Holes = nil
		if err := tx.Create(card).Error; err != nil {
			return err
		}
		card.Holes = holes
		if len(holes) == 0 {
			return nil
		}
		return tx.Create(&holes).Error
	})
}

// SaveGameResult writes a finalized game's result and line score.
func (r *ResultRepository) SaveGameResult(ctx context.Context, result *model.GameResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := result.Lines
		result.Lines = nil
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		result.Lines = lines
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}
