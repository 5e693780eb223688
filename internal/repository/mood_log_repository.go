package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mochi-server/internal/model"
)

type MoodLogRepository struct {
	db *gorm.DB
}

func NewMoodLogRepository(db *gorm.DB) *MoodLogRepository {
	return &MoodLogRepository{db: db}
}

// Create is idempotent on ID so redelivered queue messages do not duplicate.
func (r *MoodLogRepository) Create(ctx context.Context, entry *model.MoodLog) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error; err != nil {
		return fmt.Errorf("create mood log failed: %w", err)
	}
	return nil
}

func (r *MoodLogRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]model.MoodLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []model.MoodLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list mood logs failed: %w", err)
	}
	return logs, nil
}
