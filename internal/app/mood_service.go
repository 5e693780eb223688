package app

import (
	"context"
	"fmt"
	"time"

	"mochi-server/internal/model"
	"mochi-server/internal/repository"
)

const (
	MinMoodScore = 1
	MaxMoodScore = 10
)

// MoodLogPublisher hands a mood log to an asynchronous writer.
type MoodLogPublisher interface {
	Publish(ctx context.Context, entry model.MoodLog) error
}

type MoodService struct {
	repo      *repository.MoodLogRepository
	publisher MoodLogPublisher
	now       func() time.Time
}

// NewMoodService writes synchronously when publisher is nil.
func NewMoodService(repo *repository.MoodLogRepository, publisher MoodLogPublisher) *MoodService {
	return &MoodService{repo: repo, publisher: publisher, now: time.Now}
}

func (s *MoodService) Log(ctx context.Context, userID string, score int) (*model.MoodLog, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if score < MinMoodScore || score > MaxMoodScore {
		return nil, fmt.Errorf("%w: score must be between %d and %d", ErrInvalidInput, MinMoodScore, MaxMoodScore)
	}

	entry := &model.MoodLog{
		ID:        model.NewID(),
		UserID:    userID,
		Score:     score,
		Timestamp: s.now().UTC(),
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, *entry); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
		return entry, nil
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return entry, nil
}

func (s *MoodService) List(ctx context.Context, userID string, limit int) ([]model.MoodLog, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	logs, err := s.repo.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return logs, nil
}
