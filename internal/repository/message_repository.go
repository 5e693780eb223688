package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mochi-server/internal/model"
)

type MessageRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db, now: time.Now}
}

// Append stamps the message with the store clock, never earlier than the last
// message of the same session, and inserts it.
func (r *MessageRepository) Append(ctx context.Context, message *model.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := r.now().UTC()

		var last model.Message
		err := tx.Select("timestamp").
			Where("session_id = ?", message.SessionID).
			Order("timestamp DESC").
			Order("id DESC").
			Take(&last).Error
		switch {
		case err == nil:
			if last.Timestamp.After(ts) {
				ts = last.Timestamp
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if message.ID.IsZero() {
			message.ID = model.NewID()
		}
		message.Timestamp = ts
		return tx.Create(message).Error
	})
	if err != nil {
		return fmt.Errorf("append message failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListBySessionID(ctx context.Context, sessionID model.ID) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}
