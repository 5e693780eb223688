package repository

import (
	"fmt"

	"gorm.io/gorm"

	"mochi-server/internal/model"
)

// AutoMigrate creates or updates every table the server uses.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Persona{},
		&model.ChatSession{},
		&model.Message{},
		&model.MoodLog{},
	); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
