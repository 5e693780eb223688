package model

import "time"

type MoodLog struct {
	ID        ID        `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Score     int       `gorm:"not null" json:"score"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}
