package model

import "time"

// ChatSession is one conversation thread between a user and a persona.
// PersonaID holds either a catalog key or a stored persona ID.
type ChatSession struct {
	ID          ID        `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      string    `gorm:"size:64;not null;index:idx_chat_sessions_user_updated,priority:1" json:"user_id"`
	Title       string    `gorm:"size:64;not null" json:"title"`
	PersonaID   string    `gorm:"size:64;not null" json:"persona_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `gorm:"not null;index:idx_chat_sessions_user_updated,priority:2" json:"last_updated"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
