package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Message is immutable once written. Within a session, messages are ordered
// by (Timestamp, ID).
type Message struct {
	ID        ID        `gorm:"type:char(36);primaryKey" json:"id"`
	SessionID ID        `gorm:"type:char(36);not null;index:idx_chat_messages_session_ts,priority:1" json:"session_id"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null;index:idx_chat_messages_session_ts,priority:2" json:"timestamp"`
}

func (Message) TableName() string {
	return "chat_messages"
}
