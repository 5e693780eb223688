package model

import "time"

// Persona describes a conversational personality. Built-in personas come from
// the catalog and have no owner; stored personas are owned by OwnerID.
type Persona struct {
	ID              string    `gorm:"type:char(36);primaryKey" json:"id" yaml:"id"`
	OwnerID         string    `gorm:"column:user_id;size:64;index" json:"owner_id,omitempty" yaml:"-"`
	Name            string    `gorm:"size:64;not null" json:"name" yaml:"name"`
	Tag             string    `gorm:"size:64" json:"tag,omitempty" yaml:"tag"`
	Description     string    `gorm:"type:text;not null" json:"description" yaml:"description"`
	Tone            string    `gorm:"size:255;not null" json:"tone" yaml:"tone"`
	Greeting        string    `gorm:"type:text" json:"greeting,omitempty" yaml:"greeting"`
	Relationship    string    `gorm:"size:128" json:"relationship,omitempty" yaml:"relationship"`
	ForbiddenTopics []string  `gorm:"type:text;serializer:json" json:"forbidden_topics,omitempty" yaml:"forbidden_topics"`
	IsPublic        bool      `gorm:"not null;default:false" json:"is_public" yaml:"-"`
	BuiltIn         bool      `gorm:"-" json:"built_in" yaml:"-"`
	CreatedAt       time.Time `json:"created_at,omitempty" yaml:"-"`
}

// VisibleTo reports whether userID may use the persona.
func (p *Persona) VisibleTo(userID string) bool {
	return p.BuiltIn || p.IsPublic || (p.OwnerID != "" && p.OwnerID == userID)
}
