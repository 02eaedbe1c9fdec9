package models

import "time"

// SessionModel is the gorm mapping for the sessions table.
type SessionModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Title     string    `gorm:"size:255;not null;default:'New Chat'"`
	ModelName string    `gorm:"size:128;not null"`

	Messages []MessageModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (SessionModel) TableName() string {
	return "sessions"
}
