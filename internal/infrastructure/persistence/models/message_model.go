package models

import "time"

// MessageModel is the gorm mapping for the messages table.
type MessageModel struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	SessionID        string `gorm:"index;size:64;not null"`
	Sender           string `gorm:"size:16;not null"` // user, assistant
	Content          string `gorm:"type:text;not null"`
	FormattedContent string `gorm:"type:text"` // sanitized HTML, assistant only
	CreatedAt        time.Time
}

func (MessageModel) TableName() string {
	return "messages"
}
