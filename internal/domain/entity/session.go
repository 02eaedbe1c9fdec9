package entity

import (
	"strings"
	"time"
)

// DefaultTitle is the title a session carries until the first user message
// names it.
const DefaultTitle = "New Chat"

// titleMaxLen is the cutoff before the ellipsis marker is appended.
const titleMaxLen = 50

// Session is a persisted conversation.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Title        string    `json:"title"`
	ModelName    string    `json:"model_name"`
	MessageCount int64     `json:"message_count,omitempty"`
}

// DeriveTitle builds a session title from the first user message: the
// content truncated to 50 characters with a "..." marker if longer.
// Truncation counts runes so multi-byte content is never split.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen]) + "..."
	}
	return content
}

// ValidSessionID reports whether id is usable as a session identifier.
func ValidSessionID(id string) bool {
	return strings.TrimSpace(id) != ""
}
